// Package main provides a command-line client for the player daemon.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

var (
	app    = kingpin.New("playerctl", "Control client for the player daemon")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()

	// play command
	playCmd     = app.Command("play", "Play a track, replacing the queue")
	playTrackID = playCmd.Arg("track-id", "Track ID").Required().String()
	playQueue   = playCmd.Arg("queue", "Track IDs to queue after it").Strings()

	pauseCmd  = app.Command("pause", "Pause playback")
	resumeCmd = app.Command("resume", "Resume playback")
	nextCmd   = app.Command("next", "Skip to the next track")
	prevCmd   = app.Command("prev", "Go back to the previous track")

	// volume command
	volumeCmd   = app.Command("volume", "Set the volume")
	volumeValue = volumeCmd.Arg("value", "Volume in [0, 1]").Required().Float64()

	// seek command
	seekCmd      = app.Command("seek", "Seek within the current track")
	seekPosition = seekCmd.Arg("position", "Position in seconds").Required().Float64()

	// queue commands
	queueAddCmd     = app.Command("queue", "Append a track to the queue")
	queueAddTrackID = queueAddCmd.Arg("track-id", "Track ID").Required().String()
	clearCmd        = app.Command("clear", "Clear the queue")

	// repeat command
	repeatCmd  = app.Command("repeat", "Set the repeat mode")
	repeatMode = repeatCmd.Arg("mode", "off, all, or one").Required().Enum("off", "all", "one")

	playlistModeCmd = app.Command("playlist-mode", "Toggle playlist mode")
	statusCmd       = app.Command("status", "Show the current player state")
	tracksCmd       = app.Command("tracks", "List catalog tracks")
	watchCmd        = app.Command("watch", "Stream player events")
)

type stateDoc struct {
	State        string     `json:"state"`
	CurrentTrack *trackDoc  `json:"currentTrack"`
	Queue        []trackDoc `json:"queue"`
	History      []trackDoc `json:"history"`
	IsPlaying    bool       `json:"isPlaying"`
	Volume       float64    `json:"volume"`
	Progress     float64    `json:"progressSeconds"`
	Duration     float64    `json:"durationSeconds"`
	RepeatMode   string     `json:"repeatMode"`
	PlaylistMode bool       `json:"playlistModeEnabled"`
}

type trackDoc struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Duration float64 `json:"durationSec"`
	Playable bool    `json:"playable"`
}

type eventDoc struct {
	SequenceNo uint64   `json:"sequenceNo"`
	Type       string   `json:"type"`
	Condition  string   `json:"condition"`
	State      stateDoc `json:"state"`
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case playCmd.FullCommand():
		printState(post("/api/player/play", map[string]any{
			"trackId":  *playTrackID,
			"queueIds": *playQueue,
		}))
	case pauseCmd.FullCommand():
		printState(post("/api/player/pause", nil))
	case resumeCmd.FullCommand():
		printState(post("/api/player/resume", nil))
	case nextCmd.FullCommand():
		printState(post("/api/player/next", nil))
	case prevCmd.FullCommand():
		printState(post("/api/player/previous", nil))
	case volumeCmd.FullCommand():
		printState(post("/api/player/volume", map[string]any{"volume": *volumeValue}))
	case seekCmd.FullCommand():
		printState(post("/api/player/seek", map[string]any{"position": *seekPosition}))
	case queueAddCmd.FullCommand():
		printState(post("/api/player/queue", map[string]any{"trackId": *queueAddTrackID}))
	case clearCmd.FullCommand():
		printState(request(http.MethodDelete, "/api/player/queue", nil))
	case repeatCmd.FullCommand():
		printState(post("/api/player/repeat", map[string]any{"mode": *repeatMode}))
	case playlistModeCmd.FullCommand():
		printState(post("/api/player/playlist-mode", nil))
	case statusCmd.FullCommand():
		printState(request(http.MethodGet, "/api/player/state", nil))
	case tracksCmd.FullCommand():
		listTracks()
	case watchCmd.FullCommand():
		watch()
	}
}

func post(path string, body any) []byte {
	return request(http.MethodPost, path, body)
}

func request(method, path string, body any) []byte {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, *server+path, reader)
	if err != nil {
		fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatal(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Error (%d): %s\n", resp.StatusCode, strings.TrimSpace(string(data)))
		os.Exit(1)
	}
	return data
}

func printState(data []byte) {
	var state stateDoc
	if err := json.Unmarshal(data, &state); err != nil {
		fatal(err)
	}

	fmt.Printf("State: %s\n", state.State)
	if state.CurrentTrack != nil {
		fmt.Printf("Now:   %s - %s [%s]\n", state.CurrentTrack.Artist, state.CurrentTrack.Title, state.CurrentTrack.ID)
		fmt.Printf("Pos:   %.1fs / %.1fs\n", state.Progress, state.Duration)
	}
	fmt.Printf("Vol:   %.2f  Repeat: %s  Playlist mode: %v\n", state.Volume, state.RepeatMode, state.PlaylistMode)
	if len(state.Queue) > 0 {
		fmt.Println("Queue:")
		for i, t := range state.Queue {
			fmt.Printf("  %d. %s - %s [%s]\n", i+1, t.Artist, t.Title, t.ID)
		}
	}
}

func listTracks() {
	data := request(http.MethodGet, "/api/tracks", nil)

	var tracks []trackDoc
	if err := json.Unmarshal(data, &tracks); err != nil {
		fatal(err)
	}

	for _, t := range tracks {
		marker := " "
		if !t.Playable {
			marker = "!"
		}
		fmt.Printf("%s %-20s %s - %s (%.0fs)\n", marker, t.ID, t.Artist, t.Title, t.Duration)
	}
}

func watch() {
	wsURL := strings.Replace(*server, "http", "ws", 1) + "/api/player/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		fatal(err)
	}
	defer conn.Close()

	fmt.Println("Watching player events. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		conn.Close()
		os.Exit(0)
	}()

	for {
		var ev eventDoc
		if err := conn.ReadJSON(&ev); err != nil {
			fmt.Printf("Stream closed: %v\n", err)
			return
		}
		printEvent(ev)
	}
}

func printEvent(ev eventDoc) {
	fmt.Printf("\n[%d] %s", ev.SequenceNo, strings.ToUpper(ev.Type))
	if ev.Condition != "" {
		fmt.Printf(" (%s)", ev.Condition)
	}
	fmt.Println()

	if ev.State.CurrentTrack != nil {
		fmt.Printf("  %s - %s  %.1fs/%.1fs\n",
			ev.State.CurrentTrack.Artist, ev.State.CurrentTrack.Title,
			ev.State.Progress, ev.State.Duration)
	}
	fmt.Printf("  playing=%v volume=%.2f repeat=%s queue=%d\n",
		ev.State.IsPlaying, ev.State.Volume, ev.State.RepeatMode, len(ev.State.Queue))
}

func fatal(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}
