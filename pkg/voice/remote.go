package voice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// listenRequest asks the recognizer daemon for one utterance.
type listenRequest struct {
	TimeoutMS int64 `json:"timeout_ms"`
}

// listenResult is the daemon's answer. OK is false on silence or
// mis-recognition.
type listenResult struct {
	Text string `json:"text"`
	OK   bool   `json:"ok"`
}

// RemoteRecognizer is a Listener backed by a speech-recognition daemon
// reachable over a websocket. The daemon owns the microphone and the
// recognition model; this client only exchanges small JSON frames.
//
// Connection failures are absorbed: a failed listen reports silence and
// the next call redials. The listen loop never sees an error.
type RemoteRecognizer struct {
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewRemoteRecognizer creates a client for the daemon at url
// (e.g. "ws://127.0.0.1:8765/listen"). No connection is made until the
// first Listen call.
func NewRemoteRecognizer(url string) *RemoteRecognizer {
	return &RemoteRecognizer{
		url:    url,
		dialer: websocket.DefaultDialer,
	}
}

// Listen requests one utterance from the daemon, waiting at most timeout
// plus a small grace for the round trip.
func (r *RemoteRecognizer) Listen(ctx context.Context, timeout time.Duration) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, err := r.connLocked(ctx)
	if err != nil {
		slog.Warn("voice: recognizer dial failed", "url", r.url, "err", err)
		return "", false
	}

	if err := conn.WriteJSON(listenRequest{TimeoutMS: timeout.Milliseconds()}); err != nil {
		r.dropLocked()
		return "", false
	}

	conn.SetReadDeadline(time.Now().Add(timeout + 2*time.Second))
	var res listenResult
	if err := conn.ReadJSON(&res); err != nil {
		r.dropLocked()
		return "", false
	}
	if !res.OK || res.Text == "" {
		return "", false
	}
	return res.Text, true
}

// Close shuts down the daemon connection if one is open.
func (r *RemoteRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

func (r *RemoteRecognizer) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if r.conn != nil {
		return r.conn, nil
	}
	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return nil, err
	}
	r.conn = conn
	return conn, nil
}

func (r *RemoteRecognizer) dropLocked() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}
