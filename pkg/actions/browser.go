package actions

import (
	"context"
	"log/slog"
	"net/url"
	"os/exec"
	"runtime"
)

// openURL launches the system browser for a URL. The command is started,
// not awaited; the browser outlives the action.
var openURL = func(ctx context.Context, u string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", u)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", u)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", u)
	}
	return cmd.Start()
}

// MediaPlayer plays media by opening a video search for the query in the
// system browser.
type MediaPlayer struct{}

func (MediaPlayer) Perform(ctx context.Context, query string) bool {
	if query == "" {
		return false
	}
	u := "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
	if err := openURL(ctx, u); err != nil {
		slog.Warn("actions: media playback failed", "query", query, "err", err)
		return false
	}
	return true
}

// WebSearch opens a web search for the query in the system browser.
type WebSearch struct{}

func (WebSearch) Perform(ctx context.Context, query string) bool {
	if query == "" {
		return false
	}
	u := "https://www.google.com/search?q=" + url.QueryEscape(query)
	if err := openURL(ctx, u); err != nil {
		slog.Warn("actions: web search failed", "query", query, "err", err)
		return false
	}
	return true
}
