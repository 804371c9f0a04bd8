package actions

import (
	"context"
	"strings"
	"testing"
)

func TestMuxDispatch(t *testing.T) {
	ctx := context.Background()
	m := NewMux()

	var gotQuery string
	m.Handle(KindMedia, ExecutorFunc(func(_ context.Context, q string) bool {
		gotQuery = q
		return true
	}))

	if !m.Perform(ctx, KindMedia, "lofi beats") {
		t.Fatal("Perform = false")
	}
	if gotQuery != "lofi beats" {
		t.Fatalf("query = %q", gotQuery)
	}

	// Unregistered kind is a failed action, not a panic.
	if m.Perform(ctx, KindSearch, "anything") {
		t.Fatal("unregistered kind reported success")
	}
}

func TestBrowserExecutorsBuildURLs(t *testing.T) {
	ctx := context.Background()
	var opened []string
	orig := openURL
	openURL = func(_ context.Context, u string) error {
		opened = append(opened, u)
		return nil
	}
	t.Cleanup(func() { openURL = orig })

	if !(MediaPlayer{}).Perform(ctx, "lofi beats") {
		t.Fatal("MediaPlayer.Perform = false")
	}
	if !(WebSearch{}).Perform(ctx, "go generics") {
		t.Fatal("WebSearch.Perform = false")
	}

	if len(opened) != 2 {
		t.Fatalf("opened %d URLs, want 2", len(opened))
	}
	if !strings.Contains(opened[0], "youtube.com") || !strings.Contains(opened[0], "lofi+beats") {
		t.Fatalf("media URL = %q", opened[0])
	}
	if !strings.Contains(opened[1], "google.com") || !strings.Contains(opened[1], "go+generics") {
		t.Fatalf("search URL = %q", opened[1])
	}
}

func TestExecutorsRejectEmptyQuery(t *testing.T) {
	ctx := context.Background()
	if (MediaPlayer{}).Perform(ctx, "") {
		t.Fatal("empty media query reported success")
	}
	if (WebSearch{}).Perform(ctx, "") {
		t.Fatal("empty search query reported success")
	}
}
