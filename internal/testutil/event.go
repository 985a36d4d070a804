package testutil

import (
	"testing"

	"github.com/roach88/remap/internal/event"
)

// MustEvent parses a JSON object into an event or fails the test.
func MustEvent(t testing.TB, data string) *event.Event {
	t.Helper()
	ev, err := event.ParseJSON([]byte(data))
	if err != nil {
		t.Fatalf("MustEvent(%q): %v", data, err)
	}
	return ev
}

// MustCanonical renders an event as canonical JSON or fails the test.
func MustCanonical(t testing.TB, ev *event.Event) string {
	t.Helper()
	data, err := event.MarshalCanonicalEvent(ev)
	if err != nil {
		t.Fatalf("MustCanonical: %v", err)
	}
	return string(data)
}
