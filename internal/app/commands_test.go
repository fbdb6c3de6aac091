package app

import (
	"path/filepath"
	"testing"

	"github.com/halyard-dev/vessel/internal/mattermost"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in  string
		cmd string
		arg string
		ok  bool
	}{
		{"/join town-square", "join", "town-square", true},
		{"/JOIN town-square", "join", "town-square", true},
		{"/create My New Channel", "create", "My New Channel", true},
		{"/logout", "logout", "", true},
		{"/help", "help", "", true},
		{"/", "", "", false},
		{"/   ", "", "", false},
		{"no slash", "", "", false},
	}

	for _, tt := range tests {
		cmd, arg, ok := parseCommand(tt.in)
		if cmd != tt.cmd || arg != tt.arg || ok != tt.ok {
			t.Errorf("parseCommand(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, cmd, arg, ok, tt.cmd, tt.arg, tt.ok)
		}
	}
}

func TestParseCreateArg(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		chType string
	}{
		{"dev", "dev", mattermost.ChannelOpen},
		{"war room --private", "war room", mattermost.ChannelPrivate},
		{"--private", "", mattermost.ChannelPrivate},
	}

	for _, tt := range tests {
		name, chType := parseCreateArg(tt.in)
		if name != tt.name || chType != tt.chType {
			t.Errorf("parseCreateArg(%q) = (%q, %q), want (%q, %q)",
				tt.in, name, chType, tt.name, tt.chType)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Town Square", "town-square"},
		{"dev", "dev"},
		{"  Spaced Out  ", "spaced-out"},
		{"Weird!@#Chars", "weirdchars"},
		{"under_score", "under_score"},
	}

	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLastStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_state.json")

	st := lastState{VesselID: "v1", ChannelID: "c1"}
	saveLastStateTo(path, st)
	if got := loadLastStateFrom(path); got != st {
		t.Errorf("loadLastStateFrom = %+v, want %+v", got, st)
	}
}

func TestLastStateMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	if got := loadLastStateFrom(path); got != (lastState{}) {
		t.Errorf("missing file yielded %+v, want zero value", got)
	}
}
