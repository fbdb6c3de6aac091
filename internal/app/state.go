package app

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/halyard-dev/vessel/internal/consts"
)

// lastState remembers the selection to restore on the next start.
type lastState struct {
	VesselID  string `json:"vessel_id"`
	ChannelID string `json:"channel_id"`
}

func stateFilePath() string {
	return filepath.Join(consts.CacheDir, "last_state.json")
}

// loadLastState reads the persisted selection. A missing or corrupt file
// yields the zero value; the caller falls back to defaults.
func loadLastState() lastState {
	return loadLastStateFrom(stateFilePath())
}

func loadLastStateFrom(path string) lastState {
	var st lastState
	data, err := os.ReadFile(path)
	if err != nil {
		return st
	}
	_ = json.Unmarshal(data, &st)
	return st
}

// saveLastState persists the selection. Failures are ignored; this is a
// convenience, not state the client depends on.
func saveLastState(st lastState) {
	saveLastStateTo(stateFilePath(), st)
}

func saveLastStateTo(path string, st lastState) {
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o600)
}
