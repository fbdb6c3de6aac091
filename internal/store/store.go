// Package store is the single source of truth for session, vessel, channel
// and message state. REST fetches, the poller and the websocket stream all
// feed into it; the UI only ever renders snapshots taken from it.
package store

import (
	"sync"

	"github.com/halyard-dev/vessel/internal/mattermost"
)

// Phase tracks where a channel is in its load lifecycle.
type Phase int

const (
	// PhaseClosed means there is no live subscription: either history was
	// never requested or the channel has been deselected.
	PhaseClosed Phase = iota
	// PhaseLoading means an initial history fetch is in flight.
	PhaseLoading
	// PhaseLive means history is applied and incremental merges keep the
	// channel current.
	PhaseLive
)

// Store holds all client state behind one mutex. Every mutation notifies
// the registered onChange callback (outside the lock) so the UI can redraw.
type Store struct {
	mu sync.Mutex

	userID   string
	username string

	vessels       []mattermost.Team
	currentVessel string

	channels       []mattermost.Channel
	currentChannel string

	channelStates map[string]*channelState

	onChange func()
}

// New returns an empty store. onChange may be nil.
func New(onChange func()) *Store {
	return &Store{
		channelStates: make(map[string]*channelState),
		onChange:      onChange,
	}
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// SetSession records the authenticated user's identity.
func (s *Store) SetSession(userID, username string) {
	s.mu.Lock()
	s.userID = userID
	s.username = username
	s.mu.Unlock()
	s.notify()
}

// UserID returns the authenticated user's id, or "" when logged out.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Logout clears all session, vessel, channel and message state.
func (s *Store) Logout() {
	s.mu.Lock()
	s.userID = ""
	s.username = ""
	s.vessels = nil
	s.currentVessel = ""
	s.channels = nil
	s.currentChannel = ""
	s.channelStates = make(map[string]*channelState)
	s.mu.Unlock()
	s.notify()
}

// SetVessels replaces the vessel list.
func (s *Store) SetVessels(vessels []mattermost.Team) {
	s.mu.Lock()
	s.vessels = append([]mattermost.Team(nil), vessels...)
	s.mu.Unlock()
	s.notify()
}

// Vessels returns a copy of the vessel list.
func (s *Store) Vessels() []mattermost.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mattermost.Team(nil), s.vessels...)
}

// SelectVessel switches the active vessel. The channel list is cleared until
// the caller loads the new vessel's channels; per-channel message state is
// kept so switching back is instant.
func (s *Store) SelectVessel(id string) {
	s.mu.Lock()
	if s.currentVessel == id {
		s.mu.Unlock()
		return
	}
	s.currentVessel = id
	s.channels = nil
	s.currentChannel = ""
	s.mu.Unlock()
	s.notify()
}

// CurrentVessel returns the active vessel id, or "" when none is selected.
func (s *Store) CurrentVessel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentVessel
}

// SetChannels replaces the channel list for the active vessel.
func (s *Store) SetChannels(channels []mattermost.Channel) {
	s.mu.Lock()
	s.channels = append([]mattermost.Channel(nil), channels...)
	s.mu.Unlock()
	s.notify()
}

// Channels returns a copy of the active vessel's channel list.
func (s *Store) Channels() []mattermost.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mattermost.Channel(nil), s.channels...)
}

// ChannelByID returns the channel with the given id from the active vessel.
func (s *Store) ChannelByID(id string) (mattermost.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return mattermost.Channel{}, false
}

// SelectChannel switches the active channel. Selecting a channel marks it
// read locally; the caller is responsible for telling the server. The
// previously selected channel's subscription drops back to Closed; its
// messages stay cached and the next selection reloads under a fresh epoch.
func (s *Store) SelectChannel(id string) {
	s.mu.Lock()
	if prev := s.currentChannel; prev != "" && prev != id {
		if cs, ok := s.channelStates[prev]; ok {
			cs.phase = PhaseClosed
		}
	}
	s.currentChannel = id
	if id != "" {
		cs := s.channelState(id)
		cs.unread = 0
		if newest := cs.newestID(); newest != "" {
			cs.lastReadID = newest
		}
	}
	s.mu.Unlock()
	s.notify()
}

// CurrentChannel returns the active channel id, or "" when none is selected.
func (s *Store) CurrentChannel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentChannel
}

// channelState returns the per-channel state, creating it lazily so that
// events for channels the user has never opened still accumulate.
// Callers must hold s.mu.
func (s *Store) channelState(id string) *channelState {
	cs, ok := s.channelStates[id]
	if !ok {
		cs = &channelState{}
		s.channelStates[id] = cs
	}
	return cs
}
