package store

import (
	"sort"

	"github.com/halyard-dev/vessel/internal/mattermost"
)

// State tracks a message's delivery status.
type State int

const (
	// StateConfirmed means the server has acknowledged the message.
	StateConfirmed State = iota
	// StatePending means the message was sent optimistically and is
	// awaiting its server copy.
	StatePending
	// StateFailed means the send failed; the user can retry or discard.
	StateFailed
)

// Message is a post plus its local delivery state.
type Message struct {
	mattermost.Post
	State State
}

// pendingWindow is how far apart (in ms) a pending entry and a server post
// may be and still be treated as the same message when the correlation id
// is missing.
const pendingWindow = int64(10_000)

// channelState holds one channel's messages and read tracking. Messages are
// kept ascending by (CreateAt, ID), which is the render order.
type channelState struct {
	phase      Phase
	epoch      uint64
	messages   []Message
	unread     int
	lastReadID string
}

// newestID returns the id of the newest server-confirmed message, or ""
// when the channel holds none. Pending entries have no server id yet.
func (cs *channelState) newestID() string {
	for i := len(cs.messages) - 1; i >= 0; i-- {
		if cs.messages[i].ID != "" {
			return cs.messages[i].ID
		}
	}
	return ""
}

// less orders messages by server timestamp, breaking ties by id so the
// order is total and identical on every client.
func less(a, b Message) bool {
	if a.CreateAt != b.CreateAt {
		return a.CreateAt < b.CreateAt
	}
	return a.ID < b.ID
}

// indexByID returns the position of the message with the given id, or -1.
func (cs *channelState) indexByID(id string) int {
	for i := range cs.messages {
		if cs.messages[i].ID == id && id != "" {
			return i
		}
	}
	return -1
}

// indexByPendingID returns the position of the pending entry with the given
// correlation id, or -1.
func (cs *channelState) indexByPendingID(pendingID string) int {
	if pendingID == "" {
		return -1
	}
	for i := range cs.messages {
		if cs.messages[i].State != StateConfirmed && cs.messages[i].PendingPostID == pendingID {
			return i
		}
	}
	return -1
}

// insert places msg at its sorted position.
func (cs *channelState) insert(msg Message) {
	i := sort.Search(len(cs.messages), func(i int) bool {
		return !less(cs.messages[i], msg)
	})
	cs.messages = append(cs.messages, Message{})
	copy(cs.messages[i+1:], cs.messages[i:])
	cs.messages[i] = msg
}

// remove deletes the message at index i.
func (cs *channelState) remove(i int) {
	cs.messages = append(cs.messages[:i], cs.messages[i+1:]...)
}

// merge folds one confirmed post into the channel. It reports whether the
// post was new. A post that matches an existing id updates it in place; a
// post that matches a pending entry confirms it; anything else is inserted.
func (cs *channelState) merge(post mattermost.Post) bool {
	if i := cs.indexByID(post.ID); i >= 0 {
		if post.UpdateAt >= cs.messages[i].UpdateAt {
			cs.messages[i] = Message{Post: post, State: StateConfirmed}
		}
		return false
	}

	if i := cs.indexByPendingID(post.PendingPostID); i >= 0 {
		cs.remove(i)
		cs.insert(Message{Post: post, State: StateConfirmed})
		return false
	}

	// Correlation id lost in transit. Match a pending entry from the same
	// author with the same text close enough in time.
	for i := range cs.messages {
		m := &cs.messages[i]
		if m.State == StatePending &&
			m.UserID == post.UserID &&
			m.Message == post.Message &&
			abs(m.CreateAt-post.CreateAt) <= pendingWindow {
			cs.remove(i)
			cs.insert(Message{Post: post, State: StateConfirmed})
			return false
		}
	}

	cs.insert(Message{Post: post, State: StateConfirmed})
	return true
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// BeginLoad marks a channel as loading and returns the epoch the caller
// must present when applying the fetched history. A later BeginLoad
// invalidates earlier epochs, which is what discards out-of-order
// responses after rapid channel switches.
func (s *Store) BeginLoad(channelID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.channelState(channelID)
	cs.epoch++
	cs.phase = PhaseLoading
	return cs.epoch
}

// ApplyHistory merges an initial history fetch. It reports whether the
// history was accepted; a stale epoch is dropped without touching state.
// History never changes unread counts.
func (s *Store) ApplyHistory(channelID string, epoch uint64, posts []mattermost.Post) bool {
	s.mu.Lock()
	cs := s.channelState(channelID)
	if cs.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	for _, p := range posts {
		if p.DeleteAt != 0 {
			continue
		}
		cs.merge(p)
	}
	cs.phase = PhaseLive
	s.mu.Unlock()
	s.notify()
	return true
}

// ChannelPhase returns the channel's load phase.
func (s *Store) ChannelPhase(channelID string) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.channelStates[channelID]; ok {
		return cs.phase
	}
	return PhaseClosed
}

// MergeIncoming folds a post from any live source (websocket or poll) into
// its channel. It reports whether the post was new to the store; duplicates
// across sources are ignored. New posts from other users bump the channel's
// unread count unless the channel is currently selected.
func (s *Store) MergeIncoming(channelID string, post mattermost.Post) bool {
	s.mu.Lock()
	cs := s.channelState(channelID)

	if post.DeleteAt != 0 {
		changed := false
		if i := cs.indexByID(post.ID); i >= 0 {
			cs.remove(i)
			changed = true
		}
		s.mu.Unlock()
		if changed {
			s.notify()
		}
		return false
	}

	inserted := cs.merge(post)
	if inserted && post.UserID != s.userID && channelID != s.currentChannel {
		cs.unread++
	}
	s.mu.Unlock()
	s.notify()
	return inserted
}

// ApplyDelete removes a post. It reports whether anything was removed.
func (s *Store) ApplyDelete(channelID, postID string) bool {
	s.mu.Lock()
	cs := s.channelState(channelID)
	i := cs.indexByID(postID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	cs.remove(i)
	s.mu.Unlock()
	s.notify()
	return true
}

// AddPending records an optimistic send. The caller supplies the post with
// its correlation id and local timestamp; it renders immediately in pending
// state and is replaced when the server copy arrives.
func (s *Store) AddPending(channelID string, post mattermost.Post) {
	s.mu.Lock()
	cs := s.channelState(channelID)
	cs.insert(Message{Post: post, State: StatePending})
	s.mu.Unlock()
	s.notify()
}

// ResolvePending replaces a pending entry with its server-confirmed copy.
// If the pending entry is already gone (the websocket copy won the race),
// the confirmed post is merged normally so nothing is lost.
func (s *Store) ResolvePending(channelID, pendingID string, confirmed mattermost.Post) {
	s.mu.Lock()
	cs := s.channelState(channelID)
	if i := cs.indexByPendingID(pendingID); i >= 0 {
		cs.remove(i)
	}
	cs.merge(confirmed)
	s.mu.Unlock()
	s.notify()
}

// FailPending marks a pending entry as failed so the user can see the send
// did not go through.
func (s *Store) FailPending(channelID, pendingID string) {
	s.mu.Lock()
	cs := s.channelState(channelID)
	if i := cs.indexByPendingID(pendingID); i >= 0 {
		cs.messages[i].State = StateFailed
	}
	s.mu.Unlock()
	s.notify()
}

// RemovePending discards a pending or failed entry without sending it.
func (s *Store) RemovePending(channelID, pendingID string) {
	s.mu.Lock()
	cs := s.channelState(channelID)
	if i := cs.indexByPendingID(pendingID); i >= 0 {
		cs.remove(i)
	}
	s.mu.Unlock()
	s.notify()
}

// MarkChannelRead clears a channel's unread count and advances its read
// cursor to the newest message.
func (s *Store) MarkChannelRead(channelID string) {
	s.mu.Lock()
	cs := s.channelState(channelID)
	cs.unread = 0
	if id := cs.newestID(); id != "" {
		cs.lastReadID = id
	}
	s.mu.Unlock()
	s.notify()
}

// LastReadID returns the id of the last message marked read in a channel,
// or "" when nothing has been read yet.
func (s *Store) LastReadID(channelID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.channelStates[channelID]; ok {
		return cs.lastReadID
	}
	return ""
}

// UnreadCount returns a channel's unread count.
func (s *Store) UnreadCount(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.channelStates[channelID]; ok {
		return cs.unread
	}
	return 0
}

// TotalUnread returns the unread count summed over all channels.
func (s *Store) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, cs := range s.channelStates {
		total += cs.unread
	}
	return total
}

// SnapshotMessages returns a copy of a channel's messages in render order.
func (s *Store) SnapshotMessages(channelID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.channelStates[channelID]
	if !ok {
		return nil
	}
	return append([]Message(nil), cs.messages...)
}

// NewestCreateAt returns the newest confirmed timestamp in a channel, used
// as the since parameter for incremental polls. Zero means no history yet.
func (s *Store) NewestCreateAt(channelID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.channelStates[channelID]
	if !ok {
		return 0
	}
	for i := len(cs.messages) - 1; i >= 0; i-- {
		if cs.messages[i].State == StateConfirmed {
			return cs.messages[i].CreateAt
		}
	}
	return 0
}
