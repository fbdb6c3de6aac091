package store

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/halyard-dev/vessel/internal/mattermost"
)

func post(id string, createAt int64) mattermost.Post {
	return mattermost.Post{
		ID:        id,
		ChannelID: "ch1",
		UserID:    "other",
		CreateAt:  createAt,
		UpdateAt:  createAt,
		Message:   "msg " + id,
	}
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeIncomingIsIdempotent(t *testing.T) {
	s := New(nil)
	p := post("p1", 100)

	if !s.MergeIncoming("ch1", p) {
		t.Error("first merge should report a new post")
	}
	if s.MergeIncoming("ch1", p) {
		t.Error("second merge of the same post should report a duplicate")
	}
	if got := len(s.SnapshotMessages("ch1")); got != 1 {
		t.Errorf("message count = %d, want 1", got)
	}
}

func TestDedupAcrossSources(t *testing.T) {
	// The same post arrives via history fetch, websocket and poll.
	s := New(nil)
	p := post("p1", 100)

	epoch := s.BeginLoad("ch1")
	s.ApplyHistory("ch1", epoch, []mattermost.Post{p})
	s.MergeIncoming("ch1", p)
	s.MergeIncoming("ch1", p)

	if got := len(s.SnapshotMessages("ch1")); got != 1 {
		t.Errorf("message count = %d, want 1", got)
	}
}

func TestOrderIsByTimestampThenID(t *testing.T) {
	s := New(nil)
	// Arrive out of order, with a timestamp tie between p2 and p4.
	for _, p := range []mattermost.Post{
		post("p3", 300),
		post("p1", 100),
		post("p4", 200),
		post("p2", 200),
	} {
		s.MergeIncoming("ch1", p)
	}

	want := []string{"p1", "p2", "p4", "p3"}
	if got := ids(s.SnapshotMessages("ch1")); !equalIDs(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestOrderIsArrivalIndependent(t *testing.T) {
	posts := make([]mattermost.Post, 20)
	for i := range posts {
		posts[i] = post(fmt.Sprintf("p%02d", i), int64(100*(i/2))) // ties everywhere
	}

	var want []string
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]mattermost.Post(nil), posts...)
		rand.New(rand.NewSource(int64(trial))).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		s := New(nil)
		for _, p := range shuffled {
			s.MergeIncoming("ch1", p)
		}
		got := ids(s.SnapshotMessages("ch1"))
		if !sort.StringsAreSorted(got) {
			t.Fatalf("trial %d: not sorted: %v", trial, got)
		}
		if want == nil {
			want = got
			continue
		}
		if !equalIDs(got, want) {
			t.Errorf("trial %d: order %v differs from %v", trial, got, want)
		}
	}
}

func TestNoCrossChannelLeakage(t *testing.T) {
	s := New(nil)
	s.MergeIncoming("ch1", post("p1", 100))

	p2 := post("p2", 200)
	p2.ChannelID = "ch2"
	s.MergeIncoming("ch2", p2)

	if got := ids(s.SnapshotMessages("ch1")); !equalIDs(got, []string{"p1"}) {
		t.Errorf("ch1 = %v", got)
	}
	if got := ids(s.SnapshotMessages("ch2")); !equalIDs(got, []string{"p2"}) {
		t.Errorf("ch2 = %v", got)
	}
}

func TestStaleHistoryIsDropped(t *testing.T) {
	s := New(nil)

	// The user opens ch1, then switches away and back before the first
	// fetch lands. Only the response for the latest epoch may apply.
	stale := s.BeginLoad("ch1")
	fresh := s.BeginLoad("ch1")

	if s.ApplyHistory("ch1", stale, []mattermost.Post{post("old", 50)}) {
		t.Error("stale history should be rejected")
	}
	if !s.ApplyHistory("ch1", fresh, []mattermost.Post{post("new", 100)}) {
		t.Error("fresh history should be accepted")
	}

	if got := ids(s.SnapshotMessages("ch1")); !equalIDs(got, []string{"new"}) {
		t.Errorf("messages = %v, want only the fresh fetch", got)
	}
	if s.ChannelPhase("ch1") != PhaseLive {
		t.Errorf("phase = %v, want PhaseLive", s.ChannelPhase("ch1"))
	}
}

func TestHistorySkipsDeletedPosts(t *testing.T) {
	s := New(nil)
	deleted := post("p2", 200)
	deleted.DeleteAt = 250

	epoch := s.BeginLoad("ch1")
	s.ApplyHistory("ch1", epoch, []mattermost.Post{post("p1", 100), deleted})

	if got := ids(s.SnapshotMessages("ch1")); !equalIDs(got, []string{"p1"}) {
		t.Errorf("messages = %v", got)
	}
}

func TestPendingResolvedByCorrelationID(t *testing.T) {
	s := New(nil)
	s.SetSession("me", "anna")

	s.AddPending("ch1", mattermost.Post{
		ChannelID:     "ch1",
		UserID:        "me",
		CreateAt:      1000,
		Message:       "hello",
		PendingPostID: "me:abc",
	})

	msgs := s.SnapshotMessages("ch1")
	if len(msgs) != 1 || msgs[0].State != StatePending {
		t.Fatalf("pending entry missing: %+v", msgs)
	}

	confirmed := mattermost.Post{
		ID:            "srv1",
		ChannelID:     "ch1",
		UserID:        "me",
		CreateAt:      1010,
		Message:       "hello",
		PendingPostID: "me:abc",
	}
	s.ResolvePending("ch1", "me:abc", confirmed)

	msgs = s.SnapshotMessages("ch1")
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want the pending entry replaced", len(msgs))
	}
	if msgs[0].ID != "srv1" || msgs[0].State != StateConfirmed {
		t.Errorf("resolved = %+v", msgs[0])
	}
}

func TestWebsocketEchoResolvesPendingFirst(t *testing.T) {
	// The websocket copy of an own message can land before the REST
	// response. Both paths must collapse onto one confirmed entry.
	s := New(nil)
	s.SetSession("me", "anna")

	s.AddPending("ch1", mattermost.Post{
		ChannelID:     "ch1",
		UserID:        "me",
		CreateAt:      1000,
		Message:       "hello",
		PendingPostID: "me:abc",
	})

	confirmed := mattermost.Post{
		ID:            "srv1",
		ChannelID:     "ch1",
		UserID:        "me",
		CreateAt:      1010,
		Message:       "hello",
		PendingPostID: "me:abc",
	}
	s.MergeIncoming("ch1", confirmed)            // websocket echo
	s.ResolvePending("ch1", "me:abc", confirmed) // REST response, late

	msgs := s.SnapshotMessages("ch1")
	if len(msgs) != 1 || msgs[0].ID != "srv1" || msgs[0].State != StateConfirmed {
		t.Errorf("messages = %+v, want one confirmed srv1", msgs)
	}
}

func TestPendingResolvedByContentFallback(t *testing.T) {
	// Correlation id stripped somewhere along the way; fall back to
	// author plus text within the time window.
	s := New(nil)
	s.SetSession("me", "anna")

	s.AddPending("ch1", mattermost.Post{
		ChannelID:     "ch1",
		UserID:        "me",
		CreateAt:      1000,
		Message:       "hello",
		PendingPostID: "me:abc",
	})

	s.MergeIncoming("ch1", mattermost.Post{
		ID:        "srv1",
		ChannelID: "ch1",
		UserID:    "me",
		CreateAt:  1500,
		Message:   "hello",
	})

	msgs := s.SnapshotMessages("ch1")
	if len(msgs) != 1 || msgs[0].ID != "srv1" {
		t.Errorf("messages = %+v, want pending collapsed into srv1", msgs)
	}
}

func TestFailPendingKeepsEntryVisible(t *testing.T) {
	s := New(nil)
	s.SetSession("me", "anna")

	s.AddPending("ch1", mattermost.Post{
		ChannelID:     "ch1",
		UserID:        "me",
		CreateAt:      1000,
		Message:       "hello",
		PendingPostID: "me:abc",
	})
	s.FailPending("ch1", "me:abc")

	msgs := s.SnapshotMessages("ch1")
	if len(msgs) != 1 || msgs[0].State != StateFailed {
		t.Errorf("messages = %+v, want one failed entry", msgs)
	}

	s.RemovePending("ch1", "me:abc")
	if got := len(s.SnapshotMessages("ch1")); got != 0 {
		t.Errorf("messages after discard = %d, want 0", got)
	}
}

func TestEditReplacesInPlace(t *testing.T) {
	s := New(nil)
	s.MergeIncoming("ch1", post("p1", 100))

	edited := post("p1", 100)
	edited.Message = "edited text"
	edited.UpdateAt = 500
	edited.EditAt = 500
	if s.MergeIncoming("ch1", edited) {
		t.Error("edit should not count as a new post")
	}

	msgs := s.SnapshotMessages("ch1")
	if len(msgs) != 1 || msgs[0].Message != "edited text" || msgs[0].EditAt != 500 {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestStaleEditIsIgnored(t *testing.T) {
	s := New(nil)
	latest := post("p1", 100)
	latest.Message = "newest"
	latest.UpdateAt = 900
	s.MergeIncoming("ch1", latest)

	stale := post("p1", 100)
	stale.Message = "older"
	stale.UpdateAt = 400
	s.MergeIncoming("ch1", stale)

	if got := s.SnapshotMessages("ch1")[0].Message; got != "newest" {
		t.Errorf("message = %q, want the newer revision kept", got)
	}
}

func TestDeleteRemovesPost(t *testing.T) {
	s := New(nil)
	s.MergeIncoming("ch1", post("p1", 100))
	s.MergeIncoming("ch1", post("p2", 200))

	if !s.ApplyDelete("ch1", "p1") {
		t.Error("delete of a known post should report removal")
	}
	if s.ApplyDelete("ch1", "p1") {
		t.Error("second delete should be a no-op")
	}
	if got := ids(s.SnapshotMessages("ch1")); !equalIDs(got, []string{"p2"}) {
		t.Errorf("messages = %v", got)
	}
}

func TestDeletedPostViaMerge(t *testing.T) {
	s := New(nil)
	s.MergeIncoming("ch1", post("p1", 100))

	tomb := post("p1", 100)
	tomb.DeleteAt = 900
	s.MergeIncoming("ch1", tomb)

	if got := len(s.SnapshotMessages("ch1")); got != 0 {
		t.Errorf("messages = %d, want 0 after tombstone", got)
	}
}

func TestNewestCreateAtSkipsPending(t *testing.T) {
	s := New(nil)
	s.MergeIncoming("ch1", post("p1", 100))
	s.AddPending("ch1", mattermost.Post{
		ChannelID:     "ch1",
		UserID:        "me",
		CreateAt:      5000,
		PendingPostID: "me:x",
	})

	if got := s.NewestCreateAt("ch1"); got != 100 {
		t.Errorf("NewestCreateAt = %d, want the confirmed timestamp", got)
	}
	if got := s.NewestCreateAt("empty"); got != 0 {
		t.Errorf("NewestCreateAt(empty) = %d, want 0", got)
	}
}
