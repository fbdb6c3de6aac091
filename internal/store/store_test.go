package store

import (
	"testing"

	"github.com/halyard-dev/vessel/internal/mattermost"
)

func TestUnreadCounting(t *testing.T) {
	s := New(nil)
	s.SetSession("me", "anna")
	s.SelectChannel("ch1")

	// Current channel never accumulates unreads.
	s.MergeIncoming("ch1", post("p1", 100))
	if got := s.UnreadCount("ch1"); got != 0 {
		t.Errorf("current channel unread = %d, want 0", got)
	}

	// Background channel does.
	p := post("p2", 200)
	p.ChannelID = "ch2"
	s.MergeIncoming("ch2", p)
	p = post("p3", 300)
	p.ChannelID = "ch2"
	s.MergeIncoming("ch2", p)
	if got := s.UnreadCount("ch2"); got != 2 {
		t.Errorf("background unread = %d, want 2", got)
	}

	// Duplicates must not double-count.
	s.MergeIncoming("ch2", p)
	if got := s.UnreadCount("ch2"); got != 2 {
		t.Errorf("unread after duplicate = %d, want 2", got)
	}

	// Own messages never count, wherever they land.
	own := post("p4", 400)
	own.ChannelID = "ch2"
	own.UserID = "me"
	s.MergeIncoming("ch2", own)
	if got := s.UnreadCount("ch2"); got != 2 {
		t.Errorf("unread after own message = %d, want 2", got)
	}

	if got := s.TotalUnread(); got != 2 {
		t.Errorf("total unread = %d, want 2", got)
	}

	// Selecting the channel clears it.
	s.SelectChannel("ch2")
	if got := s.UnreadCount("ch2"); got != 0 {
		t.Errorf("unread after select = %d, want 0", got)
	}
}

func TestMarkChannelRead(t *testing.T) {
	s := New(nil)
	s.SetSession("me", "anna")

	p := post("p1", 100)
	p.ChannelID = "ch2"
	s.MergeIncoming("ch2", p)
	if got := s.UnreadCount("ch2"); got != 1 {
		t.Fatalf("unread = %d", got)
	}

	s.MarkChannelRead("ch2")
	if got := s.UnreadCount("ch2"); got != 0 {
		t.Errorf("unread after mark = %d, want 0", got)
	}
}

func TestReadCursorAdvances(t *testing.T) {
	s := New(nil)
	s.SetSession("me", "anna")

	p := post("p1", 100)
	p.ChannelID = "ch2"
	s.MergeIncoming("ch2", p)
	if got := s.LastReadID("ch2"); got != "" {
		t.Fatalf("read cursor before mark = %q, want empty", got)
	}

	s.MarkChannelRead("ch2")
	if got := s.LastReadID("ch2"); got != "p1" {
		t.Errorf("read cursor after mark = %q, want p1", got)
	}

	// Selecting a channel advances the cursor to its newest message.
	p = post("p2", 200)
	p.ChannelID = "ch2"
	s.MergeIncoming("ch2", p)
	s.SelectChannel("ch2")
	if got := s.LastReadID("ch2"); got != "p2" {
		t.Errorf("read cursor after select = %q, want p2", got)
	}

	// A pending entry has no server id and never becomes the cursor.
	s.AddPending("ch2", mattermost.Post{
		ChannelID: "ch2", UserID: "me", CreateAt: 300,
		Message: "draft", PendingPostID: "me:x",
	})
	s.MarkChannelRead("ch2")
	if got := s.LastReadID("ch2"); got != "p2" {
		t.Errorf("read cursor with pending tail = %q, want p2", got)
	}
}

func TestDeselectedChannelClosesSubscription(t *testing.T) {
	s := New(nil)
	s.SelectChannel("ch1")
	epoch := s.BeginLoad("ch1")
	s.ApplyHistory("ch1", epoch, []mattermost.Post{{ID: "p1", ChannelID: "ch1", CreateAt: 100}})
	if got := s.ChannelPhase("ch1"); got != PhaseLive {
		t.Fatalf("phase after history = %v, want live", got)
	}

	s.SelectChannel("ch2")
	if got := s.ChannelPhase("ch1"); got != PhaseClosed {
		t.Errorf("previous channel phase = %v, want closed", got)
	}

	// Messages stay cached across the close.
	if got := len(s.SnapshotMessages("ch1")); got != 1 {
		t.Errorf("cached messages = %d, want 1", got)
	}
}

func TestSelectVesselClearsChannels(t *testing.T) {
	s := New(nil)
	s.SetVessels([]mattermost.Team{{ID: "v1"}, {ID: "v2"}})
	s.SelectVessel("v1")
	s.SetChannels([]mattermost.Channel{{ID: "ch1", TeamID: "v1"}})
	s.SelectChannel("ch1")

	s.SelectVessel("v2")
	if got := len(s.Channels()); got != 0 {
		t.Errorf("channels after vessel switch = %d, want 0", got)
	}
	if got := s.CurrentChannel(); got != "" {
		t.Errorf("current channel = %q, want cleared", got)
	}

	// Reselecting the same vessel is a no-op.
	s.SetChannels([]mattermost.Channel{{ID: "ch2", TeamID: "v2"}})
	s.SelectVessel("v2")
	if got := len(s.Channels()); got != 1 {
		t.Errorf("channels after reselect = %d, want 1", got)
	}
}

func TestVesselSwitchKeepsMessageState(t *testing.T) {
	s := New(nil)
	s.SelectVessel("v1")
	s.MergeIncoming("ch1", post("p1", 100))

	s.SelectVessel("v2")
	s.SelectVessel("v1")

	if got := len(s.SnapshotMessages("ch1")); got != 1 {
		t.Errorf("messages after round trip = %d, want 1", got)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	s := New(nil)
	s.SetSession("me", "anna")
	s.SetVessels([]mattermost.Team{{ID: "v1"}})
	s.SelectVessel("v1")
	s.SetChannels([]mattermost.Channel{{ID: "ch1"}})
	s.SelectChannel("ch1")
	s.MergeIncoming("ch1", post("p1", 100))

	s.Logout()

	if s.UserID() != "" {
		t.Error("user id should be cleared")
	}
	if len(s.Vessels()) != 0 || len(s.Channels()) != 0 {
		t.Error("vessel and channel lists should be cleared")
	}
	if s.CurrentVessel() != "" || s.CurrentChannel() != "" {
		t.Error("selections should be cleared")
	}
	if len(s.SnapshotMessages("ch1")) != 0 {
		t.Error("messages should be cleared")
	}
}

func TestOnChangeFires(t *testing.T) {
	calls := 0
	s := New(func() { calls++ })

	s.SetSession("me", "anna")
	s.MergeIncoming("ch1", post("p1", 100))
	s.SelectChannel("ch1")

	if calls < 3 {
		t.Errorf("onChange fired %d times, want at least 3", calls)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(nil)
	s.MergeIncoming("ch1", post("p1", 100))

	snap := s.SnapshotMessages("ch1")
	snap[0].Message = "mutated"

	if got := s.SnapshotMessages("ch1")[0].Message; got == "mutated" {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestChannelByID(t *testing.T) {
	s := New(nil)
	s.SetChannels([]mattermost.Channel{
		{ID: "ch1", Name: "town-square"},
		{ID: "ch2", Name: "off-topic"},
	})

	ch, ok := s.ChannelByID("ch2")
	if !ok || ch.Name != "off-topic" {
		t.Errorf("ChannelByID = %+v, %v", ch, ok)
	}
	if _, ok := s.ChannelByID("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}
