package chat

import (
	"strings"
	"testing"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/mattermost"
	"github.com/halyard-dev/vessel/internal/store"
)

func listConfig() *config.Config {
	cfg := testConfig()
	cfg.Timestamps.Enabled = true
	cfg.Timestamps.Format = "15:04"
	cfg.DateSeparator.Enabled = true
	cfg.DateSeparator.Character = "─"
	cfg.Markdown.Enabled = true
	cfg.Markdown.SyntaxTheme = "monokai"
	return cfg
}

func confirmed(id, userID, text string, createAt int64) store.Message {
	return store.Message{
		Post: mattermost.Post{
			ID:        id,
			ChannelID: "ch1",
			UserID:    userID,
			CreateAt:  createAt,
			Message:   text,
		},
		State: store.StateConfirmed,
	}
}

func TestSetMessagesIgnoresOtherChannels(t *testing.T) {
	ml := NewMessagesList(listConfig())
	ml.SetLoading("ch1")

	ml.SetMessages("ch2", []store.Message{confirmed("p1", "u1", "wrong", 1000)})
	if text := ml.GetText(true); strings.Contains(text, "wrong") {
		t.Errorf("snapshot for another channel was rendered: %q", text)
	}

	ml.SetMessages("ch1", []store.Message{confirmed("p1", "u1", "right", 1000)})
	if text := ml.GetText(true); !strings.Contains(text, "right") {
		t.Errorf("snapshot for the shown channel missing: %q", text)
	}
}

func TestRenderPendingAndFailedMarkers(t *testing.T) {
	ml := NewMessagesList(listConfig())
	ml.SetLoading("ch1")

	pending := confirmed("", "u1", "on its way", 1000)
	pending.State = store.StatePending
	failed := confirmed("", "u1", "lost", 2000)
	failed.State = store.StateFailed

	ml.SetMessages("ch1", []store.Message{pending, failed})
	text := ml.GetText(true)
	if !strings.Contains(text, "(sending…)") {
		t.Errorf("pending marker missing: %q", text)
	}
	if !strings.Contains(text, "(failed to send)") {
		t.Errorf("failed marker missing: %q", text)
	}
}

func TestRenderEditedIndicator(t *testing.T) {
	ml := NewMessagesList(listConfig())
	ml.SetLoading("ch1")

	msg := confirmed("p1", "u1", "fixed typo", 1000)
	msg.EditAt = 2000
	ml.SetMessages("ch1", []store.Message{msg})

	if text := ml.GetText(true); !strings.Contains(text, "(edited)") {
		t.Errorf("edited indicator missing: %q", text)
	}
}

func TestRenderDateSeparator(t *testing.T) {
	ml := NewMessagesList(listConfig())
	ml.SetLoading("ch1")

	// Two messages a year apart produce two separators.
	ml.SetMessages("ch1", []store.Message{
		confirmed("p1", "u1", "old", 1577880000000), // 2020
		confirmed("p2", "u1", "new", 1609502400000), // 2021
	})
	text := ml.GetText(true)
	if got := strings.Count(text, "─────"); got < 2 {
		t.Errorf("expected two date separators, text = %q", text)
	}
}

func TestRenderGroupsConsecutiveAuthors(t *testing.T) {
	ml := NewMessagesList(listConfig())
	ml.SetUsers(map[string]mattermost.User{
		"u1": {ID: "u1", Username: "anna", Nickname: "Anna"},
	})
	ml.SetLoading("ch1")

	ml.SetMessages("ch1", []store.Message{
		confirmed("p1", "u1", "first", 1000),
		confirmed("p2", "u1", "second", 2000), // within grouping window
	})

	if got := strings.Count(ml.GetText(true), "Anna"); got != 1 {
		t.Errorf("author header shown %d times, want 1 (grouped)", got)
	}
}

func TestAuthorNameFallsBackToID(t *testing.T) {
	ml := NewMessagesList(listConfig())
	if got := ml.authorName("mystery"); got != "mystery" {
		t.Errorf("authorName = %q", got)
	}
	if got := ml.authorName(""); got != "unknown" {
		t.Errorf("authorName(\"\") = %q", got)
	}
}

func TestFormatDateSeparator(t *testing.T) {
	sep := formatDateSeparator("June 1, 2026", "─")
	if !strings.Contains(sep, "June 1, 2026") {
		t.Errorf("separator missing date: %q", sep)
	}
	if !strings.HasPrefix(sep, "[gray]") {
		t.Errorf("separator missing color tag: %q", sep)
	}
}
