package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/markdown"
	"github.com/halyard-dev/vessel/internal/mattermost"
	"github.com/halyard-dev/vessel/internal/store"
	"github.com/halyard-dev/vessel/internal/ui/keys"
)

const messageGroupingWindow = 5 * time.Minute

// MessagesList displays a channel's messages with scrolling.
type MessagesList struct {
	*tview.TextView
	cfg          *config.Config
	messages     []store.Message // oldest first
	users        map[string]mattermost.User
	usernames    map[string]string // username → display name, for mentions
	channelNames map[string]string // channel url name → display name
	channelID    string
	loading      bool
}

// NewMessagesList creates a new messages list component.
func NewMessagesList(cfg *config.Config) *MessagesList {
	ml := &MessagesList{
		TextView:     tview.NewTextView(),
		cfg:          cfg,
		users:        make(map[string]mattermost.User),
		usernames:    make(map[string]string),
		channelNames: make(map[string]string),
	}

	ml.SetDynamicColors(true)
	ml.SetScrollable(true)
	ml.SetWordWrap(true)
	ml.SetBorder(true).SetTitle(" Messages ")

	ml.SetInputCapture(ml.handleInput)

	return ml
}

// SetUsers sets the user directory used to resolve author names and mentions.
func (ml *MessagesList) SetUsers(users map[string]mattermost.User) {
	ml.users = users
	ml.usernames = make(map[string]string, len(users))
	for _, u := range users {
		if u.Username != "" {
			ml.usernames[u.Username] = u.DisplayName()
		}
	}
}

// SetChannelNames sets the channel name map for ~channel mention rendering.
func (ml *MessagesList) SetChannelNames(names map[string]string) {
	ml.channelNames = names
}

// SetLoading shows a loading placeholder until the first snapshot arrives.
func (ml *MessagesList) SetLoading(channelID string) {
	ml.channelID = channelID
	ml.messages = nil
	ml.loading = true
	ml.SetText(" [gray::d]Loading…[-::-]")
}

// SetMessages replaces the message list with a snapshot and renders.
// Snapshots for a different channel than the one being shown are ignored.
func (ml *MessagesList) SetMessages(channelID string, messages []store.Message) {
	if channelID != ml.channelID {
		return
	}
	atBottom := ml.loading || ml.isAtBottom()
	ml.messages = messages
	ml.loading = false

	ml.render()
	if atBottom {
		ml.ScrollToEnd()
	}
}

// ChannelID returns the channel currently being shown.
func (ml *MessagesList) ChannelID() string {
	return ml.channelID
}

// isAtBottom reports whether the view is scrolled to the end, which is when
// new messages should keep it pinned there.
func (ml *MessagesList) isAtBottom() bool {
	row, _ := ml.GetScrollOffset()
	_, _, _, height := ml.GetInnerRect()
	lines := ml.GetOriginalLineCount()
	return row+height >= lines
}

// render rebuilds the full text content from messages.
func (ml *MessagesList) render() {
	var b strings.Builder

	var prevDate string
	var prevUser string
	var prevTime time.Time

	for i, msg := range ml.messages {
		t := time.UnixMilli(msg.CreateAt)
		dateStr := t.Format("January 2, 2006")

		// Date separator.
		if ml.cfg.DateSeparator.Enabled && dateStr != prevDate {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(formatDateSeparator(dateStr, ml.cfg.DateSeparator.Character))
			b.WriteString("\n")
			prevDate = dateStr
			prevUser = ""
		}

		// Message grouping: skip header if same user within window.
		grouped := msg.UserID != "" && msg.UserID == prevUser &&
			t.Sub(prevTime) < messageGroupingWindow &&
			msg.State == store.StateConfirmed

		if !grouped {
			if ml.cfg.Timestamps.Enabled {
				fmt.Fprintf(&b, "[gray]%s[-] ", t.Format(ml.cfg.Timestamps.Format))
			}
			fmt.Fprintf(&b, "[green::b]%s[-::-]\n", tview.Escape(ml.authorName(msg.UserID)))
		}

		rendered := markdown.Render(msg.Message, ml.usernames, ml.channelNames,
			ml.cfg.Markdown.Enabled, ml.cfg.Markdown.SyntaxTheme, markdown.DefaultColors())
		for _, line := range strings.Split(rendered, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}

		switch msg.State {
		case store.StatePending:
			b.WriteString("  [gray::d](sending…)[-::-]\n")
		case store.StateFailed:
			b.WriteString("  [red::b](failed to send)[-::-]\n")
		default:
			if msg.EditAt > 0 {
				b.WriteString("  [gray::d](edited)[-::-]\n")
			}
		}

		prevUser = msg.UserID
		prevTime = t
	}

	ml.SetText(b.String())
}

// handleInput processes navigation keys.
func (ml *MessagesList) handleInput(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Normalize(event.Name())

	switch name {
	case ml.cfg.Keybinds.MessagesList.ScrollTop:
		ml.ScrollToBeginning()
		return nil
	case ml.cfg.Keybinds.MessagesList.ScrollBottom:
		ml.ScrollToEnd()
		return nil
	}

	return event
}

// authorName returns the best display name for a message author.
func (ml *MessagesList) authorName(userID string) string {
	if u, ok := ml.users[userID]; ok {
		return u.DisplayName()
	}
	if userID == "" {
		return "unknown"
	}
	return userID
}

// formatDateSeparator creates a centered date separator line.
func formatDateSeparator(date, char string) string {
	if char == "" {
		char = "─"
	}
	label := " " + date + " "
	// Target ~50 chars total width.
	sideLen := (50 - len(label)) / 2
	if sideLen < 3 {
		sideLen = 3
	}
	side := strings.Repeat(char, sideLen)
	return fmt.Sprintf("[gray]%s%s%s[-]", side, label, side)
}
