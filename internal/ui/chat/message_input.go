package chat

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/ui/keys"
)

// OnSendFunc is called when the user submits a message or a slash command.
type OnSendFunc func(channelID, text string)

// MessageInput wraps tview.TextArea with send support.
type MessageInput struct {
	*tview.TextArea
	cfg       *config.Config
	channelID string
	onSend    OnSendFunc
}

// NewMessageInput creates a new message input component.
func NewMessageInput(cfg *config.Config) *MessageInput {
	mi := &MessageInput{
		TextArea: tview.NewTextArea(),
		cfg:      cfg,
	}

	mi.SetBorder(true).SetTitle(" Input ")
	mi.SetPlaceholder("Type a message...")

	mi.SetInputCapture(mi.handleInput)

	return mi
}

// SetOnSend sets the callback for sending messages.
func (mi *MessageInput) SetOnSend(fn OnSendFunc) {
	mi.onSend = fn
}

// SetChannel sets the active channel for outgoing messages.
func (mi *MessageInput) SetChannel(channelID string) {
	mi.channelID = channelID
}

// handleInput processes keybindings for the input area.
func (mi *MessageInput) handleInput(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Normalize(event.Name())

	switch name {
	case mi.cfg.Keybinds.MessageInput.Send:
		mi.send()
		return nil

	case mi.cfg.Keybinds.MessageInput.Newline:
		// Transform the newline chord into plain Enter so TextArea inserts one.
		return tcell.NewEventKey(tcell.KeyEnter, '\n', tcell.ModNone)

	case mi.cfg.Keybinds.MessageInput.Cancel:
		mi.SetText("", false)
		return nil
	}

	return event
}

// send dispatches the current input text.
func (mi *MessageInput) send() {
	text := strings.TrimSpace(mi.GetText())
	if text == "" || mi.channelID == "" {
		return
	}
	if mi.onSend != nil {
		mi.onSend(mi.channelID, text)
	}
	mi.SetText("", false)
}
