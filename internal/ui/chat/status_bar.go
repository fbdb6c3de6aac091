package chat

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/halyard-dev/vessel/internal/config"
)

// StatusBar displays connection state and unread totals at the bottom.
type StatusBar struct {
	*tview.TextView
	cfg         *config.Config
	connStatus  string
	vesselName  string
	totalUnread int
	notice      string
}

// NewStatusBar creates a themed status bar.
func NewStatusBar(cfg *config.Config) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)

	_, bg, _ := cfg.Theme.StatusBar.Background.Style.Decompose()
	fg, _, _ := cfg.Theme.StatusBar.Text.Style.Decompose()
	tv.SetBackgroundColor(bg)
	tv.SetTextColor(fg)

	sb := &StatusBar{
		TextView: tv,
		cfg:      cfg,
	}
	return sb
}

// SetConnectionStatus updates the connection status text.
func (sb *StatusBar) SetConnectionStatus(s string) {
	sb.connStatus = s
	sb.render()
}

// SetVesselName updates the active vessel display.
func (sb *StatusBar) SetVesselName(name string) {
	sb.vesselName = name
	sb.render()
}

// SetTotalUnread updates the unread total display.
func (sb *StatusBar) SetTotalUnread(n int) {
	sb.totalUnread = n
	sb.render()
}

// SetNotice shows a transient message alongside the regular status. An
// empty string clears it.
func (sb *StatusBar) SetNotice(s string) {
	sb.notice = s
	sb.render()
}

// render rebuilds the status bar text from current state.
func (sb *StatusBar) render() {
	text := " " + sb.connStatus
	if sb.vesselName != "" {
		text += "  |  " + sb.vesselName
	}
	if sb.totalUnread > 0 {
		text += fmt.Sprintf("  |  %d unread", sb.totalUnread)
	}
	if sb.notice != "" {
		text += "  |  " + sb.notice
	}
	sb.TextView.SetText(text)
}
