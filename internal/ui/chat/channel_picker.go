package chat

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sahilm/fuzzy"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/mattermost"
	"github.com/halyard-dev/vessel/internal/ui/keys"
)

// pickerEntry holds a channel's data for the picker.
type pickerEntry struct {
	channelID   string
	displayText string // display text with icon (e.g. "# town-square")
	searchText  string // lowercased name for fuzzy matching
}

// ChannelPicker is a modal popup for fuzzy-searching and selecting channels.
type ChannelPicker struct {
	*tview.Flex
	cfg      *config.Config
	input    *tview.InputField
	list     *tview.List
	entries  []pickerEntry
	filtered []int // indices into entries for current filter
	onSelect OnChannelSelectedFunc
	onClose  func()
}

// NewChannelPicker creates a new channel picker component.
func NewChannelPicker(cfg *config.Config) *ChannelPicker {
	cp := &ChannelPicker{
		cfg: cfg,
	}

	cp.input = tview.NewInputField()
	cp.input.SetLabel(" Search: ")
	_, inputBg, _ := cp.cfg.Theme.Modal.InputBackground.Style.Decompose()
	cp.input.SetFieldBackgroundColor(inputBg)
	cp.input.SetChangedFunc(cp.onInputChanged)
	cp.input.SetInputCapture(cp.handleInput)

	cp.list = tview.NewList()
	cp.list.SetHighlightFullLine(true)
	cp.list.ShowSecondaryText(false)
	cp.list.SetWrapAround(false)

	cp.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(cp.input, 1, 0, true).
		AddItem(cp.list, 0, 1, false)
	cp.SetBorder(true).SetTitle(" Switch Channel ")

	return cp
}

// SetOnSelect sets the callback for channel selection.
func (cp *ChannelPicker) SetOnSelect(fn OnChannelSelectedFunc) {
	cp.onSelect = fn
}

// SetOnClose sets the callback for closing the picker.
func (cp *ChannelPicker) SetOnClose(fn func()) {
	cp.onClose = fn
}

// SetData populates the picker with channels.
func (cp *ChannelPicker) SetData(channels []mattermost.Channel) {
	cp.entries = make([]pickerEntry, 0, len(channels))

	for _, ch := range channels {
		section := classifyChannel(ch)
		search := strings.ToLower(ch.Name)
		if ch.DisplayName != "" {
			search += " " + strings.ToLower(ch.DisplayName)
		}

		cp.entries = append(cp.entries, pickerEntry{
			channelID:   ch.ID,
			displayText: channelDisplayText(ch, section),
			searchText:  search,
		})
	}
}

// Reset clears the input and shows all channels.
func (cp *ChannelPicker) Reset() {
	cp.input.SetText("")
	cp.showAll()
}

// handleInput processes keybindings for the picker input field.
func (cp *ChannelPicker) handleInput(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Normalize(event.Name())

	switch {
	case name == cp.cfg.Keybinds.Picker.Close:
		cp.close()
		return nil

	case name == cp.cfg.Keybinds.Picker.Select:
		cp.selectCurrent()
		return nil

	case name == cp.cfg.Keybinds.Picker.Up || event.Key() == tcell.KeyUp:
		cur := cp.list.GetCurrentItem()
		if cur > 0 {
			cp.list.SetCurrentItem(cur - 1)
		}
		return nil

	case name == cp.cfg.Keybinds.Picker.Down || event.Key() == tcell.KeyDown:
		cur := cp.list.GetCurrentItem()
		if cur < cp.list.GetItemCount()-1 {
			cp.list.SetCurrentItem(cur + 1)
		}
		return nil

	case name == cp.cfg.Keybinds.ChannelPicker:
		// The picker chord while the picker is open closes it.
		cp.close()
		return nil
	}

	return event
}

// onInputChanged filters the list based on the current search text.
func (cp *ChannelPicker) onInputChanged(text string) {
	if text == "" {
		cp.showAll()
		return
	}

	targets := make([]string, len(cp.entries))
	for i, e := range cp.entries {
		targets[i] = e.searchText
	}

	matches := fuzzy.Find(strings.ToLower(text), targets)

	cp.filtered = make([]int, len(matches))
	for i, m := range matches {
		cp.filtered[i] = m.Index
	}

	cp.rebuildList()
}

// showAll displays all channels (no filter).
func (cp *ChannelPicker) showAll() {
	cp.filtered = make([]int, len(cp.entries))
	for i := range cp.entries {
		cp.filtered[i] = i
	}
	cp.rebuildList()
}

// rebuildList updates the tview.List from the filtered entries.
func (cp *ChannelPicker) rebuildList() {
	cp.list.Clear()
	for _, idx := range cp.filtered {
		cp.list.AddItem(cp.entries[idx].displayText, "", 0, nil)
	}
	if cp.list.GetItemCount() > 0 {
		cp.list.SetCurrentItem(0)
	}
}

// selectCurrent selects the currently highlighted channel.
func (cp *ChannelPicker) selectCurrent() {
	cur := cp.list.GetCurrentItem()
	if cur < 0 || cur >= len(cp.filtered) {
		return
	}

	entry := cp.entries[cp.filtered[cur]]
	if cp.onSelect != nil {
		cp.onSelect(entry.channelID)
	}
	cp.close()
}

// close signals the picker should be hidden.
func (cp *ChannelPicker) close() {
	if cp.onClose != nil {
		cp.onClose()
	}
}

// FilteredCount returns the number of currently visible entries.
func (cp *ChannelPicker) FilteredCount() int {
	return len(cp.filtered)
}
