package chat

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/ui/keys"
)

// Panel identifies which panel is focused.
type Panel int

const (
	PanelChannels Panel = iota
	PanelMessages
	PanelInput
)

// Page names for the modal layer.
const (
	pageMain          = "main"
	pageChannelPicker = "channel-picker"
	pageVesselPicker  = "vessel-picker"
)

// View is the main chat layout containing all panels and modal pages.
//
// Layout:
//
//	Pages
//	└── Outer Flex (FlexRow)
//	    ├── mainFlex (FlexColumn)
//	    │   ├── ChannelsTree (fixed 30 cols)
//	    │   └── contentFlex (FlexRow)
//	    │       ├── Header (fixed 1 row)
//	    │       ├── MessagesList (proportional)
//	    │       └── MessageInput (fixed 3 rows)
//	    └── StatusBar (fixed 1 row)
type View struct {
	*tview.Pages
	app *tview.Application
	cfg *config.Config

	ChannelsTree  *ChannelsTree
	Header        *tview.TextView
	MessagesList  *MessagesList
	MessageInput  *MessageInput
	StatusBar     *StatusBar
	ChannelPicker *ChannelPicker
	VesselPicker  *VesselPicker

	outerFlex       *tview.Flex
	contentFlex     *tview.Flex
	mainFlex        *tview.Flex
	activePanel     Panel
	channelsVisible bool
}

// New creates the main chat view with the full layout.
func New(app *tview.Application, cfg *config.Config) *View {
	v := &View{
		Pages:           tview.NewPages(),
		app:             app,
		cfg:             cfg,
		channelsVisible: true,
	}

	v.ChannelsTree = NewChannelsTree(cfg, nil)

	v.Header = tview.NewTextView().
		SetDynamicColors(true)
	v.Header.SetBorder(false)

	v.MessagesList = NewMessagesList(cfg)
	v.MessageInput = NewMessageInput(cfg)
	v.StatusBar = NewStatusBar(cfg)
	v.ChannelPicker = NewChannelPicker(cfg)
	v.VesselPicker = NewVesselPicker(cfg)

	// Content flex (right side): header, messages, input stacked vertically.
	v.contentFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.Header, 1, 0, false).
		AddItem(v.MessagesList, 0, 1, false).
		AddItem(v.MessageInput, 3, 0, false)

	// Main flex (horizontal): channel tree + content.
	v.mainFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(v.ChannelsTree, 30, 0, false).
		AddItem(v.contentFlex, 0, 1, false)

	// Outer flex (vertical): main + status bar.
	v.outerFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.mainFlex, 0, 1, false).
		AddItem(v.StatusBar, 1, 0, false)

	v.AddPage(pageMain, v.outerFlex, true, true)
	v.AddPage(pageChannelPicker, modalFrame(v.ChannelPicker, 60, 20), true, false)
	v.AddPage(pageVesselPicker, modalFrame(v.VesselPicker, 50, 14), true, false)

	v.ChannelPicker.SetOnClose(v.HideChannelPicker)
	v.VesselPicker.SetOnClose(v.HideVesselPicker)

	v.activePanel = PanelMessages
	v.applyBorderStyles()

	return v
}

// modalFrame centers a primitive in a fixed-size floating box.
func modalFrame(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

// FocusPanel sets focus to the given panel and updates border colors.
func (v *View) FocusPanel(panel Panel) {
	v.activePanel = panel
	v.applyBorderStyles()

	switch panel {
	case PanelChannels:
		v.app.SetFocus(v.ChannelsTree)
	case PanelMessages:
		v.app.SetFocus(v.MessagesList)
	case PanelInput:
		v.app.SetFocus(v.MessageInput)
	}
}

// ActivePanel returns the currently focused panel.
func (v *View) ActivePanel() Panel {
	return v.activePanel
}

// ShowChannelPicker opens the channel picker modal.
func (v *View) ShowChannelPicker() {
	v.ChannelPicker.Reset()
	v.ShowPage(pageChannelPicker)
	v.app.SetFocus(v.ChannelPicker)
}

// HideChannelPicker closes the channel picker modal.
func (v *View) HideChannelPicker() {
	v.HidePage(pageChannelPicker)
	v.FocusPanel(v.activePanel)
}

// ShowVesselPicker opens the vessel picker modal.
func (v *View) ShowVesselPicker() {
	v.VesselPicker.Reset()
	v.ShowPage(pageVesselPicker)
	v.app.SetFocus(v.VesselPicker)
}

// HideVesselPicker closes the vessel picker modal.
func (v *View) HideVesselPicker() {
	v.HidePage(pageVesselPicker)
	v.FocusPanel(v.activePanel)
}

// modalOpen reports whether any modal page is visible.
func (v *View) modalOpen() bool {
	for _, page := range []string{pageChannelPicker, pageVesselPicker} {
		if visible := v.hasVisiblePage(page); visible {
			return true
		}
	}
	return false
}

func (v *View) hasVisiblePage(name string) bool {
	frontName, _ := v.GetFrontPage()
	return frontName == name
}

// HandleKey processes chat-level keybindings. Returns nil to consume the event.
func (v *View) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	// Let modals handle their own keys.
	if v.modalOpen() {
		return event
	}

	name := keys.Normalize(event.Name())

	if name == v.cfg.Keybinds.ToggleChannels {
		v.ToggleChannels()
		return nil
	}
	if name == v.cfg.Keybinds.ChannelPicker {
		v.ShowChannelPicker()
		return nil
	}
	if name == v.cfg.Keybinds.SwitchVessel {
		v.ShowVesselPicker()
		return nil
	}

	// Skip Rune-based focus keybinds when input is active so the user can type.
	if v.activePanel == PanelInput && event.Key() == tcell.KeyRune {
		return event
	}

	switch name {
	case v.cfg.Keybinds.FocusChannels:
		v.FocusPanel(PanelChannels)
		return nil
	case v.cfg.Keybinds.FocusMessages:
		v.FocusPanel(PanelMessages)
		return nil
	case v.cfg.Keybinds.FocusInput:
		v.FocusPanel(PanelInput)
		return nil
	}

	return event
}

// ToggleChannels shows or hides the channel tree sidebar.
func (v *View) ToggleChannels() {
	v.channelsVisible = !v.channelsVisible
	v.rebuildMainFlex()

	// If channels were hidden and were focused, move focus to messages.
	if !v.channelsVisible && v.activePanel == PanelChannels {
		v.FocusPanel(PanelMessages)
	}
}

// SetChannelHeader updates the header with channel name and topic.
func (v *View) SetChannelHeader(name, topic string) {
	text := fmt.Sprintf(" [::b]#%s[::-]", name)
	if topic != "" {
		text += fmt.Sprintf("  —  %s", topic)
	}
	v.Header.SetText(text)
}

// rebuildMainFlex reconstructs the main flex after toggling the channel tree.
// tview has no InsertItem, so we Clear() and re-add items.
func (v *View) rebuildMainFlex() {
	v.mainFlex.Clear()
	if v.channelsVisible {
		v.mainFlex.AddItem(v.ChannelsTree, 30, 0, false)
	}
	v.mainFlex.AddItem(v.contentFlex, 0, 1, false)
}

// applyBorderStyles updates border colors based on which panel is active.
func (v *View) applyBorderStyles() {
	focusedFg, _, _ := v.cfg.Theme.Border.Focused.Style.Decompose()
	normalFg, _, _ := v.cfg.Theme.Border.Normal.Style.Decompose()
	focusedTitleFg, _, focusedTitleAttrs := v.cfg.Theme.Title.Focused.Style.Decompose()
	normalTitleFg, _, normalTitleAttrs := v.cfg.Theme.Title.Normal.Style.Decompose()

	type bordered struct {
		prim  tview.Primitive
		panel Panel
	}

	panels := []bordered{
		{v.ChannelsTree, PanelChannels},
		{v.MessagesList, PanelMessages},
		{v.MessageInput, PanelInput},
	}

	for _, p := range panels {
		box := p.prim.(interface {
			SetBorderColor(tcell.Color) *tview.Box
			SetTitleColor(tcell.Color) *tview.Box
			SetTitleAttributes(tcell.AttrMask) *tview.Box
		})
		if p.panel == v.activePanel {
			box.SetBorderColor(focusedFg)
			box.SetTitleColor(focusedTitleFg)
			box.SetTitleAttributes(focusedTitleAttrs)
		} else {
			box.SetBorderColor(normalFg)
			box.SetTitleColor(normalTitleFg)
			box.SetTitleAttributes(normalTitleAttrs)
		}
	}
}
