package chat

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/mattermost"
	"github.com/halyard-dev/vessel/internal/ui/keys"
)

// VesselPicker is a modal for switching between vessels.
type VesselPicker struct {
	*tview.Flex
	cfg       *config.Config
	list      *tview.List
	status    *tview.TextView
	entries   []mattermost.Team
	currentID string
	onSelect  func(vesselID string)
	onClose   func()
}

// NewVesselPicker creates a new vessel picker.
func NewVesselPicker(cfg *config.Config) *VesselPicker {
	vp := &VesselPicker{
		cfg:  cfg,
		list: tview.NewList(),
	}

	vp.list.ShowSecondaryText(false)
	vp.list.SetHighlightFullLine(true)
	vp.list.SetWrapAround(false)
	vp.list.SetBorder(true).SetTitle(" Switch Vessel ")
	vp.list.SetInputCapture(vp.handleInput)

	vp.status = tview.NewTextView().SetDynamicColors(true)

	vp.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(vp.list, 0, 1, true).
		AddItem(vp.status, 1, 0, false)

	return vp
}

// SetOnSelect sets the callback for vessel selection.
func (vp *VesselPicker) SetOnSelect(fn func(vesselID string)) {
	vp.onSelect = fn
}

// SetOnClose sets the callback for closing the picker.
func (vp *VesselPicker) SetOnClose(fn func()) {
	vp.onClose = fn
}

// SetCurrentVessel marks the currently active vessel.
func (vp *VesselPicker) SetCurrentVessel(id string) {
	vp.currentID = id
}

// SetVessels populates the vessel list.
func (vp *VesselPicker) SetVessels(vessels []mattermost.Team) {
	vp.entries = vessels
	vp.list.Clear()
	for _, v := range vessels {
		label := v.DisplayName
		if label == "" {
			label = v.Name
		}
		if v.ID == vp.currentID {
			label += " (current)"
		}
		vp.list.AddItem(label, "", 0, nil)
	}
	if len(vessels) == 0 {
		vp.status.SetText(" No vessels available")
	} else {
		vp.status.SetText(fmt.Sprintf(" %d vessel(s) — Enter to switch, Esc to close", len(vessels)))
	}
}

// Reset prepares the picker for display.
func (vp *VesselPicker) Reset() {
	if vp.list.GetItemCount() > 0 {
		vp.list.SetCurrentItem(0)
	}
}

func (vp *VesselPicker) handleInput(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Normalize(event.Name())

	switch name {
	case vp.cfg.Keybinds.Picker.Close:
		if vp.onClose != nil {
			vp.onClose()
		}
		return nil
	case vp.cfg.Keybinds.Picker.Select:
		idx := vp.list.GetCurrentItem()
		if idx >= 0 && idx < len(vp.entries) {
			v := vp.entries[idx]
			if v.ID != vp.currentID && vp.onSelect != nil {
				vp.onSelect(v.ID)
			} else if vp.onClose != nil {
				vp.onClose()
			}
		}
		return nil
	}

	return event
}
