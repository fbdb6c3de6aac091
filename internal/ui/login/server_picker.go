package login

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/halyard-dev/vessel/internal/keyring"
)

// ServerPicker lets the user resume a session on one of the registered
// servers, or go to the login form for a new one.
type ServerPicker struct {
	*tview.List
	servers  []keyring.Server
	onSelect func(keyring.Server)
	onNew    func()
}

// NewServerPicker creates a picker over the server registry. The last list
// entry always leads to the login form.
func NewServerPicker(servers []keyring.Server, onSelect func(keyring.Server), onNew func()) *ServerPicker {
	sp := &ServerPicker{
		List:     tview.NewList(),
		servers:  servers,
		onSelect: onSelect,
		onNew:    onNew,
	}

	sp.SetWrapAround(false)
	sp.SetBorder(true).SetTitle(" Choose a server ")

	for _, s := range servers {
		sp.AddItem(s.Name, s.URL, 0, nil)
	}
	sp.AddItem("Add a new server...", "", 0, nil)

	sp.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		sp.selectIndex(index)
	})
	sp.SetInputCapture(sp.handleInput)

	return sp
}

// selectIndex dispatches the entry at the given list position.
func (sp *ServerPicker) selectIndex(index int) {
	if index >= 0 && index < len(sp.servers) {
		if sp.onSelect != nil {
			sp.onSelect(sp.servers[index])
		}
		return
	}
	if sp.onNew != nil {
		sp.onNew()
	}
}

func (sp *ServerPicker) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyEscape {
		if sp.onNew != nil {
			sp.onNew()
		}
		return nil
	}
	return event
}
