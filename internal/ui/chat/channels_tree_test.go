package chat

import (
	"strings"
	"testing"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/mattermost"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Keybinds.ChannelsTree.Collapse = "Rune[c]"
	cfg.Keybinds.ChannelsTree.MoveToParent = "Rune[p]"
	cfg.Keybinds.MessagesList.ScrollTop = "Rune[g]"
	cfg.Keybinds.MessagesList.ScrollBottom = "Rune[G]"
	cfg.Keybinds.MessageInput.Send = "Enter"
	cfg.Keybinds.MessageInput.Newline = "Alt+Enter"
	cfg.Keybinds.MessageInput.Cancel = "Escape"
	cfg.Keybinds.Picker.Close = "Escape"
	cfg.Keybinds.Picker.Select = "Enter"
	cfg.Keybinds.Picker.Up = "Ctrl+P"
	cfg.Keybinds.Picker.Down = "Ctrl+N"
	return cfg
}

func testChannelSet() []mattermost.Channel {
	return []mattermost.Channel{
		{ID: "c1", Name: "town-square", DisplayName: "Town Square", Type: mattermost.ChannelOpen},
		{ID: "c2", Name: "secrets", DisplayName: "Secrets", Type: mattermost.ChannelPrivate},
		{ID: "c3", Name: "u1__u2", DisplayName: "anna", Type: mattermost.ChannelDirect},
		{ID: "c4", Name: "off-topic", DisplayName: "Off-Topic", Type: mattermost.ChannelOpen},
	}
}

func TestPopulateSections(t *testing.T) {
	ct := NewChannelsTree(testConfig(), nil)
	ct.Populate(testChannelSet())

	if got := len(ct.sections[SectionChannels].GetChildren()); got != 2 {
		t.Errorf("channels section has %d children, want 2", got)
	}
	if got := len(ct.sections[SectionPrivate].GetChildren()); got != 1 {
		t.Errorf("private section has %d children, want 1", got)
	}
	if got := len(ct.sections[SectionDirect].GetChildren()); got != 1 {
		t.Errorf("direct section has %d children, want 1", got)
	}
}

func TestPopulateSortsByName(t *testing.T) {
	ct := NewChannelsTree(testConfig(), nil)
	ct.Populate(testChannelSet())

	children := ct.sections[SectionChannels].GetChildren()
	if len(children) != 2 {
		t.Fatalf("got %d children", len(children))
	}
	if !strings.Contains(children[0].GetText(), "Off-Topic") {
		t.Errorf("first channel = %q, want Off-Topic first", children[0].GetText())
	}
}

func TestAddChannelIsIdempotent(t *testing.T) {
	ct := NewChannelsTree(testConfig(), nil)
	ct.Populate(testChannelSet())

	ct.AddChannel(mattermost.Channel{ID: "c1", Name: "town-square", Type: mattermost.ChannelOpen})
	if got := len(ct.sections[SectionChannels].GetChildren()); got != 2 {
		t.Errorf("duplicate add changed child count to %d", got)
	}

	ct.AddChannel(mattermost.Channel{ID: "c9", Name: "new-channel", Type: mattermost.ChannelOpen})
	if got := len(ct.sections[SectionChannels].GetChildren()); got != 3 {
		t.Errorf("add did not insert, count = %d", got)
	}
}

func TestUnreadBadge(t *testing.T) {
	ct := NewChannelsTree(testConfig(), nil)
	ct.Populate(testChannelSet())

	ct.SetUnreadCount("c1", 3)
	node := ct.nodeIndex["c1"]
	if !strings.HasSuffix(node.GetText(), "(3)") {
		t.Errorf("node text = %q, want (3) badge", node.GetText())
	}
	if ct.UnreadCount("c1") != 3 {
		t.Errorf("UnreadCount = %d", ct.UnreadCount("c1"))
	}

	// Updating replaces the badge rather than stacking.
	ct.SetUnreadCount("c1", 5)
	if !strings.HasSuffix(node.GetText(), "(5)") || strings.Contains(node.GetText(), "(3)") {
		t.Errorf("node text = %q, want single (5) badge", node.GetText())
	}

	ct.SetUnreadCount("c1", 0)
	if strings.Contains(node.GetText(), "(") {
		t.Errorf("node text = %q, want badge cleared", node.GetText())
	}
}

func TestStripBadge(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"# general (3)", "# general"},
		{"# general", "# general"},
		{"# topic (with parens) (12)", "# topic (with parens)"},
	}
	for _, tt := range tests {
		if got := stripBadge(tt.in); got != tt.want {
			t.Errorf("stripBadge(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyChannel(t *testing.T) {
	tests := []struct {
		chType string
		want   Section
	}{
		{mattermost.ChannelOpen, SectionChannels},
		{mattermost.ChannelPrivate, SectionPrivate},
		{mattermost.ChannelDirect, SectionDirect},
		{mattermost.ChannelGroup, SectionDirect},
	}
	for _, tt := range tests {
		got := classifyChannel(mattermost.Channel{Type: tt.chType})
		if got != tt.want {
			t.Errorf("classifyChannel(%q) = %v, want %v", tt.chType, got, tt.want)
		}
	}
}

func TestSelectionCallback(t *testing.T) {
	var selected string
	ct := NewChannelsTree(testConfig(), func(id string) { selected = id })
	ct.Populate(testChannelSet())

	node := ct.nodeIndex["c2"]
	ct.SetCurrentNode(node)
	// Simulate tview firing the selected func.
	if id, ok := ct.channelIDs[node]; ok && ct.onSelected != nil {
		ct.onSelected(id)
	}
	if selected != "c2" {
		t.Errorf("selected = %q", selected)
	}
}
