package chat

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/mattermost"
	"github.com/halyard-dev/vessel/internal/ui/keys"
)

// Section classifies a channel into a tree section.
type Section int

const (
	SectionChannels Section = iota
	SectionPrivate
	SectionDirect
)

// OnChannelSelectedFunc is called when the user selects a channel.
type OnChannelSelectedFunc func(channelID string)

// ChannelsTree is a tree view that categorises channels into sections.
type ChannelsTree struct {
	*tview.TreeView
	cfg          *config.Config
	root         *tview.TreeNode
	sections     map[Section]*tview.TreeNode
	nodeIndex    map[string]*tview.TreeNode // channelID → node
	channelIDs   map[*tview.TreeNode]string // node → channelID (reverse)
	unreadCounts map[string]int             // channelID → unread count
	onSelected   OnChannelSelectedFunc
}

// NewChannelsTree creates a tree with three section headers.
func NewChannelsTree(cfg *config.Config, onSelected OnChannelSelectedFunc) *ChannelsTree {
	ct := &ChannelsTree{
		TreeView:     tview.NewTreeView(),
		cfg:          cfg,
		nodeIndex:    make(map[string]*tview.TreeNode),
		channelIDs:   make(map[*tview.TreeNode]string),
		unreadCounts: make(map[string]int),
		onSelected:   onSelected,
	}

	ct.root = tview.NewTreeNode("")
	ct.SetRoot(ct.root)
	ct.SetTopLevel(1)
	ct.SetGraphics(false)
	ct.SetBorder(true).SetTitle(" Channels ")

	ct.sections = map[Section]*tview.TreeNode{
		SectionChannels: tview.NewTreeNode("Channels"),
		SectionPrivate:  tview.NewTreeNode("Private"),
		SectionDirect:   tview.NewTreeNode("Direct Messages"),
	}

	// Add sections in display order.
	for _, s := range []Section{SectionChannels, SectionPrivate, SectionDirect} {
		node := ct.sections[s]
		node.SetSelectable(true)
		node.SetExpanded(true)
		ct.root.AddChild(node)
	}

	ct.SetSelectedFunc(func(node *tview.TreeNode) {
		if id, ok := ct.channelIDs[node]; ok && ct.onSelected != nil {
			ct.onSelected(id)
		}
	})

	ct.SetInputCapture(ct.handleInput)

	return ct
}

// SetOnChannelSelected sets the callback for channel selection.
func (ct *ChannelsTree) SetOnChannelSelected(fn OnChannelSelectedFunc) {
	ct.onSelected = fn
}

// Populate clears and rebuilds the tree from the given channels.
func (ct *ChannelsTree) Populate(channels []mattermost.Channel) {
	for _, section := range ct.sections {
		section.ClearChildren()
	}
	ct.nodeIndex = make(map[string]*tview.TreeNode)
	ct.channelIDs = make(map[*tview.TreeNode]string)
	ct.unreadCounts = make(map[string]int)

	sorted := make([]mattermost.Channel, len(channels))
	copy(sorted, channels)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(displayName(sorted[i])) < strings.ToLower(displayName(sorted[j]))
	})

	for _, ch := range sorted {
		ct.addChannelNode(ch)
	}

	ct.setInitialSelection()
}

// AddChannel inserts a single channel into the correct section.
func (ct *ChannelsTree) AddChannel(ch mattermost.Channel) {
	if _, exists := ct.nodeIndex[ch.ID]; exists {
		return
	}
	ct.addChannelNode(ch)
}

// SelectChannel moves the cursor to the given channel's node.
func (ct *ChannelsTree) SelectChannel(channelID string) {
	if node, ok := ct.nodeIndex[channelID]; ok {
		ct.SetCurrentNode(node)
	}
}

// SetUnreadCount updates the unread count badge on a channel node.
// count > 0 sets the unread style and a "(N)" badge; zero clears both.
func (ct *ChannelsTree) SetUnreadCount(channelID string, count int) {
	node, ok := ct.nodeIndex[channelID]
	if !ok {
		return
	}

	ct.unreadCounts[channelID] = count
	base := stripBadge(node.GetText())

	if count > 0 {
		node.SetText(fmt.Sprintf("%s (%d)", base, count))
		node.SetTextStyle(ct.cfg.Theme.ChannelsTree.Unread.Style)
	} else {
		node.SetText(base)
		node.SetTextStyle(ct.cfg.Theme.ChannelsTree.Channel.Style)
		delete(ct.unreadCounts, channelID)
	}
}

// badgeRe matches a trailing " (N)" badge on node text.
var badgeRe = regexp.MustCompile(` \(\d+\)$`)

// stripBadge removes a trailing " (N)" badge from node text.
func stripBadge(text string) string {
	return badgeRe.ReplaceAllString(text, "")
}

// UnreadCount returns the current unread count for a channel.
func (ct *ChannelsTree) UnreadCount(channelID string) int {
	return ct.unreadCounts[channelID]
}

// handleInput processes the collapse and move-to-parent keys.
func (ct *ChannelsTree) handleInput(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Normalize(event.Name())

	switch name {
	case ct.cfg.Keybinds.ChannelsTree.Collapse:
		current := ct.GetCurrentNode()
		if current == nil {
			return event
		}
		// Section header: toggle it. Channel node: toggle its parent.
		for _, section := range ct.sections {
			if current == section {
				section.SetExpanded(!section.IsExpanded())
				return nil
			}
			for _, child := range section.GetChildren() {
				if child == current {
					section.SetExpanded(!section.IsExpanded())
					return nil
				}
			}
		}
		return nil

	case ct.cfg.Keybinds.ChannelsTree.MoveToParent:
		current := ct.GetCurrentNode()
		if current == nil {
			return event
		}
		for _, section := range ct.sections {
			for _, child := range section.GetChildren() {
				if child == current {
					ct.SetCurrentNode(section)
					return nil
				}
			}
		}
		return nil
	}

	return event
}

// addChannelNode creates a node for a channel and adds it to its section.
func (ct *ChannelsTree) addChannelNode(ch mattermost.Channel) {
	section := classifyChannel(ch)
	node := tview.NewTreeNode(channelDisplayText(ch, section))
	node.SetSelectable(true)
	node.SetTextStyle(ct.cfg.Theme.ChannelsTree.Channel.Style)

	ct.sections[section].AddChild(node)
	ct.nodeIndex[ch.ID] = node
	ct.channelIDs[node] = ch.ID
}

// setInitialSelection sets the current node to the first channel node.
func (ct *ChannelsTree) setInitialSelection() {
	for _, s := range []Section{SectionChannels, SectionPrivate, SectionDirect} {
		if children := ct.sections[s].GetChildren(); len(children) > 0 {
			ct.SetCurrentNode(children[0])
			return
		}
	}
}

// classifyChannel maps a channel type to its tree section.
func classifyChannel(ch mattermost.Channel) Section {
	switch ch.Type {
	case mattermost.ChannelPrivate:
		return SectionPrivate
	case mattermost.ChannelDirect, mattermost.ChannelGroup:
		return SectionDirect
	default:
		return SectionChannels
	}
}

// displayName returns the best human-readable name for a channel.
func displayName(ch mattermost.Channel) string {
	if ch.DisplayName != "" {
		return ch.DisplayName
	}
	return ch.Name
}

// channelDisplayText returns the node text for a channel.
func channelDisplayText(ch mattermost.Channel, section Section) string {
	name := displayName(ch)
	switch section {
	case SectionPrivate:
		return fmt.Sprintf("\U0001F512 %s", name) // 🔒
	case SectionDirect:
		return fmt.Sprintf("@ %s", name)
	default:
		return fmt.Sprintf("# %s", name)
	}
}
