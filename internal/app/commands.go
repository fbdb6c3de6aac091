package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/halyard-dev/vessel/internal/mattermost"
)

// parseCommand splits a slash command into its name and argument.
// "/join town-square" yields ("join", "town-square", true).
func parseCommand(text string) (cmd, arg string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", "", false
	}
	return strings.ToLower(fields[0]), strings.Join(fields[1:], " "), true
}

// executeCommand runs a slash command entered in the message input.
// Runs on the tview event loop.
func (a *App) executeCommand(channelID, text string) {
	cmd, arg, ok := parseCommand(text)
	if !ok {
		a.setStatus("Empty command")
		return
	}

	switch cmd {
	case "join":
		if arg == "" {
			a.setStatus("Usage: /join <channel-name>")
			return
		}
		go a.joinChannel(arg)

	case "create":
		if arg == "" {
			a.setStatus("Usage: /create <channel-name> [--private]")
			return
		}
		go a.createChannel(arg)

	case "logout":
		a.logout()

	case "help":
		a.setStatus("Commands: /join <name>, /create <name> [--private], /logout, /help")

	default:
		a.setStatus("Unknown command: /" + cmd)
	}
}

// joinChannel looks a channel up by url name in the active vessel, joins
// it, and selects it.
func (a *App) joinChannel(name string) {
	ctx := context.Background()
	client := a.currentClient()
	vesselID := a.store.CurrentVessel()
	if client == nil || vesselID == "" {
		return
	}

	ch, err := client.GetChannelByName(ctx, vesselID, name)
	if err != nil {
		slog.Warn("channel lookup failed", "name", name, "error", err)
		a.setStatus("No such channel: " + name)
		return
	}

	if err := client.JoinChannel(ctx, ch.ID); err != nil {
		slog.Warn("join failed", "channel", ch.ID, "error", err)
		a.setStatus("Could not join " + name + ": " + err.Error())
		return
	}

	a.addAndSelect(*ch)
}

// createChannel creates a channel in the active vessel and selects it.
// A trailing --private flag makes it invite-only.
func (a *App) createChannel(arg string) {
	ctx := context.Background()
	client := a.currentClient()
	vesselID := a.store.CurrentVessel()
	if client == nil || vesselID == "" {
		return
	}

	name, chType := parseCreateArg(arg)
	if name == "" {
		a.setStatus("Usage: /create <channel-name> [--private]")
		return
	}

	created, err := client.CreateChannel(ctx, &mattermost.Channel{
		TeamID:      vesselID,
		Name:        slugify(name),
		DisplayName: name,
		Type:        chType,
	})
	if err != nil {
		slog.Warn("create channel failed", "name", name, "error", err)
		a.setStatus("Could not create " + name + ": " + err.Error())
		return
	}

	a.addAndSelect(*created)
}

// addAndSelect registers a newly joined or created channel and makes it
// active.
func (a *App) addAndSelect(ch mattermost.Channel) {
	if _, exists := a.store.ChannelByID(ch.ID); exists {
		a.tview.QueueUpdateDraw(func() { a.selectChannel(ch.ID) })
		return
	}

	channels := append(a.store.Channels(), ch)
	a.store.SetChannels(channels)

	a.tview.QueueUpdateDraw(func() {
		a.chatView.ChannelsTree.AddChannel(ch)
		a.chatView.ChannelPicker.SetData(channels)
		a.chatView.MessagesList.SetChannelNames(channelNameMap(channels))
		a.selectChannel(ch.ID)
	})
}

// parseCreateArg splits a /create argument into the channel name and type.
func parseCreateArg(arg string) (name, chType string) {
	name, chType = arg, mattermost.ChannelOpen
	if trimmed, ok := strings.CutSuffix(name, "--private"); ok {
		name = strings.TrimSpace(trimmed)
		chType = mattermost.ChannelPrivate
	}
	return name, chType
}

// slugify converts a display name to a channel url name.
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
