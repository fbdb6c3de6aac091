package app

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rivo/tview"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/keyring"
	"github.com/halyard-dev/vessel/internal/mattermost"
	"github.com/halyard-dev/vessel/internal/store"
	"github.com/halyard-dev/vessel/internal/ui/chat"
	"github.com/halyard-dev/vessel/internal/ui/keys"
	"github.com/halyard-dev/vessel/internal/ui/login"
)

// App is the top-level application struct.
type App struct {
	Config   *config.Config
	tview    *tview.Application
	store    *store.Store
	chatView *chat.View

	// client is replaced on login and cleared on logout while background
	// goroutines may still be running, so all access goes through mu.
	client *mattermost.Client
	users  map[string]mattermost.User

	cancelWS   context.CancelFunc
	cancelPoll context.CancelFunc
	mu         sync.Mutex
}

// New creates a new App with the given config.
func New(cfg *config.Config) *App {
	return &App{
		Config: cfg,
		tview:  tview.NewApplication(),
		users:  make(map[string]mattermost.User),
	}
}

// Run starts the TUI event loop. It attempts to authenticate using the
// stored session and shows the server picker or login form when that is
// missing or expired.
func (a *App) Run() error {
	a.tview.EnableMouse(a.Config.Mouse)

	// Set up OS signal handling for graceful shutdown.
	sigCtx, sigStop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCtx.Done()
		sigStop()
		a.shutdown()
	}()

	// Register global keybindings.
	a.tview.SetInputCapture(a.handleGlobalKey)

	a.startSession()

	return a.tview.Run()
}

// startSession resolves stored credentials and picks the first screen.
// Order: env/default session, then the server registry (auto-connect with
// one entry, picker with several), then the login form.
func (a *App) startSession() {
	token, tokenErr := keyring.GetToken()
	server := a.Config.Server
	if server == "" {
		if s, err := keyring.GetServer(); err == nil {
			server = s
		}
	}

	servers, err := keyring.ListServers()
	if err != nil {
		slog.Warn("error reading server registry", "error", err)
	}

	// No default session, but exactly one registered server: use it.
	if (tokenErr != nil || server == "") && len(servers) == 1 {
		if t, err := keyring.GetServerToken(servers[0]); err == nil {
			server, token, tokenErr = servers[0].URL, t, nil
		}
	}

	if tokenErr == nil && server != "" {
		client, err := mattermost.NewWithToken(server, token)
		if err == nil {
			a.setClient(client)
			a.showMain()
			return
		}
		slog.Warn("stored session invalid, showing login", "server", server, "error", err)
	} else if tokenErr != nil && !errors.Is(tokenErr, gokeyring.ErrNotFound) {
		slog.Warn("error reading session token", "error", tokenErr)
	}

	if len(servers) > 1 {
		a.showServerPicker(servers)
		return
	}
	a.showLogin()
}

// setClient swaps the active client. In-flight goroutines keep the client
// they captured; new work sees the new one.
func (a *App) setClient(client *mattermost.Client) {
	a.mu.Lock()
	a.client = client
	a.mu.Unlock()
}

// currentClient returns the active client, or nil when logged out.
func (a *App) currentClient() *mattermost.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// shutdown tears down the event stream and stops the TUI.
func (a *App) shutdown() {
	a.stopBackground()
	a.tview.Stop()
}

// stopBackground cancels the websocket and poller goroutines.
func (a *App) stopBackground() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancelWS != nil {
		a.cancelWS()
		a.cancelWS = nil
	}
	if a.cancelPoll != nil {
		a.cancelPoll()
		a.cancelPoll = nil
	}
}

// logout deletes the stored session and returns to the login screen.
// Must be called from the tview event loop.
func (a *App) logout() {
	a.stopBackground()

	_ = keyring.DeleteToken()
	if a.store != nil {
		a.store.Logout()
	}

	a.setClient(nil)
	a.chatView = nil
	a.showLogin()
}

// handleGlobalKey processes global keybindings. It returns nil to consume
// the event or the original event to let it propagate.
func (a *App) handleGlobalKey(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Normalize(event.Name())

	if name == a.Config.Keybinds.Quit {
		a.shutdown()
		return nil
	}

	if a.chatView == nil {
		return event
	}

	// Mark-read and refresh only apply outside the input panel.
	if a.chatView.ActivePanel() != chat.PanelInput {
		switch name {
		case a.Config.Keybinds.MarkRead:
			a.markCurrentRead()
			return nil
		case a.Config.Keybinds.MarkAllRead:
			a.markAllRead()
			return nil
		case a.Config.Keybinds.Refresh:
			a.reloadCurrentChannel()
			return nil
		}
	}

	return a.chatView.HandleKey(event)
}

// showLogin sets the root to the login form.
func (a *App) showLogin() {
	a.showLoginFor("")
}

// showLoginFor shows the login form with the server field prefilled.
func (a *App) showLoginFor(serverURL string) {
	form := login.New(a.tview, a.Config, func(client *mattermost.Client) {
		a.setClient(client)
		a.showMain()
	})
	if serverURL != "" {
		form.SetServerURL(serverURL)
	}
	a.tview.SetRoot(form, true)
}

// showServerPicker lets the user choose among registered servers.
func (a *App) showServerPicker(servers []keyring.Server) {
	picker := login.NewServerPicker(servers, a.connectToServer, a.showLogin)
	a.tview.SetRoot(picker, true)
}

// connectToServer resumes a registry session. A rejected token drops the
// stale entry and falls back to the login form for that server.
func (a *App) connectToServer(s keyring.Server) {
	token, err := keyring.GetServerToken(s)
	if err != nil {
		slog.Warn("no stored token for server", "server", s.URL, "error", err)
		a.showLoginFor(s.URL)
		return
	}

	go func() {
		client, err := mattermost.NewWithToken(s.URL, token)
		a.tview.QueueUpdateDraw(func() {
			if err != nil {
				slog.Warn("registry session invalid", "server", s.URL, "error", err)
				var authErr *mattermost.AuthError
				if errors.As(err, &authErr) {
					_ = keyring.RemoveServer(s.URL)
				}
				a.showLoginFor(s.URL)
				return
			}
			a.setClient(client)
			a.showMain()
		})
	}()
}

// showMain sets the root to the chat layout and starts the event stream and
// poller in the background.
func (a *App) showMain() {
	a.stopBackground()

	client := a.currentClient()
	if client == nil {
		a.showLogin()
		return
	}

	a.store = store.New(a.onStoreChange)
	a.store.SetSession(client.UserID, client.Username)

	a.chatView = chat.New(a.tview, a.Config)
	a.chatView.ChannelsTree.SetOnChannelSelected(a.onChannelSelected)
	a.chatView.ChannelPicker.SetOnSelect(a.onChannelSelected)
	a.chatView.VesselPicker.SetOnSelect(a.onVesselSelected)
	a.chatView.MessageInput.SetOnSend(a.onMessageSend)
	a.chatView.StatusBar.SetConnectionStatus("Connecting...")
	a.chatView.FocusPanel(chat.PanelChannels)

	a.tview.SetRoot(a.chatView, true)

	wsCtx, wsCancel := context.WithCancel(context.Background())
	pollCtx, pollCancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.cancelWS = wsCancel
	a.cancelPoll = pollCancel
	a.mu.Unlock()

	go client.RunWebSocket(wsCtx, a.eventHandler())
	go a.runPoller(pollCtx)
	go a.fetchInitialData()
}

// onStoreChange is invoked by the store after every mutation. Mutations can
// originate on any goroutine, so the redraw is queued from a fresh one.
func (a *App) onStoreChange() {
	go a.tview.QueueUpdateDraw(a.refreshFromStore)
}

// refreshFromStore re-renders everything that is derived from store state.
// Must run on the tview event loop.
func (a *App) refreshFromStore() {
	if a.chatView == nil || a.store == nil {
		return
	}

	current := a.store.CurrentChannel()
	if current != "" && current == a.chatView.MessagesList.ChannelID() &&
		a.store.ChannelPhase(current) == store.PhaseLive {
		a.chatView.MessagesList.SetMessages(current, a.store.SnapshotMessages(current))
	}

	for _, ch := range a.store.Channels() {
		a.chatView.ChannelsTree.SetUnreadCount(ch.ID, a.store.UnreadCount(ch.ID))
	}
	a.chatView.StatusBar.SetTotalUnread(a.store.TotalUnread())
}

// eventHandler builds the websocket callbacks feeding the store.
func (a *App) eventHandler() *mattermost.EventHandler {
	return &mattermost.EventHandler{
		OnConnected: func() {
			a.tview.QueueUpdateDraw(func() {
				if a.chatView != nil {
					a.chatView.StatusBar.SetConnectionStatus("Connected")
				}
			})
		},
		OnDisconnected: func(err error) {
			slog.Warn("event stream disconnected", "error", err)
			a.tview.QueueUpdateDraw(func() {
				if a.chatView != nil {
					a.chatView.StatusBar.SetConnectionStatus("Reconnecting...")
				}
			})
		},
		OnPosted: a.onPosted,
		OnPostEdited: func(channelID string, post *mattermost.Post) {
			a.store.MergeIncoming(channelID, *post)
		},
		OnPostDeleted: func(channelID string, post *mattermost.Post) {
			a.store.ApplyDelete(channelID, post.ID)
		},
		OnChannelViewed: func(channelID string) {
			a.store.MarkChannelRead(channelID)
		},
		OnError: func(err error) {
			slog.Error("event stream error", "error", err)
		},
	}
}

// onPosted handles a pushed post. A post landing in the channel the user is
// looking at never becomes unread locally, so the server's read cursor is
// advanced too to keep other clients in step.
func (a *App) onPosted(channelID string, post *mattermost.Post) {
	a.store.MergeIncoming(channelID, *post)
	if channelID == a.store.CurrentChannel() {
		go a.viewChannel(channelID)
	}
	go a.resolveUsers([]string{post.UserID})
}

// fetchInitialData loads vessels and restores the previous selection.
func (a *App) fetchInitialData() {
	ctx := context.Background()

	client := a.currentClient()
	if client == nil {
		return
	}

	teams, err := client.GetMyTeams(ctx)
	if err != nil {
		slog.Error("failed to load vessels", "error", err)
		a.setStatus("Failed to load vessels: " + err.Error())
		return
	}
	a.store.SetVessels(teams)

	if len(teams) == 0 {
		a.setStatus("No vessels on this server")
		return
	}

	last := loadLastState()
	vesselID := teams[0].ID
	for _, t := range teams {
		if t.ID == last.VesselID {
			vesselID = t.ID
			break
		}
	}

	a.tview.QueueUpdateDraw(func() {
		a.chatView.VesselPicker.SetCurrentVessel(vesselID)
		a.chatView.VesselPicker.SetVessels(teams)
	})

	a.loadVessel(vesselID, last.ChannelID)
}

// onVesselSelected handles a vessel switch from the picker.
func (a *App) onVesselSelected(vesselID string) {
	a.chatView.HideVesselPicker()
	a.chatView.VesselPicker.SetCurrentVessel(vesselID)
	go a.loadVessel(vesselID, "")
}

// loadVessel makes a vessel active and loads its channel list. preferred is
// the channel to select once loaded; empty means the first channel.
func (a *App) loadVessel(vesselID, preferred string) {
	ctx := context.Background()

	client := a.currentClient()
	if client == nil {
		return
	}

	a.store.SelectVessel(vesselID)

	channels, err := client.GetMyChannels(ctx, vesselID)
	if err != nil {
		slog.Error("failed to load channels", "vessel", vesselID, "error", err)
		a.setStatus("Failed to load channels: " + err.Error())
		return
	}
	a.store.SetChannels(channels)

	var vesselName string
	for _, v := range a.store.Vessels() {
		if v.ID == vesselID {
			vesselName = v.DisplayName
			if vesselName == "" {
				vesselName = v.Name
			}
		}
	}

	selected := ""
	for _, ch := range channels {
		if ch.ID == preferred {
			selected = ch.ID
			break
		}
	}
	if selected == "" && len(channels) > 0 {
		selected = channels[0].ID
	}

	a.tview.QueueUpdateDraw(func() {
		a.chatView.ChannelsTree.Populate(channels)
		a.chatView.ChannelPicker.SetData(channels)
		a.chatView.StatusBar.SetVesselName(vesselName)
		a.chatView.MessagesList.SetChannelNames(channelNameMap(channels))
		if selected != "" {
			a.selectChannel(selected)
		}
	})
}

// onChannelSelected handles channel selection from the tree or picker.
// Runs on the tview event loop.
func (a *App) onChannelSelected(channelID string) {
	a.selectChannel(channelID)
	a.chatView.FocusPanel(chat.PanelInput)
}

// selectChannel switches the visible channel and kicks off its history
// load. Must run on the tview event loop.
func (a *App) selectChannel(channelID string) {
	ch, ok := a.store.ChannelByID(channelID)
	if !ok {
		return
	}

	a.store.SelectChannel(channelID)
	a.chatView.ChannelsTree.SelectChannel(channelID)
	a.chatView.MessagesList.SetLoading(channelID)
	a.chatView.MessageInput.SetChannel(channelID)

	name := ch.DisplayName
	if name == "" {
		name = ch.Name
	}
	a.chatView.SetChannelHeader(name, ch.Header)

	saveLastState(lastState{VesselID: a.store.CurrentVessel(), ChannelID: channelID})

	epoch := a.store.BeginLoad(channelID)
	go a.loadHistory(channelID, epoch)
	go a.viewChannel(channelID)
}

// loadHistory fetches the most recent page of posts for a channel and
// applies it under the load epoch taken at selection time.
func (a *App) loadHistory(channelID string, epoch uint64) {
	client := a.currentClient()
	if client == nil {
		return
	}

	pl, err := client.GetPosts(context.Background(), channelID, a.Config.MessagesLimit)
	if err != nil {
		slog.Error("failed to load history", "channel", channelID, "error", err)
		a.setStatus("Failed to load messages: " + err.Error())
		return
	}
	if !a.store.ApplyHistory(channelID, epoch, pl.Ascending()) {
		slog.Debug("dropped stale history response", "channel", channelID)
		return
	}

	authors := make([]string, 0, len(pl.Posts))
	for _, p := range pl.Posts {
		authors = append(authors, p.UserID)
	}
	a.resolveUsers(authors)

	// The phase just went live; push the first snapshot explicitly in case
	// the change notification raced the loading placeholder.
	a.tview.QueueUpdateDraw(a.refreshFromStore)
}

// resolveUsers fetches profiles for any of the given user ids not seen
// before and pushes the updated map to the messages list.
func (a *App) resolveUsers(ids []string) {
	client := a.currentClient()
	if client == nil {
		return
	}

	a.mu.Lock()
	missing := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := a.users[id]; !ok {
			missing = append(missing, id)
		}
	}
	a.mu.Unlock()

	if len(missing) == 0 {
		return
	}

	users, err := client.GetUsersByIDs(context.Background(), missing)
	if err != nil {
		slog.Warn("failed to resolve users", "count", len(missing), "error", err)
		return
	}

	a.mu.Lock()
	for _, u := range users {
		a.users[u.ID] = u
	}
	snapshot := make(map[string]mattermost.User, len(a.users))
	for id, u := range a.users {
		snapshot[id] = u
	}
	a.mu.Unlock()

	a.tview.QueueUpdateDraw(func() {
		if a.chatView != nil {
			a.chatView.MessagesList.SetUsers(snapshot)
			a.refreshFromStore()
		}
	})
}

// viewChannel tells the server the channel was viewed, clearing its unreads
// for other clients too.
func (a *App) viewChannel(channelID string) {
	client := a.currentClient()
	if client == nil {
		return
	}
	if err := client.ViewChannel(context.Background(), channelID); err != nil {
		slog.Warn("failed to mark channel viewed", "channel", channelID, "error", err)
	}
}

// onMessageSend dispatches input text: slash commands run directly,
// anything else becomes an optimistic send.
func (a *App) onMessageSend(channelID, text string) {
	if strings.HasPrefix(text, "/") {
		a.executeCommand(channelID, text)
		return
	}
	a.sendMessage(channelID, text)
}

// sendMessage records a pending entry and creates the post in the
// background. The pending id correlates the optimistic entry with the
// server's copy whichever path delivers it first.
func (a *App) sendMessage(channelID, text string) {
	client := a.currentClient()
	if client == nil {
		return
	}

	pendingID := client.UserID + ":" + uuid.NewString()

	a.store.AddPending(channelID, mattermost.Post{
		ChannelID:     channelID,
		UserID:        client.UserID,
		CreateAt:      time.Now().UnixMilli(),
		Message:       text,
		PendingPostID: pendingID,
	})

	go func() {
		created, err := client.CreatePost(context.Background(), &mattermost.Post{
			ChannelID:     channelID,
			Message:       text,
			PendingPostID: pendingID,
		})
		if err != nil {
			slog.Error("failed to send message", "channel", channelID, "error", err)
			a.store.FailPending(channelID, pendingID)
			a.setStatus("Send failed: " + err.Error())
			return
		}
		a.store.ResolvePending(channelID, pendingID, *created)
	}()
}

// markCurrentRead clears unreads on the active channel, locally and on the
// server.
func (a *App) markCurrentRead() {
	channelID := a.store.CurrentChannel()
	if channelID == "" {
		return
	}
	a.store.MarkChannelRead(channelID)
	go a.viewChannel(channelID)
}

// markAllRead clears unreads on every channel in the active vessel.
func (a *App) markAllRead() {
	for _, ch := range a.store.Channels() {
		if a.store.UnreadCount(ch.ID) == 0 {
			continue
		}
		a.store.MarkChannelRead(ch.ID)
		go a.viewChannel(ch.ID)
	}
}

// reloadCurrentChannel refetches history for the active channel.
func (a *App) reloadCurrentChannel() {
	channelID := a.store.CurrentChannel()
	if channelID == "" {
		return
	}
	a.chatView.MessagesList.SetLoading(channelID)
	epoch := a.store.BeginLoad(channelID)
	go a.loadHistory(channelID, epoch)
}

// setStatus shows a transient notice in the status bar for a few seconds.
// Safe to call from any goroutine, including the event loop.
func (a *App) setStatus(msg string) {
	go func() {
		a.tview.QueueUpdateDraw(func() {
			if a.chatView != nil {
				a.chatView.StatusBar.SetNotice(msg)
			}
		})
		<-time.After(4 * time.Second)
		a.tview.QueueUpdateDraw(func() {
			if a.chatView != nil {
				a.chatView.StatusBar.SetNotice("")
			}
		})
	}()
}

// channelNameMap builds the url-name to display-name map used for
// ~channel mention rendering.
func channelNameMap(channels []mattermost.Channel) map[string]string {
	names := make(map[string]string, len(channels))
	for _, ch := range channels {
		name := ch.DisplayName
		if name == "" {
			name = ch.Name
		}
		names[ch.Name] = name
	}
	return names
}
