package login

import (
	"log/slog"
	"net/url"

	"github.com/rivo/tview"

	"github.com/halyard-dev/vessel/internal/config"
	"github.com/halyard-dev/vessel/internal/keyring"
	"github.com/halyard-dev/vessel/internal/mattermost"
)

// DoneFn is called after successful authentication with the validated client.
type DoneFn func(client *mattermost.Client)

// Form is a tview form that prompts for server and credentials.
type Form struct {
	*tview.Form
	app           *tview.Application
	cfg           *config.Config
	done          DoneFn
	serverField   *tview.InputField
	loginField    *tview.InputField
	passwordField *tview.InputField
}

// New creates a login form. The server field is pre-filled from config when
// set there.
func New(app *tview.Application, cfg *config.Config, done DoneFn) *Form {
	f := &Form{
		Form: tview.NewForm(),
		app:  app,
		cfg:  cfg,
		done: done,
	}

	f.serverField = tview.NewInputField().
		SetLabel("Server URL").
		SetText(cfg.Server)
	f.loginField = tview.NewInputField().
		SetLabel("Login (email or username)")
	f.passwordField = tview.NewInputField().
		SetLabel("Password").
		SetMaskCharacter('*')

	f.AddFormItem(f.serverField).
		AddFormItem(f.loginField).
		AddFormItem(f.passwordField).
		AddButton("Login", f.submit).
		AddButton("Quit", func() { f.app.Stop() }).
		SetBorder(true).
		SetTitle(" vessel login ").
		SetTitleAlign(tview.AlignCenter)

	return f
}

// SetServerURL prefills the server field, overriding the config default.
func (f *Form) SetServerURL(serverURL string) {
	f.serverField.SetText(serverURL)
}

// submit validates the credentials, creates a client, saves the session to
// the keyring, and calls the done callback.
func (f *Form) submit() {
	server := f.serverField.GetText()
	loginID := f.loginField.GetText()
	password := f.passwordField.GetText()

	if server == "" || loginID == "" || password == "" {
		f.showError("Server, login and password are all required.")
		return
	}

	client, err := mattermost.Login(server, loginID, password)
	if err != nil {
		f.showError("Authentication failed: " + err.Error())
		return
	}

	if err := keyring.SetToken(client.Token()); err != nil {
		slog.Warn("failed to store session token in keyring", "error", err)
	}
	if err := keyring.SetServer(client.BaseURL()); err != nil {
		slog.Warn("failed to store server url in keyring", "error", err)
	}

	// Register in the multi-server registry.
	if err := keyring.AddServer(client.BaseURL(), serverName(client.BaseURL()), client.Token()); err != nil {
		slog.Warn("failed to register server", "error", err)
	}

	f.done(client)
}

// serverName derives a short registry name from a server URL.
func serverName(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return serverURL
	}
	return u.Host
}

// showError displays a modal error message and returns to the form on dismiss.
func (f *Form) showError(msg string) {
	modal := tview.NewModal().
		SetText(msg).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(_ int, _ string) {
			f.app.SetRoot(f, true)
		})
	f.app.SetRoot(modal, true)
}
