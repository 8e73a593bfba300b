package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/filevault/internal/client/client"
	"github.com/dmitrijs2005/filevault/internal/client/session"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
)

// AuthGate decides whether a page may proceed, runs login and logout and is
// the only place that tears a session down.
type AuthGate struct {
	client client.Client
	store  *session.Store
	ui     UI
	logger logging.Logger

	busy atomic.Bool
}

func NewAuthGate(c client.Client, store *session.Store, ui UI, logger logging.Logger) *AuthGate {
	return &AuthGate{
		client: c,
		store:  store,
		ui:     ui,
		logger: logger.With("module", "auth_gate"),
	}
}

// RequireSession reports whether a token is present. If not, the user is
// told to log in and sent to the login page.
func (g *AuthGate) RequireSession(ctx context.Context) bool {
	if _, ok := g.store.Get(); ok {
		return true
	}
	g.logger.Debug(ctx, "no session, redirecting to login")
	g.ui.Notify(MsgLoginRequired)
	g.ui.Navigate(PageLogin)
	return false
}

// Busy reports whether a login or registration request is in flight.
func (g *AuthGate) Busy() bool {
	return g.busy.Load()
}

// OnLoginSubmit authenticates and, on success, stores the token and opens
// the main page. password is wiped before returning.
func (g *AuthGate) OnLoginSubmit(ctx context.Context, username string, password []byte) error {
	defer common.WipeByteArray(password)

	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	defer g.busy.Store(false)

	g.ui.RenderLogin(LoginState{Busy: true, Status: MsgLoggingIn})

	token, err := g.client.Authenticate(ctx, username, password)
	if err != nil {
		g.logger.Warn(ctx, "login failed", "username", username, "error", err)
		g.ui.RenderLogin(LoginState{Status: errorPrefix + client.UserMessage(err)})
		return err
	}

	g.store.Set(token)
	g.logger.Info(ctx, "logged in", "username", username)
	g.ui.RenderLogin(LoginState{Status: MsgLoginSucceeded})
	g.ui.Navigate(PageMain)
	return nil
}

// OnRegisterSubmit creates an account. The user stays on the login page and
// logs in separately. password is wiped before returning.
func (g *AuthGate) OnRegisterSubmit(ctx context.Context, username string, password []byte) error {
	defer common.WipeByteArray(password)

	if username == "" || len(password) == 0 {
		g.ui.RenderLogin(LoginState{Status: errorPrefix + MsgNeedCredential})
		return fmt.Errorf("%w: %s", ErrLocalValidation, MsgNeedCredential)
	}

	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}

	defer g.busy.Store(false)

	g.ui.RenderLogin(LoginState{Busy: true, Status: MsgRegistering})

	if err := g.client.Register(ctx, username, password); err != nil {
		g.logger.Warn(ctx, "registration failed", "username", username, "error", err)
		g.ui.RenderLogin(LoginState{Status: errorPrefix + client.UserMessage(err)})
		return err
	}

	g.logger.Info(ctx, "registered", "username", username)
	g.ui.RenderLogin(LoginState{Status: MsgRegistered})
	return nil
}

// OnAuthExpired clears the session, tells the user and opens the login page.
func (g *AuthGate) OnAuthExpired(ctx context.Context) {
	g.logger.Info(ctx, "session rejected by server")
	g.teardown(MsgSessionExpired)
}

// Logout asks for confirmation and then ends the session. It reports whether
// the user confirmed.
func (g *AuthGate) Logout(ctx context.Context) bool {
	if !g.ui.Confirm(MsgConfirmLogout) {
		return false
	}
	g.logger.Info(ctx, "logged out")
	g.teardown(MsgLoggedOut)
	return true
}

func (g *AuthGate) teardown(msg string) {
	g.store.Clear()
	g.ui.Notify(msg)
	g.ui.Navigate(PageLogin)
}
