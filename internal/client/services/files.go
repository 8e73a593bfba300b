package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/filevault/internal/client/client"
	"github.com/dmitrijs2005/filevault/internal/client/session"
	"github.com/dmitrijs2005/filevault/internal/logging"
)

// FileListController owns the view of the current user's files. The view is
// only ever replaced whole, from one server response.
type FileListController struct {
	client client.Client
	store  *session.Store
	guard  SessionGuard
	ui     UI
	logger logging.Logger

	mu   sync.Mutex
	view FileListView

	deleting atomic.Bool
}

func NewFileListController(c client.Client, store *session.Store, guard SessionGuard, ui UI, logger logging.Logger) *FileListController {
	return &FileListController{
		client: c,
		store:  store,
		guard:  guard,
		ui:     ui,
		logger: logger.With("module", "file_list"),
		view:   FileListView{State: ViewLoading},
	}
}

// View returns a copy of the current view.
func (f *FileListController) View() FileListView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view.clone()
}

// Deleting reports whether a delete is in flight.
func (f *FileListController) Deleting() bool {
	return f.deleting.Load()
}

// setView replaces and renders the view in one critical section, so the last
// rendered view is always the stored one. RenderFiles must not call back into
// the controller.
func (f *FileListController) setView(v FileListView) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = v
	f.ui.RenderFiles(v.clone())
}

// Refresh reloads the list from the server. Racing refreshes resolve
// last-write-wins.
func (f *FileListController) Refresh(ctx context.Context) error {
	token, ok := f.store.Get()
	if !ok {
		f.setView(FileListView{State: ViewError, Message: MsgLoginRequired})
		f.guard.RequireSession(ctx)
		return client.ErrNoToken
	}

	f.setView(FileListView{State: ViewLoading})

	files, err := f.client.ListFiles(ctx, token)
	if err != nil {
		f.setView(FileListView{State: ViewError, Message: client.UserMessage(err)})
		if errors.Is(err, client.ErrUnauthorized) {
			f.guard.OnAuthExpired(ctx)
		} else {
			f.logger.Warn(ctx, "list failed", "error", err)
		}
		return err
	}

	f.setView(FileListView{State: ViewPopulated, Records: files})
	f.logger.Debug(ctx, "list refreshed", "count", len(files))
	return nil
}

// Delete removes a file after the user confirms. On success the list is
// refreshed before Delete returns.
func (f *FileListController) Delete(ctx context.Context, uniqueID string) error {
	if !f.deleting.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer f.deleting.Store(false)

	if !f.ui.Confirm(MsgConfirmDelete) {
		return ErrNotConfirmed
	}

	token, ok := f.store.Get()
	if !ok {
		f.guard.RequireSession(ctx)
		return client.ErrNoToken
	}

	if err := f.client.DeleteFile(ctx, token, uniqueID); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			f.guard.OnAuthExpired(ctx)
			return err
		}
		f.logger.Warn(ctx, "delete failed", "unique_id", uniqueID, "error", err)
		f.ui.Notify(errorPrefix + client.UserMessage(err))
		return err
	}

	f.logger.Info(ctx, "file deleted", "unique_id", uniqueID)
	// The refresh outcome is already in the view.
	_ = f.Refresh(ctx)
	f.ui.Notify(MsgDeleted)
	return nil
}
