package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/dmitrijs2005/filevault/internal/client/client"
	"github.com/dmitrijs2005/filevault/internal/client/session"
	"github.com/dmitrijs2005/filevault/internal/logging"
)

// Opener opens the selected file's content. It may be called once per submit.
type Opener func() (io.ReadCloser, error)

type selection struct {
	name string
	open Opener
}

// UploadController runs at most one upload at a time.
//
// States: Idle -> Submitting -> Idle (with a result or an error status).
type UploadController struct {
	client client.Client
	store  *session.Store
	guard  SessionGuard
	files  Refresher
	ui     UI
	logger logging.Logger

	busy atomic.Bool

	mu       sync.Mutex
	selected *selection
	state    UploadState
}

func NewUploadController(c client.Client, store *session.Store, guard SessionGuard, files Refresher, ui UI, logger logging.Logger) *UploadController {
	return &UploadController{
		client: c,
		store:  store,
		guard:  guard,
		files:  files,
		ui:     ui,
		logger: logger.With("module", "upload"),
	}
}

// Select attaches a file to the form, replacing any previous selection.
func (u *UploadController) Select(filename string, open Opener) {
	u.mu.Lock()
	u.selected = &selection{name: filename, open: open}
	u.mu.Unlock()
}

func (u *UploadController) ClearSelection() {
	u.mu.Lock()
	u.selected = nil
	u.mu.Unlock()
}

// Selected returns the name of the attached file, if any.
func (u *UploadController) Selected() (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.selected == nil {
		return "", false
	}
	return u.selected.name, true
}

// Busy reports whether an upload is in flight.
func (u *UploadController) Busy() bool {
	return u.busy.Load()
}

func (u *UploadController) State() UploadState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *UploadController) setState(s UploadState) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
	u.ui.RenderUpload(s)
}

// Submit uploads the selected file. Without a selection it fails with
// ErrLocalValidation and never contacts the server. While an upload is in
// flight further calls fail with ErrBusy.
func (u *UploadController) Submit(ctx context.Context) (*UploadResult, error) {
	if u.busy.Load() {
		return nil, ErrBusy
	}

	u.mu.Lock()
	sel := u.selected
	u.mu.Unlock()

	if sel == nil {
		u.setState(UploadState{Status: MsgNoFileSelected})
		return nil, fmt.Errorf("%w: %s", ErrLocalValidation, MsgNoFileSelected)
	}

	if !u.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	// Whatever happens below, including a panic, the form leaves Submitting.
	final := UploadState{Status: errorPrefix + MsgUploadFailed}
	defer func() {
		u.busy.Store(false)
		u.setState(final)
	}()

	u.setState(UploadState{Busy: true, Status: MsgUploading})

	token, ok := u.store.Get()
	if !ok {
		final = UploadState{Status: MsgLoginRequired}
		u.guard.RequireSession(ctx)
		return nil, client.ErrNoToken
	}

	rc, err := sel.open()
	if err != nil {
		msg := fmt.Sprintf("读取文件失败: %v", err)
		final = UploadState{Status: errorPrefix + msg}
		return nil, fmt.Errorf("%w: %s", ErrLocalValidation, msg)
	}
	defer rc.Close()

	rec, err := u.client.UploadFile(ctx, token, rc, sel.name)
	if err != nil {
		msg := client.UserMessage(err)
		if msg == "" {
			msg = MsgUploadFailed
		}
		if errors.Is(err, client.ErrUnauthorized) {
			// The expiry notice is the last word.
			final = UploadState{}
			u.guard.OnAuthExpired(ctx)
			return nil, err
		}

		final = UploadState{Status: errorPrefix + msg}
		u.logger.Warn(ctx, "upload failed", "filename", sel.name, "error", err)
		return nil, err
	}

	res := &UploadResult{
		Filename:    rec.OriginalFilename,
		UniqueID:    rec.UniqueID,
		DownloadURL: u.client.DownloadURL(rec.UniqueID),
	}
	if res.Filename == "" {
		res.Filename = sel.name
	}
	u.logger.Info(ctx, "file uploaded", "filename", res.Filename, "unique_id", res.UniqueID)

	u.ClearSelection()
	// The refresh outcome is already in the file view.
	_ = u.files.Refresh(ctx)

	final = UploadState{Status: MsgUploaded, Result: res}
	return res, nil
}
