package services

import (
	"github.com/dmitrijs2005/filevault/internal/client/client"
	"github.com/dmitrijs2005/filevault/internal/client/session"
	"github.com/dmitrijs2005/filevault/internal/logging"
)

// Services is the wired set of components for one session.
type Services struct {
	Gate   *AuthGate
	Files  *FileListController
	Upload *UploadController
}

// New wires the components around one SessionStore and one UI.
func New(c client.Client, store *session.Store, ui UI, logger logging.Logger) *Services {
	gate := NewAuthGate(c, store, ui, logger)
	files := NewFileListController(c, store, gate, ui, logger)
	upload := NewUploadController(c, store, gate, files, ui, logger)
	return &Services{Gate: gate, Files: files, Upload: upload}
}
