package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/filevault/internal/client/models"
)

// Client is the remote file API as seen by the services layer.
type Client interface {
	Register(ctx context.Context, username string, password []byte) error
	Authenticate(ctx context.Context, username string, password []byte) (string, error)
	UploadFile(ctx context.Context, token string, file io.Reader, filename string) (*models.FileRecord, error)
	ListFiles(ctx context.Context, token string) ([]models.FileRecord, error)
	DeleteFile(ctx context.Context, token string, uniqueID string) error
	ViewFile(ctx context.Context, uniqueID string) (*models.FileRecord, error)

	// DownloadURL returns the public download path of a file. No I/O.
	DownloadURL(uniqueID string) string
	// AbsoluteURL resolves a path returned by DownloadURL against the server.
	AbsoluteURL(path string) string
}
