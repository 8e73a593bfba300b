// Package models defines the records exchanged with the file API.
package models

import (
	"github.com/dmitrijs2005/filevault/internal/timex"
)

// FileRecord is the server's description of one uploaded file. The client
// treats it as read-only.
type FileRecord struct {
	ID               int64           `json:"id,omitempty"`
	UniqueID         string          `json:"unique_id"`
	OriginalFilename string          `json:"original_filename"`
	FileSize         int64           `json:"file_size"`
	CreatedAt        timex.Timestamp `json:"created_at"`
	UploaderID       int64           `json:"uploader_id,omitempty"`
}

// Token is the token endpoint response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
