package client

import (
	"encoding/json"
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
)

// credentialsKeyword marks auth failures reported without a 401, e.g.
// "Could not validate credentials".
const credentialsKeyword = "credentials"

// parseDetail extracts the backend's failure message from body. The detail
// is either a string or a list of validation errors, in which case the first
// item's "msg" is used. Anything else yields "".
func parseDetail(body []byte) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	raw, ok := envelope[common.DetailField]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		return strings.TrimSpace(items[0].Msg)
	}

	return ""
}

func mentionsCredentials(detail string) bool {
	return strings.Contains(strings.ToLower(detail), credentialsKeyword)
}

// DownloadMessage returns the detail of a failed public download response,
// or a generic fallback.
func DownloadMessage(body []byte) string {
	if d := parseDetail(body); d != "" {
		return d
	}
	return msgDownloadFailed
}
