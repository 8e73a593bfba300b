package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filevault/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer fields
// tell an absent key from an empty value.
type JsonConfig struct {
	ServerBaseURL       *string `json:"server_base_url"`
	SessionDB           *string `json:"session_db"`
	Tab                 *string `json:"tab"`
	LogLevel            *string `json:"log_level"`
	CredentialHeuristic *bool   `json:"credential_heuristic"`
}

// parseJson overlays Config with values loaded from a JSON file named by -c
// or -config. Without either flag nothing is loaded. Read and unmarshal errors
// panic. Only keys present in the file override cfg.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != nil {
		cfg.ServerBaseURL = *jc.ServerBaseURL
	}
	if jc.SessionDB != nil {
		cfg.SessionDB = *jc.SessionDB
	}
	if jc.Tab != nil {
		cfg.Tab = *jc.Tab
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.CredentialHeuristic != nil {
		cfg.CredentialHeuristic = *jc.CredentialHeuristic
	}
}
