// Package config loads runtime configuration for the filevault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the file service (default http://127.0.0.1:8000)
//	-s string   SQLite file to keep the session in; empty keeps it in memory
//	-t string   session tab name (default "default")
//	-l string   log level (default info)
//
// # JSON schema
//
// Every key is optional:
//
//	{
//	  "server_base_url": "http://127.0.0.1:8000",
//	  "session_db": "/home/me/.filevault/session.db",
//	  "tab": "default",
//	  "log_level": "debug",
//	  "credential_heuristic": false
//	}
//
// credential_heuristic can only be set from JSON.
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
