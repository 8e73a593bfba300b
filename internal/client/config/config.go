package config

// Config holds runtime settings for the filevault CLI.
//
// Fields:
//   - ServerBaseURL: absolute http(s) URL of the file service, may carry a path prefix.
//   - SessionDB: SQLite file mirroring the session token; empty keeps it in memory only.
//   - Tab: name of the session scope; separate tabs hold separate tokens.
//   - LogLevel: debug, info, warn or error.
//   - CredentialHeuristic: treat any failure detail mentioning "credentials" as an expired session.
type Config struct {
	ServerBaseURL       string
	SessionDB           string
	Tab                 string
	LogLevel            string
	CredentialHeuristic bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8000"
	c.SessionDB = ""
	c.Tab = "default"
	c.LogLevel = "info"
	c.CredentialHeuristic = true
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
