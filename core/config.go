package core

// Credential strategies. The token strategy returns a signed JWT that the
// client presents as a bearer header; the session strategy sets an opaque
// cookie backed by a server-side session record.
const (
	StrategyToken   = "token"
	StrategySession = "session"
)

type Config struct {
	// Credential configuration
	Strategy      string `yaml:"strategy"`       // "token" or "session"
	JWTSecret     string `yaml:"jwt_secret"`     // Secret key for signing credential JWTs
	EncryptionKey string `yaml:"encryption_key"` // 32-byte key for encrypting session access tokens
	CredentialTTL int    `yaml:"credential_ttl"` // Credential lifetime in seconds
	StateTTL      int    `yaml:"state_ttl"`      // OAuth state lifetime in seconds

	// Aggregation configuration
	MaxLevel              int `yaml:"max_level"`              // Only characters at this level are kept
	EnrichmentConcurrency int `yaml:"enrichment_concurrency"` // Characters enriched in flight at once

	// Redirect targets
	PostLoginRedirect string `yaml:"post_login_redirect"`
	LogoutRedirect    string `yaml:"logout_redirect"`
}

// Defaults applied by the config loader for zero-valued fields.
const (
	DefaultCredentialTTL         = 86400 // 24h
	DefaultStateTTL              = 600   // 10min
	DefaultMaxLevel              = 80
	DefaultEnrichmentConcurrency = 8
	DefaultPostLoginRedirect     = "/#login"
	DefaultLogoutRedirect        = "/"
)

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyToken
	}
	if c.CredentialTTL == 0 {
		c.CredentialTTL = DefaultCredentialTTL
	}
	if c.StateTTL == 0 {
		c.StateTTL = DefaultStateTTL
	}
	if c.MaxLevel == 0 {
		c.MaxLevel = DefaultMaxLevel
	}
	if c.EnrichmentConcurrency == 0 {
		c.EnrichmentConcurrency = DefaultEnrichmentConcurrency
	}
	if c.PostLoginRedirect == "" {
		c.PostLoginRedirect = DefaultPostLoginRedirect
	}
	if c.LogoutRedirect == "" {
		c.LogoutRedirect = DefaultLogoutRedirect
	}
}
