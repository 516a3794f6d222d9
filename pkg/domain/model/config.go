package model

// SessionConfig represents the resolved configuration of one fetch session.
// BaseDir is absolute by the time any component sees it.
type SessionConfig struct {
	BaseDir     string // Root directory that artifact dirs are resolved under
	Endpoint    string // Model hub endpoint for hub and direct sources
	Token       string `masq:"secret"` // Access token for gated repositories
	Concurrency int    // Maximum number of artifacts fetched in parallel
}
