// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/sweeplive/leaderboard-stream/internal/version.Version=1.0.0 \
//	                   -X github.com/sweeplive/leaderboard-stream/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/sweeplive/leaderboard-stream/internal/version.BackendURL=https://api.sweep.live"
package version

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"

	// BuildTime is the UTC build timestamp (ISO 8601)
	BuildTime = "unknown"

	// BackendURL is the leaderboard backend base URL baked into the binary.
	// Empty means the URL is resolved from config or environment at runtime.
	BackendURL = ""
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ") built " + BuildTime
}
