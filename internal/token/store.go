// Package token persists the leaderboard auth token between sessions.
//
// Two stores exist: a JSON file under the user config dir (single
// process) and redis (deployments sharing one token across workers).
// An absent token is not an error; stores return the empty string.
package token

import "context"

// Key is the single key the token lives under in every store.
const Key = "auth_token"

// Store reads and writes the persisted auth token.
type Store interface {
	// Token returns the persisted token, or "" when none is stored.
	Token(ctx context.Context) (string, error)

	// SetToken persists the token.
	SetToken(ctx context.Context, tok string) error

	// ClearToken removes the persisted token.
	ClearToken(ctx context.Context) error
}
