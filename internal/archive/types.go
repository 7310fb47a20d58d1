package archive

import "time"

// Config configures the archive writer.
type Config struct {
	BatchSize     int           // Rows per flush
	FlushInterval time.Duration // Max time a row waits in the batch
	BufferSize    int           // Input channel capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: 1 * time.Second,
		BufferSize:    1000,
	}
}

// Metrics counts writer activity.
type Metrics struct {
	RowsWritten    int64
	BatchesWritten int64
	WriteErrors    int64
	RowsDropped    int64
}

// Row kinds.
const (
	KindLeaderboardUpdate = "leaderboard_update"
	KindNewSolve          = "new_solve"
)

// eventRow is one archived event.
type eventRow struct {
	Kind       string
	Difficulty string // empty for new_solve rows
	EntryCount int
	Payload    []byte // jsonb
	ReceivedAt time.Time
}
