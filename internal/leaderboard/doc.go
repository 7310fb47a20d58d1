// Package leaderboard implements the realtime leaderboard client core.
//
// A Service owns at most one live transport session and fans out the
// backend's named events to three listener registries:
//   - leaderboard updates (both difficulties, normalized into Update)
//   - user rank changes (raw payload)
//   - new solves (raw payload)
//
// Connect reuses a live session when one exists; Disconnect tears the
// session down and clears every registry.
package leaderboard
