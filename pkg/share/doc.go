// Package share issues time-boxed links to cost snapshots.
//
// A share is identified by an unguessable random token. Each record holds an
// opaque JSON snapshot, an expiry, an optional password and an optional view
// quota. Reads check expiry first, then the password, then the quota; a
// successful read increments the view count exactly once.
//
// Expiry is enforced on read and by CleanupExpiredShares. Statistics reads
// neither count as views nor evict, so an expired share stays visible to
// GetShareStatistics until the next cleanup.
//
// The Scheduler runs cleanup jobs on a cron schedule.
package share
