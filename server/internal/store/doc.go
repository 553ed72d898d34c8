// Package store keeps recently computed audit reports in memory so the UI can
// list and re-open them without recomputing. Entries expire after a TTL.
package store
