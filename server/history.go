package server

import (
	"sync"

	"qmaze/reinforcement"
)

// HistoryLog is the server's own copy of the training history, appended to by the
// training goroutine and read by request handlers.
type HistoryLog struct {
	mu      sync.Mutex
	records []reinforcement.EpisodeRecord
	table   *reinforcement.QTable
}

func NewHistoryLog() *HistoryLog {
	return &HistoryLog{}
}

// Record appends the result's record and keeps its table as the latest.
func (hl *HistoryLog) Record(result *reinforcement.EpisodeResult) {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	hl.records = append(hl.records, result.EpisodeRecord)
	hl.table = result.QTable
}

// Snapshot returns a copy of the records and the latest table, which may be nil.
func (hl *HistoryLog) Snapshot() ([]reinforcement.EpisodeRecord, *reinforcement.QTable) {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	records := make([]reinforcement.EpisodeRecord, len(hl.records))
	copy(records, hl.records)
	return records, hl.table
}

func (hl *HistoryLog) Len() int {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return len(hl.records)
}
