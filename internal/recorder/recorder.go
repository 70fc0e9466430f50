package recorder

import "time"

// Cycle statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// CycleRecord summarizes one update cycle.
type CycleRecord struct {
	ID         string
	Source     string // "form", "query"
	Trigger    string // "cli", "http", "schedule", "telegram"
	Symbol     string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Error      string
	Charts     []ChartRecord
}

// ChartRecord summarizes one chart rendered within a cycle.
type ChartRecord struct {
	Container string
	Symbol    string
	TimeFrame string
	Query     string
	Candles   int
	Points    int
	Ranges    int
}

// Recorder persists cycle history for later inspection.
type Recorder interface {
	RecordCycle(rec *CycleRecord) error
	RecentCycles(limit int) ([]CycleRecord, error)
	Close() error
}
