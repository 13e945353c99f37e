package store

// Run queries
const (
	queryInsertRun = `
		INSERT INTO runs (id, started_at, jobs, is_ordered, state, total, failed)
		VALUES (?, ?, ?, ?, ?, 0, 0)`

	queryFinishRun = `
		UPDATE runs
		SET finished_at = ?, state = ?, total = ?, failed = ?
		WHERE id = ?`
)

// Result queries
const (
	queryInsertResult = `
		INSERT INTO results (run_id, seq, path, action, type, status, message, refds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

var runColumns = []string{
	"id", "started_at", "finished_at", "jobs", "is_ordered", "state", "total", "failed",
}

var resultColumns = []string{
	"run_id", "seq", "path", "action", "type", "status", "message", "refds",
}
