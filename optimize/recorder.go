package optimize

import (
	"database/sql"
	"fmt"

	// SQLite driver for the evaluation database.
	_ "github.com/mattn/go-sqlite3"
)

// Recorder persists every GA evaluation to a SQLite database so a sweep can
// be inspected after the fact without re-running simulations.
type Recorder struct {
	db     *sql.DB
	insert *sql.Stmt
}

const createEvaluationsSQL = `
CREATE TABLE IF NOT EXISTS evaluations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	generation INTEGER NOT NULL,
	memspec TEXT NOT NULL,
	addressmapping TEXT NOT NULL,
	mcconfig TEXT NOT NULL,
	clk_mhz INTEGER,
	num_requests INTEGER,
	rw_ratio REAL,
	address_distribution TEXT,
	total_time_ps INTEGER,
	avg_bandwidth_gbps REAL,
	ok INTEGER NOT NULL,
	error TEXT
)`

const insertEvaluationSQL = `
INSERT INTO evaluations (
	run_id, generation, memspec, addressmapping, mcconfig,
	clk_mhz, num_requests, rw_ratio, address_distribution,
	total_time_ps, avg_bandwidth_gbps, ok, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// OpenRecorder opens (creating if needed) the evaluation database at path.
func OpenRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening evaluation database %s: %w", path, err)
	}
	if _, err := db.Exec(createEvaluationsSQL); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("creating evaluations table: %w", err)
	}
	insert, err := db.Prepare(insertEvaluationSQL)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("preparing evaluation insert: %w", err)
	}
	return &Recorder{db: db, insert: insert}, nil
}

// Record appends one evaluation row. Absent metrics are stored as NULL, never
// as zero.
func (r *Recorder) Record(runID string, generation int, ind Individual) error {
	_, err := r.insert.Exec(
		runID, generation,
		ind.MemSpec, ind.AddressMapping, ind.MCConfig,
		nullableInt(ind.ClkMhz), nullableInt(ind.NumRequests),
		nullableFloat(ind.RWRatio), nullableString(ind.AddressDistribution),
		ind.TotalTimePs, ind.BandwidthGBps,
		ind.OK, nullableString(ind.Err),
	)
	if err != nil {
		return fmt.Errorf("inserting evaluation %s: %w", runID, err)
	}
	return nil
}

// Count returns the number of recorded evaluations.
func (r *Recorder) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM evaluations").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting evaluations: %w", err)
	}
	return n, nil
}

// BestRow returns the fastest successful evaluation, if any.
func (r *Recorder) BestRow() (runID string, totalTimePs int64, ok bool, err error) {
	row := r.db.QueryRow(
		"SELECT run_id, total_time_ps FROM evaluations WHERE ok = 1 ORDER BY total_time_ps ASC LIMIT 1")
	switch scanErr := row.Scan(&runID, &totalTimePs); scanErr {
	case nil:
		return runID, totalTimePs, true, nil
	case sql.ErrNoRows:
		return "", 0, false, nil
	default:
		return "", 0, false, fmt.Errorf("querying best evaluation: %w", scanErr)
	}
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	if err := r.insert.Close(); err != nil {
		r.db.Close() //nolint:errcheck
		return fmt.Errorf("closing evaluation insert: %w", err)
	}
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("closing evaluation database: %w", err)
	}
	return nil
}

// Workload genes are zero for hardware-only genomes; store NULL instead of a
// misleading 0.
func nullableInt(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullableFloat(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullableString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
