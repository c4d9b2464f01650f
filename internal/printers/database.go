package printers

import (
	"errors"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/wkitt4/tcprtt/internal/dns"
	"github.com/wkitt4/tcprtt/internal/probes"
	"github.com/wkitt4/tcprtt/internal/stats"
)

const dbSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	input TEXT NOT NULL,
	address TEXT NOT NULL,
	family TEXT NOT NULL,
	port INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS attempts (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	idx INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	success INTEGER NOT NULL,
	rto_ms REAL NOT NULL,
	error TEXT
);
CREATE TABLE IF NOT EXISTS summaries (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	timestamp TEXT NOT NULL,
	attempts INTEGER NOT NULL,
	successes INTEGER NOT NULL,
	success_rate REAL NOT NULL,
	min_ms REAL,
	avg_ms REAL,
	max_ms REAL
);
`

var errNoRun = errors.New("no run has been started")

// Database records a run, its attempts and its summaries in sqlite.
type Database struct {
	conn  *sqlite.Conn
	runID int64
	err   error
}

// NewDatabase opens or creates the sqlite file at path.
func NewDatabase(path string) (*Database, error) {
	conn, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, err
	}

	if err := sqlitex.ExecuteScript(conn, dbSchema, nil); err != nil {
		conn.Close()
		return nil, err
	}

	return &Database{conn: conn}, nil
}

// Err returns the first write error, if any.
func (d *Database) Err() error { return d.err }

func (d *Database) exec(query string, args ...any) {
	if d.err != nil {
		return
	}
	d.err = sqlitex.Execute(d.conn, query, &sqlitex.ExecOptions{Args: args})
}

func (d *Database) PrintStart(input string, dest dns.Destination) {
	d.exec(`INSERT INTO runs (started_at, input, address, family, port) VALUES (?, ?, ?, ?, ?);`,
		time.Now().Format(timeFormat), input, dest.Addr().String(), dest.Family.String(), int64(dest.Port()))
	if d.err == nil {
		d.runID = d.conn.LastInsertRowID()
	}
}

func (d *Database) PrintProbe(index uint, _ dns.Destination, outcome probes.Outcome, err error) {
	if d.runID == 0 {
		d.err = errors.Join(d.err, errNoRun)
		return
	}

	var errText any
	if err != nil {
		errText = err.Error()
	}

	d.exec(`INSERT INTO attempts (run_id, idx, timestamp, success, rto_ms, error) VALUES (?, ?, ?, ?, ?, ?);`,
		d.runID, int64(index), time.Now().Format(timeFormat), boolToInt(outcome.Success), stats.Millis(outcome.Elapsed), errText)
}

func (d *Database) PrintStatistics(s stats.Snapshot) {
	if d.runID == 0 {
		return
	}

	var minMs, avgMs, maxMs any
	if s.HasRTT() {
		minMs, avgMs, maxMs = stats.Millis(s.Min), stats.Millis(s.Average()), stats.Millis(s.Max)
	}

	d.exec(`INSERT INTO summaries (run_id, timestamp, attempts, successes, success_rate, min_ms, avg_ms, max_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		d.runID, time.Now().Format(timeFormat), int64(s.Attempts), int64(s.Successes), s.SuccessRate(), minMs, avgMs, maxMs)
}

func (d *Database) PrintInfo(string, ...any)  {}
func (d *Database) PrintError(string, ...any) {}
func (d *Database) PrintVersion(string)       {}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Close closes the connection and reports the first write error.
func (d *Database) Close() error {
	return errors.Join(d.err, d.conn.Close())
}
