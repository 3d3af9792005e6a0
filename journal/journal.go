// Package journal keeps a sqlite record of training runs and of the value and
// gradient norm at every major iteration of the optimizer.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	_ "modernc.org/sqlite"
)

type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// RunInfo describes one training run.
type RunInfo struct {
	ID          string
	Description string
	Params      map[string]string
	StartedAt   time.Time
}

// Iteration is the optimizer state after one major iteration.
type Iteration struct {
	Iteration   int
	Value       float64
	GradNorm    float64 // infinity norm, NaN when unknown
	Evaluations int
	Elapsed     time.Duration
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	j := &Journal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		params TEXT,
		started_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS iterations (
		run_id TEXT NOT NULL REFERENCES runs(id),
		iteration INTEGER NOT NULL,
		value REAL NOT NULL,
		grad_norm REAL,
		evaluations INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		PRIMARY KEY (run_id, iteration)
	);
	`
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := j.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// StartRun registers a new run under a fresh id.
func (j *Journal) StartRun(description string, params map[string]string) (*Run, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = j.db.Exec(
		"INSERT INTO runs (id, description, params, started_at) VALUES (?, ?, ?, ?)",
		id, description, string(paramsJSON), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	return &Run{journal: j, ID: id}, nil
}

// Runs lists the runs in the order they were started.
func (j *Journal) Runs() ([]RunInfo, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query("SELECT id, description, params, started_at FROM runs ORDER BY started_at, rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var params sql.NullString
		var started string
		if err := rows.Scan(&r.ID, &r.Description, &params, &started); err != nil {
			return nil, err
		}
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &r.Params); err != nil {
				return nil, fmt.Errorf("run %s: %w", r.ID, err)
			}
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Iterations returns the recorded iterations of a run in order.
func (j *Journal) Iterations(runID string) ([]Iteration, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		"SELECT iteration, value, grad_norm, evaluations, elapsed_ns FROM iterations WHERE run_id = ? ORDER BY iteration",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Iteration
	for rows.Next() {
		var it Iteration
		var elapsed int64
		var gradNorm sql.NullFloat64
		if err := rows.Scan(&it.Iteration, &it.Value, &gradNorm, &it.Evaluations, &elapsed); err != nil {
			return nil, err
		}
		it.GradNorm = math.NaN()
		if gradNorm.Valid {
			it.GradNorm = gradNorm.Float64
		}
		it.Elapsed = time.Duration(elapsed)
		out = append(out, it)
	}
	return out, rows.Err()
}

// Run records the iterations of one training run. It implements
// optimize.Recorder.
type Run struct {
	journal *Journal
	ID      string
}

func (r *Run) Init() error {
	return nil
}

// Record stores the location of every major iteration, other operations are
// ignored.
func (r *Run) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	gradNorm := math.NaN()
	if loc.Gradient != nil {
		gradNorm = floats.Norm(loc.Gradient, math.Inf(1))
	}
	return r.Add(Iteration{
		Iteration:   stats.MajorIterations,
		Value:       loc.F,
		GradNorm:    gradNorm,
		Evaluations: stats.FuncEvaluations,
		Elapsed:     stats.Runtime,
	})
}

// Add stores one iteration of the run.
func (r *Run) Add(it Iteration) error {
	j := r.journal
	j.mu.Lock()
	defer j.mu.Unlock()

	var gradNorm sql.NullFloat64
	if !math.IsNaN(it.GradNorm) {
		gradNorm = sql.NullFloat64{Float64: it.GradNorm, Valid: true}
	}
	_, err := j.db.Exec(
		"INSERT OR REPLACE INTO iterations (run_id, iteration, value, grad_norm, evaluations, elapsed_ns) VALUES (?, ?, ?, ?, ?, ?)",
		r.ID, it.Iteration, it.Value, gradNorm, it.Evaluations, int64(it.Elapsed),
	)
	return err
}
