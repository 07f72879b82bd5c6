package decisionlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps one row per decision cycle so past signals and the plans they
// produced can be inspected after the fact.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Record is the persisted view of one decision cycle.
type Record struct {
	ID           int64   `json:"id"`
	TraceID      string  `json:"trace_id"`
	Timestamp    int64   `json:"ts"`
	Symbol       string  `json:"symbol"`
	Source       string  `json:"source"`
	Action       string  `json:"action"`
	Confidence   float64 `json:"confidence"`
	PositionSize float64 `json:"position_size"`
	Leverage     int     `json:"leverage"`
	StopLoss     float64 `json:"stop_loss,omitempty"`
	TakeProfit   float64 `json:"take_profit,omitempty"`
	Reasoning    string  `json:"reasoning,omitempty"`
	RawResponse  string  `json:"raw_response,omitempty"`
	Error        string  `json:"error,omitempty"`
	PlanJSON     string  `json:"plan_json,omitempty"`
	ExecError    string  `json:"exec_error,omitempty"`
}

// Query filters ListDecisions. Zero values mean no filter.
type Query struct {
	Symbol string
	Source string
	Limit  int
	Offset int
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("decision log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS decision_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trace_id TEXT,
		ts INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		source TEXT,
		action TEXT,
		confidence REAL,
		position_size REAL,
		leverage INTEGER,
		stop_loss REAL,
		take_profit REAL,
		reasoning TEXT,
		raw_response TEXT,
		error TEXT,
		plan_json TEXT,
		exec_error TEXT,
		created_at INTEGER NOT NULL
	);`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_decision_logs_symbol_ts
		ON decision_logs(symbol, ts DESC);`)
	return err
}

// Insert writes one record and returns its row id.
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return 0, fmt.Errorf("decision log store is closed")
	}
	ts := rec.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO decision_logs
			(trace_id, ts, symbol, source, action, confidence, position_size, leverage,
			 stop_loss, take_profit, reasoning, raw_response, error, plan_json, exec_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID, ts, rec.Symbol, rec.Source, rec.Action, rec.Confidence, rec.PositionSize,
		rec.Leverage, rec.StopLoss, rec.TakeProfit, rec.Reasoning, rec.RawResponse,
		rec.Error, rec.PlanJSON, rec.ExecError, time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// ListDecisions returns the newest records first, optionally filtered by
// symbol and source.
func (s *Store) ListDecisions(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("decision log store is closed")
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	var args []interface{}
	var sb strings.Builder
	sb.WriteString(`SELECT id, trace_id, ts, symbol, source, action, confidence, position_size,
		leverage, stop_loss, take_profit, reasoning, raw_response, error, plan_json, exec_error
		FROM decision_logs WHERE 1=1`)
	if strings.TrimSpace(q.Symbol) != "" {
		sb.WriteString(" AND symbol=?")
		args = append(args, strings.TrimSpace(q.Symbol))
	}
	if strings.TrimSpace(q.Source) != "" {
		sb.WriteString(" AND source=?")
		args = append(args, strings.TrimSpace(q.Source))
	}
	sb.WriteString(" ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Record
	for rows.Next() {
		var (
			rec       Record
			traceID   sql.NullString
			source    sql.NullString
			action    sql.NullString
			stopLoss  sql.NullFloat64
			takeProf  sql.NullFloat64
			reasoning sql.NullString
			rawResp   sql.NullString
			errStr    sql.NullString
			planJSON  sql.NullString
			execErr   sql.NullString
		)
		if err := rows.Scan(&rec.ID, &traceID, &rec.Timestamp, &rec.Symbol, &source, &action,
			&rec.Confidence, &rec.PositionSize, &rec.Leverage, &stopLoss, &takeProf,
			&reasoning, &rawResp, &errStr, &planJSON, &execErr); err != nil {
			return nil, err
		}
		rec.TraceID = traceID.String
		rec.Source = source.String
		rec.Action = action.String
		rec.StopLoss = stopLoss.Float64
		rec.TakeProfit = takeProf.Float64
		rec.Reasoning = reasoning.String
		rec.RawResponse = rawResp.String
		rec.Error = errStr.String
		rec.PlanJSON = planJSON.String
		rec.ExecError = execErr.String
		list = append(list, rec)
	}
	return list, rows.Err()
}
