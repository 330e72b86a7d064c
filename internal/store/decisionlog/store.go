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

// 中文说明：
// AI 决策审计日志。每次模型请求/响应（含失败降级）都会落一条记录，
// 独立于主库，方便事后排查模型行为。

type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Record 一条模型调用记录。
type Record struct {
	ID        int64  `json:"id"`
	TraceID   string `json:"trace_id"`
	Timestamp int64  `json:"ts"`
	Symbol    string `json:"symbol"`
	Label     string `json:"label"`
	Reason    string `json:"reason,omitempty"`
	System    string `json:"system_prompt"`
	User      string `json:"user_prompt"`
	RawOutput string `json:"raw_output"`
	Error     string `json:"error,omitempty"`
}

// Query 筛选条件。Limit<=0 时取默认值。
type Query struct {
	Symbol string
	Trace  string
	Limit  int
	Offset int
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("decision log path 不能为空")
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
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS decision_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			trace_id TEXT,
			symbol TEXT NOT NULL,
			label TEXT,
			reason TEXT,
			system_prompt TEXT,
			user_prompt TEXT,
			raw_output TEXT,
			error TEXT,
			created_at INTEGER NOT NULL
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_decision_logs_ts ON decision_logs(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_decision_logs_symbol ON decision_logs(symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_decision_logs_trace ON decision_logs(trace_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Insert 写入一条记录，返回自增 ID。
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return 0, fmt.Errorf("decision log store 未初始化")
	}
	ts := rec.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO decision_logs
			(ts, trace_id, symbol, label, reason, system_prompt, user_prompt, raw_output, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts,
		rec.TraceID,
		strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		rec.Label,
		rec.Reason,
		rec.System,
		rec.User,
		rec.RawOutput,
		rec.Error,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// List 按时间倒序返回记录，支持 symbol/trace 过滤与分页。
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return nil, fmt.Errorf("decision log store 未初始化")
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
	sb.WriteString(`SELECT id, trace_id, ts, symbol, label, reason, system_prompt, user_prompt, raw_output, error
		FROM decision_logs WHERE 1=1`)
	if sym := strings.ToUpper(strings.TrimSpace(q.Symbol)); sym != "" {
		sb.WriteString(" AND symbol=?")
		args = append(args, sym)
	}
	if trace := strings.TrimSpace(q.Trace); trace != "" {
		sb.WriteString(" AND trace_id=?")
		args = append(args, trace)
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
			label     sql.NullString
			reason    sql.NullString
			system    sql.NullString
			user      sql.NullString
			rawOut    sql.NullString
			errorText sql.NullString
		)
		if err := rows.Scan(&rec.ID, &traceID, &rec.Timestamp, &rec.Symbol,
			&label, &reason, &system, &user, &rawOut, &errorText); err != nil {
			return nil, err
		}
		rec.TraceID = traceID.String
		rec.Label = label.String
		rec.Reason = reason.String
		rec.System = system.String
		rec.User = user.String
		rec.RawOutput = rawOut.String
		rec.Error = errorText.String
		list = append(list, rec)
	}
	return list, rows.Err()
}
