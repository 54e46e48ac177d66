// Package index keeps a queryable SQLite table of per-frame statistics next
// to the trace files.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tilescene.ai/internal/trace"
)

type SQLiteIndex struct {
	db     *sql.DB
	insert *sql.Stmt

	// mu guards closed and every send on ch.
	mu     sync.RWMutex
	closed bool
	ch     chan row
	wg     sync.WaitGroup
	once   sync.Once

	dropped atomic.Uint64
}

type row struct {
	run   string
	frame trace.Frame
	// flushed is closed once every earlier row is committed.
	flushed chan struct{}
}

type Stats struct {
	DropTotal     uint64
	QueueDepth    int
	QueueCapacity int
}

// Totals sums the frames of one run.
type Totals struct {
	Frames    int
	Drawn     int
	DrawCalls int
	Entities  int
	Failures  int
	Nanos     int64
}

const queueSize = 16384

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	insert, err := db.Prepare(`INSERT OR REPLACE INTO frames(run,frame,pending,drawn,draw_calls,entities,occluders,failures,early_exit,nanos,err) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	s := &SQLiteIndex{db: db, insert: insert, ch: make(chan row, queueSize)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS frames (
			run TEXT NOT NULL,
			frame INTEGER NOT NULL,
			pending INTEGER NOT NULL,
			drawn INTEGER NOT NULL,
			draw_calls INTEGER NOT NULL,
			entities INTEGER NOT NULL,
			occluders INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			early_exit INTEGER NOT NULL,
			nanos INTEGER NOT NULL,
			err TEXT,
			PRIMARY KEY (run, frame)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordFrame queues a frame row. Rows are dropped when the writer falls
// behind; the trace file stays the source of truth.
func (s *SQLiteIndex) RecordFrame(run string, f trace.Frame) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	f.Draws = nil
	select {
	case s.ch <- row{run: run, frame: f}:
	default:
		s.dropped.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		DropTotal:     s.dropped.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()
	defer s.insert.Close()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.flushed != nil {
			commit()
			close(r.flushed)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		f := r.frame
		early := 0
		if f.EarlyExit {
			early = 1
		}
		var errText any
		if f.Err != "" {
			errText = f.Err
		}
		if _, err := tx.Stmt(s.insert).Exec(r.run, int64(f.Frame), f.Pending, f.Drawn, f.DrawCalls,
			f.Entities, f.Occluders, f.Failures, early, f.Nanos, errText); err != nil {
			_ = tx.Rollback()
			tx = nil
			continue
		}
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}

// Flush waits until every queued row is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil {
		return nil
	}
	done := make(chan struct{})
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil
	}
	select {
	case s.ch <- row{flushed: done}:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FrameCount is the number of indexed frames of run.
func (s *SQLiteIndex) FrameCount(ctx context.Context, run string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM frames WHERE run = ?`, run).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) Totals(ctx context.Context, run string) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(drawn),0), COALESCE(SUM(draw_calls),0),
		COALESCE(SUM(entities),0), COALESCE(SUM(failures),0), COALESCE(SUM(nanos),0)
		FROM frames WHERE run = ?`, run).Scan(&t.Frames, &t.Drawn, &t.DrawCalls, &t.Entities, &t.Failures, &t.Nanos)
	return t, err
}

// Runs lists the indexed run ids.
func (s *SQLiteIndex) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run FROM frames ORDER BY run`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var run string
		if err := rows.Scan(&run); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
