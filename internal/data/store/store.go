// Package store persists indexed project trees in SQLite so that scans can
// be queried and compared without re-parsing the sources.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"
	"pyindex/internal/engine/project"
	"pyindex/internal/shared/observability"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// Fixed-width so that ts_utc sorts chronologically as text.
	tsLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var (
	ErrScanNotFound   = errors.New("scan not found")
	ErrObjectNotFound = errors.New("object not found")
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open opens or creates the database at path and migrates it to the
// current schema. busyTimeout <= 0 uses two seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	// busy_timeout + WAL reduce lock conflicts while watch mode rewrites scans.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveProject writes proj and its index as a new scan in one transaction.
func (s *Store) SaveProject(ctx context.Context, projectKey string, proj *project.Project, idx *index.Index) (Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		observability.StoreWriteDuration.Observe(time.Since(start).Seconds())
	}()

	stats := idx.Stats()
	scan := Scan{
		ID:             uuid.NewString(),
		ProjectKey:     normalizeKey(projectKey),
		Root:           proj.Dir,
		RootModule:     proj.Root.Name(),
		Timestamp:      time.Now().UTC(),
		FileCount:      proj.Files,
		ModuleCount:    stats.Modules,
		ClassCount:     stats.Classes,
		FunctionCount:  stats.Functions,
		AltCount:       stats.Alts,
		StatementCount: stats.Statements,
		Duration:       proj.Duration,
	}

	err := s.withRetry("save project", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := insertScan(ctx, tx, scan, idx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return Scan{}, err
	}
	return scan, nil
}

func insertScan(ctx context.Context, tx *sql.Tx, scan Scan, idx *index.Index) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO scans (
  scan_id, project_key, root, root_module, ts_utc, file_count, module_count,
  class_count, function_count, alt_count, statement_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.ProjectKey, scan.Root, scan.RootModule,
		scan.Timestamp.Format(tsLayout), scan.FileCount, scan.ModuleCount,
		scan.ClassCount, scan.FunctionCount, scan.AltCount, scan.StatementCount,
		scan.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	objStmt, err := tx.PrepareContext(ctx, `
INSERT INTO objects (scan_id, path, kind, alt, filename, start_line, end_line, depth, signature)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare object insert: %w", err)
	}
	defer objStmt.Close()

	lineStmt, err := tx.PrepareContext(ctx, `INSERT INTO statements (scan_id, path, line, kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement insert: %w", err)
	}
	defer lineStmt.Close()

	for _, e := range idx.Items() {
		span := e.Object.Data().Span()
		signature := ""
		fn, isFn := object.Unwrap(e.Object).(*object.Function)
		if isFn {
			signature = fn.FormatArgs()
		}
		if _, err := objStmt.ExecContext(ctx,
			scan.ID, e.Path, string(e.Kind), boolInt(e.Alt), span.Path(),
			span.Start(), span.End(), e.Depth, signature,
		); err != nil {
			return fmt.Errorf("insert object %s: %w", e.Path, err)
		}
		if !isFn {
			continue
		}
		stmts := fn.Statements()
		for _, line := range fn.StatementLines() {
			if _, err := lineStmt.ExecContext(ctx, scan.ID, e.Path, line, string(stmts[line])); err != nil {
				return fmt.Errorf("insert statement %s:%d: %w", e.Path, line, err)
			}
		}
	}
	return nil
}

// ListScans returns the newest scans of a project, newest first. limit <= 0
// returns all of them.
func (s *Store) ListScans(ctx context.Context, projectKey string, limit int) ([]Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := scanColumns + ` WHERE project_key = ? ORDER BY ts_utc DESC, scan_id ASC`
	args := []any{normalizeKey(projectKey)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list scans", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]Scan, 0)
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan rows: %w", err)
	}
	return scans, nil
}

// LatestScan returns ErrScanNotFound when the project has no scans.
func (s *Store) LatestScan(ctx context.Context, projectKey string) (Scan, error) {
	scans, err := s.ListScans(ctx, projectKey, 1)
	if err != nil {
		return Scan{}, err
	}
	if len(scans) == 0 {
		return Scan{}, ErrScanNotFound
	}
	return scans[0], nil
}

// LoadObjects returns the objects of a scan ordered by file and line.
func (s *Store) LoadObjects(ctx context.Context, scanID string) ([]ObjectRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load objects", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT path, kind, alt, filename, start_line, end_line, depth, signature
FROM objects WHERE scan_id = ?
ORDER BY filename ASC, start_line ASC, path ASC`, scanID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ObjectRow, 0)
	for rows.Next() {
		var (
			row ObjectRow
			alt int
		)
		if err := rows.Scan(&row.Path, &row.Kind, &alt, &row.Filename, &row.StartLine, &row.EndLine, &row.Depth, &row.Signature); err != nil {
			return nil, fmt.Errorf("scan object row: %w", err)
		}
		row.Alt = alt != 0
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate object rows: %w", err)
	}
	return out, nil
}

// LookupPosition finds the innermost object of a scan whose span encloses
// filename:line.
func (s *Store) LookupPosition(ctx context.Context, scanID, filename string, line int) (ObjectRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		row ObjectRow
		alt int
	)
	err := s.withRetry("lookup position", func() error {
		return s.db.QueryRowContext(ctx, `
SELECT path, kind, alt, filename, start_line, end_line, depth, signature
FROM objects WHERE scan_id = ? AND filename = ? AND start_line <= ? AND end_line >= ?
ORDER BY depth DESC, start_line DESC LIMIT 1`, scanID, filename, line, line).
			Scan(&row.Path, &row.Kind, &alt, &row.Filename, &row.StartLine, &row.EndLine, &row.Depth, &row.Signature)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return ObjectRow{}, fmt.Errorf("no object at %s:%d: %w", filename, line, ErrObjectNotFound)
	}
	if err != nil {
		return ObjectRow{}, err
	}
	row.Alt = alt != 0
	return row, nil
}

// LoadStatements returns the harvested statements of one function.
func (s *Store) LoadStatements(ctx context.Context, scanID, path string) ([]StatementRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load statements", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx,
			`SELECT line, kind FROM statements WHERE scan_id = ? AND path = ? ORDER BY line ASC`, scanID, path)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StatementRow, 0)
	for rows.Next() {
		var row StatementRow
		if err := rows.Scan(&row.Line, &row.Kind); err != nil {
			return nil, fmt.Errorf("scan statement row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statement rows: %w", err)
	}
	return out, nil
}

// PruneScans deletes all but the newest keep scans of a project and
// returns how many were removed.
func (s *Store) PruneScans(ctx context.Context, projectKey string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	var removed int64
	err := s.withRetry("prune scans", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM scans WHERE project_key = ? AND scan_id NOT IN (
  SELECT scan_id FROM scans WHERE project_key = ? ORDER BY ts_utc DESC, scan_id ASC LIMIT ?
)`, normalizeKey(projectKey), normalizeKey(projectKey), keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return int(removed), err
}

const scanColumns = `
SELECT
  scan_id, project_key, root, root_module, ts_utc, file_count, module_count,
  class_count, function_count, alt_count, statement_count, duration_ms
FROM scans`

func scanRow(rows *sql.Rows) (Scan, error) {
	var (
		scan       Scan
		tsRaw      string
		durationMS int64
	)
	if err := rows.Scan(
		&scan.ID,
		&scan.ProjectKey,
		&scan.Root,
		&scan.RootModule,
		&tsRaw,
		&scan.FileCount,
		&scan.ModuleCount,
		&scan.ClassCount,
		&scan.FunctionCount,
		&scan.AltCount,
		&scan.StatementCount,
		&durationMS,
	); err != nil {
		return Scan{}, fmt.Errorf("scan scan row: %w", err)
	}
	ts, err := time.Parse(tsLayout, tsRaw)
	if err != nil {
		return Scan{}, fmt.Errorf("parse scan timestamp %q: %w", tsRaw, err)
	}
	scan.Timestamp = ts.UTC()
	scan.Duration = time.Duration(durationMS) * time.Millisecond
	return scan, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func normalizeKey(projectKey string) string {
	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		return "default"
	}
	return projectKey
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
