package ports

import (
	"context"
	"time"

	"pyindex/internal/data/store"
	"pyindex/internal/engine/index"
	"pyindex/internal/engine/object"
	"pyindex/internal/engine/project"
)

// ProjectStore abstracts scan persistence for history and lookup workflows.
type ProjectStore interface {
	SaveProject(ctx context.Context, projectKey string, proj *project.Project, idx *index.Index) (store.Scan, error)
	ListScans(ctx context.Context, projectKey string, limit int) ([]store.Scan, error)
	LatestScan(ctx context.Context, projectKey string) (store.Scan, error)
	LoadObjects(ctx context.Context, scanID string) ([]store.ObjectRow, error)
	LookupPosition(ctx context.Context, scanID, filename string, line int) (store.ObjectRow, error)
	LoadStatements(ctx context.Context, scanID, path string) ([]store.StatementRow, error)
	PruneScans(ctx context.Context, projectKey string, keep int) (int, error)
	Close() error
}

// ScanResult is one complete build of a project's object tree.
type ScanResult struct {
	Project *project.Project
	Index   *index.Index
	// Scan is nil when persistence is disabled.
	Scan *store.Scan
}

// WatchUpdate is emitted after every watch-triggered rebuild. Err is set when
// the rebuild failed; Result then still holds the last good build, if any.
type WatchUpdate struct {
	Changed  []string
	Result   ScanResult
	Err      error
	Duration time.Duration
}

// IndexService is the driving-port surface used by the CLI.
type IndexService interface {
	Scan(ctx context.Context) (ScanResult, error)
	Current() (ScanResult, bool)
	Lookup(ctx context.Context, filename string, line int) (object.Object, error)
	Watch(ctx context.Context, handler func(WatchUpdate)) error
	History(ctx context.Context, limit int) ([]store.TrendPoint, error)
	Close() error
}
