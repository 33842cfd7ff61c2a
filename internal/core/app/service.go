package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"pyindex/internal/core/errors"
	"pyindex/internal/core/ports"
	"pyindex/internal/data/store"
	"pyindex/internal/engine/object"
	"pyindex/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type indexService struct {
	app *App
}

var _ ports.IndexService = (*indexService)(nil)

func NewIndexService(app *App) ports.IndexService {
	return &indexService{app: app}
}

func (a *App) IndexService() ports.IndexService {
	return NewIndexService(a)
}

func (s *indexService) Unwrap() *App {
	return s.app
}

func (s *indexService) Close() error {
	if s == nil || s.app == nil {
		return nil
	}
	return s.app.Close()
}

// Scan builds the project, persists it when a store is configured and makes
// it the current result. A failed store write fails the scan.
func (s *indexService) Scan(ctx context.Context) (ports.ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "indexService.Scan",
		trace.WithAttributes(attribute.String("root", s.app.Paths.Root)),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.ScanResult{}, err
	}

	res, err := s.app.Build(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ports.ScanResult{}, errors.AddContext(err, errors.CtxOperation, "scan")
	}

	if st := s.app.store; st != nil {
		scan, err := st.SaveProject(ctx, s.app.Config.DB.ProjectKey, res.Project, res.Index)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return ports.ScanResult{}, errors.Wrap(err, errors.CodeIO, "save scan")
		}
		res.Scan = &scan
		span.SetAttributes(attribute.String("scan_id", scan.ID))
	}

	stats := res.Index.Stats()
	span.SetAttributes(
		attribute.Int("files", res.Project.Files),
		attribute.Int("objects", res.Index.Len()),
	)
	slog.Info("scan complete",
		"root", res.Project.Dir,
		"files", res.Project.Files,
		"classes", stats.Classes,
		"functions", stats.Functions,
		"alts", stats.Alts,
		"duration", res.Project.Duration.Round(time.Millisecond),
	)

	s.app.setCurrent(res)
	return res, nil
}

func (s *indexService) Current() (ports.ScanResult, bool) {
	return s.app.Current()
}

func (s *indexService) Lookup(ctx context.Context, filename string, line int) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.app.Lookup(filename, line)
}

func (s *indexService) Watch(ctx context.Context, handler func(ports.WatchUpdate)) error {
	return s.app.Watch(ctx, s, handler)
}

// History returns trend points for the newest limit scans, oldest first.
func (s *indexService) History(ctx context.Context, limit int) ([]store.TrendPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.app.store == nil {
		return nil, fmt.Errorf("history requires db.enabled = true")
	}
	scans, err := s.app.store.ListScans(ctx, s.app.Config.DB.ProjectKey, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "list scans")
	}
	slices.Reverse(scans)
	return store.BuildTrend(scans), nil
}
