package app

import (
	"context"
	"fmt"
	"time"

	"pyindex/internal/shared/util"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if res, ok := s.app.Current(); ok {
		st := res.Index.Stats()
		status.Components["index"] = fmt.Sprintf("ok (%d files, %d modules, %d functions)", res.Project.Files, st.Modules, st.Functions)
	} else {
		status.Status = "degraded"
		status.Components["index"] = "no scan yet"
	}

	if s.app.store != nil {
		if _, err := s.app.store.ListScans(ctx, s.app.Config.DB.ProjectKey, 1); err != nil {
			status.Status = "degraded"
			status.Components["store"] = "error: " + err.Error()
		} else {
			status.Components["store"] = "ok"
		}
	} else if s.app.Config.DB.Enabled {
		status.Status = "degraded"
		status.Components["store"] = "missing but enabled in config"
	}

	if s.app.parser != nil {
		status.Components["parser"] = "ok"
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	status.Components["memory"] = util.ReadMemStats().String()

	return status
}
