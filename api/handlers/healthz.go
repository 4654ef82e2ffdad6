package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/angelmondragon/catalogsync/api/responses"
	"github.com/angelmondragon/catalogsync/internal/cron"
	"github.com/angelmondragon/catalogsync/pkg/config"
	"github.com/angelmondragon/catalogsync/pkg/logger"
)

const pingTimeout = 2 * time.Second

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusReporter exposes the latest scheduled run.
type StatusReporter interface {
	Status() cron.Status
}

// Health is the /healthz payload.
type Health struct {
	Status string            `json:"status"`
	Env    string            `json:"env"`
	Checks map[string]string `json:"checks"`
	Sync   *cron.Status      `json:"sync,omitempty"`
}

// Healthz pings every dependency and reports the latest sync cycle. Any
// failed ping turns the response into a 503.
func Healthz(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger, sync StatusReporter) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		health := Health{Status: "ok", Env: cfg.App.Env, Checks: make(map[string]string, len(names))}
		for _, name := range names {
			if err := deps[name].Ping(ctx); err != nil {
				health.Status = "degraded"
				health.Checks[name] = err.Error()
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": name, "error": err.Error()}), "health.ping_failed")
				}
				continue
			}
			health.Checks[name] = "ok"
		}
		if sync != nil {
			status := sync.Status()
			health.Sync = &status
		}

		code := http.StatusOK
		if health.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, health)
	}
}
