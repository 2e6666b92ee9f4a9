// Package health serves the service banner, liveness and readiness probes
// and a JSON diagnostics report.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tilestore/handler"
	"github.com/dmitrymomot/tilestore/pkg/environment"
	"github.com/dmitrymomot/tilestore/pkg/httpserver"
	"github.com/dmitrymomot/tilestore/pkg/logger"
)

const databaseProbeTimeout = 2 * time.Second

// reportedEnvVars are listed in the diagnostics report by presence only.
var reportedEnvVars = []string{"PORT", "MONGODB_URL", "APP_ENV"}

// Options configures the health module.
type Options struct {
	Environment environment.Environment
	// Database pings the primary store. Nil reports the database as disconnected.
	Database func(context.Context) error
	// Ready are the readiness checks; Database is always included when set.
	Ready []func(context.Context) error

	Logger    *slog.Logger
	StartedAt time.Time
	Now       func() time.Time
	LookupEnv func(string) (string, bool)
}

type Health struct {
	opts Options
}

func New(opts Options) *Health {
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = opts.Now()
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.Environment == "" {
		opts.Environment = environment.Development
	}
	return &Health{opts: opts}
}

// Router returns GET / (diagnostics), /live and /ready.
func (h *Health) Router() chi.Router {
	ready := h.opts.Ready
	if h.opts.Database != nil {
		ready = append([]func(context.Context) error{h.opts.Database}, ready...)
	}

	r := chi.NewRouter()
	r.Get("/", h.Diagnostics)
	r.Get("/live", httpserver.HealthCheckHandler(h.opts.Logger))
	r.Get("/ready", httpserver.HealthCheckHandler(h.opts.Logger, ready...))
	return r
}

type DBStatus struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
}

func (h *Health) database(ctx context.Context) DBStatus {
	if h.opts.Database == nil {
		return DBStatus{State: "disconnected"}
	}
	ctx, cancel := context.WithTimeout(ctx, databaseProbeTimeout)
	defer cancel()

	if err := h.opts.Database(ctx); err != nil {
		h.opts.Logger.WarnContext(ctx, "database probe failed", logger.Error(err), logger.Component("health"))
		return DBStatus{State: "disconnected"}
	}
	return DBStatus{Connected: true, State: "connected"}
}

type EnvVarStatus struct {
	Key     string `json:"key"`
	Present bool   `json:"present"`
}

type Report struct {
	Meta struct {
		Status      string `json:"status"`
		GeneratedAt string `json:"generatedAt"`
		Environment string `json:"environment"`
	} `json:"meta"`
	System struct {
		Version      string `json:"version"`
		Platform     string `json:"platform"`
		Architecture string `json:"architecture"`
		Uptime       struct {
			Raw       float64 `json:"raw"`
			Formatted string  `json:"formatted"`
		} `json:"uptime"`
		Memory struct {
			Alloc     uint64 `json:"alloc"`
			HeapInuse uint64 `json:"heapInuse"`
			HeapSys   uint64 `json:"heapSys"`
			Sys       uint64 `json:"sys"`
			NumGC     uint32 `json:"numGC"`
		} `json:"memory"`
		Goroutines int `json:"goroutines"`
		CPUs       int `json:"cpus"`
	} `json:"system"`
	Diagnostics struct {
		Database DBStatus       `json:"database"`
		EnvVars  []EnvVarStatus `json:"envVars"`
	} `json:"diagnostics"`
}

// Diagnostics reports process, runtime and database state.
func (h *Health) Diagnostics(w http.ResponseWriter, r *http.Request) {
	now := h.opts.Now()
	uptime := now.Sub(h.opts.StartedAt)

	var rep Report
	rep.Meta.Status = "OK"
	rep.Meta.GeneratedAt = now.UTC().Format(time.RFC3339Nano)
	rep.Meta.Environment = h.opts.Environment.String()

	rep.System.Version = runtime.Version()
	rep.System.Platform = runtime.GOOS
	rep.System.Architecture = runtime.GOARCH
	rep.System.Uptime.Raw = uptime.Seconds()
	rep.System.Uptime.Formatted = formatUptime(uptime)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	rep.System.Memory.Alloc = mem.Alloc
	rep.System.Memory.HeapInuse = mem.HeapInuse
	rep.System.Memory.HeapSys = mem.HeapSys
	rep.System.Memory.Sys = mem.Sys
	rep.System.Memory.NumGC = mem.NumGC
	rep.System.Goroutines = runtime.NumGoroutine()
	rep.System.CPUs = runtime.NumCPU()

	rep.Diagnostics.Database = h.database(r.Context())
	for _, key := range reportedEnvVars {
		v, ok := h.opts.LookupEnv(key)
		rep.Diagnostics.EnvVars = append(rep.Diagnostics.EnvVars, EnvVarStatus{Key: key, Present: ok && v != ""})
	}

	w.Header().Set("Cache-Control", "no-store")
	_ = handler.WriteJSON(w, http.StatusOK, rep)
}

// Banner answers GET / at the server root.
func (h *Health) Banner(w http.ResponseWriter, r *http.Request) {
	_ = handler.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Tilestore API is running",
		"status":   "healthy",
		"database": h.database(r.Context()),
	})
}

// DatabaseStatus answers GET /db-test.
func (h *Health) DatabaseStatus(w http.ResponseWriter, r *http.Request) {
	url := "Missing"
	if v, ok := h.opts.LookupEnv("MONGODB_URL"); ok && v != "" {
		url = "Present"
	}
	db := h.database(r.Context())
	_ = handler.WriteJSON(w, http.StatusOK, map[string]any{
		"database": map[string]any{
			"state":     db.State,
			"connected": db.Connected,
			"url":       url,
		},
		"timestamp": h.opts.Now().UTC().Format(time.RFC3339Nano),
	})
}

func formatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	return fmt.Sprintf("%dh %dm %ds", secs/3600, (secs%3600)/60, secs%60)
}
