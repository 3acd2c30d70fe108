// Package serverapp wires the application into a single http.Handler.
// Collaborators are constructed here and passed down explicitly; there
// are no package-level singletons.
package serverapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Pamod0/task-track/internal/config"
	"github.com/Pamod0/task-track/internal/httpmw"
	"github.com/Pamod0/task-track/internal/identity"
	"github.com/Pamod0/task-track/internal/period"
	"github.com/Pamod0/task-track/internal/tag"
	"github.com/Pamod0/task-track/internal/task"
	"github.com/Pamod0/task-track/internal/telemetry"
)

type Options struct {
	Config *config.Config
	Logger *log.Logger
}

// App bundles the wired collaborators so the caller can tear them
// down on shutdown.
type App struct {
	Handler http.Handler

	closers []func() error
}

// Close releases store handles.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	cfg := opts.Config

	app := &App{}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "tasktrak",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	events := telemetry.NewMemoryRepository()

	identityRepo, err := identity.NewFileRepo(filepath.Join(cfg.Server.DataDir, "identity"))
	if err != nil {
		return nil, err
	}
	identityService := identity.NewService(identityRepo, cfg.AdminEmails, opts.Logger)
	identityHandler := identity.NewHandler(identityService)
	identityHandler.SetEvents(events)
	mux.HandleFunc("/api/auth/request-otp", identityHandler.RequestOTP)
	mux.HandleFunc("/api/auth/verify-otp", identityHandler.VerifyOTP)
	mux.HandleFunc("/api/auth/session", identityHandler.Session)
	mux.HandleFunc("/api/auth/profile", identityHandler.UpdateProfile)
	mux.HandleFunc("/api/auth/logout", identityHandler.Logout)

	store, err := buildStore(cfg, app)
	if err != nil {
		return nil, err
	}

	reconciler, err := task.NewReconciler(
		task.Variant(cfg.Tasks.Variant),
		periodConvention(cfg.Tasks.PeriodConvention),
	)
	if err != nil {
		return nil, err
	}

	taskHandler := task.NewHandler(reconciler, store)
	taskHandler.SetEvents(events)
	mux.Handle("/api/tasks", identityService.RequireAPI(http.HandlerFunc(taskHandler.Tasks)))
	mux.Handle("/api/tasks/", identityService.RequireAPI(http.HandlerFunc(taskHandler.TasksSub)))
	mux.Handle("/api/admin/tasks", identityService.RequireAdmin(http.HandlerFunc(taskHandler.AdminTasks)))

	if cfg.Suggestions.Enabled {
		suggester, err := buildSuggester(cfg)
		if err != nil {
			return nil, err
		}
		tagHandler := tag.NewHandler(suggester, time.Duration(cfg.Suggestions.TimeoutMS)*time.Millisecond)
		tagHandler.SetEvents(events)
		mux.Handle("/api/tags/suggest", identityService.RequireAPI(http.HandlerFunc(tagHandler.Suggest)))
	}

	mux.Handle("/api/admin/events", identityService.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}
		evs, err := events.GetEvents(time.Time{}, nil)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, evs)
	})))

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := store.ListAll(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "tasktrak",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Handler = httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	)
	return app, nil
}

func buildStore(cfg *config.Config, app *App) (task.Store, error) {
	switch cfg.Tasks.Store {
	case "memory":
		return task.NewMemoryStore(), nil
	case "file":
		return task.NewFileStore(filepath.Join(cfg.Server.DataDir, "tasks"))
	case "sqlite":
		if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
			return nil, err
		}
		st, err := task.NewSQLiteStore(filepath.Join(cfg.Server.DataDir, "tasks.db"))
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, st.Close)
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Tasks.Store)
	}
}

func buildSuggester(cfg *config.Config) (tag.Suggester, error) {
	switch cfg.Suggestions.Provider {
	case "anthropic":
		apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			return nil, errors.New("suggestions.provider anthropic requires ANTHROPIC_API_KEY")
		}
		return tag.NewAnthropicSuggester(tag.AnthropicConfig{
			APIKey: apiKey,
			Model:  cfg.Suggestions.Model,
		}), nil
	case "static":
		return tag.StaticSuggester{"planning", "review", "backend", "frontend", "meeting"}, nil
	default:
		return nil, fmt.Errorf("unknown suggestion provider %q", cfg.Suggestions.Provider)
	}
}

func periodConvention(s string) period.Convention {
	if s == "month" {
		return period.WeekOfMonth
	}
	return period.ISOWeek
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
