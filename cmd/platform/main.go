package main

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/thewebartisan7/platform"
	"github.com/thewebartisan7/platform/auth"
	"github.com/thewebartisan7/platform/cache"
	"github.com/thewebartisan7/platform/screen"
	"github.com/thewebartisan7/platform/state"
)

func main() {
	cfg, err := loadConfig(env("CONFIG", "config.yaml"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.Secret == "" {
		slog.Error("secret is required (config secret or SESSION_SECRET)")
		os.Exit(1)
	}
	// Derive the 32-byte JWT secret via SHA-256.
	secretHash := sha256.Sum256([]byte(cfg.Secret))
	jwtSecret := secretHash[:]

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// One SQLite database carries both the users table and the state
	// snapshot cache.
	db, err := cache.Open(cfg.Database)
	if err != nil {
		slog.Error("open database", "path", cfg.Database, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	snapshots := cache.NewSQLite(db)
	if err := snapshots.EnsureTable(ctx); err != nil {
		slog.Error("cache table", "error", err)
		os.Exit(1)
	}

	users := &userStore{db: db}
	if err := users.migrate(ctx); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}
	if err := users.seedAdmin(ctx, env("ADMIN_PASSWORD", "admin123!!!")); err != nil {
		slog.Error("seed admin", "error", err)
		os.Exit(1)
	}

	// Expired snapshots are swept in the background; reads are destructive
	// anyway, the sweep only reclaims abandoned entries.
	go func() {
		ticker := time.NewTicker(cfg.StateTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := snapshots.Sweep(ctx); err != nil {
					logger.Warn("snapshot sweep", "error", err)
				} else if n > 0 {
					logger.Debug("snapshot sweep", "removed", n)
				}
			}
		}
	}()

	resolver := screen.NewRegistry()
	resolver.Register("user", func() any { return &User{store: users} })

	dispatcher := screen.NewDispatcher(
		state.NewStore(snapshots, state.WithTTL(cfg.StateTTL), state.WithLogger(logger)),
		screen.WithResolver(resolver),
		screen.WithLogger(logger),
	)

	r := chi.NewRouter()
	r.Use(auth.Middleware(jwtSecret))

	r.Get("/login", handleLoginForm)
	r.Post("/login", handleLogin(users, jwtSecret, cfg.Secure))
	r.Post("/logout", handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePrincipal)
		platform.Mount(r, "/admin/users", []string{"method"},
			newUserListScreen(users), dispatcher, platform.WithMountLogger(logger))
		platform.Mount(r, "/admin/users/edit", []string{"user", "method"},
			newUserEditScreen(users), dispatcher, platform.WithMountLogger(logger))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

const loginPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form method="post" action="/login">
<input name="email" placeholder="Email" autofocus>
<input name="password" type="password" placeholder="Password">
<button type="submit">Sign in</button>
</form>
</body></html>
`

func handleLoginForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(loginPage))
}

func handleLogin(users *userStore, secret []byte, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		claims, err := users.authenticate(r.Context(), r.FormValue("email"), r.FormValue("password"))
		if err != nil {
			slog.Info("login refused", "email", r.FormValue("email"))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		token, err := auth.GenerateToken(secret, claims, 24*time.Hour)
		if err != nil {
			slog.Error("token", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		auth.SetTokenCookie(w, token, secure)
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	}
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
