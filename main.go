package main

import (
	"context"
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kova98/threadfeed.api/config"
	"github.com/kova98/threadfeed.api/data"
	"github.com/kova98/threadfeed.api/data/repos"
	"github.com/kova98/threadfeed.api/feed"
	"github.com/kova98/threadfeed.api/handlers"
	"github.com/kova98/threadfeed.api/metrics"
	"github.com/kova98/threadfeed.api/sources"
)

var (
	auth           *handlers.AuthHandler
	UserContextKey = "user"
)

//go:embed data/migrations/*.sql
var embedMigrations embed.FS

func main() {
	config.LoadConfig()

	opts := slog.HandlerOptions{Level: config.Config.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	slog.SetDefault(logger)

	metrics.MustRegister()

	httpClient, err := sources.NewHTTPClient(config.Config.ProxyURL)
	if err != nil {
		slog.Error("failed to create http client", "error", err)
		os.Exit(1)
	}

	session := sources.NewSession(sources.SessionOptions{
		ClientID:     config.Config.RedditClientID,
		ClientSecret: config.Config.RedditClientSecret,
		RedirectPort: config.Config.RedditRedirectPort,
		UserAgent:    config.Config.UserAgent,
		Permanent:    config.Config.DurationPermanent,
		HTTPClient:   httpClient,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := feed.NewLoop()
	threads := feed.NewThreadList(loop, redditSession{session}, config.Config.ListingURL)
	threads.OnError(func(msg string) {
		slog.Error("listing update failed", "error", msg)
	})
	threads.OnRowsInserted(func(first, last int) {
		slog.Info("threads inserted", "first", first, "last", last)
	})
	go loop.Run(ctx)

	var threadRepo *repos.ThreadRepo
	if config.Config.EnableArchive {
		db, err := sqlx.Connect("postgres", config.Config.PostgresURL)
		if err != nil {
			slog.Error("failed to connect to db", "error", err)
			os.Exit(1)
		}
		db.SetMaxOpenConns(90)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(1 * time.Minute)

		if err := data.RunMigrations(db.DB, embedMigrations); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		threadRepo = repos.NewThreadRepo(db)
		NewArchiver(threads, threadRepo)

		defer func() {
			if err := db.Close(); err != nil {
				slog.Error("failed to close database connection", "error", err)
			}
		}()
	}

	keycloakClient := gocloak.NewClient(config.Config.KeycloakURL)
	auth = handlers.NewAuthHandler(keycloakClient)
	go auth.StartTokenTicker(ctx)

	if err := session.Grant(ctx); err != nil {
		slog.Error("failed to start authorization flow", "error", err)
		os.Exit(1)
	}

	if config.Config.EnablePolling {
		go startPolling(ctx, threads)
	}

	th := handlers.NewThreadHandler(threads, threadRepo, session.Authenticated)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /threads", private(th.GetThreads))
	mux.HandleFunc("GET /threads/archive", private(th.GetArchive))
	mux.HandleFunc("POST /refresh", private(th.Refresh))
	mux.HandleFunc("GET /status", public(th.GetStatus))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
		os.Exit(0)
	}()

	slog.Info("Starting server on port 8080")
	err = http.ListenAndServe(":8080", withCORS(mux))
	if err != nil {
		slog.Error("failed to start server", "error", err)
	}
}

// redditSession adapts the concrete OAuth session to the capability the
// thread list consumes.
type redditSession struct {
	*sources.Session
}

func (s redditSession) Get(url string) feed.Reply {
	return s.Session.Get(url)
}

func startPolling(ctx context.Context, threads *feed.ThreadList) {
	interval := time.Duration(config.Config.PollIntervalSeconds) * time.Second
	slog.Info("starting listing polling", "interval", interval.Seconds())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping listing polling")
			return
		case <-ticker.C:
			threads.RequestUpdate()
		}
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func private(handler handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		result := auth.GetUser(r.Context(), authHeader)
		if result.Code != http.StatusOK {
			slog.Debug("unauthorized request", "path", r.URL.Path)
			writeResult(w, r, result)
			return
		}

		user := result.Body.(handlers.AuthUser)
		ctx := context.WithValue(r.Context(), UserContextKey, user)

		public(handler)(w, r.WithContext(ctx))
	}
}

func public(handler handlers.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts := time.Now()
		res := handler(w, r)
		elapsedMs := time.Since(ts).Milliseconds()
		slog.Debug("req", "method", r.Method, "path", r.URL.Path, "code", res.Code, "elapsed", elapsedMs)
		writeResult(w, r, res)
	}
}

func writeResult(w http.ResponseWriter, r *http.Request, res handlers.Result) {
	metrics.RequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(res.Code)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Code)
	if res.Body != nil {
		if err := json.NewEncoder(w).Encode(res.Body); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
	if res.Code == http.StatusInternalServerError {
		slog.Error("internal error", "error", res.Error.Error())
	}
}
