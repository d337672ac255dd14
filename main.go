package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"eiep3-loader/internal/auth"
	"eiep3-loader/internal/observability/metrics"
	"eiep3-loader/internal/readings/application"
	readingspostgres "eiep3-loader/internal/readings/infrastructure/postgres"
	readingshttp "eiep3-loader/internal/readings/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	repo := readingspostgres.NewReadingRepository(db)
	query := readingspostgres.NewReadingQuery(db)
	runs := readingspostgres.NewRunRepository(db)

	loadService, err := application.NewLoadService(repo,
		application.WithLogger(logger),
		application.WithRunRecorder(runs),
	)
	if err != nil {
		logger.Fatalf("load service error: %v", err)
	}

	switch cfg.Mode {
	case "load":
		runBatch(loadService, logger)
		return
	case "serve":
	default:
		logger.Fatalf("unknown EIEP3_MODE %q (expected load or serve)", cfg.Mode)
	}

	if cfg.JWTSecret == "" {
		logger.Fatal("AUTH_JWT_SECRET is required in serve mode")
	}

	ingestHandler, err := readingshttp.NewIngestHandler(loadService, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/ingest/eiep3/file", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/readings", readingshttp.NewReadingsHandler(query))
	mux.Handle("/api/v1/loads", readingshttp.NewLoadsHandler(runs))
	mux.Handle("/api/v1/exports/readings.xlsx", readingshttp.NewExportReadingsXLSXHandler(query))
	mux.Handle("/api/v1/exports/loadrun.pdf", readingshttp.NewExportLoadRunPDFHandler(runs, query))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func runBatch(loadService *application.LoadService, logger *log.Logger) {
	srcCfg, err := application.LoadSourceConfig()
	if err != nil {
		logger.Fatalf("source config error: %v", err)
	}
	src, err := srcCfg.BuildSource()
	if err != nil {
		logger.Fatalf("source error: %v", err)
	}

	logger.Printf("starting load using %q method", srcCfg.Method)
	result, err := loadService.Run(context.Background(), src)
	if err != nil {
		logger.Fatalf("load error: %v", err)
	}
	if result.Empty {
		logger.Printf("no detail records found, nothing to load")
		return
	}
	logger.Printf("load complete: %d rows written for file %s", result.RowsWritten, result.FileID)
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	Mode              string
	JWTSecret         string
	IngestSecret      string
	IngestSkewSeconds int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		Mode:              getenvDefault("EIEP3_MODE", "load"),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:      getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds: getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
