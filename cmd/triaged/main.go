// Command triaged runs the symptom triage HTTP service.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/calyx-health/triage.report/internal/api"
	"github.com/calyx-health/triage.report/internal/config"
	"github.com/calyx-health/triage.report/internal/db"
	"github.com/calyx-health/triage.report/internal/engine"
	"github.com/calyx-health/triage.report/internal/followup"
	"github.com/calyx-health/triage.report/internal/monitoring"
	"github.com/calyx-health/triage.report/internal/redflag"
	"github.com/calyx-health/triage.report/internal/version"
)

var (
	listen         = flag.String("listen", ":8080", "Listen address")
	dbPath         = flag.String("db", "triage.db", "Path to the sqlite database")
	diagnosisModel = flag.String("diagnosis-model", "models/diagnosis.json", "Path to the diagnosis model bundle")
	triageModel    = flag.String("triage-model", "models/triage.json", "Path to the triage text classifier")
	precautions    = flag.String("precautions", "data/precautions.csv", "Path to the disease precautions table")
	descriptions   = flag.String("descriptions", "data/descriptions.csv", "Path to the disease descriptions table")
	rulesPath      = flag.String("rules", "", "Optional JSON red-flag rule table (built-in rules when empty)")
	questionsPath  = flag.String("questions", "", "Optional JSON follow-up question bank (built-in bank when empty)")
	configPath     = flag.String("config", "", "Optional JSON service config file")
	showVersion    = flag.Bool("version", false, "Print version and exit")
	verbose        = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if *showVersion {
		log.Printf("triaged %s", version.String())
		return
	}

	monitoring.Verbose = *verbose

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyServiceConfig()
	if *configPath != "" {
		loaded, err := config.LoadServiceConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if cfg.GetVerbose() {
		monitoring.Verbose = true
	}

	redFlags := redflag.NewDefaultEngine()
	if *rulesPath != "" {
		loaded, err := redflag.LoadEngine(*rulesPath)
		if err != nil {
			log.Fatalf("Failed to load red-flag rules: %v", err)
		}
		redFlags = loaded
	}

	bank := followup.NewDefaultBank()
	if *questionsPath != "" {
		loaded, err := followup.LoadBank(*questionsPath)
		if err != nil {
			log.Fatalf("Failed to load follow-up questions: %v", err)
		}
		bank = loaded
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(
		engine.PathLoaders(*diagnosisModel, *triageModel, *precautions, *descriptions),
		redFlags, bank,
	)
	eng.SetFollowUpLimit(cfg.GetFollowUpLimit())
	// A service that cannot load its models should fail at startup, not on
	// the first prediction.
	if err := eng.Warm(ctx); err != nil {
		log.Fatalf("Failed to load model artifacts: %v", err)
	}

	server := &http.Server{
		Addr:         *listen,
		Handler:      api.NewServer(database, eng, cfg).Handler(),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	go func() {
		log.Printf("triaged %s listening on %s", version.String(), *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Printf("Graceful shutdown complete")
}
