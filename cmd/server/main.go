package main

import (
	"log"
	"net/http"
	"os"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/collab"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/config"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/httpapi"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/notify"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/orchestrator"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/reputation"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/session"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/workflow"
)

// #region main
func main() {
	cfgPath := envOr("PROCUREMENT_CONFIG", "procurement.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sessions, err := session.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer sessions.Close()

	rep, err := reputation.NewStore(sessions.DB())
	if err != nil {
		log.Fatalf("reputation store: %v", err)
	}
	ledger, err := notify.NewLedger(sessions.DB())
	if err != nil {
		log.Fatalf("notification ledger: %v", err)
	}

	mailer := collab.NewMailer(cfg.Collaborators.Mailer, cfg.CallBudget)
	notifier := notify.NewNotifier(ledger, mailer)
	engine := orchestrator.NewEngine(orchestrator.Deps{
		Machine:    workflow.NewMachine(cfg.Policy()),
		Sessions:   sessions,
		Reputation: rep,
		Notifier:   notifier,
		Classifier: collab.NewClassifier(cfg.Collaborators.Classifier, cfg.CallBudget),
		Discovery:  collab.NewDiscovery(cfg.Collaborators.Discovery, cfg.CallBudget),
		Extractor:  collab.NewExtractor(cfg.Collaborators.Extractor, cfg.CallBudget),
		Mailer:     mailer,
		Renderer:   collab.NewRenderer(cfg.Collaborators.Renderer, cfg.CallBudget),
	})

	srv := httpapi.New(engine, rep, notifier)
	log.Printf("[SERVER] listening on %s (db=%s)", cfg.ListenAddr, cfg.DBPath)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Routes()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
// #endregion main

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
