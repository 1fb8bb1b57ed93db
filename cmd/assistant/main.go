package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/collab"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/config"
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
	engine := orchestrator.NewEngine(orchestrator.Deps{
		Machine:    workflow.NewMachine(cfg.Policy()),
		Sessions:   sessions,
		Reputation: rep,
		Notifier:   notify.NewNotifier(ledger, mailer),
		Classifier: collab.NewClassifier(cfg.Collaborators.Classifier, cfg.CallBudget),
		Discovery:  collab.NewDiscovery(cfg.Collaborators.Discovery, cfg.CallBudget),
		Extractor:  collab.NewExtractor(cfg.Collaborators.Extractor, cfg.CallBudget),
		Mailer:     mailer,
		Renderer:   collab.NewRenderer(cfg.Collaborators.Renderer, cfg.CallBudget),
	})

	conversationID := session.NewConversationID()
	fmt.Println("Procurement Assistant ready.")
	fmt.Printf("  DB: %s | conversation: %s\n", cfg.DBPath, conversationID)
	fmt.Println("Type a message (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "quit" || message == "exit" {
			break
		}

		reply, err := engine.HandleMessage(context.Background(), conversationID, message)
		if err != nil {
			log.Printf("engine error: %v", err)
			continue
		}
		fmt.Printf("\n%s\n\n[state=%s]\n", reply.Text, reply.State)
	}
}
// #endregion main

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
