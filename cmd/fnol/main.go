package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fnol/internal/ai"
	"fnol/internal/config"
	"fnol/internal/intake"
	"fnol/internal/logging"
	"fnol/internal/playbook"
	"fnol/internal/store"
	"fnol/internal/triage"
)

var (
	// Global flags
	cfgPath   string
	dbPath    string
	useMemory bool
	debug     bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "fnol",
	Short: "FNOL - conversational auto claim intake",
	Long: `fnol is a first-notice-of-loss intake engine for auto insurance claims.

A deterministic state machine drives the conversation from safety check to
claim creation. Scenario playbooks detect what kind of loss is being
reported and contribute their own follow-up questions; a precedence-based
triage chain decides the routing without ever blocking the claim.

Run without arguments to start an interactive intake session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.DatabasePath = dbPath
		}
		if debug {
			cfg.Logging.Debug = true
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return logging.Initialize(cfg.Logging.Debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "fnol.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "keep all state in memory, nothing on disk")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "v", false, "enable debug logging")

	rootCmd.AddCommand(playbooksCmd)
	rootCmd.AddCommand(triageCmd)
	rootCmd.AddCommand(configCmd)
}

// engine bundles everything a command needs, plus the cleanup hook.
type engine struct {
	machine  *intake.Machine
	registry *playbook.Registry
	weights  *config.WeightStore
	seeder   policySeeder
	close    func()
}

type policySeeder interface {
	SeedPolicy(ctx context.Context, policyNumber, holderName, holderState, phone, lastName, zip string) error
}

// buildEngine wires stores, registry, triage, and AI adapters into a
// machine according to the loaded config.
func buildEngine(ctx context.Context) (*engine, error) {
	weights := config.NewWeightStore(cfg.Weights.Path)
	if err := weights.Reload(); err != nil {
		logging.Config("weight table not loaded, using defaults: %v", err)
	}
	if cfg.Weights.Watch {
		if err := weights.Watch(ctx); err != nil {
			logging.Config("weight watch unavailable: %v", err)
		}
	}

	registry := playbook.NewDefaultRegistry(weights)
	router := triage.NewEngine(cfg.Triage)

	var (
		sessions    store.SessionStore
		claims      store.ClaimStore
		policies    store.PolicyMatcher
		escalations store.EscalationQueue
		seeder      policySeeder
		closer      = func() { weights.Stop() }
	)
	if useMemory {
		ms := store.NewMemoryStore()
		sessions, claims, policies, escalations, seeder = ms, ms, ms, ms, ms
	} else {
		sq, err := store.OpenSQLite(cfg.Store.DatabasePath, cfg.GetBusyTimeout())
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		sessions, claims, policies, escalations, seeder = sq, sq, sq, sq, sq
		closer = func() {
			weights.Stop()
			_ = sq.Close()
		}
	}

	// Gemini is optional; without it the rule-based adapters run alone.
	var gemini *ai.GeminiClient
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		g, err := ai.NewGeminiClient(ctx, cfg.AI)
		if err != nil {
			logging.AIWarn("model backend unavailable, running rule-based only: %v", err)
		} else {
			gemini = g
		}
	}
	var (
		intents    ai.IntentDetector = ai.NewRuleIntentDetector(nil)
		extractor  ai.Extractor      = ai.NewRegexExtractor(nil)
		summarizer ai.Summarizer     = ai.NewTemplateSummarizer(nil)
	)
	if gemini != nil {
		intents = ai.NewRuleIntentDetector(gemini)
		extractor = ai.NewRegexExtractor(gemini)
		summarizer = gemini
	}

	machine := intake.NewMachine(cfg.Intake, intake.Deps{
		Sessions:    sessions,
		Claims:      claims,
		Policies:    policies,
		Escalations: escalations,
		Registry:    registry,
		Triage:      router,
		Intents:     intents,
		Extractor:   extractor,
		Summarizer:  summarizer,
		AITimeout:   cfg.GetAITimeout(),
	})

	return &engine{machine: machine, registry: registry, weights: weights, seeder: seeder, close: closer}, nil
}

// runChat drives an interactive intake session on stdin.
func runChat() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close()

	// Demo policy so the identity step has something to match.
	if err := eng.seeder.SeedPolicy(ctx, "AUTO-123456", "John Smith", "TX", "5125550123", "Smith", "78701"); err != nil {
		logging.StoreError("failed to seed demo policy: %v", err)
	}

	threadID := uuid.NewString()
	st, err := eng.machine.CreateSession(ctx, threadID, "")
	if err != nil {
		return err
	}
	fmt.Println(st.Response)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		st, err = eng.machine.ProcessMessage(ctx, threadID, line)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(st.Response)
		fmt.Println()
		if st.Completed {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
