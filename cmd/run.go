package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-callsim/pkg/dialogue"
	"github.com/mattsolo1/grove-callsim/pkg/evaluation"
	"github.com/mattsolo1/grove-callsim/pkg/llm"
	"github.com/mattsolo1/grove-callsim/pkg/persona"
	"github.com/mattsolo1/grove-callsim/pkg/policy"
	"github.com/mattsolo1/grove-callsim/pkg/revision"
	"github.com/mattsolo1/grove-callsim/pkg/simulation"
	"github.com/mattsolo1/grove-callsim/pkg/state"
)

var log = grovelogging.NewLogger("callsim")

var (
	runName        string
	runAmount      string
	runDueDate     string
	runPersonality string
	runDebtorFile  string
	runPersonaFile string
	runPolicyFile  string
	runSummary     string
	runModel       string
	runOutput      string
	runMaxAttempts int
	runMaxTurns    int
	runQuiet       bool
)

// debtorFlags registers the debtor description flags shared by run and persona.
func debtorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&runName, "name", "", "Debtor's name")
	cmd.Flags().StringVar(&runAmount, "amount", "", "Amount due (free text, e.g. 125.50)")
	cmd.Flags().StringVar(&runDueDate, "due-date", "", "Due date (free text, e.g. May 25, 2025)")
	cmd.Flags().StringVar(&runPersonality, "personality", "", "Personality traits of the debtor")
	cmd.Flags().StringVar(&runDebtorFile, "debtor-file", "", "YAML file with name, amount_due, due_date and personality")
	cmd.Flags().StringVar(&runModel, "model", "", "Override the model for every collaborator")
}

// NewRunCmd creates the callsim run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate collection calls and self-correct the agent prompt",
		Long: `Simulates a debt collection call between a bank agent and a debtor persona,
evaluates the agent, and rewrites the agent prompt until the call meets the
success criteria or the attempt budget is spent. The final attempt is saved
as a JSON transcript.

Examples:
  callsim run --name "Sania Gupta" --amount 125.50 --due-date "May 25, 2025" --personality "emotional, defensive"
  callsim run --debtor-file debtor.yml --max-attempts 5 --output runs/sania.json`,
		Args: cobra.NoArgs,
		RunE: runSimulation,
	}
	debtorFlags(cmd)
	cmd.Flags().StringVar(&runPersonaFile, "persona-file", "", "Use this counterpart prompt instead of generating one")
	cmd.Flags().StringVar(&runPolicyFile, "policy-file", "", "Initial agent prompt template (must keep {name}, {amount_due}, {due_date}, {today}, {summary})")
	cmd.Flags().StringVar(&runSummary, "summary", policy.NoSummary, "Summary of previous conversations with the debtor")
	cmd.Flags().StringVarP(&runOutput, "output", "o", "", "Transcript output path")
	cmd.Flags().IntVar(&runMaxAttempts, "max-attempts", 0, "Maximum number of call attempts")
	cmd.Flags().IntVar(&runMaxTurns, "max-turns", 0, "Safety ceiling on turns per call (rounded up to an even number)")
	cmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not print the live transcript")
	return cmd
}

// collaborators holds one client per model-backed component.
type collaborators struct {
	representative llm.Client
	counterpart    llm.Client
	evaluator      llm.Client
	reviser        llm.Client
	persona        llm.Client
}

func newCollaborators(ctx context.Context, cfg *CallsimConfig) (*collaborators, error) {
	base, err := cfg.LLMConfig()
	if err != nil {
		return nil, err
	}

	cache := map[string]llm.Client{}
	clientFor := func(model string) (llm.Client, error) {
		c := base.WithModel(model)
		if client, ok := cache[c.Model]; ok {
			return client, nil
		}
		client, err := llm.NewClient(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("creating client for %s: %w", c.Model, err)
		}
		cache[c.Model] = client
		return client, nil
	}

	var cs collaborators
	for _, slot := range []struct {
		model  string
		target *llm.Client
	}{
		{"", &cs.representative},
		{cfg.CounterpartModel, &cs.counterpart},
		{cfg.EvaluatorModel, &cs.evaluator},
		{cfg.ReviserModel, &cs.reviser},
		{cfg.PersonaModel, &cs.persona},
	} {
		client, err := clientFor(slot.model)
		if err != nil {
			return nil, err
		}
		*slot.target = client
	}
	return &cs, nil
}

// applyRunFlags lets command-line flags override the loaded configuration.
func applyRunFlags(cfg *CallsimConfig) {
	if runModel != "" {
		cfg.Model = runModel
		cfg.CounterpartModel = ""
		cfg.EvaluatorModel = ""
		cfg.ReviserModel = ""
		cfg.PersonaModel = ""
	}
	if runOutput != "" {
		cfg.Output = runOutput
	}
	if runPolicyFile != "" {
		cfg.PolicyFile = runPolicyFile
	}
	if runMaxAttempts > 0 {
		cfg.MaxAttempts = runMaxAttempts
	}
	if runMaxTurns > 0 {
		cfg.MaxTurns = runMaxTurns
	}
}

// debtorFromFlags merges the debtor file (if any) with explicit flags.
func debtorFromFlags() (persona.Debtor, error) {
	var d persona.Debtor
	if runDebtorFile != "" {
		loaded, err := persona.LoadDebtor(runDebtorFile)
		if err != nil {
			return d, err
		}
		d = loaded
	}
	if runName != "" {
		d.Name = runName
	}
	if runAmount != "" {
		d.AmountDue = runAmount
	}
	if runDueDate != "" {
		d.DueDate = runDueDate
	}
	if runPersonality != "" {
		d.Personality = runPersonality
	}
	return resolveDebtor(d)
}

func counterpartInstructions(ctx context.Context, client llm.Client, d persona.Debtor) (string, error) {
	if runPersonaFile != "" {
		data, err := os.ReadFile(runPersonaFile)
		if err != nil {
			return "", fmt.Errorf("reading persona file: %w", err)
		}
		return string(data), nil
	}
	return persona.NewGenerator(client).Generate(ctx, d)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	cfg, err := loadCallsimConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cfg)

	debtor, err := debtorFromFlags()
	if err != nil {
		return err
	}

	initial := policy.DefaultRepresentative
	if cfg.PolicyFile != "" {
		if initial, err = policy.Load(cfg.PolicyFile); err != nil {
			return err
		}
	}

	turnDelay, err := cfg.TurnDelayDuration()
	if err != nil {
		return err
	}

	clients, err := newCollaborators(ctx, cfg)
	if err != nil {
		return err
	}

	counterpart, err := counterpartInstructions(ctx, clients.persona, debtor)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log.WithFields(logrus.Fields{
		"run_id":       runID,
		"model":        cfg.Model,
		"max_attempts": cfg.MaxAttempts,
		"output":       cfg.Output,
	}).Info("Starting call simulation")

	var emitter dialogue.Emitter
	if !runQuiet {
		emitter = consoleEmitter(out)
	}
	engine := dialogue.NewEngine(clients.representative, clients.counterpart,
		dialogue.WithMaxTurns(cfg.MaxTurns),
		dialogue.WithTurnDelay(turnDelay),
		dialogue.WithEngineEmitter(emitter),
	)

	controller := simulation.NewController(
		engine,
		evaluation.NewEvaluator(clients.evaluator),
		revision.NewReviser(clients.reviser),
		simulation.NewFileStore(cfg.Output),
		simulation.WithMaxAttempts(cfg.MaxAttempts),
		simulation.WithOpening(cfg.Opening),
		simulation.WithRunID(runID),
		simulation.WithObserver(func(a *simulation.Attempt, accepted bool) {
			printAttempt(out, a, accepted)
		}),
	)

	headerColor.Fprintf(out, "\n--- Simulating call with %s (run %s) ---\n", debtor.Name, runID)
	in := simulation.Input{
		Policy:      initial,
		Params:      paramsFor(debtor, time.Now()),
		Counterpart: counterpart,
	}
	res, runErr := controller.Run(ctx, in)

	printOutcome(out, res, cfg.Output)
	if res != nil && res.Artifact != nil {
		if err := state.RecordRun(cfg.Output, runID, string(res.Outcome)); err != nil {
			log.WithError(err).Warn("Failed to record run in local state")
		}
	}
	return runErr
}

func paramsFor(d persona.Debtor, now time.Time) policy.Params {
	p := policy.NewParams(d.Name, d.AmountDue, d.DueDate, now)
	if runSummary != "" {
		p.Summary = runSummary
	}
	return p
}
