// Command execution for CLI commands.
//
// Information Hiding:
// - Component wiring (gateway, cache, queue, executor) hidden
// - Strategy parsing from flags hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/richinex/chimera/cache"
	"github.com/richinex/chimera/config"
	"github.com/richinex/chimera/errlog"
	"github.com/richinex/chimera/llm"
	"github.com/richinex/chimera/orchestration"
	"github.com/richinex/chimera/queue"
	"github.com/richinex/chimera/retry"
	"github.com/richinex/chimera/storage"
	"github.com/richinex/chimera/streaming"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Strategy string
	Model    string
	Models   []string
	TaskType string
	DBPath   string
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Provider: "openrouter",
		Strategy: "single",
		DBPath:   ".chimera/chimera.db",
	}
}

// app bundles the wired components for one CLI invocation.
type app struct {
	executor *orchestration.Executor
	queue    *queue.Queue
	store    storage.SessionStore
	errors   *errlog.Log
	settings config.Settings
	cleanup  func()
}

func buildApp(opts Options, withStore bool) (*app, error) {
	settings, err := config.New()
	if err != nil {
		return nil, err
	}

	providerType, err := llm.ParseProviderType(opts.Provider)
	if err != nil {
		return nil, err
	}
	provider, err := providerType.FromEnv()
	if err != nil {
		return nil, err
	}

	gateway := llm.NewGateway(provider)
	q := queue.New(queue.Config{
		MinInterval:  settings.Queue.MinInterval,
		MaxQueueSize: settings.Queue.MaxQueueSize,
	})
	errors := errlog.New()

	policy := retry.Policy{
		MaxRetries: settings.Retry.MaxRetries,
		BaseDelay:  settings.Retry.BaseDelay,
		Multiplier: settings.Retry.BackoffMultiplier,
	}

	presenter := streaming.NewPresenter()
	presenter.Delay = settings.Streaming.Delay
	presenter.ChunkWords = settings.Streaming.ChunkWords

	executor := orchestration.New(gateway, q, policy).
		WithErrorLog(errors).
		WithPresenter(presenter)

	if settings.Cache.Enabled {
		executor = executor.WithCache(cache.New(settings.Cache.MaxSize, settings.Cache.TTL))
	}

	a := &app{
		executor: executor,
		queue:    q,
		errors:   errors,
		settings: settings,
		cleanup:  q.Close,
	}

	if withStore {
		store, err := storage.OpenSqlite(opts.DBPath)
		if err != nil {
			q.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.store = store
		executor.WithSessionStore(store)
		a.cleanup = func() {
			q.Close()
			store.Close()
		}
	}

	return a, nil
}

func buildStrategy(opts Options) (orchestration.Strategy, error) {
	switch opts.Strategy {
	case "single", "":
		model := opts.Model
		if model == "" {
			providerType, err := llm.ParseProviderType(opts.Provider)
			if err != nil {
				return orchestration.Strategy{}, err
			}
			model = config.ModelFor(providerType)
		}
		return orchestration.NewSingle(model)
	case "collaborative":
		return orchestration.NewCollaborative(opts.Models...)
	case "workflow":
		return orchestration.NewWorkflow(opts.TaskType)
	default:
		return orchestration.Strategy{}, fmt.Errorf("unknown strategy %q (known: single, collaborative, workflow)", opts.Strategy)
	}
}

// Run executes a single one-shot turn and prints the result.
func Run(ctx context.Context, message string, opts Options) error {
	a, err := buildApp(opts, false)
	if err != nil {
		return err
	}
	defer a.cleanup()

	strategy, err := buildStrategy(opts)
	if err != nil {
		return err
	}

	result, err := a.executor.RunTurn(ctx, orchestration.TurnInput{
		Message:  message,
		Strategy: strategy,
		Params:   turnParams(a.settings),
		OnChunk:  chunkPrinter(),
	})
	if err != nil {
		printTurnError(err)
		return err
	}
	fmt.Println()

	if opts.Verbose && len(result.Steps) > 1 {
		printSteps(result.Steps)
	}
	return nil
}

// Chat starts an interactive chat session with persistence.
func Chat(ctx context.Context, opts Options) error {
	a, err := buildApp(opts, true)
	if err != nil {
		return err
	}
	defer a.cleanup()

	strategy, err := buildStrategy(opts)
	if err != nil {
		return err
	}

	session, err := a.store.Create(ctx)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	fmt.Printf("Chat session %s (%s strategy). Type 'exit' to quit.\n\n", session.ID, strategy.Kind)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		result, err := a.executor.RunTurn(ctx, orchestration.TurnInput{
			SessionID: session.ID,
			Message:   input,
			Strategy:  strategy,
			Params:    turnParams(a.settings),
			OnChunk:   chunkPrinter(),
		})
		if err != nil {
			printTurnError(err)
			continue
		}
		fmt.Println()

		if opts.Verbose && len(result.Steps) > 1 {
			printSteps(result.Steps)
		}
		fmt.Println()
	}

	return scanner.Err()
}

// ListWorkflows prints the built-in workflow definitions.
func ListWorkflows() {
	for _, def := range orchestration.Workflows() {
		fmt.Printf("%s - %s\n", def.TaskType, def.Name)
		fmt.Printf("  %s\n", def.Description)
		for i, step := range def.Steps {
			fmt.Printf("  %d. %s (%s): %s\n", i+1, step.Role, llm.DisplayName(step.Model), step.Task)
		}
		fmt.Println()
	}
}

// ListModels prints the active provider's model catalog.
func ListModels(ctx context.Context, opts Options) error {
	providerType, err := llm.ParseProviderType(opts.Provider)
	if err != nil {
		return err
	}
	provider, err := providerType.FromEnv()
	if err != nil {
		return err
	}

	models, err := llm.NewGateway(provider).ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	fmt.Printf("Models available from %s:\n", provider.Name())
	for _, m := range models {
		if m.DisplayName != "" && m.DisplayName != m.ID {
			fmt.Printf("  %s (%s)\n", m.ID, m.DisplayName)
		} else {
			fmt.Printf("  %s\n", m.ID)
		}
	}
	return nil
}

func turnParams(settings config.Settings) orchestration.Params {
	return orchestration.Params{
		Temperature: settings.LLM.Temperature,
		MaxTokens:   settings.LLM.MaxTokens,
	}
}

// chunkPrinter prints only the new suffix of each cumulative chunk.
func chunkPrinter() func(string) {
	printed := 0
	return func(cumulative string) {
		if len(cumulative) > printed {
			fmt.Print(cumulative[printed:])
			printed = len(cumulative)
		}
	}
}

func printSteps(steps []orchestration.StepResult) {
	fmt.Println("\nSteps:")
	for _, s := range steps {
		status := "ok"
		if s.Failed {
			status = "failed"
		} else if s.Cached {
			status = "cached"
		}
		fmt.Printf("  %d. %s [%s] %s\n", s.Index+1, s.Role, llm.DisplayName(s.Model), status)
	}
}

func printTurnError(err error) {
	category := llm.Categorize("", err).Category
	fmt.Fprintf(os.Stderr, "Error: %s\n", category.UserMessage())
}
