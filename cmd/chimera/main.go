// Package main provides the chimera CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/richinex/chimera/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider string
	strategy string
	model    string
	models   []string
	taskType string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "chimera",
		Short: "Multi-model LLM orchestration from the command line",
		Long: `Chimera sequences calls to LLM completion APIs under three strategies:

- single: one model answers using the full conversation history
- collaborative: an ordered team of models builds on each other's output,
  then the first model synthesizes a final answer
- workflow: a fixed 3-step pipeline of specialized roles for a task type

Responses are cached, rate-limited through a serialized queue, and retried
with exponential backoff.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "openrouter", "LLM provider (openrouter, deepseek, anthropic, gemini)")
	rootCmd.PersistentFlags().StringVarP(&strategy, "strategy", "s", "single", "Strategy (single, collaborative, workflow)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model for single strategy (default: provider default)")
	rootCmd.PersistentFlags().StringSliceVar(&models, "models", nil, "Ordered models for collaborative strategy (2+)")
	rootCmd.PersistentFlags().StringVarP(&taskType, "task", "t", "", "Workflow task type (see 'chimera workflows')")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show per-step results")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(workflowsCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func gatherOptions(dbPath string) cli.Options {
	opts := cli.DefaultOptions()
	opts.Provider = provider
	opts.Strategy = strategy
	opts.Model = model
	opts.Models = models
	opts.TaskType = taskType
	opts.Verbose = verbose
	if dbPath != "" {
		opts.DBPath = dbPath
	}
	return opts
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [message]",
		Short: "Execute a single turn and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Run(context.Background(), args[0], gatherOptions(""))
		},
	}
}

func chatCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session. Conversation history persists in a
SQLite database and provides context for single-strategy turns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), gatherOptions(dbPath))
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", ".chimera/chimera.db", "Database path for session storage")

	return cmd
}

func workflowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List the built-in workflow definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.ListWorkflows()
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the active provider's model catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListModels(context.Background(), gatherOptions(""))
		},
	}
}
