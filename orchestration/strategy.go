// Package orchestration turns a user message plus a chosen strategy
// into an ordered sequence of model calls.
//
// Types used by the executor: strategies and static workflow definitions.
package orchestration

import (
	"fmt"
)

// StrategyKind discriminates the strategy variants.
type StrategyKind int

const (
	StrategySingle StrategyKind = iota
	StrategyCollaborative
	StrategyWorkflow
)

// String returns the kind's display name.
func (k StrategyKind) String() string {
	switch k {
	case StrategySingle:
		return "single"
	case StrategyCollaborative:
		return "collaborative"
	case StrategyWorkflow:
		return "workflow"
	default:
		return "unknown"
	}
}

// Strategy is a tagged variant describing how one turn maps to model
// calls. Exactly one variant is populated, per Kind. Switching
// strategies between turns never mutates conversation history, only
// how future turns are produced.
type Strategy struct {
	Kind StrategyKind

	// Model is the single-strategy model.
	Model string
	// Models is the ordered collaborative team (len >= 2).
	Models []string
	// TaskType names the workflow definition.
	TaskType string
}

// NewSingle creates a single-model strategy.
func NewSingle(model string) (Strategy, error) {
	if model == "" {
		return Strategy{}, fmt.Errorf("single strategy requires a model")
	}
	return Strategy{Kind: StrategySingle, Model: model}, nil
}

// NewCollaborative creates a sequential multi-model strategy.
// Requires at least two models.
func NewCollaborative(models ...string) (Strategy, error) {
	if len(models) < 2 {
		return Strategy{}, fmt.Errorf("collaborative strategy requires at least 2 models, got %d", len(models))
	}
	for i, m := range models {
		if m == "" {
			return Strategy{}, fmt.Errorf("collaborative strategy: model %d is empty", i)
		}
	}
	copied := make([]string, len(models))
	copy(copied, models)
	return Strategy{Kind: StrategyCollaborative, Models: copied}, nil
}

// NewWorkflow creates a workflow strategy for a built-in task type.
func NewWorkflow(taskType string) (Strategy, error) {
	if _, ok := WorkflowByTaskType(taskType); !ok {
		return Strategy{}, fmt.Errorf("unknown workflow task type %q (known: %v)", taskType, WorkflowTaskTypes())
	}
	return Strategy{Kind: StrategyWorkflow, TaskType: taskType}, nil
}
