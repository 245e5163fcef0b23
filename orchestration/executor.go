// Strategy executor.
//
// The central per-turn state machine. Given a user message and the
// active strategy, it composes the model calls, builds prompts and
// context, and merges results. Every sub-call follows the same atomic
// path: cache check, queue submit, retry-wrapped gateway call, cache
// store.
//
// Information Hiding:
// - Prompt construction for collaborative/workflow steps hidden
// - Cache/queue/retry composition hidden behind one sub-call path
// - Turn phase transitions hidden behind an optional callback

package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/richinex/chimera/cache"
	"github.com/richinex/chimera/errlog"
	"github.com/richinex/chimera/llm"
	"github.com/richinex/chimera/queue"
	"github.com/richinex/chimera/retry"
	"github.com/richinex/chimera/storage"
	"github.com/richinex/chimera/streaming"
)

// Phase is the executor's per-turn state. Phases are observational
// only; they never gate execution.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseDispatching  Phase = "dispatching"
	PhaseCacheCheck   Phase = "cache_check"
	PhaseCalling      Phase = "calling"
	PhaseAwaiting     Phase = "awaiting"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseComplete     Phase = "complete"
	PhaseFailed       Phase = "failed"
)

// Params are the sampling parameters applied to every call of a turn.
// The executor treats them as an immutable snapshot per turn.
type Params struct {
	Temperature float32
	MaxTokens   int
}

// TurnInput describes one user turn.
type TurnInput struct {
	// SessionID selects the conversation whose history provides context
	// and which receives the completed turn. Empty runs a history-less
	// one-shot turn with no session writes.
	SessionID string
	Message   string
	Strategy  Strategy
	Params    Params

	// OnChunk, when set, replays the final output incrementally through
	// the presenter before RunTurn returns.
	OnChunk    func(string)
	OnComplete func(string)
}

// StepResult records one sub-call's outcome.
type StepResult struct {
	Index  int
	Model  string
	Role   string
	Output string
	Cached bool
	Failed bool
}

// TurnResult is the outcome of a successful turn.
type TurnResult struct {
	Output string
	Steps  []StepResult
	// Cached reports whether the output-producing call was a cache hit.
	Cached bool
}

// Executor orchestrates turns. Construct one per application instance;
// there is no package-level state, so independent executors (and their
// tests) can run concurrently.
type Executor struct {
	gateway   *llm.Gateway
	cache     *cache.Cache
	queue     *queue.Queue
	policy    retry.Policy
	errors    *errlog.Log
	store     storage.SessionStore
	presenter *streaming.Presenter
	onPhase   func(Phase)
}

// New creates an executor over the given gateway and queue.
// Cache, error log, session store, and presenter are attached with the
// WithX methods; absent ones are simply not used.
func New(gateway *llm.Gateway, q *queue.Queue, policy retry.Policy) *Executor {
	return &Executor{
		gateway: gateway,
		queue:   q,
		policy:  policy,
	}
}

// WithCache enables response caching.
func (e *Executor) WithCache(c *cache.Cache) *Executor {
	e.cache = c
	return e
}

// WithErrorLog attaches the error journal.
func (e *Executor) WithErrorLog(log *errlog.Log) *Executor {
	e.errors = log
	return e
}

// WithSessionStore attaches conversation persistence.
func (e *Executor) WithSessionStore(store storage.SessionStore) *Executor {
	e.store = store
	return e
}

// WithPresenter attaches the streaming replay adapter.
func (e *Executor) WithPresenter(p *streaming.Presenter) *Executor {
	e.presenter = p
	return e
}

// WithPhaseCallback observes per-turn phase transitions.
func (e *Executor) WithPhaseCallback(fn func(Phase)) *Executor {
	e.onPhase = fn
	return e
}

func (e *Executor) phase(p Phase) {
	if e.onPhase != nil {
		e.onPhase(p)
	}
}

// RunTurn executes one turn. On success the session (if any) gains the
// user message and the assistant output; on failure it still gains the
// user message and a human-readable assistant entry derived from the
// error category, so the conversation is never left hanging.
func (e *Executor) RunTurn(ctx context.Context, input TurnInput) (TurnResult, error) {
	e.phase(PhaseDispatching)

	history, err := e.history(ctx, input.SessionID)
	if err != nil {
		e.phase(PhaseFailed)
		return TurnResult{}, fmt.Errorf("failed to load session history: %w", err)
	}

	var result TurnResult
	switch input.Strategy.Kind {
	case StrategySingle:
		result, err = e.runSingle(ctx, input, history)
	case StrategyCollaborative:
		result, err = e.runCollaborative(ctx, input)
	case StrategyWorkflow:
		result, err = e.runWorkflow(ctx, input)
	default:
		err = fmt.Errorf("unknown strategy kind %d", input.Strategy.Kind)
	}

	if err != nil {
		e.phase(PhaseFailed)
		e.recordTurn(ctx, input, llm.Categorize(e.providerName(), err).Category.UserMessage())
		return TurnResult{}, err
	}

	e.recordTurn(ctx, input, result.Output)
	e.phase(PhaseComplete)

	if input.OnChunk != nil && e.presenter != nil {
		if perr := e.presenter.Present(ctx, result.Output, result.Cached, input.OnChunk, input.OnComplete); perr != nil {
			return result, perr
		}
	}
	return result, nil
}

func (e *Executor) runSingle(ctx context.Context, input TurnInput, history []llm.ChatMessage) (TurnResult, error) {
	messages := make([]llm.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(input.Message))

	model := input.Strategy.Model
	text, cached, err := e.subCall(ctx, model, messages, input.Params)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{
		Output: text,
		Steps: []StepResult{
			{Index: 0, Model: model, Role: llm.DisplayName(model), Output: text, Cached: cached},
		},
		Cached: cached,
	}, nil
}

func (e *Executor) runCollaborative(ctx context.Context, input TurnInput) (TurnResult, error) {
	models := input.Strategy.Models
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = llm.DisplayName(m)
	}
	roster := strings.Join(names, ", ")

	var steps []StepResult
	var transcript strings.Builder
	for i, model := range models {
		system := fmt.Sprintf(
			"You are %s, working in a collaborative team of AI models. Team members: %s. Build on your teammates' contributions; do not repeat them.",
			names[i], roster)
		prompt := collaborativePrompt(input.Message, transcript.String())

		messages := []llm.ChatMessage{
			llm.SystemMessage(system),
			llm.UserMessage(prompt),
		}

		text, cached, err := e.subCall(ctx, model, messages, input.Params)
		step := StepResult{Index: i, Model: model, Role: names[i], Cached: cached}
		if err != nil {
			// Degraded continuation: the step's slot in the transcript is
			// filled with a placeholder and the sequence carries on.
			e.logError(err, fmt.Sprintf("collaborative step %d (%s)", i, model))
			step.Failed = true
			step.Output = fmt.Sprintf("[error processing with %s]", names[i])
		} else {
			step.Output = text
		}
		steps = append(steps, step)

		if transcript.Len() > 0 {
			transcript.WriteString("\n\n")
		}
		fmt.Fprintf(&transcript, "### %s\n%s", names[i], step.Output)
	}

	e.phase(PhaseSynthesizing)
	output, cached, err := e.synthesize(ctx, models[0], input.Message, transcript.String(), input.Params)
	if err != nil {
		// Synthesis failure is not swallowed; there is no degraded
		// output once synthesis fails.
		return TurnResult{}, err
	}
	return TurnResult{Output: output, Steps: steps, Cached: cached}, nil
}

func (e *Executor) runWorkflow(ctx context.Context, input TurnInput) (TurnResult, error) {
	def, ok := WorkflowByTaskType(input.Strategy.TaskType)
	if !ok {
		return TurnResult{}, fmt.Errorf("unknown workflow task type %q", input.Strategy.TaskType)
	}

	var steps []StepResult
	running := input.Message
	for i, ws := range def.Steps {
		system := fmt.Sprintf("You are the %s in a %s workflow. Your task: %s.", ws.Role, def.Name, ws.Task)
		messages := []llm.ChatMessage{
			llm.SystemMessage(system),
			llm.UserMessage(ws.Prompt(running)),
		}

		text, cached, err := e.subCall(ctx, ws.Model, messages, input.Params)
		step := StepResult{Index: i, Model: ws.Model, Role: ws.Role, Cached: cached}
		if err != nil {
			e.logError(err, fmt.Sprintf("workflow %s step %d (%s)", def.TaskType, i, ws.Model))
			step.Failed = true
			step.Output = fmt.Sprintf("[error processing with %s]", llm.DisplayName(ws.Model))
		} else {
			step.Output = text
		}
		steps = append(steps, step)

		running = fmt.Sprintf("%s\n\n### %s\n%s", running, ws.Role, step.Output)
	}

	e.phase(PhaseSynthesizing)
	// Synthesis always uses the first step's model.
	output, cached, err := e.synthesize(ctx, def.Steps[0].Model, input.Message, running, input.Params)
	if err != nil {
		return TurnResult{}, err
	}
	return TurnResult{Output: output, Steps: steps, Cached: cached}, nil
}

// subCall is the atomic call path shared by every step and synthesis:
// cache check, queue submit, retry-wrapped gateway call, cache store.
// Cache errors are treated as misses, never surfaced to the turn.
func (e *Executor) subCall(ctx context.Context, model string, messages []llm.ChatMessage, params Params) (string, bool, error) {
	var key string
	if e.cache != nil {
		e.phase(PhaseCacheCheck)
		if k, err := cache.Key(model, messages, params.Temperature, params.MaxTokens); err == nil {
			key = k
			if text, ok := e.cache.Get(key); ok {
				return text, true, nil
			}
		}
	}

	e.phase(PhaseCalling)
	req := llm.Request{
		Model:       model,
		Messages:    messages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}

	e.phase(PhaseAwaiting)
	var resp llm.Response
	err := e.queue.Submit(ctx, func(callCtx context.Context) error {
		return e.policy.Do(callCtx, e.errors, model, func(attemptCtx context.Context) error {
			r, callErr := e.gateway.Call(attemptCtx, req)
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		})
	})
	if err != nil {
		return "", false, err
	}

	if e.cache != nil && key != "" {
		e.cache.Put(key, resp.Text)
	}
	return resp.Text, false, nil
}

func (e *Executor) synthesize(ctx context.Context, model, task, transcript string, params Params) (string, bool, error) {
	system := "You are the synthesizer. Several specialists have contributed to the task below. Merge their contributions into one coherent, complete answer. Resolve contradictions and omit the process commentary."
	prompt := fmt.Sprintf("Task: %s\n\nContributions:\n\n%s", task, transcript)
	messages := []llm.ChatMessage{
		llm.SystemMessage(system),
		llm.UserMessage(prompt),
	}
	return e.subCall(ctx, model, messages, params)
}

func collaborativePrompt(task, transcript string) string {
	if transcript == "" {
		return fmt.Sprintf("Task: %s\n\nProvide your contribution.", task)
	}
	return fmt.Sprintf("Task: %s\n\nContributions so far:\n\n%s\n\nAdd your contribution.", task, transcript)
}

func (e *Executor) history(ctx context.Context, sessionID string) ([]llm.ChatMessage, error) {
	if e.store == nil || sessionID == "" {
		return nil, nil
	}
	return e.store.Messages(ctx, sessionID)
}

// recordTurn appends the user message and exactly one assistant entry.
// Persistence failures are journaled, not propagated; the turn's own
// outcome takes precedence.
func (e *Executor) recordTurn(ctx context.Context, input TurnInput, assistantText string) {
	if e.store == nil || input.SessionID == "" {
		return
	}
	if err := e.store.Append(ctx, input.SessionID, llm.UserMessage(input.Message)); err != nil {
		e.logError(err, "session append (user)")
		return
	}
	if err := e.store.Append(ctx, input.SessionID, llm.AssistantMessage(assistantText)); err != nil {
		e.logError(err, "session append (assistant)")
	}
}

func (e *Executor) logError(err error, context string) {
	if e.errors == nil {
		return
	}
	category := llm.Categorize(e.providerName(), err).Category
	e.errors.Append(category, err.Error(), context)
}

func (e *Executor) providerName() string {
	if e.gateway == nil || e.gateway.Provider() == nil {
		return ""
	}
	return e.gateway.Provider().Name()
}
