package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ToolStatus is a tool attempt's state in the CREATED -> RUNNING ->
// (SUCCESS | FAILED_RETRYABLE -> RUNNING | FAILED_PERMANENT | TIMED_OUT)
// state machine.
type ToolStatus string

const (
	StatusCreated         ToolStatus = "CREATED"
	StatusRunning         ToolStatus = "RUNNING"
	StatusSuccess         ToolStatus = "SUCCESS"
	StatusFailedRetryable ToolStatus = "FAILED_RETRYABLE"
	StatusFailedPermanent ToolStatus = "FAILED_PERMANENT"
	StatusTimedOut        ToolStatus = "TIMED_OUT"
)

// ErrQueueDepthExceeded is returned when the worker pool's queue is full.
// It is retryable: the caller may back off and resubmit.
var ErrQueueDepthExceeded = errors.New("mcp: worker pool queue depth exceeded")

// RetryableError marks err as a transient failure eligible for retry.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError.
func Retryable(err error) error { return &RetryableError{Err: err} }

// NonRetryableError marks err as a permanent failure (bad input, not-found,
// precondition) never worth retrying.
type NonRetryableError struct{ Err error }

func (e *NonRetryableError) Error() string { return e.Err.Error() }
func (e *NonRetryableError) Unwrap() error { return e.Err }

// NonRetryable wraps err as a NonRetryableError.
func NonRetryable(err error) error { return &NonRetryableError{Err: err} }

var nonRetryableHints = []string{"invalid", "not found", "precondition", "bad request", "unauthorized", "forbidden"}

// classifyRetryable decides whether err should count toward a retry attempt.
// An explicit Retryable/NonRetryable wrapper always wins; otherwise transient
// I/O, timeouts and provider 5xx/429 are retryable by default and everything
// matching a non-retryable hint is not.
func classifyRetryable(err error) bool {
	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}
	var nre *NonRetryableError
	if errors.As(err, &nre) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range nonRetryableHints {
		if strings.Contains(msg, hint) {
			return false
		}
	}
	return true
}

// Tool is a unit of work the MCP Registry can schedule and retry.
type Tool interface {
	Name() string
	Execute(ctx context.Context, params map[string]any) (any, error)
}

// ToolFunc adapts a plain function to the Tool interface.
type ToolFunc struct {
	ToolName string
	Fn       func(ctx context.Context, params map[string]any) (any, error)
}

func (f ToolFunc) Name() string { return f.ToolName }
func (f ToolFunc) Execute(ctx context.Context, params map[string]any) (any, error) {
	return f.Fn(ctx, params)
}

// RetryPolicy parameterizes ExecuteToolWithRetryAndTimeout's backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction in [0,1); delay varies by (1 ± Jitter)
}

// DefaultRetryPolicy returns a conservative three-attempt policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second, Jitter: 0.2}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * float64(int64(1)<<uint(attempt))
	if max := float64(p.MaxDelay); d > max {
		d = max
	}
	if p.Jitter > 0 {
		factor := 1 + (rand.Float64()*2-1)*p.Jitter
		d *= factor
	}
	return time.Duration(d)
}

// ToolResponse is the outcome of one ExecuteToolWithRetryAndTimeout call.
type ToolResponse struct {
	Success  bool
	Message  string
	Data     any
	Warnings []string
	Errors   []string
	Status   ToolStatus
	Attempts int
}

// Registry registers tools and executes them on a bounded worker pool with
// per-tool timeout, retry, and backpressure (spec 4.8).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool

	sem           chan struct{}
	maxQueueDepth int
	queued        int64

	logger *slog.Logger
}

// NewRegistry builds a Registry whose worker pool admits poolSize concurrent
// executions and rejects submissions once maxQueueDepth requests are
// in-flight (queued + running).
func NewRegistry(poolSize, maxQueueDepth int, logger *slog.Logger) *Registry {
	if poolSize <= 0 {
		poolSize = 50
	}
	if maxQueueDepth <= 0 {
		maxQueueDepth = poolSize * 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:         make(map[string]Tool),
		sem:           make(chan struct{}, poolSize),
		maxQueueDepth: maxQueueDepth,
		logger:        logger,
	}
}

// Register adds tool to the registry, rejecting duplicate names.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("mcp: tool %q is already registered", tool.Name())
	}
	r.tools[tool.Name()] = tool
	return nil
}

// Lookup returns the named tool, if registered.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the sorted names of every registered tool.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExecuteToolWithRetryAndTimeout runs tool under policy, enforcing timeout
// per attempt and exponential backoff with jitter between retryable
// failures. A full queue is rejected immediately with ErrQueueDepthExceeded
// rather than admitted and blocked.
func (r *Registry) ExecuteToolWithRetryAndTimeout(ctx context.Context, toolName string, params map[string]any, policy RetryPolicy, timeout time.Duration) (*ToolResponse, error) {
	tool, ok := r.Lookup(toolName)
	if !ok {
		return &ToolResponse{Success: false, Status: StatusFailedPermanent, Errors: []string{fmt.Sprintf("tool %q not found", toolName)}}, NonRetryable(fmt.Errorf("mcp: tool %q not found", toolName))
	}

	if atomic.AddInt64(&r.queued, 1) > int64(r.maxQueueDepth) {
		atomic.AddInt64(&r.queued, -1)
		return &ToolResponse{Success: false, Status: StatusFailedRetryable, Errors: []string{ErrQueueDepthExceeded.Error()}}, ErrQueueDepthExceeded
	}
	defer atomic.AddInt64(&r.queued, -1)

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return &ToolResponse{Success: false, Status: StatusTimedOut, Errors: []string{ctx.Err().Error()}}, ctx.Err()
	}
	defer func() { <-r.sem }()

	status := StatusCreated
	var lastErr error
	attempts := 0

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		status = StatusRunning
		attempts = attempt + 1

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		data, err := tool.Execute(attemptCtx, params)
		timedOut := attemptCtx.Err() == context.DeadlineExceeded
		cancel()

		if err == nil {
			return &ToolResponse{Success: true, Status: StatusSuccess, Data: data, Attempts: attempt + 1}, nil
		}

		lastErr = err
		retryable := timedOut || classifyRetryable(err)
		isLast := attempt == policy.MaxAttempts-1

		if !retryable {
			status = StatusFailedPermanent
			break
		}

		status = StatusFailedRetryable
		if timedOut {
			status = StatusTimedOut
		}

		if isLast {
			if timedOut {
				status = StatusTimedOut
			} else {
				status = StatusFailedPermanent
			}
			break
		}

		r.logger.Debug("mcp: tool attempt failed, retrying",
			slog.String("tool", toolName), slog.Int("attempt", attempt+1), slog.String("error", err.Error()))

		select {
		case <-time.After(policy.delay(attempt)):
		case <-ctx.Done():
			return &ToolResponse{Success: false, Status: StatusTimedOut, Errors: []string{ctx.Err().Error()}, Attempts: attempt + 1}, ctx.Err()
		}
	}

	return &ToolResponse{
		Success:  false,
		Status:   status,
		Message:  fmt.Sprintf("tool %q failed after %d attempt(s)", toolName, attempts),
		Errors:   []string{lastErr.Error()},
		Attempts: attempts,
	}, lastErr
}

// PlannedTool is one step of a Plan handed to Process.
type PlannedTool struct {
	ToolName string
	Params   map[string]any
	Priority int
	Required bool
	Timeout  time.Duration
	Policy   RetryPolicy
}

// Plan is an ordered set of tool invocations produced by the Hybrid Query
// Engine (internal/query) and executed here.
type Plan struct {
	Tools []PlannedTool
}

// ProcessResult aggregates every planned tool's ToolResponse.
type ProcessResult struct {
	Responses    map[string]*ToolResponse
	Partial      bool
	FallbackUsed bool
}

// Process executes plan in ascending priority order; tools sharing a
// priority run concurrently (and must be commutative, per spec 5). A
// required tool's failure aborts remaining priority tiers and marks the
// result Partial; non-required failures are recorded but never abort.
func (r *Registry) Process(ctx context.Context, plan Plan) (*ProcessResult, error) {
	result := &ProcessResult{Responses: make(map[string]*ToolResponse, len(plan.Tools))}

	tiers := groupByPriority(plan.Tools)
	for _, tier := range tiers {
		g, gctx := errgroup.WithContext(ctx)
		var mu sync.Mutex
		requiredFailed := false

		for _, pt := range tier {
			pt := pt
			g.Go(func() error {
				policy := pt.Policy
				if policy.MaxAttempts == 0 {
					policy = DefaultRetryPolicy()
				}
				timeout := pt.Timeout
				if timeout == 0 {
					timeout = 30 * time.Second
				}
				resp, err := r.ExecuteToolWithRetryAndTimeout(gctx, pt.ToolName, pt.Params, policy, timeout)

				mu.Lock()
				result.Responses[pt.ToolName] = resp
				if err != nil {
					result.FallbackUsed = true
					if pt.Required {
						requiredFailed = true
					}
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if requiredFailed {
			result.Partial = true
			break
		}
	}

	return result, nil
}

func groupByPriority(tools []PlannedTool) [][]PlannedTool {
	sorted := make([]PlannedTool, len(tools))
	copy(sorted, tools)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	var tiers [][]PlannedTool
	var current []PlannedTool
	for i, t := range sorted {
		if i > 0 && t.Priority != sorted[i-1].Priority {
			tiers = append(tiers, current)
			current = nil
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		tiers = append(tiers, current)
	}
	return tiers
}
