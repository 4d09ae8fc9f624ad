package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/sightline-ai/visibility-engine/internal/insight"
	"github.com/sightline-ai/visibility-engine/internal/model"
	"github.com/sightline-ai/visibility-engine/internal/platform/errs"
)

// JobStatus is the lifecycle state of one analysis job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// StepState tracks one step of one job.
type StepState string

const (
	StepPending StepState = "pending"
	StepRunning StepState = "running"
	StepDone    StepState = "done"
	StepFailed  StepState = "failed"
)

// Workflow step names. The step set is static; the overview step gates all
// the others.
const (
	StepOverview  = "overview"
	StepInsights  = "insights"
	StepSignals   = "signals"
	StepKeywords  = "keywords"
	StepMarketing = "marketing"
)

type stepDef struct {
	name             string
	requiresOverview bool
}

// workflowSteps is the closed set of steps every job runs. Progress advances
// by an equal share per completed step.
var workflowSteps = []stepDef{
	{name: StepOverview},
	{name: StepInsights, requiresOverview: true},
	{name: StepSignals, requiresOverview: true},
	{name: StepKeywords, requiresOverview: true},
	{name: StepMarketing, requiresOverview: true},
}

// Five steps, 20 points each.
const progressPerStep = 20

// SignalsSummary is the signals step output, a condensed view of the AI
// discoverability findings for dashboard consumers.
type SignalsSummary struct {
	BlockedBots          []string `json:"blocked_bots"`
	PartiallyBlockedBots []string `json:"partially_blocked_bots"`
	LLMSTxtPresent       bool     `json:"llms_txt_present"`
	SitemapPresent       bool     `json:"sitemap_present"`
	SitemapsDeclared     []string `json:"sitemaps_declared,omitempty"`
}

// Result aggregates everything a completed job produced.
type Result struct {
	Report   *model.Report             `json:"report"`
	Signals  *SignalsSummary           `json:"signals,omitempty"`
	Insights map[string]insight.Result `json:"insights,omitempty"`
	Cached   bool                      `json:"cached"`
}

// JobView is an immutable snapshot of a job, safe to hand to transports.
type JobView struct {
	ID             string    `json:"job_id"`
	Target         string    `json:"target"`
	Status         JobStatus `json:"status"`
	Progress       int       `json:"progress"`
	CurrentStep    string    `json:"current_step,omitempty"`
	CompletedSteps []string  `json:"completed_steps"`
	CreatedAt      time.Time `json:"created_at"`
	Cached         bool      `json:"cached"`
	Error          string    `json:"error,omitempty"`
	Result         *Result   `json:"result,omitempty"`
}

// job is the orchestrator-owned mutable record. All field access goes
// through mu once the job's goroutine is launched.
type job struct {
	mu sync.Mutex

	id             string
	target         string
	normalized     string
	status         JobStatus
	currentStep    string
	completedSteps []string
	steps          map[string]StepState
	createdAt      time.Time
	finishedAt     time.Time // zero until the job reaches a terminal status
	cached         bool

	result *Result
	err    *errs.AppError

	cancel context.CancelFunc
}

func newJob(id, target, normalized string) *job {
	steps := make(map[string]StepState, len(workflowSteps))
	for _, def := range workflowSteps {
		steps[def.name] = StepPending
	}
	return &job{
		id:         id,
		target:     target,
		normalized: normalized,
		status:     StatusPending,
		steps:      steps,
		createdAt:  time.Now().UTC(),
	}
}

// view snapshots the job under its lock.
func (j *job) view() *JobView {
	j.mu.Lock()
	defer j.mu.Unlock()

	completed := make([]string, len(j.completedSteps))
	copy(completed, j.completedSteps)

	v := &JobView{
		ID:             j.id,
		Target:         j.target,
		Status:         j.status,
		Progress:       progressPerStep * len(completed),
		CurrentStep:    j.currentStep,
		CompletedSteps: completed,
		CreatedAt:      j.createdAt,
		Cached:         j.cached,
		Result:         j.result,
	}
	if j.status == StatusCompleted {
		v.Progress = 100
	}
	if j.err != nil {
		v.Error = j.err.Message
	}
	return v
}
