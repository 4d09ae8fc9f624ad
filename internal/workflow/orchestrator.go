// Package workflow owns the analysis job lifecycle: admission, the
// foundational overview pipeline, the parallel dependent steps, and the
// status/result/cancel surface.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/sightline-ai/visibility-engine/internal/analyze"
	"github.com/sightline-ai/visibility-engine/internal/cache"
	"github.com/sightline-ai/visibility-engine/internal/fetch"
	"github.com/sightline-ai/visibility-engine/internal/insight"
	"github.com/sightline-ai/visibility-engine/internal/model"
	"github.com/sightline-ai/visibility-engine/internal/platform/errs"
	"github.com/sightline-ai/visibility-engine/internal/score"
	"github.com/sightline-ai/visibility-engine/internal/signals"
	"github.com/sightline-ai/visibility-engine/internal/urlnorm"
)

// Config bounds the orchestrator's resource usage.
type Config struct {
	// MaxConcurrent caps overview fetch+analyze pipelines. Requests beyond
	// the cap are rejected, not queued.
	MaxConcurrent int
	// CacheTTL is how long completed reports stay servable from cache.
	CacheTTL time.Duration
	// InsightTimeout bounds each external generation call.
	InsightTimeout time.Duration
	// JobTTL is how long terminal job records stay queryable before they
	// are pruned. Zero falls back to defaultJobTTL.
	JobTTL time.Duration
}

const defaultJobTTL = 24 * time.Hour

// Fetcher retrieves the four analysis resources for a target.
type Fetcher interface {
	FetchAll(ctx context.Context, target string) (map[string]fetch.Result, error)
}

// Orchestrator runs analysis jobs. The cache is the only state shared across
// jobs; job records are owned here and mutated only by orchestrator code.
type Orchestrator struct {
	cfg       Config
	fetcher   Fetcher
	scorer    *score.Scorer
	generator insight.Generator
	reports   *cache.Cache[*model.Report]
	logger    *slog.Logger

	sem    *semaphore.Weighted
	flight singleflight.Group
	now    func() time.Time

	mu       sync.Mutex
	jobs     map[string]*job
	inflight map[string]string // normalized URL -> running job id
}

// New builds an Orchestrator. The report cache must be non-nil; pass
// insight.Disabled{} as the generator when no API key is configured.
func New(cfg Config, fetcher Fetcher, scorer *score.Scorer, generator insight.Generator, reports *cache.Cache[*model.Report], logger *slog.Logger) *Orchestrator {
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaultJobTTL
	}
	return &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		scorer:    scorer,
		generator: generator,
		reports:   reports,
		logger:    logger,
		now:       time.Now,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		jobs:      make(map[string]*job),
		inflight:  make(map[string]string),
	}
}

// Start validates and admits a new job. A cache hit synthesizes a completed
// job immediately. A start for a URL whose pipeline is already in flight
// returns the existing job so both callers poll one pipeline.
func (o *Orchestrator) Start(target string) (*JobView, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, &errs.AppError{Kind: errs.InvalidInput, Message: "target URL or brand is required"}
	}

	normalized := urlnorm.Normalize(target)
	o.pruneExpired()

	if report, ok := o.reports.Get(normalized); ok {
		j := o.synthesizeCached(target, normalized, report)
		return j.view(), nil
	}

	o.mu.Lock()
	if existingID, ok := o.inflight[normalized]; ok {
		existing := o.jobs[existingID]
		o.mu.Unlock()
		return existing.view(), nil
	}

	if !o.sem.TryAcquire(1) {
		o.mu.Unlock()
		return nil, &errs.AppError{
			Kind:    errs.CapacityExceeded,
			Message: fmt.Sprintf("analysis capacity of %d concurrent jobs exceeded, retry later", o.cfg.MaxConcurrent),
		}
	}

	j := newJob(uuid.NewString(), target, normalized)
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	o.jobs[j.id] = j
	o.inflight[normalized] = j.id
	o.mu.Unlock()

	go o.run(ctx, j)

	return j.view(), nil
}

// Status returns a snapshot of the job.
func (o *Orchestrator) Status(id string) (*JobView, error) {
	j, err := o.lookup(id)
	if err != nil {
		return nil, err
	}
	return j.view(), nil
}

// Result returns the job snapshot; the transport decides how to render
// non-completed states.
func (o *Orchestrator) Result(id string) (*JobView, error) {
	return o.Status(id)
}

// Cancel stops a job. Terminal jobs cannot be cancelled. Cached reports
// produced before the cancel stay valid.
func (o *Orchestrator) Cancel(id string) (*JobView, error) {
	j, err := o.lookup(id)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	if j.status.Terminal() {
		status := j.status
		j.mu.Unlock()
		return nil, &errs.AppError{
			Kind:    errs.Conflict,
			Message: fmt.Sprintf("job is already %s", status),
		}
	}
	j.status = StatusCancelled
	j.currentStep = ""
	j.finishedAt = o.now()
	cancel := j.cancel
	normalized := j.normalized
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	o.mu.Lock()
	if o.inflight[normalized] == id {
		delete(o.inflight, normalized)
	}
	o.mu.Unlock()

	o.logger.Info("job cancelled", "job_id", id)
	return j.view(), nil
}

// ByURL serves a cached completed report without a job id.
func (o *Orchestrator) ByURL(raw string) (*model.Report, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &errs.AppError{Kind: errs.InvalidInput, Message: "url query parameter is required"}
	}

	report, ok := o.reports.Get(urlnorm.Normalize(raw))
	if !ok {
		return nil, &errs.AppError{Kind: errs.NotFound, Message: "no cached report for this URL"}
	}
	return report, nil
}

// Close cancels every non-terminal job.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	jobs := make([]*job, 0, len(o.jobs))
	for _, j := range o.jobs {
		jobs = append(jobs, j)
	}
	o.mu.Unlock()

	for _, j := range jobs {
		j.mu.Lock()
		terminal := j.status.Terminal()
		cancel := j.cancel
		j.mu.Unlock()
		if !terminal && cancel != nil {
			cancel()
		}
	}
}

// releaseSlot returns the job's admission slot and clears its inflight entry.
func (o *Orchestrator) releaseSlot(j *job) {
	o.sem.Release(1)
	o.mu.Lock()
	if o.inflight[j.normalized] == j.id {
		delete(o.inflight, j.normalized)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) lookup(id string) (*job, error) {
	o.pruneExpired()
	o.mu.Lock()
	j, ok := o.jobs[id]
	o.mu.Unlock()
	if !ok {
		return nil, &errs.AppError{Kind: errs.NotFound, Message: "unknown job id"}
	}
	return j, nil
}

// pruneExpired drops terminal job records older than JobTTL. Non-terminal
// jobs are never pruned.
func (o *Orchestrator) pruneExpired() {
	cutoff := o.now().Add(-o.cfg.JobTTL)

	o.mu.Lock()
	defer o.mu.Unlock()
	for id, j := range o.jobs {
		j.mu.Lock()
		expired := j.status.Terminal() && !j.finishedAt.IsZero() && j.finishedAt.Before(cutoff)
		j.mu.Unlock()
		if expired {
			delete(o.jobs, id)
		}
	}
}

func (o *Orchestrator) synthesizeCached(target, normalized string, report *model.Report) *job {
	j := newJob(uuid.NewString(), target, normalized)
	j.status = StatusCompleted
	j.finishedAt = o.now()
	j.cached = true
	for _, def := range workflowSteps {
		j.steps[def.name] = StepDone
		j.completedSteps = append(j.completedSteps, def.name)
	}
	j.result = &Result{
		Report:  report,
		Signals: summarizeSignals(report),
		Cached:  true,
	}

	o.mu.Lock()
	o.jobs[j.id] = j
	o.mu.Unlock()

	o.logger.Info("cache hit", "target", normalized, "job_id", j.id)
	return j
}

// run executes the whole workflow for one job: overview first, then the
// dependent steps in parallel.
func (o *Orchestrator) run(ctx context.Context, j *job) {
	j.mu.Lock()
	if j.status != StatusPending {
		// Cancelled before this goroutine was scheduled; the terminal
		// state must not be overwritten.
		j.mu.Unlock()
		o.releaseSlot(j)
		return
	}
	j.status = StatusRunning
	j.mu.Unlock()

	o.startStep(j, StepOverview)
	report, err := o.overview(ctx, j.normalized)

	// The admission slot only covers the fetch+analyze pipeline; insight
	// generation is bounded by its own timeout.
	o.releaseSlot(j)

	if err != nil {
		o.failJob(j, StepOverview, err)
		return
	}
	o.finishStep(j, StepOverview)

	insights := make(map[string]insight.Result, 3)
	var insightsMu sync.Mutex
	var summary *SignalsSummary

	var g sync.WaitGroup
	runStep := func(name string, fn func(context.Context) error) {
		g.Add(1)
		go func() {
			defer g.Done()
			o.startStep(j, name)
			if err := fn(ctx); err != nil {
				o.logger.Warn("step failed", "job_id", j.id, "step", name, "error", err)
				o.failStep(j, name)
				return
			}
			o.finishStep(j, name)
		}()
	}

	runStep(StepSignals, func(context.Context) error {
		summary = summarizeSignals(report)
		return nil
	})
	for stepName, kind := range map[string]insight.Kind{
		StepInsights:  insight.KindInsights,
		StepKeywords:  insight.KindKeywords,
		StepMarketing: insight.KindMarketing,
	} {
		runStep(stepName, func(ctx context.Context) error {
			genCtx, cancel := context.WithTimeout(ctx, o.cfg.InsightTimeout)
			defer cancel()

			res, err := o.generator.Generate(genCtx, kind, report)
			if err != nil {
				return err
			}
			insightsMu.Lock()
			insights[stepName] = res
			insightsMu.Unlock()
			return nil
		})
	}
	g.Wait()

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		// Cancelled while steps were in flight; never flip to completed.
		return
	}
	j.status = StatusCompleted
	j.currentStep = ""
	j.finishedAt = o.now()
	j.result = &Result{Report: report, Signals: summary, Insights: insights}
	o.logger.Info("job completed", "job_id", j.id, "target", j.normalized, "overall_score", report.Scores.Overall)
}

// overview runs the fetch+analyze+score pipeline. Concurrent computations
// for the same normalized URL collapse to one flight; followers share the
// leader's report. A follower whose leader was cancelled mid-flight retries
// with its own context instead of inheriting the leader's cancellation.
func (o *Orchestrator) overview(ctx context.Context, normalized string) (*model.Report, error) {
	for {
		v, err, _ := o.flight.Do(normalized, func() (any, error) {
			report, err := o.buildReport(ctx, normalized)
			if err != nil {
				return nil, err
			}
			o.reports.Set(normalized, report, o.cfg.CacheTTL)
			return report, nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() == nil {
				o.flight.Forget(normalized)
				continue
			}
			return nil, err
		}
		return v.(*model.Report), nil
	}
}

func (o *Orchestrator) buildReport(ctx context.Context, target string) (*model.Report, error) {
	results, err := o.fetcher.FetchAll(ctx, target)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.InvalidInput, Message: "target is not a fetchable URL", Cause: err}
	}

	page := results[fetch.ResourcePage]
	if pageErr := classifyPageFailure(page); pageErr != nil {
		return nil, pageErr
	}

	analyzer, err := analyze.New(page.Body, target)
	if err != nil {
		return nil, &errs.AppError{Kind: errs.ParsingFailed, Message: "could not parse page HTML", Cause: err}
	}

	metadata := analyzer.Metadata()
	headings := analyzer.Headings()
	images := analyzer.Images()
	links := analyzer.Links()
	structured := analyzer.StructuredData()
	content := analyze.Content(analyzer.Text())

	ai := signals.EvaluateAIIndexing(
		bodyIfOK(results[fetch.ResourceRobots]),
		bodyIfOK(results[fetch.ResourceLLMS]),
		results[fetch.ResourceSitemap].OK(),
	)

	issues := analyzer.Issues()
	recommendations := analyzer.Recommendations()
	scores, signalIssues, signalRecs := o.scorer.Compute(issues, content, ai)
	issues = append(issues, signalIssues...)
	recommendations = append(recommendations, signalRecs...)
	score.SortRecommendations(recommendations)

	return &model.Report{
		URL:             target,
		Timestamp:       time.Now().UTC(),
		CrawlTimeMs:     page.ElapsedMs,
		Scores:          scores,
		Metadata:        metadata,
		Headings:        headings,
		Images:          images,
		Links:           links,
		Content:         content,
		StructuredData:  structured,
		Technical:       technicalFindings(page),
		AIIndexing:      ai,
		Issues:          issues,
		Recommendations: recommendations,
	}, nil
}

func classifyPageFailure(page fetch.Result) error {
	if page.Err != nil {
		kind := errs.Unreachable
		if errors.Is(page.Err, context.DeadlineExceeded) {
			kind = errs.Timeout
		}
		return &errs.AppError{Kind: kind, Message: "could not fetch target page", Cause: page.Err}
	}
	if page.StatusCode != http.StatusOK {
		return &errs.AppError{
			Kind:           errs.Unreachable,
			UpstreamStatus: page.StatusCode,
			Message:        fmt.Sprintf("target page returned status %d", page.StatusCode),
		}
	}
	return nil
}

// technicalFindings derives the technical section from the fetched page.
// HTTPS reflects the URL the fetch ended on, after redirects: a request sent
// to https may still land on http and must report that.
func technicalFindings(page fetch.Result) model.Technical {
	servedURL := page.FinalURL
	if servedURL == "" {
		servedURL = page.URL
	}
	t := model.Technical{
		HTTPS:          strings.HasPrefix(servedURL, "https://"),
		ResponseTimeMs: page.ElapsedMs,
	}
	if page.Header != nil {
		t.ContentType = page.Header.Get("Content-Type")
		t.Server = page.Header.Get("Server")
		t.XFrameOptions = page.Header.Get("X-Frame-Options")
		t.ContentSecurityPolicy = page.Header.Get("Content-Security-Policy") != ""
	}
	return t
}

func summarizeSignals(report *model.Report) *SignalsSummary {
	robots := report.AIIndexing.RobotsTxt

	var partial []string
	for bot, status := range robots.AIBotsStatus {
		if status == signals.StatusPartiallyBlocked {
			partial = append(partial, bot)
		}
	}
	sort.Strings(partial)

	return &SignalsSummary{
		BlockedBots:          score.BlockedBots(robots),
		PartiallyBlockedBots: partial,
		LLMSTxtPresent:       report.AIIndexing.LLMSTxt.Present,
		SitemapPresent:       report.AIIndexing.SitemapXML.Present,
		SitemapsDeclared:     robots.SitemapsDeclared,
	}
}

func bodyIfOK(r fetch.Result) []byte {
	if !r.OK() {
		return nil
	}
	return []byte(r.Body)
}

func (o *Orchestrator) startStep(j *job, name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		return
	}
	j.steps[name] = StepRunning
	j.currentStep = name
}

func (o *Orchestrator) finishStep(j *job, name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		return
	}
	j.steps[name] = StepDone
	j.completedSteps = append(j.completedSteps, name)
	if j.currentStep == name {
		j.currentStep = ""
	}
}

func (o *Orchestrator) failStep(j *job, name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		return
	}
	j.steps[name] = StepFailed
	if j.currentStep == name {
		j.currentStep = ""
	}
}

func (o *Orchestrator) failJob(j *job, step string, err error) {
	var appErr *errs.AppError
	if !errors.As(err, &appErr) {
		appErr = &errs.AppError{Kind: errs.Unknown, Message: "analysis failed", Cause: err}
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusRunning {
		return
	}
	j.steps[step] = StepFailed
	j.currentStep = ""
	j.status = StatusFailed
	j.finishedAt = o.now()
	j.err = appErr
	o.logger.Error("job failed", "job_id", j.id, "target", j.normalized, "step", step, "error", appErr)
}
