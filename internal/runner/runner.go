package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/PadmDeveloper/RedmineBrowser/internal/automation"
	"github.com/PadmDeveloper/RedmineBrowser/internal/browser"
	"github.com/PadmDeveloper/RedmineBrowser/internal/notes"
	"github.com/PadmDeveloper/RedmineBrowser/internal/runstore"
)

// NoteSubmitter runs one browser submission end to end.
type NoteSubmitter interface {
	SubmitNotes(ctx context.Context, issueID string, notes []string) (*automation.Result, error)
}

// Config controls runner admission behaviour.
type Config struct {
	Workers   int
	QueueSize int
}

// Runner is the admission gate in front of the browser driver. Runs are
// served by a bounded worker pool (one worker by default, so one browser
// session at a time) and serialized per issue id with a keyed mutex, so
// interleaved edits can never corrupt the same issue's edit/submit/reload
// sequence even with more workers.
type Runner struct {
	driver NoteSubmitter
	cfg    Config
	store  *runstore.Store

	queue chan *job

	keyedLocks *keyedMutex

	stopCh chan struct{}
	wg     sync.WaitGroup

	once sync.Once
}

type job struct {
	req      *automation.Request
	runID    string
	resultCh chan jobResult
}

type jobResult struct {
	result *automation.Result
	err    error
}

// New creates a runner with the provided configuration. The store may be nil
// when run history is not wanted.
func New(driver NoteSubmitter, store *runstore.Store, cfg Config) *Runner {
	normalized := normalizeConfig(cfg)
	r := &Runner{
		driver:     driver,
		cfg:        normalized,
		store:      store,
		queue:      make(chan *job, normalized.QueueSize),
		keyedLocks: newKeyedMutex(),
		stopCh:     make(chan struct{}),
	}
	r.startWorkers()
	return r
}

func normalizeConfig(cfg Config) Config {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return cfg
}

func (r *Runner) startWorkers() {
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
}

// Submit admits one automation request and waits for its result. Returns
// ErrQueueFull when the admission queue is at capacity and ErrQueueClosed
// after shutdown. A caller abandoning the wait (context cancellation) does
// not stop the run already in flight; it completes or fails on its own.
func (r *Runner) Submit(ctx context.Context, req *automation.Request) (*automation.Result, error) {
	select {
	case <-r.stopCh:
		return nil, ErrQueueClosed
	default:
	}

	j := &job{
		req:      req,
		runID:    generateRunID(req.IssueID),
		resultCh: make(chan jobResult, 1),
	}

	r.createRun(j)

	select {
	case r.queue <- j:
	default:
		r.recordOutcome(j.runID, runstore.StatusFailed, "rejected: queue full", 0)
		return nil, ErrQueueFull
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-j.resultCh:
		return res.result, res.err
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopCh:
			return
		case j, ok := <-r.queue:
			if !ok {
				return
			}
			r.process(j)
		}
	}
}

func (r *Runner) process(j *job) {
	req := j.req

	r.keyedLocks.Lock(req.IssueID)
	defer r.keyedLocks.Unlock(req.IssueID)

	if r.store != nil {
		r.store.UpdateStatus(j.runID, runstore.StatusRunning)
		r.store.AddLog(j.runID, "info", "Browser session starting")
	}

	parsed := notes.Limit(notes.Split(req.NoteText), req.NotesCount)

	ctx := context.Background()
	result, err := r.driver.SubmitNotes(ctx, req.IssueID, parsed)

	if err != nil {
		submitted := browser.SubmittedCount(err)
		log.Printf("Run %s failed after %d note(s): %v", j.runID, submitted, err)
		r.recordOutcome(j.runID, runstore.StatusFailed, err.Error(), submitted)

		// Driver failures surface as a semantic failure result; the error
		// return is reserved for admission problems.
		j.resultCh <- jobResult{result: &automation.Result{
			Success:        false,
			Message:        fmt.Sprintf("Error: %v", err),
			ProcessedCount: submitted,
		}}
		return
	}

	log.Printf("Run %s succeeded: %s", j.runID, result.Message)
	r.recordOutcome(j.runID, runstore.StatusCompleted, result.Message, result.ProcessedCount)
	j.resultCh <- jobResult{result: result}
}

func (r *Runner) createRun(j *job) {
	if r.store == nil {
		return
	}
	r.store.Create(&runstore.Run{
		ID:             j.runID,
		IssueID:        j.req.IssueID,
		NotesRequested: j.req.NotesCount,
		Status:         runstore.StatusPending,
	})
	r.store.AddLog(j.runID, "info", "Run queued")
}

func (r *Runner) recordOutcome(runID string, status runstore.RunStatus, message string, processed int) {
	if r.store == nil {
		return
	}
	level := "success"
	if status == runstore.StatusFailed {
		level = "error"
	}
	r.store.SetOutcome(runID, status, message, processed)
	r.store.AddLog(runID, level, message)
}

// Shutdown gracefully stops the runner
func (r *Runner) Shutdown(ctx context.Context) {
	r.once.Do(func() {
		close(r.stopCh)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return
	case <-done:
		return
	}
}

func generateRunID(issueID string) string {
	return fmt.Sprintf("issue-%s-%d", issueID, time.Now().UnixNano())
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	k.mu.Unlock()

	if !ok {
		return
	}

	m.Unlock()
}
