package importer

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/infra/converter"
)

// Errors
var (
	ErrBusy     = errors.New("an import is already running")
	ErrEmptyURL = errors.New("import URL is empty")
)

// Task supervises at most one import at a time.
// The worker goroutine is the only writer of a running job; Poll,
// Acknowledge and Wait read it under the same mutex.
type Task struct {
	converter converter.Converter
	outputDir string
	clock     clockwork.Clock

	mu   sync.Mutex
	job  Job
	done chan struct{} // closed when the running job finishes
}

// NewTask creates an import task writing into outputDir.
func NewTask(conv converter.Converter, outputDir string, clock clockwork.Clock) *Task {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Task{
		converter: conv,
		outputDir: outputDir,
		clock:     clock,
	}
}

// Submit starts a new import of url and returns its job ID.
// A finished but unacknowledged job is replaced.
func (t *Task) Submit(url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", ErrEmptyURL
	}

	t.mu.Lock()
	if t.job.Status == StatusRunning {
		t.mu.Unlock()
		return "", ErrBusy
	}
	id := uuid.New().String()
	t.job = Job{
		ID:        id,
		SourceURL: url,
		Status:    StatusRunning,
		Message:   "Importing " + url,
		StartedAt: t.clock.Now(),
	}
	done := make(chan struct{})
	t.done = done
	t.mu.Unlock()

	zlog.Info().Msgf("import started: id=%s url=%s", id, url)
	go t.run(id, url, done)
	return id, nil
}

func (t *Task) run(id, url string, done chan struct{}) {
	defer close(done)

	var (
		res converter.Result
		err error
	)
	if t.converter == nil {
		err = errors.Mark(errors.New("converter missing: no converter configured"), converter.ErrConverterMissing)
	} else {
		res, err = t.converter.Convert(context.Background(), url, t.outputDir)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.job.ID != id {
		return
	}
	t.job.FinishedAt = t.clock.Now()
	if err != nil {
		t.job.Status = StatusFailed
		t.job.Message = failureMessage(err)
		zlog.Warn().Msgf("import failed: id=%s url=%s error=%v", id, url, err)
		return
	}

	name := res.Name()
	if name == "" {
		name = url
	}
	t.job.Status = StatusDone
	t.job.OutputPath = res.Path
	t.job.Message = "Imported " + name
	zlog.Info().Msgf("import done: id=%s path=%s", id, res.Path)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, converter.ErrConverterMissing), errors.Is(err, converter.ErrConversionFailed):
		return err.Error()
	default:
		return "conversion failed: " + err.Error()
	}
}

// Poll returns the current job without blocking on the worker.
func (t *Task) Poll() Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job
}

// Acknowledge resets a finished job to Idle and returns it.
// It is ignored unless the job is Done or Failed.
func (t *Task) Acknowledge() (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.job.Status.Finished() {
		return t.job, false
	}
	finished := t.job
	t.job = Job{}
	t.done = nil
	return finished, true
}

// Wait blocks until no job is running and returns the latest snapshot.
func (t *Task) Wait(ctx context.Context) (Job, error) {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return t.Poll(), errors.Wrap(ctx.Err(), "waiting for import")
		}
	}
	return t.Poll(), nil
}
