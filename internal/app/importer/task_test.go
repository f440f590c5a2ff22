package importer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/focusbox/internal/infra/config"
	"github.com/osa030/focusbox/internal/infra/converter"
)

// blockingConverter holds every conversion until release is closed.
type blockingConverter struct {
	release chan struct{}
	result  converter.Result
	err     error

	mu    sync.Mutex
	calls []string
}

func newBlockingConverter() *blockingConverter {
	return &blockingConverter{release: make(chan struct{})}
}

func (c *blockingConverter) Convert(_ context.Context, url, _ string) (converter.Result, error) {
	c.mu.Lock()
	c.calls = append(c.calls, url)
	c.mu.Unlock()
	<-c.release
	return c.result, c.err
}

func (c *blockingConverter) Name() string { return "blocking" }

func (c *blockingConverter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func waitDone(t *testing.T, task *Task) Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := task.Wait(ctx)
	require.NoError(t, err)
	return job
}

func TestTask_SubmitDone(t *testing.T) {
	conv := newBlockingConverter()
	conv.result = converter.Result{Path: filepath.Join("/lib", "Lofi Beats.mp3")}
	fc := clockwork.NewFakeClock()
	task := NewTask(conv, "/lib", fc)

	id, err := task.Submit("  https://example.com/v  ")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	job := task.Poll()
	assert.Equal(t, StatusRunning, job.Status)
	assert.Equal(t, "https://example.com/v", job.SourceURL)
	assert.Equal(t, id, job.ID)

	close(conv.release)
	job = waitDone(t, task)
	assert.Equal(t, StatusDone, job.Status)
	assert.Equal(t, "Imported Lofi Beats", job.Message)
	assert.Equal(t, "/lib/Lofi Beats.mp3", job.OutputPath)
	assert.Equal(t, fc.Now(), job.FinishedAt)
}

func TestTask_SubmitWhileRunningIsBusy(t *testing.T) {
	conv := newBlockingConverter()
	task := NewTask(conv, "/lib", clockwork.NewFakeClock())

	id, err := task.Submit("https://example.com/first")
	require.NoError(t, err)
	before := task.Poll()

	_, err = task.Submit("https://example.com/second")
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Equal(t, before, task.Poll(), "in-flight job is untouched")

	close(conv.release)
	job := waitDone(t, task)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, []string{"https://example.com/first"}, conv.calls)
}

func TestTask_ConcurrentSubmitsSingleFlight(t *testing.T) {
	conv := newBlockingConverter()
	task := NewTask(conv, "/lib", clockwork.NewFakeClock())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := task.Submit("https://example.com/v"); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
			_ = task.Poll()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	close(conv.release)
	waitDone(t, task)
	assert.Equal(t, 1, conv.callCount())
}

func TestTask_Failed(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "converter missing",
			err:     errors.Mark(errors.New("converter missing: yt-dlp not found"), converter.ErrConverterMissing),
			wantMsg: "converter missing: yt-dlp not found",
		},
		{
			name:    "conversion failed",
			err:     errors.Mark(errors.New("conversion failed: HTTP Error 404"), converter.ErrConversionFailed),
			wantMsg: "conversion failed: HTTP Error 404",
		},
		{
			name:    "other error",
			err:     errors.New("disk full"),
			wantMsg: "conversion failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := newBlockingConverter()
			conv.err = tt.err
			close(conv.release)
			task := NewTask(conv, "/lib", clockwork.NewFakeClock())

			_, err := task.Submit("https://example.com/v")
			require.NoError(t, err)

			job := waitDone(t, task)
			assert.Equal(t, StatusFailed, job.Status)
			assert.Equal(t, tt.wantMsg, job.Message)
		})
	}
}

func TestTask_NilConverter(t *testing.T) {
	task := NewTask(nil, "/lib", clockwork.NewFakeClock())
	_, err := task.Submit("https://example.com/v")
	require.NoError(t, err)

	job := waitDone(t, task)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Contains(t, job.Message, "converter missing")
}

func TestTask_EmptyURL(t *testing.T) {
	task := NewTask(newBlockingConverter(), "/lib", nil)
	_, err := task.Submit("   ")
	assert.True(t, errors.Is(err, ErrEmptyURL))
	assert.Equal(t, StatusIdle, task.Poll().Status)
}

func TestTask_Acknowledge(t *testing.T) {
	conv := newBlockingConverter()
	task := NewTask(conv, "/lib", clockwork.NewFakeClock())

	_, ok := task.Acknowledge()
	assert.False(t, ok, "nothing to acknowledge while idle")

	_, err := task.Submit("https://example.com/v")
	require.NoError(t, err)
	_, ok = task.Acknowledge()
	assert.False(t, ok, "running jobs cannot be acknowledged")

	close(conv.release)
	waitDone(t, task)

	job, ok := task.Acknowledge()
	require.True(t, ok)
	assert.Equal(t, StatusDone, job.Status)
	assert.Equal(t, StatusIdle, task.Poll().Status)
	assert.Empty(t, task.Poll().ID)
}

func TestTask_ResubmitAfterFinish(t *testing.T) {
	conv := newBlockingConverter()
	close(conv.release)
	task := NewTask(conv, "/lib", clockwork.NewFakeClock())

	first, err := task.Submit("https://example.com/a")
	require.NoError(t, err)
	waitDone(t, task)

	second, err := task.Submit("https://example.com/b")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	job := waitDone(t, task)
	assert.Equal(t, "https://example.com/b", job.SourceURL)
}

func TestTask_WaitHonoursContext(t *testing.T) {
	conv := newBlockingConverter()
	defer close(conv.release)
	task := NewTask(conv, "/lib", clockwork.NewFakeClock())
	_, err := task.Submit("https://example.com/v")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job, err := task.Wait(ctx)
	assert.Error(t, err)
	assert.Equal(t, StatusRunning, job.Status)
}

func TestJob_Elapsed(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	j := Job{StartedAt: start}
	assert.Equal(t, 3*time.Second, j.Elapsed(start.Add(3*time.Second)))
	j.FinishedAt = start.Add(time.Second)
	assert.Equal(t, time.Second, j.Elapsed(start.Add(time.Hour)))
	assert.Zero(t, Job{}.Elapsed(start))
}

func TestNewConverterFromConfig(t *testing.T) {
	cfg := &config.Config{Import: config.ImportConfig{Converter: config.PluginConfig{Type: "ytdlp"}}}
	conv, err := NewConverterFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "ytdlp", conv.Name())

	cfg.Import.Converter = config.PluginConfig{Type: "command", Settings: map[string]any{"command": []any{"fetch", "{url}"}}}
	conv, err = NewConverterFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "command", conv.Name())

	cfg.Import.Converter = config.PluginConfig{Type: "command"}
	_, err = NewConverterFromConfig(cfg)
	assert.Error(t, err)

	cfg.Import.Converter = config.PluginConfig{Type: "ftp"}
	_, err = NewConverterFromConfig(cfg)
	assert.Error(t, err)
}
