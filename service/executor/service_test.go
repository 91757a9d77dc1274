package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/telkar/subshell/model/pipeline"
	"github.com/telkar/subshell/runtime/job"
	"github.com/telkar/subshell/service/registry"
	"github.com/telkar/subshell/service/workdir"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newTestService(t *testing.T, options ...Option) *Service {
	options = append([]Option{WithStderr(io.Discard)}, options...)
	return New(registry.New(), nil, job.NewTable(), options...)
}

func TestExecuteSingleStage(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)

	var out bytes.Buffer
	chain, err := pipeline.New("sh", "-c", "printf hello").OutputBuffer(&out)
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	statuses, err := job.WaitAll(ctx, jobs)
	require.NoError(t, err)
	assert.True(t, statuses[0].Success())
	assert.Equal(t, "hello", out.String())
	assert.Equal(t, 1, svc.Table().Len())
}

func TestExecutePipelineOrder(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)

	var out bytes.Buffer
	chain, err := pipeline.New("sh", "-c", "printf 'a b c\\n'").Pipe(pipeline.New("tr", " ", "\n"))
	require.NoError(t, err)
	chain, err = chain.Pipe(pipeline.New("wc", "-l"))
	require.NoError(t, err)
	chain, err = chain.OutputBuffer(&out)
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	// Jobs come back in pipeline order, head first
	assert.Equal(t, "sh", jobs[0].Filter().Command())
	assert.Equal(t, "tr", jobs[1].Filter().Command())
	assert.Equal(t, "wc", jobs[2].Filter().Command())

	// The table enumerates them in the same order
	tableJobs := svc.Table().Jobs()
	require.Len(t, tableJobs, 3)
	for i := range jobs {
		assert.Same(t, jobs[i], tableJobs[i])
	}

	statuses, err := job.WaitAll(ctx, jobs)
	require.NoError(t, err)
	for _, status := range statuses {
		assert.True(t, status.Success())
	}
	assert.Equal(t, "3", strings.TrimSpace(out.String()))
}

func TestLargePayloadDoesNotDeadlock(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)

	// Well beyond the kernel pipe buffer
	payload := strings.Repeat("x", 1<<20)
	var out bytes.Buffer
	chain, err := pipeline.New("cat").Pipe(pipeline.New("cat"))
	require.NoError(t, err)
	chain, err = chain.InputString(payload)
	require.NoError(t, err)
	chain, err = chain.OutputBuffer(&out)
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	statuses, err := job.WaitAll(ctx, jobs)
	require.NoError(t, err)
	for _, status := range statuses {
		assert.True(t, status.Success())
	}
	assert.Equal(t, len(payload), out.Len())
	assert.Equal(t, payload, out.String())
}

func TestConcurrentPipelinesShareTable(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)

	const pipelines = 8
	var wg sync.WaitGroup
	for i := 0; i < pipelines; i++ {
		payload := strings.Repeat("p", 1024*(i+1))
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out bytes.Buffer
			chain, err := pipeline.New("cat").Pipe(pipeline.New("cat"))
			if !assert.NoError(t, err) {
				return
			}
			chain, err = chain.InputString(payload)
			if !assert.NoError(t, err) {
				return
			}
			chain, err = chain.OutputBuffer(&out)
			if !assert.NoError(t, err) {
				return
			}

			jobs, err := svc.Execute(ctx, chain)
			if !assert.NoError(t, err) {
				return
			}
			// Enumerations interleave with registrations from the
			// other pipelines
			svc.Table().Jobs()
			_ = svc.Table().Signal("no-such-job", "TERM")

			statuses, err := job.WaitAll(ctx, jobs)
			if !assert.NoError(t, err) {
				return
			}
			for _, status := range statuses {
				assert.True(t, status.Success())
			}
			assert.Equal(t, payload, out.String())
		}()
	}
	wg.Wait()
	assert.Equal(t, 2*pipelines, svc.Table().Len())
}

func TestAppendAndTruncateModes(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)
	out := filepath.Join(t.TempDir(), "out.txt")

	base := pipeline.New("sh", "-c", "printf run")
	appendChain, err := base.RedirectAppend(out)
	require.NoError(t, err)

	// The chain is immutable, so the same value can run twice
	for i := 0; i < 2; i++ {
		jobs, err := svc.Execute(ctx, appendChain)
		require.NoError(t, err)
		_, err = job.WaitAll(ctx, jobs)
		require.NoError(t, err)
	}
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "runrun", string(data))

	truncateChain, err := base.RedirectOutput(out)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		jobs, err := svc.Execute(ctx, truncateChain)
		require.NoError(t, err)
		_, err = job.WaitAll(ctx, jobs)
		require.NoError(t, err)
	}
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "run", string(data))
}

func TestMissingInputFile(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)

	chain, err := pipeline.New("cat").RedirectInput(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	assert.Empty(t, jobs)
	require.Error(t, err)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, 0, spawnErr.Stage)
	assert.Equal(t, "cat", spawnErr.Command)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Zero(t, svc.Table().Len())
}

func TestUnknownCommandLeavesEarlierStagesRunning(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)

	chain, err := pipeline.New("sleep", "30").Pipe(pipeline.New("no-such-command-xyz"))
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.Error(t, err)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.Equal(t, 1, spawnErr.Stage)
	assert.True(t, errors.Is(err, registry.ErrNotFound))

	// The first stage was spawned, is registered and keeps running
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].Running())
	assert.Equal(t, 1, svc.Table().Len())

	require.NoError(t, jobs[0].Signal(syscall.SIGKILL))
	status, err := jobs[0].Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.StateSignaled, status.State)
}

func TestCatTeeScenario(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "hosts")
	content := "127.0.0.1 localhost\n::1 localhost\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))
	out1 := filepath.Join(dir, "out1")
	out2 := filepath.Join(dir, "out2")

	chain, err := pipeline.New("cat", src).Pipe(pipeline.New("tee", out1))
	require.NoError(t, err)
	chain, err = chain.RedirectAppend(out2)
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	statuses, err := job.WaitAll(ctx, jobs)
	require.NoError(t, err)
	for _, status := range statuses {
		assert.Equal(t, "exited(0)", status.String())
	}

	for _, path := range []string{out1, out2} {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	}
}

func TestHandlerStageFeedsProcessStage(t *testing.T) {
	ctx := testContext(t)
	svc := New(registry.New(registry.WithBuiltins()), nil, job.NewTable(), WithStderr(io.Discard))

	var out bytes.Buffer
	chain, err := pipeline.New("echo", "hello", "world").Pipe(pipeline.New("tr", "a-z", "A-Z"))
	require.NoError(t, err)
	chain, err = chain.OutputBuffer(&out)
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Zero(t, jobs[0].PID())
	assert.NotZero(t, jobs[1].PID())

	statuses, err := job.WaitAll(ctx, jobs)
	require.NoError(t, err)
	for _, status := range statuses {
		assert.True(t, status.Success())
	}
	assert.Equal(t, "HELLO WORLD\n", out.String())
}

func TestProcessStageFeedsHandlerStage(t *testing.T) {
	ctx := testContext(t)
	reg := registry.New(registry.WithBuiltins())
	stack, err := workdir.New(t.TempDir())
	require.NoError(t, err)
	svc := New(reg, stack, job.NewTable(), WithStderr(io.Discard))

	var out bytes.Buffer
	chain, err := pipeline.New("sh", "-c", "printf payload").Pipe(pipeline.New("tee", "copy.txt"))
	require.NoError(t, err)
	chain, err = chain.OutputBuffer(&out)
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	statuses, err := job.WaitAll(ctx, jobs)
	require.NoError(t, err)
	for _, status := range statuses {
		assert.True(t, status.Success())
	}
	assert.Equal(t, "payload", out.String())

	// The handler resolved its relative path against the context workdir
	data, err := os.ReadFile(filepath.Join(stack.Current(), "copy.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestURLEndpoints(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t)

	storage := afs.New()
	srcURL := "mem://localhost/executor/src.txt"
	dstURL := "mem://localhost/executor/dst.txt"
	content := "line one\nline two\n"
	require.NoError(t, storage.Upload(ctx, srcURL, file.DefaultFileOsMode, strings.NewReader(content)))
	defer func() {
		_ = storage.Delete(ctx, srcURL)
		_ = storage.Delete(ctx, dstURL)
	}()

	chain, err := pipeline.New("cat").InputURL(srcURL)
	require.NoError(t, err)
	chain, err = chain.OutputURL(dstURL)
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	statuses, err := job.WaitAll(ctx, jobs)
	require.NoError(t, err)
	assert.True(t, statuses[0].Success())

	// WaitAll returning implies the sink was uploaded
	data, err := storage.DownloadWithURL(ctx, dstURL)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestWorkdirReadAtSpawnTime(t *testing.T) {
	ctx := testContext(t)
	base := t.TempDir()
	dirA := filepath.Join(base, "a")
	dirB := filepath.Join(base, "b")
	require.NoError(t, os.Mkdir(dirA, 0o755))
	require.NoError(t, os.Mkdir(dirB, 0o755))

	stack, err := workdir.New(dirA)
	require.NoError(t, err)
	svc := New(registry.New(), stack, job.NewTable(), WithStderr(io.Discard))

	// Composed once, executed under two different directories
	chain, err := pipeline.New("sh", "-c", "pwd > where.txt").DiscardOutput()
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	_, err = job.WaitAll(ctx, jobs)
	require.NoError(t, err)

	require.NoError(t, stack.Change(dirB))
	jobs, err = svc.Execute(ctx, chain)
	require.NoError(t, err)
	_, err = job.WaitAll(ctx, jobs)
	require.NoError(t, err)

	dataA, err := os.ReadFile(filepath.Join(dirA, "where.txt"))
	require.NoError(t, err)
	assert.Equal(t, dirA, strings.TrimSpace(string(dataA)))

	dataB, err := os.ReadFile(filepath.Join(dirB, "where.txt"))
	require.NoError(t, err)
	assert.Equal(t, dirB, strings.TrimSpace(string(dataB)))
}

func TestEnvReachesStages(t *testing.T) {
	ctx := testContext(t)
	svc := newTestService(t, WithEnv(map[string]string{"SUBSHELL_TEST_ENV": "42"}))

	var out bytes.Buffer
	chain, err := pipeline.New("sh", "-c", `printf "$SUBSHELL_TEST_ENV"`).OutputBuffer(&out)
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	_, err = job.WaitAll(ctx, jobs)
	require.NoError(t, err)
	assert.Equal(t, "42", out.String())
}

func TestExecuteNilChain(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Execute(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrEmptyPipeline))
}

func TestHandlerFailureMapsToExitOne(t *testing.T) {
	ctx := testContext(t)
	reg := registry.New(registry.WithBuiltins())
	svc := New(reg, nil, job.NewTable(), WithStderr(io.Discard))

	// cat with a missing file argument fails inside the handler
	chain, err := pipeline.New("cat", filepath.Join(t.TempDir(), "absent.txt")).DiscardOutput()
	require.NoError(t, err)

	jobs, err := svc.Execute(ctx, chain)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	status, err := jobs[0].Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "exited(1)", status.String())
	assert.True(t, errors.Is(status.Err, fs.ErrNotExist))
}
