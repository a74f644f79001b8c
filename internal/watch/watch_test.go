package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) add(level, f string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+" "+fmt.Sprintf(f, a...))
}
func (r *recordingLogger) Info(f string, a ...interface{})  { r.add("INFO", f, a...) }
func (r *recordingLogger) Warn(f string, a ...interface{})  { r.add("WARN", f, a...) }
func (r *recordingLogger) Error(f string, a ...interface{}) { r.add("ERROR", f, a...) }
func (r *recordingLogger) Debug(f string, a ...interface{}) { r.add("DEBUG", f, a...) }

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()
	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestSerial_FoldsOverlappingCalls(t *testing.T) {
	var s serial
	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})

	go s.do(func() {
		if runs.Add(1) == 1 {
			close(started)
			<-release
		}
	})
	<-started
	s.do(func() { t.Error("overlapping call must not run directly") })
	s.do(func() { t.Error("overlapping call must not run directly") })
	close(release)

	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRelevant(t *testing.T) {
	w := &Watcher{}
	assert.True(t, w.relevant(fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Create}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Write | fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/in/a.pdf", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/in/.a.pdf.123.tmp", Op: fsnotify.Create}))
}

func TestWatcher_RunsAfterNewFile(t *testing.T) {
	dir := t.TempDir()
	log := &recordingLogger{}
	w, err := New([]string{dir, filepath.Join(dir, "missing")}, 20*time.Millisecond, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var runs atomic.Int32
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(context.Context) { runs.Add(1) }) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_WaitsForRunningPassOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, 10*time.Millisecond, &recordingLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{})
	var finished atomic.Bool
	var once sync.Once
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) {
			once.Do(func() { close(started) })
			time.Sleep(300 * time.Millisecond)
			finished.Store(true)
		})
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("pass never started")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.True(t, finished.Load(), "Run returned before the pass finished")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDebouncer_WaitAfterStop(t *testing.T) {
	d := NewDebouncer(time.Millisecond)
	release := make(chan struct{})
	started := make(chan struct{})
	d.Trigger(func() {
		close(started)
		<-release
	})
	<-started
	d.Stop()

	waited := make(chan struct{})
	go func() {
		d.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		t.Fatal("Wait returned while the callback was running")
	case <-time.After(30 * time.Millisecond):
	}
	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the callback")
	}
}

func TestWatcher_NothingToWatch(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing")}, time.Millisecond, &recordingLogger{})
	require.NoError(t, err)
	assert.Error(t, w.Run(context.Background(), func(context.Context) {}))
}

func TestWatcher_RunSpacing(t *testing.T) {
	w, err := New(nil, 40*time.Millisecond, &recordingLogger{})
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.Equal(t, rate.Every(40*time.Millisecond), w.limiter.Limit())
	assert.True(t, w.limiter.Allow(), "first run starts immediately")
	assert.False(t, w.limiter.Allow(), "second run waits for the interval")
}
