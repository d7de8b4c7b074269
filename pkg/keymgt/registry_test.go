package keymgt

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()

	dir := t.TempDir()
	writeConfigFile(t, dir, DefaultConfigFile, validConfigSource)

	return &Resolver{
		Getenv:  staticEnv(nil),
		WorkDir: dir,
	}
}

func TestRegistry_Idempotence(t *testing.T) {
	reg := NewRegistry(testResolver(t))

	first, err := reg.Instance()
	if err != nil {
		t.Fatalf("Instance() failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		next, err := reg.Instance()
		if err != nil {
			t.Fatalf("Instance() call %d failed: %v", i, err)
		}
		if next != first {
			t.Fatalf("Instance() call %d returned a different handle", i)
		}
	}
}

func TestRegistry_SingleConstructionUnderContention(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, DefaultConfigFile, validConfigSource)

	// Getenv is consulted exactly once per construction attempt, so it
	// doubles as a construction counter.
	var resolutions atomic.Int32
	reg := NewRegistry(&Resolver{
		Getenv: func(string) string {
			resolutions.Add(1)
			return ""
		},
		WorkDir: dir,
	})

	const goroutines = 32

	var (
		start   sync.WaitGroup
		done    sync.WaitGroup
		clients [goroutines]*Client
		errs    [goroutines]error
	)

	start.Add(1)
	done.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			clients[i], errs[i] = reg.Instance()
		}(i)
	}

	start.Done()
	done.Wait()

	for i := 0; i < goroutines; i++ {
		if errs[i] != nil {
			t.Fatalf("Goroutine %d failed: %v", i, errs[i])
		}
		if clients[i] != clients[0] {
			t.Fatalf("Goroutine %d received a different handle", i)
		}
	}

	if got := resolutions.Load(); got != 1 {
		t.Errorf("Expected exactly one construction, got %d", got)
	}
}

func TestRegistry_FailureNotCached(t *testing.T) {
	dir := t.TempDir()

	reg := NewRegistry(&Resolver{
		Getenv:  staticEnv(nil),
		WorkDir: dir,
	})

	if _, err := reg.Instance(); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Expected ErrConfigNotFound on first attempt, got %v", err)
	}

	// A source appearing later must allow a subsequent attempt to succeed.
	writeConfigFile(t, dir, DefaultConfigFile, validConfigSource)

	client, err := reg.Instance()
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}

	if client == nil {
		t.Fatal("Expected non-nil handle after retry")
	}
}

func TestRegistry_OptionsReachHandle(t *testing.T) {
	var recorded []string
	logger := loggerFunc(func(format string, args ...any) {
		recorded = append(recorded, format)
	})

	reg := NewRegistry(testResolver(t), WithLogger(logger))

	client, err := reg.Instance()
	if err != nil {
		t.Fatalf("Instance() failed: %v", err)
	}

	if client.logger == nil {
		t.Error("Expected logger option to be applied to the handle")
	}
}

type loggerFunc func(format string, args ...any)

func (f loggerFunc) Printf(format string, args ...any) { f(format, args...) }
