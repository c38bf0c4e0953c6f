package asynclazy_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	asynclazy "github.com/probablyarth/asynclazy-go"
)

// ---------------------------------------------------------------------------
// Queue mechanics.
// ---------------------------------------------------------------------------

func TestPumpDrainsEnqueuedWork(t *testing.T) {
	e := asynclazy.NewPumpExecutor()
	var ran atomic.Int32

	for i := 0; i < 5; i++ {
		e.Enqueue(func() { ran.Add(1) })
	}

	ctx, cancel := context.WithCancel(context.Background())
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		e.Pump(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for ran.Load() != 5 {
		select {
		case <-deadline:
			t.Fatalf("pump ran %d of 5 tasks", ran.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-pumpDone
}

func TestDoWaitsForExecution(t *testing.T) {
	e := asynclazy.NewPumpExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		e.Pump(ctx)
	}()

	var ran bool
	if err := e.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("Do returned before fn ran")
	}

	cancel()
	<-pumpDone
}

func TestRunSyncReturnsOpError(t *testing.T) {
	e := asynclazy.NewPumpExecutor()
	errOp := errors.New("op failed")

	err := e.RunSync(context.Background(), func(ctx context.Context) error {
		return errOp
	})
	if !errors.Is(err, errOp) {
		t.Fatalf("got %v, want %v", err, errOp)
	}
}

// ---------------------------------------------------------------------------
// Deadlock avoidance: a blocked designated goroutine keeps servicing work
// the factory depends on.
// ---------------------------------------------------------------------------

func TestGetBlockingPumpsFactoryWork(t *testing.T) {
	e := asynclazy.NewPumpExecutor()
	var privileged atomic.Bool

	cell := asynclazy.New(func(ctx context.Context) (string, error) {
		// The factory needs the designated goroutine mid-execution. With the
		// designated goroutine blocked in GetBlocking below, this only
		// completes because that goroutine pumps while it waits.
		if err := e.Do(ctx, func() { privileged.Store(true) }); err != nil {
			return "", err
		}
		return "pumped", nil
	}, asynclazy.WithExecutor(e))

	// This test goroutine is the designated one: nobody else pumps.
	v, err := cell.GetBlocking(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "pumped" {
		t.Fatalf("got %q, want %q", v, "pumped")
	}
	if !privileged.Load() {
		t.Fatal("privileged work never ran")
	}
}

func TestDisposeBlockingPumpsFactoryWork(t *testing.T) {
	e := asynclazy.NewPumpExecutor()
	res := &closableResource{}

	cell := asynclazy.New(func(ctx context.Context) (*closableResource, error) {
		if err := e.Do(ctx, func() {}); err != nil {
			return nil, err
		}
		return res, nil
	}, asynclazy.WithExecutor(e))

	fut := cell.GetAsync(context.Background())

	// Disposal must wait out the in-flight factory, whose progress depends
	// on this goroutine pumping.
	if err := cell.DisposeBlocking(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.closed.Load() {
		t.Fatal("value was not closed")
	}
	if v, err := fut.Wait(); err != nil || v != res {
		t.Fatalf("pre-disposal waiter got (%v, %v), want the value", v, err)
	}
}

// ---------------------------------------------------------------------------
// Hang diagnostics.
// ---------------------------------------------------------------------------

func TestHangWatchdogLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := asynclazy.NewPumpExecutor(
		asynclazy.ExecWithLogger(zap.New(core)),
		asynclazy.ExecWithHangThreshold(5*time.Millisecond),
	)

	release := make(chan struct{})
	workDone := make(chan struct{})
	e.Go(func() {
		defer close(workDone)
		<-release
	})

	deadline := time.After(2 * time.Second)
	for logs.FilterMessage("dispatched work still running past hang threshold").Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("hang warning never logged")
		case <-time.After(time.Millisecond):
		}
	}

	close(release)
	<-workDone
}

func TestNoHangWarningForFastWork(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := asynclazy.NewPumpExecutor(
		asynclazy.ExecWithLogger(zap.New(core)),
		asynclazy.ExecWithHangThreshold(time.Second),
	)

	workDone := make(chan struct{})
	e.Go(func() { close(workDone) })
	<-workDone

	time.Sleep(10 * time.Millisecond)
	if n := logs.Len(); n != 0 {
		t.Fatalf("got %d warnings for work that finished promptly", n)
	}
}
