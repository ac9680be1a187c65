// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// countingService runs until canceled, or fails the first failures times.
type countingService struct {
	name     string
	failures int32
	starts   atomic.Int32
	stops    atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	defer s.stops.Add(1)
	if n <= s.failures {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree failed: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("Expected root supervisor")
	}

	want := DefaultTreeConfig()
	if tree.config != want {
		t.Errorf("Expected defaults %+v, got %+v", want, tree.config)
	}

	custom, _ := NewSupervisorTree(quietLogger(), TreeConfig{FailureThreshold: 2, ShutdownTimeout: time.Second})
	if custom.config.FailureThreshold != 2 || custom.config.ShutdownTimeout != time.Second {
		t.Errorf("Expected explicit values kept, got %+v", custom.config)
	}
	if custom.config.FailureDecay != want.FailureDecay {
		t.Errorf("Expected default decay, got %v", custom.config.FailureDecay)
	}
}

func TestSupervisorTree_Lifecycle(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree failed: %v", err)
	}

	scheduler := &countingService{name: "scheduler"}
	retention := &countingService{name: "audit-retention"}
	httpSvc := &countingService{name: "http"}
	tree.AddBackgroundService(scheduler)
	tree.AddBackgroundService(retention)
	tree.AddAPIService(httpSvc)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err = <-tree.ServeBackground(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		t.Errorf("Unexpected tree error: %v", err)
	}

	for _, svc := range []*countingService{scheduler, retention, httpSvc} {
		if svc.starts.Load() != 1 {
			t.Errorf("%s: expected 1 start, got %d", svc.name, svc.starts.Load())
		}
		if svc.stops.Load() != 1 {
			t.Errorf("%s: expected 1 stop, got %d", svc.name, svc.stops.Load())
		}
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport failed: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("Expected all services stopped, got %v", report)
	}
}

func TestSupervisorTree_RestartIsolation(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	flaky := &countingService{name: "flaky-scheduler", failures: 3}
	httpSvc := &countingService{name: "http"}
	tree.AddBackgroundService(flaky)
	tree.AddAPIService(httpSvc)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	<-tree.ServeBackground(ctx)

	if flaky.starts.Load() < 4 {
		t.Errorf("Expected flaky service restarted at least 3 times, got %d starts", flaky.starts.Load())
	}
	if httpSvc.starts.Load() != 1 {
		t.Errorf("Expected API service started once, got %d", httpSvc.starts.Load())
	}
}

func TestSupervisorTree_RemoveBackgroundService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := &countingService{name: "removable"}
	token := tree.AddBackgroundService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	deadline := time.Now().Add(time.Second)
	for svc.starts.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := tree.RemoveBackgroundService(token); err != nil {
		t.Errorf("RemoveBackgroundService failed: %v", err)
	}

	deadline = time.Now().Add(time.Second)
	for svc.stops.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if svc.stops.Load() != 1 {
		t.Errorf("Expected removed service to stop, got %d stops", svc.stops.Load())
	}

	cancel()
	<-done
}
