package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ning0612/Cloudbrowse/internal/testutil"
)

// countingRefresher counts refreshes and optionally fails
type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	return r.err
}

func TestNewInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		target   Refresher
		wantErr  bool
	}{
		{"valid", time.Second, &countingRefresher{}, false},
		{"zero interval", 0, &countingRefresher{}, true},
		{"negative interval", -time.Second, &countingRefresher{}, true},
		{"nil refresher", time.Second, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInterval(tt.interval, tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewInterval() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInterval_RunsRepeatedly(t *testing.T) {
	r := &countingRefresher{}
	s, err := NewInterval(20*time.Millisecond, r)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.Status().Running {
		t.Error("scheduler should be running")
	}

	testutil.AssertEventually(t, 2*time.Second, func() bool {
		return r.calls.Load() >= 2
	}, "expected at least 2 refreshes")

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	st := s.Status()
	if st.Running {
		t.Error("scheduler should not be running after stop")
	}
	if st.TotalRuns < 2 || st.FailedRuns != 0 {
		t.Errorf("status = %+v, want >= 2 runs and no failures", st)
	}
	if st.LastRunTime.IsZero() || st.NextRunTime.IsZero() {
		t.Error("run times should be set")
	}
}

func TestInterval_DoubleStartAndRestart(t *testing.T) {
	s, _ := NewInterval(time.Hour, &countingRefresher{})

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start() error = %v, want ErrRunning", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
}

func TestInterval_StopNotRunning(t *testing.T) {
	s, _ := NewInterval(time.Second, &countingRefresher{})
	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestInterval_ContextCancellation(t *testing.T) {
	s, _ := NewInterval(time.Hour, &countingRefresher{})
	ctx, cancel := context.WithCancel(context.Background())

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	testutil.AssertEventually(t, time.Second, func() bool {
		return !s.Status().Running
	}, "scheduler should stop when context is cancelled")
}

func TestInterval_Failures(t *testing.T) {
	r := &countingRefresher{err: errors.New("remote unavailable")}
	s, _ := NewInterval(20*time.Millisecond, RefresherFunc(r.Refresh))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEventually(t, 2*time.Second, func() bool {
		return s.Status().FailedRuns > 0
	}, "expected failed runs")

	if got := s.Status().LastError; got != "remote unavailable" {
		t.Errorf("LastError = %q, want %q", got, "remote unavailable")
	}
}
