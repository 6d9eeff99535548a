package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
)

func pass() Validator {
	return Func(func(ctx context.Context, _ *snapshot.Snapshot) (issue.Result, error) {
		return issue.NewResult(nil), nil
	})
}

func sleepy(d time.Duration, log *eventLog, name string) Validator {
	return Func(func(ctx context.Context, _ *snapshot.Snapshot) (issue.Result, error) {
		log.add("start:" + name)
		time.Sleep(d)
		log.add("end:" + name)
		return issue.NewResult(nil), nil
	})
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) index(e string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, got := range l.events {
		if got == e {
			return i
		}
	}
	return -1
}

func names(r *Report) []string {
	out := make([]string, len(r.Validators))
	for i, v := range r.Validators {
		out[i] = v.Name
	}
	return out
}

func TestFaultIsolation(t *testing.T) {
	tests := []struct {
		name  string
		third Validator
	}{
		{
			name: "panic",
			third: Func(func(context.Context, *snapshot.Snapshot) (issue.Result, error) {
				panic("boom")
			}),
		},
		{
			name: "error",
			third: Func(func(context.Context, *snapshot.Snapshot) (issue.Result, error) {
				return issue.Result{}, errors.New("boom")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(WithConcurrency(3))
			for i := 1; i <= 5; i++ {
				v := pass()
				if i == 3 {
					v = tt.third
				}
				require.NoError(t, o.Register(fmt.Sprintf("v%d", i), "", v, true))
			}

			report, err := o.Run(context.Background(), nil)
			require.NoError(t, err)

			assert.Equal(t, []string{"v1", "v2", "v3", "v4", "v5"}, names(report))
			assert.Equal(t, 5, report.Summary.Total)
			assert.Equal(t, 4, report.Summary.Passed)
			assert.Equal(t, 1, report.Summary.Failed)
			assert.False(t, report.Summary.IsValid)

			third := report.Validators[2]
			assert.False(t, third.IsValid)
			assert.Contains(t, third.Error, "boom")
			require.Len(t, third.Issues, 1)
			assert.Equal(t, issue.ValidatorFailure, third.Issues[0].Kind)

			for _, i := range []int{0, 1, 3, 4} {
				assert.True(t, report.Validators[i].IsValid, report.Validators[i].Name)
			}
			assert.Equal(t, "Done(Fail)", o.State().String())
		})
	}
}

func TestReportFollowsRegistrationOrder(t *testing.T) {
	log := &eventLog{}
	o := New(WithConcurrency(4))
	require.NoError(t, o.Register("slow", "", sleepy(60*time.Millisecond, log, "slow"), true))
	require.NoError(t, o.Register("medium", "", sleepy(30*time.Millisecond, log, "medium"), true))
	require.NoError(t, o.Register("fast", "", sleepy(0, log, "fast"), true))

	report, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"slow", "medium", "fast"}, names(report))
	assert.Less(t, log.index("end:fast"), log.index("end:slow"), "fast should finish first")
}

func TestBatchesSettleBeforeNextBatch(t *testing.T) {
	log := &eventLog{}
	var inFlight, maxInFlight int32
	track := func(name string, d time.Duration) Validator {
		return Func(func(ctx context.Context, _ *snapshot.Snapshot) (issue.Result, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				m := atomic.LoadInt32(&maxInFlight)
				if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
					break
				}
			}
			log.add("start:" + name)
			time.Sleep(d)
			log.add("end:" + name)
			atomic.AddInt32(&inFlight, -1)
			return issue.NewResult(nil), nil
		})
	}

	var mu sync.Mutex
	var states []string
	o := New(WithConcurrency(2), WithObserver(func(e Event) {
		if e.Validator == nil {
			mu.Lock()
			states = append(states, e.State.String())
			mu.Unlock()
		}
	}))
	require.NoError(t, o.Register("a", "", track("a", 40*time.Millisecond), true))
	require.NoError(t, o.Register("b", "", track("b", 5*time.Millisecond), true))
	require.NoError(t, o.Register("c", "", track("c", 5*time.Millisecond), true))
	require.NoError(t, o.Register("d", "", track("d", 5*time.Millisecond), true))
	require.NoError(t, o.Register("e", "", track("e", 5*time.Millisecond), true))

	report, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, report.Summary.IsValid)
	assert.Equal(t, "batched(2)", report.Mode)

	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
	// c is in batch 2 and must not start until slow a (batch 1) ends.
	assert.Less(t, log.index("end:a"), log.index("start:c"))
	assert.Less(t, log.index("end:d"), log.index("start:e"))

	assert.Equal(t, []string{
		"Running(batch 1 of 3)",
		"Running(batch 2 of 3)",
		"Running(batch 3 of 3)",
		"Aggregating",
		"Done(Pass)",
	}, states)
}

func TestSerialMode(t *testing.T) {
	var inFlight, maxInFlight int32
	v := Func(func(ctx context.Context, _ *snapshot.Snapshot) (issue.Result, error) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return issue.NewResult(nil), nil
	})

	o := New(WithConcurrency(8), WithSerial())
	for i := 0; i < 4; i++ {
		require.NoError(t, o.Register(fmt.Sprintf("v%d", i), "", v, true))
	}

	report, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "serial", report.Mode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestTimeoutIsEnforced(t *testing.T) {
	stuck := Func(func(ctx context.Context, _ *snapshot.Snapshot) (issue.Result, error) {
		// Ignores cancellation on purpose.
		time.Sleep(2 * time.Second)
		return issue.NewResult(nil), nil
	})

	o := New(WithTimeout(30 * time.Millisecond))
	require.NoError(t, o.Register("stuck", "", stuck, true))
	require.NoError(t, o.Register("ok", "", pass(), true))

	start := time.Now()
	report, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	v, ok := report.Validator("stuck")
	require.True(t, ok)
	assert.False(t, v.IsValid)
	require.Len(t, v.Issues, 1)
	assert.Equal(t, issue.ValidatorTimeout, v.Issues[0].Kind)
	assert.Contains(t, v.Error, ErrTimeout.Error())

	ok2, _ := report.Validator("ok")
	assert.True(t, ok2.IsValid)
	assert.Equal(t, 1, report.Summary.Failed)
}

func TestWarningsNeverFlipStatus(t *testing.T) {
	warn := Func(func(context.Context, *snapshot.Snapshot) (issue.Result, error) {
		return issue.NewResult([]issue.Issue{
			issue.Warnf(issue.BidirectionalMismatch, "drift"),
		}), nil
	})

	o := New()
	require.NoError(t, o.Register("warn", "", warn, true))

	report, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, report.Summary.IsValid)
	assert.Equal(t, 1, report.Summary.Warnings)
	assert.Equal(t, 1, report.Summary.Passed)
	assert.Equal(t, "Done(Pass)", o.State().String())
}

func TestDisabledValidatorsAreSkipped(t *testing.T) {
	called := false
	o := New()
	require.NoError(t, o.Register("on", "", pass(), true))
	require.NoError(t, o.Register("off", "", Func(func(context.Context, *snapshot.Snapshot) (issue.Result, error) {
		called = true
		return issue.Result{}, errors.New("should not run")
	}), false))

	report, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, []string{"on", "off"}, names(report))
	assert.True(t, report.Validators[1].Skipped)
	assert.Equal(t, 1, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Skipped)

	require.NoError(t, o.SetEnabled("off", true))
	report, err = o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, report.Summary.Failed)

	assert.ErrorIs(t, o.SetEnabled("missing", true), ErrUnknownValidator)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	o := New()
	require.NoError(t, o.Register("a", "first", pass(), true))
	assert.ErrorIs(t, o.Register("a", "second", pass(), true), ErrDuplicateValidator)

	regs := o.Validators()
	require.Len(t, regs, 1)
	assert.Equal(t, "first", regs[0].Description)
}

func TestConcurrentRunIsRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := Func(func(ctx context.Context, _ *snapshot.Snapshot) (issue.Result, error) {
		close(started)
		<-release
		return issue.NewResult(nil), nil
	})

	o := New()
	require.NoError(t, o.Register("blocking", "", blocking, true))

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), nil)
		done <- err
	}()

	<-started
	assert.Equal(t, PhaseRunning, o.State().Phase)
	_, err := o.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.ErrorIs(t, o.Register("late", "", pass(), true), ErrAlreadyRunning)

	close(release)
	require.NoError(t, <-done)
}

func TestCancelledRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(WithConcurrency(1))
	require.NoError(t, o.Register("a", "", pass(), true))
	require.NoError(t, o.Register("b", "", pass(), true))

	report, err := o.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Failed)
	for _, v := range report.Validators {
		assert.Contains(t, v.Error, "cancelled")
	}
}

func TestConcurrencyClamp(t *testing.T) {
	o := New(WithConcurrency(0))
	assert.Equal(t, "batched(1)", o.Mode())
	assert.Equal(t, "Idle", o.State().String())
}
