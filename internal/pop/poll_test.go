package pop

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seyi-falode/blogpilot/internal/common"
)

// fakeClock advances only when the engine sleeps, so sessions run without
// real elapsed time.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

type step struct {
	rep *StatusReport
	err error
}

// scriptedFetcher replays a fixed response sequence and fails the test if
// the engine fetches more often than the script allows.
type scriptedFetcher struct {
	t     *testing.T
	steps []step
	calls int
}

func (f *scriptedFetcher) FetchStatus(_ context.Context, _ string) (*StatusReport, error) {
	if f.calls >= len(f.steps) {
		f.t.Fatalf("unexpected fetch #%d: script has only %d responses", f.calls+1, len(f.steps))
	}
	s := f.steps[f.calls]
	f.calls++
	return s.rep, s.err
}

func processing(progress int) step {
	return step{rep: &StatusReport{RawStatus: "Processing", Progress: progress}}
}

func unknown() step {
	return step{rep: &StatusReport{RawStatus: StatusUnknown, Progress: 0}}
}

func success(score float64, content string) step {
	return step{rep: &StatusReport{RawStatus: "Done", Terminal: true, Progress: 100, Score: score, Content: content}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

func newTestEngine(t *testing.T, steps []step, opts ...Option) (*Engine, *scriptedFetcher, *fakeClock) {
	t.Helper()
	f := &scriptedFetcher{t: t, steps: steps}
	c := newFakeClock()
	opts = append([]Option{WithClock(c)}, opts...)
	return NewEngine(f, discardLogger(), opts...), f, c
}

func TestWait_NonDecreasingProgressSucceeds(t *testing.T) {
	e, f, c := newTestEngine(t, []step{
		processing(10),
		processing(45),
		processing(80),
		success(92.5, "brief"),
	})

	rep, err := e.Wait(context.Background(), "task-1")
	require.NoError(t, err)
	require.Equal(t, 92.5, rep.Score)
	require.Equal(t, "brief", rep.Content)
	require.Equal(t, 4, f.calls)
	// Ordinary polls wait the standard interval; the terminal fetch does not sleep.
	require.Equal(t, []time.Duration{20 * time.Second, 20 * time.Second, 20 * time.Second}, c.sleeps)
}

func TestWait_AllUnknownExhaustsBudgetThenSingleFinalCheck(t *testing.T) {
	steps := make([]step, 0, 9)
	for i := 0; i < 8; i++ {
		steps = append(steps, unknown())
	}
	steps = append(steps, unknown()) // the final check, still Unknown
	e, f, c := newTestEngine(t, steps)

	_, err := e.Wait(context.Background(), "task-2")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrStuckUnknown)
	require.Equal(t, common.CodeAnomalous, common.CodeOf(err))
	// 8 budgeted observations plus exactly one final check.
	require.Equal(t, 9, f.calls)
	// Counts 1..7 back off 30s each; the 8th goes straight to the final check.
	require.Len(t, c.sleeps, 7)
	for _, d := range c.sleeps {
		require.Equal(t, 30*time.Second, d)
	}
}

func TestWait_FinalCheckCanStillSucceed(t *testing.T) {
	steps := make([]step, 0, 9)
	for i := 0; i < 8; i++ {
		steps = append(steps, unknown())
	}
	steps = append(steps, success(85, "late brief"))
	e, f, _ := newTestEngine(t, steps)

	rep, err := e.Wait(context.Background(), "task-3")
	require.NoError(t, err)
	require.Equal(t, float64(85), rep.Score)
	require.Equal(t, 9, f.calls)
}

func TestWait_FinalCheckTransportErrorIsFatal(t *testing.T) {
	steps := make([]step, 0, 9)
	for i := 0; i < 8; i++ {
		steps = append(steps, unknown())
	}
	steps = append(steps, step{err: errors.New("bad json")})
	e, f, _ := newTestEngine(t, steps)

	_, err := e.Wait(context.Background(), "task-4")
	require.Error(t, err)
	require.Equal(t, common.CodeTransport, common.CodeOf(err))
	require.Equal(t, 9, f.calls)
}

func TestWait_UnknownAtHighProgressGetsExtendedWait(t *testing.T) {
	e, _, c := newTestEngine(t, []step{
		processing(60),
		unknown(),
		unknown(),
		success(88, ""),
	})

	rep, err := e.Wait(context.Background(), "task-5")
	require.NoError(t, err)
	require.Equal(t, float64(88), rep.Score)
	// One ordinary interval, then the 60s grace wait for each Unknown: the
	// counter still increments, but a job seen at 60% is presumed finishing.
	require.Equal(t, []time.Duration{20 * time.Second, 60 * time.Second, 60 * time.Second}, c.sleeps)
}

func TestWait_HighProgressUnknownsStillExhaustBudget(t *testing.T) {
	steps := []step{processing(75)}
	for i := 0; i < 8; i++ {
		steps = append(steps, unknown())
	}
	steps = append(steps, unknown()) // final check
	e, f, c := newTestEngine(t, steps)

	_, err := e.Wait(context.Background(), "task-6")
	require.ErrorIs(t, err, ErrStuckUnknown)
	require.Equal(t, 10, f.calls)
	// 20s for the real observation, 60s grace waits for Unknowns 1..7,
	// then the 8th trips the budget and only the final check remains.
	require.Equal(t, 8, len(c.sleeps))
	require.Equal(t, 20*time.Second, c.sleeps[0])
	for _, d := range c.sleeps[1:] {
		require.Equal(t, 60*time.Second, d)
	}
}

func TestWait_DeadlineExceededWhileRunning(t *testing.T) {
	e, f, _ := newTestEngine(t, []step{
		processing(10),
		processing(20),
		processing(30),
	}, WithDeadline(50*time.Second))

	_, err := e.Wait(context.Background(), "task-7")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, common.CodeTimeout, common.CodeOf(err))
	// Fetches at t=0s, 20s, 40s; the 60s entry trips the deadline first.
	require.Equal(t, 3, f.calls)
}

func TestWait_MalformedResponseFailsImmediately(t *testing.T) {
	e, f, _ := newTestEngine(t, []step{
		{err: errors.New("invalid JSON response")},
	})

	_, err := e.Wait(context.Background(), "task-8")
	require.Error(t, err)
	require.Equal(t, common.CodeTransport, common.CodeOf(err))
	require.Equal(t, 1, f.calls)
}

func TestWait_UnknownCounterResetsOnRealProgress(t *testing.T) {
	// Spec'd end-to-end shape: progress, three Unknowns, recovery, success.
	e, f, c := newTestEngine(t, []step{
		processing(10),
		processing(45),
		unknown(),
		unknown(),
		unknown(),
		processing(80),
		success(85, "..."),
	})

	rep, err := e.Wait(context.Background(), "task-9")
	require.NoError(t, err)
	require.Equal(t, float64(85), rep.Score)
	require.Equal(t, 7, f.calls)
	// Last progress was 45 when the Unknowns hit, so each waits 30s; the 80%
	// observation resets the counter and polling resumes normally.
	require.Equal(t, []time.Duration{
		20 * time.Second, 20 * time.Second,
		30 * time.Second, 30 * time.Second, 30 * time.Second,
		20 * time.Second,
	}, c.sleeps)
}

func TestWait_SuccessRequiresTerminalFlagAndFullProgress(t *testing.T) {
	// A terminal flag without 100% progress must not short-circuit.
	e, f, _ := newTestEngine(t, []step{
		{rep: &StatusReport{RawStatus: "Done", Terminal: true, Progress: 95}},
		{rep: &StatusReport{RawStatus: "Done", Terminal: false, Progress: 100}},
		success(90, ""),
	})

	rep, err := e.Wait(context.Background(), "task-10")
	require.NoError(t, err)
	require.Equal(t, float64(90), rep.Score)
	require.Equal(t, 3, f.calls)
}

func TestWait_LogsStatusChangeOncePerLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	f := &scriptedFetcher{t: t, steps: []step{
		processing(10),
		processing(20),
		processing(30),
		{rep: &StatusReport{RawStatus: "Writing report", Progress: 60}},
		success(80, ""),
	}}
	e := NewEngine(f, logger, WithClock(newFakeClock()))

	_, err := e.Wait(context.Background(), "task-11")
	require.NoError(t, err)
	// "Processing" and "Writing report" each logged once despite five polls.
	require.Equal(t, 2, strings.Count(buf.String(), "pop.poll.status_change"))
}
