package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	id int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestLoopPriorityOrder(t *testing.T) {
	var order []int
	record := func(n int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			order = append(order, n)
			return nil
		})
	}
	l := NewLoop()
	l.AddController(PrLvTelemetry, record(3))
	l.AddController(PrLvBus, record(1))
	l.AddController(PrLvSense, record(2))
	l.AddController(PrLvTop, record(0))
	l.Step(context.Background())
	require.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestLoopMessages(t *testing.T) {
	l := NewLoop()
	var seenByLater []int
	l.AddController(PrLvBus, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if m := mctx.CurrentMessage().(*testMsg); m.id%2 == 0 {
				mctx.MessageTaken()
			}
		}))
		return nil
	}))
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			seenByLater = append(seenByLater, mctx.CurrentMessage().(*testMsg).id)
		}))
		return nil
	}))

	for i := 0; i < 4; i++ {
		l.PostMessage(&testMsg{id: i})
	}
	l.Step(context.Background())
	require.Equal(t, []int{1, 3}, seenByLater)

	// left-over messages don't survive the iteration.
	seenByLater = nil
	l.Step(context.Background())
	require.Empty(t, seenByLater)
}

func TestLoopPostFromController(t *testing.T) {
	l := NewLoop()
	var got []int
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			got = append(got, mctx.CurrentMessage().(*testMsg).id)
		}))
		if len(got) == 0 {
			cc.PostMessage(&testMsg{id: 7})
		}
		return nil
	}))
	l.Step(context.Background())
	require.Empty(t, got)
	l.Step(context.Background())
	require.Equal(t, []int{7}, got)
}

func TestLoopControllerErrorDoesNotStop(t *testing.T) {
	l := NewLoop()
	var ran bool
	l.AddController(PrLvHigh, ControlFunc(func(ControlContext) error { return errors.New("boom") }))
	l.AddController(PrLvLow, ControlFunc(func(ControlContext) error { ran = true; return nil }))
	l.Step(context.Background())
	require.True(t, ran)
}

type postingRunner struct{}

func (r *postingRunner) Run(ctx context.Context) error {
	ctl := LoopCtlFrom(ctx)
	ctl.PostMessage(&testMsg{id: 42})
	ctl.TriggerNext()
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopRunDeliversRunnableMessages(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	got := make(chan int, 1)
	l.AddRunnable(&postingRunner{})
	l.AddController(PrLvNormal, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			select {
			case got <- mctx.CurrentMessage().(*testMsg).id:
			default:
			}
		}))
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	select {
	case id := <-got:
		require.Equal(t, 42, id)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"))
	require.EqualError(t, errs.Aggregate(), "a")
	errs.Add(errors.New("b"))
	require.EqualError(t, errs.Aggregate(), "multiple errors: a; b")
}

func TestLoopRunStopsOnRunnableError(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	failure := errors.New("listen failed")
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		return failure
	}), &postingRunner{})
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(context.Background()) }()
	select {
	case err := <-errCh:
		require.Error(t, err)
		require.Contains(t, err.Error(), "listen failed")
	case <-time.After(time.Second):
		t.Fatal("loop not stopped")
	}
}
