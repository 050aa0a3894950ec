package framework

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the loop interval when none is set.
const DefaultInterval = 50 * time.Millisecond

// Loop runs controllers periodically in priority order, and hosts
// the Runnables which feed it with messages.
type Loop struct {
	Interval time.Duration

	levels  [PriorityLevels][]Controller
	runners []Runnable

	pending []Message
	lock    sync.Mutex

	wakeUpCh chan struct{}
}

type loopCtxKey struct{}

// ContextWithLoopCtl attaches LoopControl to a context.
// Runnables started by the loop receive such a context.
func ContextWithLoopCtl(ctx context.Context, ctl LoopControl) context.Context {
	return context.WithValue(ctx, loopCtxKey{}, ctl)
}

// LoopCtlFrom gets LoopControl from context.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey{}).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level.
// Controllers which are also Runnable are started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.levels[priorityLevel] = append(l.levels[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. A Runnable failing stops the loop and its
// error is returned.
func (l *Loop) Run(ctx context.Context) (err error) {
	l.init()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := NewRunnerWith(ContextWithLoopCtl(ctx, l))
	for _, r := range l.runners {
		runner.Go(&stopOnError{Runnable: r, cancel: cancel})
	}
	defer func() {
		cancel()
		if werr := runner.Wait(); werr != nil {
			err = werr
		}
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Step(ctx)
		case <-l.wakeUpCh:
			l.Step(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to run the loop until a
// stop signal.
func (l *Loop) RunOrFail() {
	ctx := NewRunner().HandleSignals().Context
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

type stopOnError struct {
	Runnable
	cancel func()
}

func (r *stopOnError) Name() string {
	if named, ok := r.Runnable.(Named); ok {
		return named.Name()
	}
	return "runnable"
}

func (r *stopOnError) Run(ctx context.Context) error {
	err := r.Runnable.Run(ctx)
	if err != nil && err != context.Canceled {
		glog.Errorf("%s: %v", r.Name(), err)
		r.cancel()
	}
	return err
}

// Step runs a single iteration with messages posted so far.
func (l *Loop) Step(ctx context.Context) {
	iter := &iteration{loop: l, time: time.Now()}
	l.lock.Lock()
	iter.messages, l.pending = l.pending, nil
	l.lock.Unlock()
	iter.ctx = ContextWithLoopCtl(ctx, iter)
	for lv := 0; lv < PriorityLevels; lv++ {
		iter.level = lv
		for _, ctl := range l.levels[lv] {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.pending = append(l.pending, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	l.init()
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) init() {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	l.lock.Unlock()
}

type iteration struct {
	loop     *Loop
	ctx      context.Context
	time     time.Time
	level    int
	messages []Message
}

func (t *iteration) Context() context.Context { return t.ctx }
func (t *iteration) Time() time.Time          { return t.time }
func (t *iteration) PriorityLevel() int       { return t.level }
func (t *iteration) Messages() MessageStore   { return t }
func (t *iteration) PostMessage(msg Message)  { t.loop.PostMessage(msg) }
func (t *iteration) TriggerNext()             { t.loop.TriggerNext() }
func (t *iteration) Len() int                 { return len(t.messages) }

type messageContext struct {
	msg   Message
	taken bool
}

func (c *messageContext) CurrentMessage() Message { return c.msg }
func (c *messageContext) MessageTaken()           { c.taken = true }

// ProcessMessages implements MessageStore. Messages not taken stay
// for controllers at later levels and are dropped after the iteration.
func (t *iteration) ProcessMessages(proc MessageProcessor) {
	msgs := t.messages
	remains := msgs[:0]
	for _, msg := range msgs {
		mctx := &messageContext{msg: msg}
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains = append(remains, msg)
		}
	}
	t.messages = remains
}
