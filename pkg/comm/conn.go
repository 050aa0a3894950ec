package comm

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/robotalks/teraranger/pkg/device"
	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/msgs"
)

// DefaultCommandExpiration is how long a command waits for its reply.
const DefaultCommandExpiration = time.Second

// Conn is the consumer side of a Pipe implementing device.Conn.
// Events from the device are posted to the loop.
type Conn struct {
	Expiration time.Duration

	pipe    Pipe
	seq     uint32
	waiting list.List
	seqMap  map[uint32]*commandFuture
	lock    sync.Mutex
}

// Init initializes Conn with a transport.
func (c *Conn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.seqMap = make(map[uint32]*commandFuture)
}

// DoCommand implements device.Conn.
func (c *Conn) DoCommand(msg fx.Message) device.CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.seq++; c.seq == 0 {
		c.seq++
	}
	f := &commandFuture{
		seq:      c.seq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan device.Result, 1),
	}
	if err := c.pipe.SendCommand(msg, f.seq); err != nil {
		f.result <- device.Result{Err: err}
		close(f.result)
		return f
	}
	f.elem = c.waiting.PushBack(f)
	c.seqMap[f.seq] = f
	return f
}

// AddToLoop implements LoopAdder.
func (c *Conn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.PurgeExpired))
}

func (c *Conn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	f := c.seqMap[typed.Sequence]
	if f == nil {
		return nil
	}
	c.resolve(f, device.Result{Msg: msg})
	return nil
}

// PurgeExpired fails commands whose replies didn't arrive in time.
func (c *Conn) PurgeExpired(cc fx.ControlContext) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	now := cc.Time()
	for c.waiting.Len() > 0 {
		f := c.waiting.Front().Value.(*commandFuture)
		if f.expireAt.After(now) {
			break
		}
		c.resolve(f, device.Result{Err: context.DeadlineExceeded})
	}
	return nil
}

func (c *Conn) resolve(f *commandFuture, result device.Result) {
	c.waiting.Remove(f.elem)
	delete(c.seqMap, f.seq)
	if cmdErr, ok := result.Msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.result <- result
	close(f.result)
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	elem     *list.Element
	result   chan device.Result
}

func (f *commandFuture) ResultChan() <-chan device.Result {
	return f.result
}
