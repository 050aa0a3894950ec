// Package periph provides an i2c.Bus on top of periph.io host adapters.
package periph

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"
	pi2c "periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/i2c"
)

// DefaultQueueSize is the number of transactions that can wait for the bus.
const DefaultQueueSize = 8

// Bus serializes transactions of all devices sharing one adapter.
// Transfers run on a worker goroutine and complete through the loop.
type Bus struct {
	name  string
	conn  pi2c.BusCloser
	reqCh chan request

	closeOnce sync.Once
	closed    chan struct{}
}

type request struct {
	trans *i2c.Transaction
	addr  uint8
	n     int
}

var hostOnce struct {
	sync.Once
	err error
}

// Open opens an adapter by name, e.g. "/dev/i2c-1" or "1".
// An empty name opens the first adapter found.
func Open(name string) (*Bus, error) {
	hostOnce.Do(func() {
		_, hostOnce.err = host.Init()
	})
	if err := hostOnce.err; err != nil {
		return nil, fmt.Errorf("periph host init: %v", err)
	}
	conn, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %v", name, err)
	}
	return New(name, conn, DefaultQueueSize), nil
}

// New wraps an opened adapter.
func New(name string, conn pi2c.BusCloser, queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{
		name:   name,
		conn:   conn,
		reqCh:  make(chan request, queueSize),
		closed: make(chan struct{}),
	}
}

// Name implements Named.
func (b *Bus) Name() string {
	return "i2c:" + b.name
}

// Submit implements i2c.Bus.
func (b *Bus) Submit(trans *i2c.Transaction) error {
	select {
	case <-b.closed:
		return i2c.ErrClosed
	default:
	}
	select {
	case b.reqCh <- request{trans: trans, addr: trans.Addr, n: trans.Len}:
		return nil
	default:
		return i2c.ErrBusy
	}
}

// Run implements Runnable.
func (b *Bus) Run(ctx context.Context) error {
	defer b.Close()
	loopCtl := fx.LoopCtlFrom(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-b.reqCh:
			buf := make([]byte, req.n)
			// periph addresses devices with 7 bits.
			dev := pi2c.Dev{Bus: b.conn, Addr: uint16(req.addr >> 1)}
			err := dev.Tx(nil, buf)
			if err != nil {
				glog.V(3).Infof("%s: read %d bytes from 0x%02x: %v", b.Name(), req.n, req.addr, err)
			}
			loopCtl.PostMessage(&i2c.Completion{Trans: req.trans, Err: err, Data: buf})
			loopCtl.TriggerNext()
		}
	}
}

// Close releases the adapter. Submit fails afterwards.
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		err = b.conn.Close()
	})
	return err
}

// AddToLoop implements LoopAdder.
func (b *Bus) AddToLoop(loop *fx.Loop) {
	loop.Add(i2c.Dispatcher{})
	loop.AddRunnable(b)
}
