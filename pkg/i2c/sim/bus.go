// Package sim provides an in-process i2c.Bus with simulated devices.
package sim

import (
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/i2c"
)

// Responder produces the bytes a device returns for a read of n bytes.
type Responder interface {
	Respond(addr uint8, n int) ([]byte, error)
}

// RespondFunc is the func form of Responder.
type RespondFunc func(addr uint8, n int) ([]byte, error)

// Respond implements Responder.
func (f RespondFunc) Respond(addr uint8, n int) ([]byte, error) {
	return f(addr, n)
}

// Bus completes submitted transactions on the next loop iteration.
type Bus struct {
	name    string
	devices map[uint8]Responder
	pending []*i2c.Transaction
	lock    sync.Mutex
}

// New creates an empty bus.
func New(name string) *Bus {
	return &Bus{name: name, devices: make(map[uint8]Responder)}
}

// Name implements Named.
func (b *Bus) Name() string {
	return "sim:" + b.name
}

// Attach places a device at an 8-bit address.
func (b *Bus) Attach(addr uint8, r Responder) *Bus {
	b.lock.Lock()
	b.devices[addr] = r
	b.lock.Unlock()
	return b
}

// Submit implements i2c.Bus.
func (b *Bus) Submit(trans *i2c.Transaction) error {
	b.lock.Lock()
	b.pending = append(b.pending, trans)
	b.lock.Unlock()
	return nil
}

// Pending returns the number of transactions waiting for completion.
func (b *Bus) Pending() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.pending)
}

// Flush completes all pending transactions in submission order.
func (b *Bus) Flush() {
	b.lock.Lock()
	pending := b.pending
	b.pending = nil
	b.lock.Unlock()
	for _, trans := range pending {
		b.complete(trans).Apply()
	}
}

func (b *Bus) complete(trans *i2c.Transaction) *i2c.Completion {
	c := &i2c.Completion{Trans: trans}
	b.lock.Lock()
	dev := b.devices[trans.Addr]
	b.lock.Unlock()
	if dev == nil {
		c.Err = i2c.ErrNack
	} else {
		c.Data, c.Err = dev.Respond(trans.Addr, trans.Len)
	}
	if c.Err != nil {
		glog.V(3).Infof("%s: read 0x%02x: %v", b.Name(), trans.Addr, c.Err)
	}
	return c
}

// Control implements Controller.
func (b *Bus) Control(cc fx.ControlContext) error {
	b.Flush()
	return nil
}

// AddToLoop implements LoopAdder.
func (b *Bus) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvBus, b)
}
