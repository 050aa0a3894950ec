// Package i2c models non-blocking transactions on a shared two-wire bus.
//
// A driver owns a Transaction and submits it to a Bus. The bus performs
// it asynchronously and reports the outcome as a Completion message posted
// to the control loop, where the Dispatcher applies it. Transactions are
// therefore only mutated on the loop goroutine.
package i2c

import (
	"errors"
	"fmt"

	fx "github.com/robotalks/teraranger/pkg/framework"
)

// BufLen is the capacity of a transaction buffer.
const BufLen = 16

// TransStatus is the lifecycle state of a Transaction.
type TransStatus int

// Transaction states.
const (
	TransIdle TransStatus = iota
	TransPending
	TransSucceeded
	TransFailed
)

func (s TransStatus) String() string {
	switch s {
	case TransIdle:
		return "idle"
	case TransPending:
		return "pending"
	case TransSucceeded:
		return "succeeded"
	case TransFailed:
		return "failed"
	}
	return fmt.Sprintf("TransStatus(%d)", int(s))
}

// Transaction is a single read issued to a device.
type Transaction struct {
	Status TransStatus
	// Addr is the 8-bit device address (7-bit address shifted left).
	Addr uint8
	// Len is the number of bytes to read.
	Len int
	Buf [BufLen]byte
}

// Data returns the bytes read by the last successful transaction.
func (t *Transaction) Data() []byte {
	return t.Buf[:t.Len]
}

// Bus accepts transactions without blocking.
type Bus interface {
	// Submit queues a pending transaction. It returns an error if the
	// transaction can't be queued; the bus never completes it then.
	Submit(*Transaction) error
}

var (
	// ErrBusy is returned by Submit when the bus queue is full.
	ErrBusy = errors.New("i2c: bus busy")
	// ErrClosed is returned by Submit after the bus stopped.
	ErrClosed = errors.New("i2c: bus closed")
	// ErrNack is reported when no device acknowledges the address.
	ErrNack = errors.New("i2c: no acknowledge")
)

// Receive reads n bytes from addr. The transaction becomes Pending, or
// Failed if the bus refused it, so a reactor always sees it resolve.
func Receive(bus Bus, trans *Transaction, addr uint8, n int) error {
	if n <= 0 || n > BufLen {
		return fmt.Errorf("i2c: invalid read length %d", n)
	}
	trans.Addr, trans.Len = addr, n
	trans.Status = TransPending
	if err := bus.Submit(trans); err != nil {
		trans.Status = TransFailed
		return err
	}
	return nil
}

// Completion reports the outcome of a transaction.
type Completion struct {
	Trans *Transaction
	Err   error
	Data  []byte
}

// NewMessage implements Message.
func (c *Completion) NewMessage() fx.Message { return &Completion{} }

// Apply writes the outcome into the transaction.
func (c *Completion) Apply() {
	if c.Err != nil {
		c.Trans.Status = TransFailed
		return
	}
	n := copy(c.Trans.Buf[:c.Trans.Len], c.Data)
	if n < c.Trans.Len {
		c.Trans.Status = TransFailed
		return
	}
	c.Trans.Status = TransSucceeded
}

// Dispatcher applies completions posted to the loop.
type Dispatcher struct{}

// Control implements Controller.
func (Dispatcher) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if c, ok := mctx.CurrentMessage().(*Completion); ok {
			mctx.MessageTaken()
			c.Apply()
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (d Dispatcher) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvBus, d)
}
