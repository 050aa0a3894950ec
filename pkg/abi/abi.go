// Package abi is the in-process publish/subscribe bus sensors use to
// hand measurements to other subsystems.
package abi

import (
	"sync"
	"time"
)

// Sender IDs for AGL messages.
const (
	// BroadcastID binds to every sender.
	BroadcastID uint8 = 0

	AGLTeraRangerOneID uint8 = 8
)

// AGL is an above-ground-level distance measurement.
type AGL struct {
	SenderID uint8
	// Stamp is the system time in microseconds.
	Stamp uint32
	// Distance in meters.
	Distance float32
}

// AGLHandler receives AGL messages.
type AGLHandler interface {
	HandleAGL(AGL)
}

// HandleAGLFunc is the func form of AGLHandler.
type HandleAGLFunc func(AGL)

// HandleAGL implements AGLHandler.
func (f HandleAGLFunc) HandleAGL(msg AGL) {
	f(msg)
}

// AGLSender publishes AGL messages.
type AGLSender interface {
	SendAGL(AGL)
}

// Bus delivers messages synchronously to the bound handlers.
type Bus struct {
	bindings []*Binding
	lock     sync.RWMutex
}

// Binding is a handler bound to a sender.
type Binding struct {
	bus      *Bus
	senderID uint8
	handler  AGLHandler
}

// BindAGL binds a handler to AGL messages from senderID, or from
// every sender with BroadcastID.
func (b *Bus) BindAGL(senderID uint8, handler AGLHandler) *Binding {
	bnd := &Binding{bus: b, senderID: senderID, handler: handler}
	b.lock.Lock()
	b.bindings = append(b.bindings, bnd)
	b.lock.Unlock()
	return bnd
}

// SendAGL implements AGLSender.
func (b *Bus) SendAGL(msg AGL) {
	b.lock.RLock()
	bindings := b.bindings
	b.lock.RUnlock()
	for _, bnd := range bindings {
		if bnd.senderID == BroadcastID || bnd.senderID == msg.SenderID {
			bnd.handler.HandleAGL(msg)
		}
	}
}

// Close unbinds the handler.
func (b *Binding) Close() error {
	b.bus.lock.Lock()
	defer b.bus.lock.Unlock()
	for n, bnd := range b.bus.bindings {
		if bnd == b {
			bindings := make([]*Binding, 0, len(b.bus.bindings)-1)
			bindings = append(bindings, b.bus.bindings[:n]...)
			b.bus.bindings = append(bindings, b.bus.bindings[n+1:]...)
			break
		}
	}
	return nil
}

var startTime = time.Now()

// SysTimeUsec returns microseconds since the process started, from the
// monotonic clock. It wraps after about 71 minutes like a 32-bit timer.
func SysTimeUsec() uint32 {
	return uint32(time.Since(startTime) / time.Microsecond)
}
