// Package downlink queues telemetry and published measurements for the
// registrars, so the control loop never waits on the network.
package downlink

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/teraranger/pkg/abi"
	"github.com/robotalks/teraranger/pkg/device"
	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/msgs"
)

// DefaultQueueSize is the number of events buffered for the sinks.
const DefaultQueueSize = 32

// Downlink delivers events to a registrar from its own goroutine.
type Downlink struct {
	Sink device.Registrar

	queue   chan fx.Message
	dropped uint64
}

// New creates a Downlink.
func New(sink device.Registrar, queueSize int) *Downlink {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Downlink{Sink: sink, queue: make(chan fx.Message, queueSize)}
}

// Send queues an event. It returns false if the queue is full and the
// event was dropped.
func (d *Downlink) Send(msg fx.Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		if n := atomic.AddUint64(&d.dropped, 1); n == 1 || n%100 == 0 {
			glog.Warningf("downlink queue full, %d events dropped", n)
		}
		return false
	}
}

// Dropped returns the number of dropped events.
func (d *Downlink) Dropped() uint64 {
	return atomic.LoadUint64(&d.dropped)
}

// HandleAGL implements abi.AGLHandler.
func (d *Downlink) HandleAGL(agl abi.AGL) {
	var msg msgs.AGL
	msg.SenderId = uint32(agl.SenderID)
	msg.Stamp = agl.Stamp
	msg.Distance = agl.Distance
	d.Send(&msg)
}

// Name implements Named.
func (d *Downlink) Name() string {
	return "downlink"
}

// Run implements Runnable.
func (d *Downlink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-d.queue:
			if err := d.Sink.SendEvent(ctx, msg); err != nil {
				glog.V(2).Infof("downlink: %v", err)
			}
		}
	}
}

// AddToLoop implements LoopAdder.
func (d *Downlink) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(d)
}
