// Package teraranger implements the TeraRanger One I2C range finder.
//
// The sensor measures continuously. The driver polls a 3-byte frame,
// validates its CRC-8 and converts the big-endian millimeter value to
// meters. A raw value of 0 means out of range.
package teraranger

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/teraranger/pkg/abi"
	"github.com/robotalks/teraranger/pkg/device"
	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/i2c"
	"github.com/robotalks/teraranger/pkg/msgs"
)

// Reading is the latest validated measurement.
type Reading struct {
	// Raw is the sensor value in millimeters, 0 when out of range.
	Raw uint16
	// Distance in meters including Offset. It keeps the last value
	// while out of range.
	Distance  float32
	Offset    float32
	Available bool
}

// Step applies the outcome of a transaction to r. publish is true when
// a new in-range measurement was accepted.
func Step(r Reading, status i2c.TransStatus, frame []byte) (next Reading, publish bool) {
	if status != i2c.TransSucceeded {
		return r, false
	}
	raw, ok := DecodeFrame(frame)
	if !ok {
		return r, false
	}
	r.Raw = raw
	if raw == 0 {
		r.Available = false
		return r, false
	}
	r.Distance = float32(raw)/1000 + r.Offset
	r.Available = true
	return r, true
}

// TelemetrySender accepts reports without blocking.
type TelemetrySender interface {
	Send(fx.Message) bool
}

// Driver polls the sensor from the control loop.
type Driver struct {
	Config Config
	Bus    i2c.Bus
	AGL    abi.AGLSender
	// Telemetry receives periodic Sonar reports if set.
	Telemetry TelemetrySender
	// Clock stamps AGL messages in microseconds.
	Clock func() uint32

	reading    Reading
	trans      i2c.Transaction
	nextPoll   time.Time
	nextReport time.Time
}

// New creates a Driver.
func New(conf Config, bus i2c.Bus, agl abi.AGLSender) (*Driver, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{Config: conf, Bus: bus, AGL: agl, Clock: abi.SysTimeUsec}
	d.Init()
	return d, nil
}

// Init resets the reading and the transaction.
func (d *Driver) Init() {
	d.reading = Reading{Offset: float32(d.Config.Offset)}
	d.trans.Status = i2c.TransIdle
}

// Reading returns the current reading.
func (d *Driver) Reading() Reading {
	return d.reading
}

// TransStatus returns the status of the transaction.
func (d *Driver) TransStatus() i2c.TransStatus {
	return d.trans.Status
}

// Periodic starts a read unless one is outstanding.
func (d *Driver) Periodic() {
	if d.trans.Status != i2c.TransIdle {
		return
	}
	if err := i2c.Receive(d.Bus, &d.trans, d.Config.Addr, FrameLen); err != nil {
		glog.V(3).Infof("teraranger: submit: %v", err)
	}
}

// Event consumes a finished transaction.
func (d *Driver) Event() {
	switch d.trans.Status {
	case i2c.TransSucceeded:
		next, publish := Step(d.reading, d.trans.Status, d.trans.Data())
		if next == d.reading && !publish {
			glog.V(3).Infof("teraranger: frame % x discarded", d.trans.Data())
		}
		d.reading = next
		d.trans.Status = i2c.TransIdle
		if publish && d.Config.UseAGL && d.AGL != nil {
			d.AGL.SendAGL(abi.AGL{
				SenderID: d.Config.SenderID,
				Stamp:    d.Clock(),
				Distance: d.reading.Distance,
			})
		}
	case i2c.TransFailed:
		glog.V(3).Info("teraranger: read failed")
		d.trans.Status = i2c.TransIdle
	}
}

// Report snapshots the reading as telemetry.
func (d *Driver) Report() *msgs.Sonar {
	var msg msgs.Sonar
	msg.Raw = uint32(d.reading.Raw)
	msg.Distance = d.reading.Distance
	return &msg
}

// Status is the reply of SonarQuery.
func (d *Driver) Status() *msgs.SonarStatus {
	var msg msgs.SonarStatus
	msg.Raw = uint32(d.reading.Raw)
	msg.Distance = d.reading.Distance
	msg.Offset = d.reading.Offset
	msg.Available = d.reading.Available
	msg.SenderId = uint32(d.Config.SenderID)
	return &msg
}

// Control implements Controller.
func (d *Driver) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmd, ok := mctx.CurrentMessage().(*device.CommandMsg)
		if !ok {
			return
		}
		if _, ok := cmd.Command.Msg().(*msgs.SonarQuery); !ok {
			return
		}
		mctx.MessageTaken()
		if err := cmd.Command.Done(d.Status()); err != nil {
			glog.Errorf("teraranger: reply: %v", err)
		}
	}))

	d.Event()

	now := cc.Time()
	if due(now, &d.nextPoll, d.Config.PollPeriod()) {
		d.Periodic()
	}
	if d.Telemetry != nil && d.Config.TelemetryPeriod > 0 &&
		due(now, &d.nextReport, d.Config.TelemetryPeriod) {
		d.Telemetry.Send(d.Report())
	}
	return nil
}

// due reports whether the deadline passed and advances it by period.
// A deadline more than one period behind restarts from now.
func due(now time.Time, deadline *time.Time, period time.Duration) bool {
	if now.Before(*deadline) {
		return false
	}
	next := deadline.Add(period)
	if !next.After(now) {
		next = now.Add(period)
	}
	*deadline = next
	return true
}

// AddToLoop implements LoopAdder.
func (d *Driver) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, d)
}
