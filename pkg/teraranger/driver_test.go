package teraranger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/teraranger/pkg/abi"
	"github.com/robotalks/teraranger/pkg/device"
	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/i2c"
	"github.com/robotalks/teraranger/pkg/i2c/sim"
	"github.com/robotalks/teraranger/pkg/msgs"
)

type countingBus struct {
	submitted []*i2c.Transaction
	err       error
}

func (b *countingBus) Submit(trans *i2c.Transaction) error {
	if b.err != nil {
		return b.err
	}
	b.submitted = append(b.submitted, trans)
	return nil
}

type aglRecorder []abi.AGL

func (r *aglRecorder) SendAGL(msg abi.AGL) {
	*r = append(*r, msg)
}

func testConfig() Config {
	conf := *NewConfig()
	conf.Device = "sim"
	return conf
}

func newTestDriver(t *testing.T, conf Config) (*Driver, *countingBus, *aglRecorder) {
	bus := &countingBus{}
	agl := &aglRecorder{}
	d, err := New(conf, bus, agl)
	require.NoError(t, err)
	d.Clock = func() uint32 { return 1234 }
	return d, bus, agl
}

func complete(d *Driver, data []byte, err error) {
	(&i2c.Completion{Trans: &d.trans, Data: data, Err: err}).Apply()
}

func TestInit(t *testing.T) {
	conf := testConfig()
	conf.Offset = 0.25
	d, bus, agl := newTestDriver(t, conf)
	require.Equal(t, Reading{Offset: 0.25}, d.Reading())
	require.Equal(t, i2c.TransIdle, d.TransStatus())
	require.Empty(t, bus.submitted)
	require.Empty(t, *agl)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Frequency: 20}, &countingBus{}, nil)
	require.Error(t, err)
}

func TestPeriodicIdempotentWhilePending(t *testing.T) {
	d, bus, _ := newTestDriver(t, testConfig())
	d.Periodic()
	d.Periodic()
	d.Periodic()
	require.Len(t, bus.submitted, 1)
	require.Equal(t, i2c.TransPending, d.TransStatus())
	require.Equal(t, DefaultAddr, bus.submitted[0].Addr)
	require.Equal(t, FrameLen, bus.submitted[0].Len)
}

func TestPeriodicSubmitFailure(t *testing.T) {
	d, bus, _ := newTestDriver(t, testConfig())
	bus.err = i2c.ErrBusy
	d.Periodic()
	require.Equal(t, i2c.TransFailed, d.TransStatus())
	d.Event()
	require.Equal(t, i2c.TransIdle, d.TransStatus())
	bus.err = nil
	d.Periodic()
	require.Len(t, bus.submitted, 1)
}

func TestEvent(t *testing.T) {
	testCases := []struct {
		name    string
		frame   []byte
		err     error
		reading Reading
		publish bool
	}{
		{"valid", []byte{0x03, 0xe8, 0xa9}, nil,
			Reading{Raw: 1000, Distance: 1.5, Offset: 0.5, Available: true}, true},
		{"sentinel", []byte{0x00, 0x00, 0x00}, nil,
			Reading{Raw: 0, Distance: 2.5, Offset: 0.5}, false},
		{"corrupted", []byte{0x03, 0xe8, 0xff}, nil,
			Reading{Raw: 2000, Distance: 2.5, Offset: 0.5, Available: true}, false},
		{"failed", nil, i2c.ErrNack,
			Reading{Raw: 2000, Distance: 2.5, Offset: 0.5, Available: true}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := testConfig()
			conf.Offset = 0.5
			d, _, agl := newTestDriver(t, conf)
			d.reading = Reading{Raw: 2000, Distance: 2.5, Offset: 0.5, Available: true}

			d.Periodic()
			complete(d, tc.frame, tc.err)
			d.Event()
			require.Equal(t, tc.reading, d.Reading())
			require.Equal(t, i2c.TransIdle, d.TransStatus())
			if tc.publish {
				require.Equal(t, []abi.AGL{{SenderID: abi.AGLTeraRangerOneID, Stamp: 1234, Distance: 1.5}}, []abi.AGL(*agl))
			} else {
				require.Empty(t, *agl)
			}
		})
	}
}

func TestEventIgnoresIdleAndPending(t *testing.T) {
	d, _, agl := newTestDriver(t, testConfig())
	d.Event()
	require.Equal(t, i2c.TransIdle, d.TransStatus())
	d.Periodic()
	d.Event()
	require.Equal(t, i2c.TransPending, d.TransStatus())
	require.Empty(t, *agl)
}

func TestEventWithoutAGL(t *testing.T) {
	conf := testConfig()
	conf.UseAGL = false
	d, _, agl := newTestDriver(t, conf)
	d.Periodic()
	complete(d, []byte{0x03, 0xe8, 0xa9}, nil)
	d.Event()
	require.True(t, d.Reading().Available)
	require.Empty(t, *agl)
}

func TestStep(t *testing.T) {
	r := Reading{Offset: 0.1}
	next, publish := Step(r, i2c.TransPending, []byte{0x03, 0xe8, 0xa9})
	require.False(t, publish)
	require.Equal(t, r, next)

	next, publish = Step(r, i2c.TransSucceeded, []byte{0x03, 0xe8})
	require.False(t, publish)
	require.Equal(t, r, next)

	next, publish = Step(r, i2c.TransSucceeded, []byte{0x07, 0xd0, 0x55})
	require.True(t, publish)
	require.Equal(t, uint16(2000), next.Raw)
	require.InDelta(t, 2.1, next.Distance, 1e-6)
}

func TestReport(t *testing.T) {
	d, bus, _ := newTestDriver(t, testConfig())
	d.reading = Reading{Raw: 1000, Distance: 1, Available: true}
	d.Periodic()
	report := d.Report()
	require.Equal(t, uint32(1000), report.Raw)
	require.Equal(t, float32(1), report.Distance)
	require.Equal(t, i2c.TransPending, d.TransStatus())
	require.Len(t, bus.submitted, 1)
}

type telemetryRecorder []fx.Message

func (r *telemetryRecorder) Send(msg fx.Message) bool {
	*r = append(*r, msg)
	return true
}

type recordedCommand struct {
	msg   fx.Message
	reply fx.Message
}

func (c *recordedCommand) Msg() fx.Message { return c.msg }

func (c *recordedCommand) Done(reply fx.Message) error {
	if c.reply != nil {
		return errors.New("replied twice")
	}
	c.reply = reply
	return nil
}

func TestLoopWithSimBus(t *testing.T) {
	conf := testConfig()
	bus := sim.New("test").Attach(conf.Addr, sim.RespondFunc(func(addr uint8, n int) ([]byte, error) {
		f := EncodeFrame(1000)
		return f[:], nil
	}))
	var agl aglRecorder
	d, err := New(conf, bus, &agl)
	require.NoError(t, err)
	var telemetry telemetryRecorder
	d.Telemetry = &telemetry

	loop := fx.NewLoop().Add(bus, d)
	ctx := context.Background()

	loop.Step(ctx)
	require.Equal(t, 1, bus.Pending())
	require.Len(t, telemetry, 1)

	loop.Step(ctx)
	require.Zero(t, bus.Pending())
	require.Equal(t, Reading{Raw: 1000, Distance: 1, Available: true}, d.Reading())
	require.Len(t, agl, 1)
	require.Equal(t, float32(1), agl[0].Distance)

	cmd := &recordedCommand{msg: &msgs.SonarQuery{}}
	other := &recordedCommand{msg: &msgs.CommandOK{}}
	loop.PostMessage(&device.CommandMsg{Command: cmd})
	loop.PostMessage(&device.CommandMsg{Command: other})
	loop.Step(ctx)
	require.NotNil(t, cmd.reply)
	status := cmd.reply.(*msgs.SonarStatus)
	require.Equal(t, uint32(1000), status.Raw)
	require.True(t, status.Available)
	require.Equal(t, uint32(abi.AGLTeraRangerOneID), status.SenderId)
	require.Nil(t, other.reply)
}

func TestDue(t *testing.T) {
	var deadline time.Time
	now := time.Unix(100, 0)
	period := 50 * time.Millisecond

	require.True(t, due(now, &deadline, period))
	require.Equal(t, now.Add(period), deadline)
	require.False(t, due(now.Add(10*time.Millisecond), &deadline, period))
	require.True(t, due(now.Add(60*time.Millisecond), &deadline, period))
	require.Equal(t, now.Add(100*time.Millisecond), deadline)
	require.True(t, due(now.Add(time.Second), &deadline, period))
	require.Equal(t, now.Add(time.Second+period), deadline)
}
