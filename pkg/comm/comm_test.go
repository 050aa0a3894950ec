package comm

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/teraranger/pkg/device"
	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/msgs"
)

type memLink struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once sync.Once
}

func newLinkPair() (*memLink, *memLink) {
	a2b, b2a := make(chan []byte, 8), make(chan []byte, 8)
	return &memLink{in: b2a, out: a2b, done: make(chan struct{})},
		&memLink{in: a2b, out: b2a, done: make(chan struct{})}
}

func (l *memLink) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-l.in:
		return pkt, nil
	case <-l.done:
		return nil, io.EOF
	}
}

func (l *memLink) WritePacket(pkt []byte) error {
	select {
	case l.out <- pkt:
		return nil
	case <-l.done:
		return io.ErrClosedPipe
	}
}

func (l *memLink) Run(ctx context.Context) error {
	<-ctx.Done()
	l.once.Do(func() { close(l.done) })
	return ctx.Err()
}

func runLoop(t *testing.T, loop *fx.Loop) func() {
	loop.Interval = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	return func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(time.Second):
			t.Fatal("loop didn't stop")
		}
	}
}

func sonarResponder(raw uint32) fx.Controller {
	return fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			if cmd, ok := mctx.CurrentMessage().(*device.CommandMsg); ok {
				if _, ok := cmd.Command.Msg().(*msgs.SonarQuery); ok {
					mctx.MessageTaken()
					var reply msgs.SonarStatus
					reply.Raw = raw
					cmd.Command.Done(&reply)
				}
			}
		}))
		return nil
	})
}

func waitResult(t *testing.T, f device.CommandFuture) device.Result {
	select {
	case res := <-f.ResultChan():
		return res
	case <-time.After(time.Second):
		t.Fatal("command timeout")
	}
	return device.Result{}
}

func TestCommandRoundTrip(t *testing.T) {
	devLink, connLink := newLinkPair()
	reg := NewRegistrar(devLink)
	stopDev := runLoop(t, fx.NewLoop().Add(reg, UnsupportedCommands{}).
		AddController(fx.PrLvSense, sonarResponder(1000)))
	defer stopDev()

	var conn Conn
	conn.Init(connLink)
	stopConn := runLoop(t, fx.NewLoop().Add(&conn))
	defer stopConn()

	res := waitResult(t, conn.DoCommand(&msgs.SonarQuery{}))
	require.NoError(t, res.Err)
	status, ok := res.Msg.(*msgs.SonarStatus)
	require.True(t, ok)
	require.Equal(t, uint32(1000), status.Raw)
}

func TestUnsupportedCommand(t *testing.T) {
	devLink, connLink := newLinkPair()
	stopDev := runLoop(t, fx.NewLoop().Add(NewRegistrar(devLink), UnsupportedCommands{}))
	defer stopDev()

	var conn Conn
	conn.Init(connLink)
	stopConn := runLoop(t, fx.NewLoop().Add(&conn))
	defer stopConn()

	res := waitResult(t, conn.DoCommand(&msgs.SonarQuery{}))
	require.EqualError(t, res.Err, msgs.ErrUnsupportedCommand.Error())
}

func TestEventsReachConnLoop(t *testing.T) {
	devLink, connLink := newLinkPair()
	reg := NewRegistrar(devLink)
	stopDev := runLoop(t, fx.NewLoop().Add(reg))
	defer stopDev()

	var conn Conn
	conn.Init(connLink)
	events := make(chan *msgs.Sonar, 1)
	stopConn := runLoop(t, fx.NewLoop().Add(&conn).
		AddController(fx.PrLvNormal, fx.ControlFunc(func(cc fx.ControlContext) error {
			cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
				if m, ok := mctx.CurrentMessage().(*msgs.Sonar); ok {
					mctx.MessageTaken()
					events <- m
				}
			}))
			return nil
		})))
	defer stopConn()

	var sonar msgs.Sonar
	sonar.Raw, sonar.Distance = 1500, 1.5
	require.NoError(t, reg.SendEvent(context.Background(), &sonar))
	select {
	case m := <-events:
		require.Equal(t, uint32(1500), m.Raw)
		require.Equal(t, float32(1.5), m.Distance)
	case <-time.After(time.Second):
		t.Fatal("event not received")
	}

	require.Error(t, reg.SendEvent(context.Background(), &msgs.SonarQuery{}))
}

func TestCommandExpires(t *testing.T) {
	_, connLink := newLinkPair()
	var conn Conn
	conn.Init(connLink)
	conn.Expiration = time.Millisecond
	loop := fx.NewLoop().Add(&conn)

	f := conn.DoCommand(&msgs.SonarQuery{})
	time.Sleep(5 * time.Millisecond)
	loop.Step(context.Background())
	res := waitResult(t, f)
	require.Equal(t, context.DeadlineExceeded, res.Err)
}

func TestRegistrarMux(t *testing.T) {
	var sent []fx.Message
	rec := registrarFunc(func(_ context.Context, msg fx.Message) error {
		sent = append(sent, msg)
		return nil
	})
	failing := registrarFunc(func(context.Context, fx.Message) error { return io.ErrClosedPipe })
	mux := &RegistrarMux{}
	mux.Add(rec, failing, rec)
	err := mux.SendEvent(context.Background(), &msgs.Sonar{})
	require.Equal(t, io.ErrClosedPipe.Error(), err.Error())
	require.Len(t, sent, 2)
}

type registrarFunc func(context.Context, fx.Message) error

func (f registrarFunc) SendEvent(ctx context.Context, msg fx.Message) error { return f(ctx, msg) }
