package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/teraranger/pkg/framework"
)

type recordingBus struct {
	err       error
	submitted []*Transaction
}

func (b *recordingBus) Submit(t *Transaction) error {
	if b.err != nil {
		return b.err
	}
	b.submitted = append(b.submitted, t)
	return nil
}

func TestReceive(t *testing.T) {
	var trans Transaction
	bus := &recordingBus{}
	require.NoError(t, Receive(bus, &trans, 0x60, 3))
	require.Equal(t, TransPending, trans.Status)
	require.Equal(t, uint8(0x60), trans.Addr)
	require.Equal(t, 3, trans.Len)
	require.Len(t, bus.submitted, 1)

	bus.err = ErrBusy
	trans = Transaction{}
	require.Equal(t, ErrBusy, Receive(bus, &trans, 0x60, 3))
	require.Equal(t, TransFailed, trans.Status)

	require.Error(t, Receive(bus, &trans, 0x60, BufLen+1))
	require.Error(t, Receive(bus, &trans, 0x60, 0))
}

func TestCompletionApply(t *testing.T) {
	testCases := []struct {
		name   string
		c      Completion
		expect TransStatus
	}{
		{"success", Completion{Data: []byte{1, 2, 3}}, TransSucceeded},
		{"error", Completion{Err: errors.New("nack"), Data: []byte{1, 2, 3}}, TransFailed},
		{"short read", Completion{Data: []byte{1}}, TransFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			trans := &Transaction{Status: TransPending, Len: 3}
			tc.c.Trans = trans
			tc.c.Apply()
			require.Equal(t, tc.expect, trans.Status)
			if tc.expect == TransSucceeded {
				require.Equal(t, []byte{1, 2, 3}, trans.Data())
			}
		})
	}
}

func TestDispatcher(t *testing.T) {
	loop := fx.NewLoop().Add(Dispatcher{})
	loop.AddController(fx.PrLvSense, fx.ControlFunc(func(cc fx.ControlContext) error {
		require.Zero(t, cc.Messages().Len())
		return nil
	}))
	trans := &Transaction{Status: TransPending, Len: 2}
	loop.PostMessage(&Completion{Trans: trans, Data: []byte{4, 5}})
	loop.Step(context.Background())
	require.Equal(t, TransSucceeded, trans.Status)
}

func TestTransStatusString(t *testing.T) {
	require.Equal(t, "pending", TransPending.String())
	require.Equal(t, "TransStatus(9)", TransStatus(9).String())
}
