package teraranger

import (
	"bytes"
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/teraranger/pkg/crc8"
)

func TestEncodeFrame(t *testing.T) {
	f := EncodeFrame(1000)
	require.Equal(t, [FrameLen]byte{0x03, 0xe8, 0xa9}, f)
	for _, raw := range []uint16{0, 1, 2000, 14000, 0xffff} {
		f := EncodeFrame(raw)
		decoded, ok := DecodeFrame(f[:])
		require.True(t, ok)
		require.Equal(t, raw, decoded)
	}
}

func TestDecodeFrameRejects(t *testing.T) {
	_, ok := DecodeFrame([]byte{0x03, 0xe8})
	require.False(t, ok)
	_, ok = DecodeFrame([]byte{0x03, 0xe8, 0xff})
	require.False(t, ok)
}

func TestSimSensor(t *testing.T) {
	s := NewSimSensor(1)
	s.Profile = func(time.Duration) float64 { return 1.234 }
	data, err := s.Respond(DefaultAddr, FrameLen)
	require.NoError(t, err)
	raw, ok := DecodeFrame(data)
	require.True(t, ok)
	require.Equal(t, uint16(1234), raw)

	s.CorruptRate = 1
	data, err = s.Respond(DefaultAddr, FrameLen)
	require.NoError(t, err)
	require.False(t, crc8.Valid(data))

	s.CorruptRate, s.OutOfRangeRate = 0, 1
	data, err = s.Respond(DefaultAddr, FrameLen)
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte{0, 0, 0}, data))
}

func TestRawOfClamps(t *testing.T) {
	require.Equal(t, uint16(1), rawOf(-1))
	require.Equal(t, uint16(0xffff), rawOf(100))
	require.Equal(t, uint16(500), rawOf(0.5))
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name  string
		apply func(*Config)
		valid bool
	}{
		{"ok", func(c *Config) { c.Device = "sim" }, true},
		{"no device", func(c *Config) {}, false},
		{"zero freq", func(c *Config) { c.Device, c.Frequency = "sim", 0 }, false},
		{"negative telemetry", func(c *Config) { c.Device, c.TelemetryPeriod = "sim", -time.Second }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.apply(conf)
			if tc.valid {
				require.NoError(t, conf.Validate())
			} else {
				require.Error(t, conf.Validate())
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, DefaultAddr, conf.Addr)
	require.True(t, conf.UseAGL)
	require.Equal(t, 50*time.Millisecond, conf.PollPeriod())
	require.Equal(t, time.Second, conf.TelemetryPeriod)
}

func TestByteFlag(t *testing.T) {
	var addr uint8
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var((*byteValue)(&addr), "addr", "")
	require.NoError(t, fs.Parse([]string{"-addr", "0x62"}))
	require.Equal(t, uint8(0x62), addr)
	require.Error(t, fs.Parse([]string{"-addr", "0x100"}))
}
