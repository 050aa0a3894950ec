package teraranger

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// SimSensor answers reads like a TeraRanger One measuring a synthetic
// distance. It implements sim.Responder.
type SimSensor struct {
	// Profile gives the distance in meters at t since start.
	Profile func(t time.Duration) float64
	// CorruptRate is the probability a frame has a bad checksum.
	CorruptRate float64
	// OutOfRangeRate is the probability a frame reports 0.
	OutOfRangeRate float64

	start time.Time
	rnd   *rand.Rand
	lock  sync.Mutex
}

// NewSimSensor creates a sensor oscillating between 0.5m and 2.5m.
func NewSimSensor(seed int64) *SimSensor {
	return &SimSensor{
		Profile: func(t time.Duration) float64 {
			return 1.5 + math.Sin(t.Seconds()*2*math.Pi/10)
		},
		start: time.Now(),
		rnd:   rand.New(rand.NewSource(seed)),
	}
}

// Respond implements sim.Responder.
func (s *SimSensor) Respond(addr uint8, n int) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	var raw uint16
	if s.OutOfRangeRate <= 0 || s.rnd.Float64() >= s.OutOfRangeRate {
		raw = rawOf(s.Profile(time.Since(s.start)))
	}
	f := EncodeFrame(raw)
	if s.CorruptRate > 0 && s.rnd.Float64() < s.CorruptRate {
		f[2] ^= 0xff
	}
	out := make([]byte, n)
	copy(out, f[:])
	return out, nil
}

// rawOf converts meters to the sensor code, clamped to the valid range.
func rawOf(m float64) uint16 {
	mm := math.Round(m * 1000)
	switch {
	case mm < 1:
		return 1
	case mm > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(mm)
}
