package env

import (
	"strings"

	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/i2c"
	"github.com/robotalks/teraranger/pkg/i2c/periph"
	"github.com/robotalks/teraranger/pkg/i2c/sim"
	"github.com/robotalks/teraranger/pkg/teraranger"
)

// SimDevice selects the simulated bus.
const SimDevice = "sim"

// Bus is an I2C bus that runs in the loop.
type Bus interface {
	i2c.Bus
	fx.LoopAdder
}

// OpenBus opens the bus named by device. "sim" and "sim:<name>" create a
// simulated bus with a sensor attached at addr.
func OpenBus(device string, addr uint8) (Bus, error) {
	if device == SimDevice || strings.HasPrefix(device, SimDevice+":") {
		name := strings.TrimPrefix(strings.TrimPrefix(device, SimDevice), ":")
		if name == "" {
			name = "0"
		}
		return sim.New(name).Attach(addr, teraranger.NewSimSensor(1)), nil
	}
	bus, err := periph.Open(device)
	if err != nil {
		return nil, err
	}
	return bus, nil
}
