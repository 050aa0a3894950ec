package env

import (
	"fmt"
	"log"
	"strconv"

	"github.com/golang/glog"

	"github.com/robotalks/teraranger/pkg/abi"
	"github.com/robotalks/teraranger/pkg/comm"
	"github.com/robotalks/teraranger/pkg/comm/mqtt"
	"github.com/robotalks/teraranger/pkg/comm/websocket"
	"github.com/robotalks/teraranger/pkg/device"
	"github.com/robotalks/teraranger/pkg/downlink"
	fx "github.com/robotalks/teraranger/pkg/framework"
	"github.com/robotalks/teraranger/pkg/teraranger"
)

// Env is the assembled daemon.
type Env struct {
	Config    *Config
	Bus       Bus
	ABI       *abi.Bus
	Driver    *teraranger.Driver
	Downlink  *downlink.Downlink
	Registrar *comm.RegistrarMux
}

// Info is the device info announced to registries.
func (c *Config) Info() device.Info {
	return device.Info{
		Ref: device.Ref{Type: c.Type, ID: c.ID},
		Meta: device.Meta{
			Description: c.Description,
			Labels: map[string]string{
				"device": c.TeraRanger.Device,
				"addr":   "0x" + strconv.FormatUint(uint64(c.TeraRanger.Addr), 16),
			},
		},
	}
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	env := &Env{
		Config:    c,
		ABI:       &abi.Bus{},
		Registrar: &comm.RegistrarMux{},
	}
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info())
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		env.Registrar.Add(reg)
	}
	if c.WebsocketAddr != "" {
		env.Registrar.Add(websocket.NewServer(c.WebsocketAddr))
	}
	if len(env.Registrar.Registrars) == 0 {
		return nil, fmt.Errorf("at least one registrar is required")
	}

	bus, err := OpenBus(c.TeraRanger.Device, c.TeraRanger.Addr)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v", c.TeraRanger.Device, err)
	}
	env.Bus = bus
	if env.Driver, err = teraranger.New(c.TeraRanger, bus, env.ABI); err != nil {
		return nil, err
	}
	env.Downlink = downlink.New(env.Registrar, downlink.DefaultQueueSize)
	env.Driver.Telemetry = env.Downlink
	env.ABI.BindAGL(abi.BroadcastID, env.Downlink)
	glog.Infof("%s on %s addr 0x%02x", c.Info().Ref.Name(), c.TeraRanger.Device, c.TeraRanger.Addr)
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// AddToLoop adds controllers/runners to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	if period := e.Config.TeraRanger.PollPeriod(); period < loop.Interval {
		loop.Interval = period
	}
	loop.Add(e.Bus, e.Driver, e.Downlink, e.Registrar)
	loop.Add(&comm.UnsupportedCommands{})
}
