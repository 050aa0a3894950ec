// Package device defines how a driver registers itself and how remote
// consumers reach it.
package device

import (
	"context"

	fx "github.com/robotalks/teraranger/pkg/framework"
)

// Registrar announces a device and carries its events.
type Registrar interface {
	// SendEvent sends an event to remote consumers.
	SendEvent(context.Context, fx.Message) error
}

// Command is a received command waiting for a reply.
type Command interface {
	Msg() fx.Message
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a loop Message.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// Ref identifies a device instance.
type Ref struct {
	// Type is the driver type.
	Type string
	// ID is unique among devices of the same type.
	ID string
}

// Name is the topic path of the device.
func (r Ref) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates both fields are set.
func (r Ref) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// Meta is published when a device registers.
type Meta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// Info describes a registered device.
type Info struct {
	Ref  Ref
	Meta Meta
}

// Connector is used by consumers to reach devices.
type Connector interface {
	// Discover enumerates registered devices.
	Discover(context.Context) ([]Info, error)
	// Connect connects to the specified device.
	Connect(context.Context, Ref) (Conn, error)
}

// Conn is a connection to a device.
type Conn interface {
	// DoCommand sends a command.
	DoCommand(fx.Message) CommandFuture
}

// Result represents result of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture is the future of a sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}
