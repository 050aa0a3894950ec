package msgs

import (
	"errors"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/teraranger/pkg/framework"
	pb "github.com/robotalks/teraranger/pkg/proto/teraranger/v1"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
	pb.CommandOK
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return &m.CommandOK }

// CommandErr is the generic reply of a failed command.
type CommandErr struct {
	pb.CommandErr
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return &CommandErr{CommandErr: pb.CommandErr{Message: err.Error()}}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return &m.CommandErr }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// SonarQuery asks the driver for its current reading.
type SonarQuery struct {
	pb.SonarQuery
}

// NewMessage implements Message.
func (m *SonarQuery) NewMessage() fx.Message { return &SonarQuery{} }

// TypeID implements SerializableMessage.
func (m *SonarQuery) TypeID() uint32 { return SonarQueryTypeID }

// Serializable implements SerializableMessage.
func (m *SonarQuery) Serializable() proto.Message { return &m.SonarQuery }

// SonarStatus replies SonarQuery.
type SonarStatus struct {
	pb.SonarStatus
}

// NewMessage implements Message.
func (m *SonarStatus) NewMessage() fx.Message { return &SonarStatus{} }

// TypeID implements SerializableMessage.
func (m *SonarStatus) TypeID() uint32 { return SonarStatusTypeID }

// Serializable implements SerializableMessage.
func (m *SonarStatus) Serializable() proto.Message { return &m.SonarStatus }

// Sonar is the telemetry report of raw and processed range.
type Sonar struct {
	pb.Sonar
}

// NewMessage implements Message.
func (m *Sonar) NewMessage() fx.Message { return &Sonar{} }

// TypeID implements SerializableMessage.
func (m *Sonar) TypeID() uint32 { return SonarTypeID }

// Serializable implements SerializableMessage.
func (m *Sonar) Serializable() proto.Message { return &m.Sonar }

// AGL carries a published above-ground-level distance.
type AGL struct {
	pb.AGL
}

// NewMessage implements Message.
func (m *AGL) NewMessage() fx.Message { return &AGL{} }

// TypeID implements SerializableMessage.
func (m *AGL) TypeID() uint32 { return AGLTypeID }

// Serializable implements SerializableMessage.
func (m *AGL) Serializable() proto.Message { return &m.AGL }

// TypeID groups
const (
	GroupCommand uint32 = 0x00000000
	GroupRange   uint32 = 0x00030000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID   uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID  uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	SonarQueryTypeID  uint32 = GroupRange | 0x0000
	SonarStatusTypeID uint32 = SonarQueryTypeID | TypeIDMaskReply
	SonarTypeID       uint32 = TypeIDKindEvent | GroupRange | 0x0001
	AGLTypeID         uint32 = TypeIDKindEvent | GroupRange | 0x0002
)

var (
	// ErrUnsupportedCommand replies commands no controller handled.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

func init() {
	Register(
		(*CommandOK)(nil),
		(*CommandErr)(nil),
		(*SonarQuery)(nil),
		(*SonarStatus)(nil),
		(*Sonar)(nil),
		(*AGL)(nil),
	)
}
