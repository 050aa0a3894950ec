// Package v1 holds the Go form of teraranger.proto.
//
// The structs carry golang/protobuf struct tags and are encoded by the
// reflection based table marshaler; keep field numbers in sync with the
// .proto file.
package v1

import (
	"github.com/golang/protobuf/proto"
)

// Typed is the envelope of every packet on the wire.
type Typed struct {
	TypeId               uint32   `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence             uint32   `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message              []byte   `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

// CommandOK replies a successful command.
type CommandOK struct {
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *CommandOK) Reset()         { *m = CommandOK{} }
func (m *CommandOK) String() string { return proto.CompactTextString(m) }
func (*CommandOK) ProtoMessage()    {}

// CommandErr replies a failed command.
type CommandErr struct {
	Message              string   `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *CommandErr) Reset()         { *m = CommandErr{} }
func (m *CommandErr) String() string { return proto.CompactTextString(m) }
func (*CommandErr) ProtoMessage()    {}

// SonarQuery requests the current reading.
type SonarQuery struct {
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *SonarQuery) Reset()         { *m = SonarQuery{} }
func (m *SonarQuery) String() string { return proto.CompactTextString(m) }
func (*SonarQuery) ProtoMessage()    {}

// SonarStatus replies SonarQuery.
type SonarStatus struct {
	Raw                  uint32   `protobuf:"varint,1,opt,name=raw,proto3" json:"raw,omitempty"`
	Distance             float32  `protobuf:"fixed32,2,opt,name=distance,proto3" json:"distance,omitempty"`
	Offset               float32  `protobuf:"fixed32,3,opt,name=offset,proto3" json:"offset,omitempty"`
	Available            bool     `protobuf:"varint,4,opt,name=available,proto3" json:"available,omitempty"`
	SenderId             uint32   `protobuf:"varint,5,opt,name=sender_id,json=senderId,proto3" json:"sender_id,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *SonarStatus) Reset()         { *m = SonarStatus{} }
func (m *SonarStatus) String() string { return proto.CompactTextString(m) }
func (*SonarStatus) ProtoMessage()    {}

// Sonar is the periodic telemetry report.
type Sonar struct {
	Raw                  uint32   `protobuf:"varint,1,opt,name=raw,proto3" json:"raw,omitempty"`
	Distance             float32  `protobuf:"fixed32,2,opt,name=distance,proto3" json:"distance,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Sonar) Reset()         { *m = Sonar{} }
func (m *Sonar) String() string { return proto.CompactTextString(m) }
func (*Sonar) ProtoMessage()    {}

// AGL is a published above-ground-level distance.
type AGL struct {
	SenderId             uint32   `protobuf:"varint,1,opt,name=sender_id,json=senderId,proto3" json:"sender_id,omitempty"`
	Stamp                uint32   `protobuf:"varint,2,opt,name=stamp,proto3" json:"stamp,omitempty"`
	Distance             float32  `protobuf:"fixed32,3,opt,name=distance,proto3" json:"distance,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *AGL) Reset()         { *m = AGL{} }
func (m *AGL) String() string { return proto.CompactTextString(m) }
func (*AGL) ProtoMessage()    {}
