package protocol

import (
	"fmt"

	"github.com/google/uuid"
)

// Message is a decoded or to-be-encoded NXCP message: a command code, a
// request id used to correlate replies, header flags, and a set of fields
// keyed by tag. Setting a tag twice replaces the earlier value, so tags are
// unique within a message. Fields keep insertion order.
type Message struct {
	Code  uint16
	Flags uint16
	ID    uint32

	fields []Field
	index  map[uint32]int
}

// NewMessage returns an empty message with the given command code and
// request id.
func NewMessage(code uint16, id uint32) *Message {
	return &Message{Code: code, ID: id}
}

// NewReply returns an empty message with code that answers req.
func NewReply(req *Message, code uint16) *Message {
	return NewMessage(code, req.ID)
}

func (m *Message) set(tag uint32, typ FieldType, v any) {
	if m.index == nil {
		m.index = make(map[uint32]int)
	}
	if i, ok := m.index[tag]; ok {
		m.fields[i] = Field{Tag: tag, Type: typ, Value: v}
		return
	}
	m.index[tag] = len(m.fields)
	m.fields = append(m.fields, Field{Tag: tag, Type: typ, Value: v})
}

// add appends a decoded field; it reports false on a duplicate tag.
func (m *Message) add(f Field) bool {
	if _, dup := m.index[f.Tag]; dup {
		return false
	}
	m.set(f.Tag, f.Type, f.Value)
	return true
}

// SetInt16 sets a 16-bit integer field.
func (m *Message) SetInt16(tag uint32, v int16) { m.set(tag, TypeInt16, v) }

// SetInt32 sets a 32-bit integer field.
func (m *Message) SetInt32(tag uint32, v int32) { m.set(tag, TypeInt32, v) }

// SetUint32 sets a 32-bit integer field from an unsigned value.
func (m *Message) SetUint32(tag uint32, v uint32) { m.set(tag, TypeInt32, int32(v)) }

// SetInt64 sets a 64-bit integer field.
func (m *Message) SetInt64(tag uint32, v int64) { m.set(tag, TypeInt64, v) }

// SetUint64 sets a 64-bit integer field from an unsigned value.
func (m *Message) SetUint64(tag uint32, v uint64) { m.set(tag, TypeInt64, int64(v)) }

// SetBool sets a boolean, encoded as a 16-bit 0/1.
func (m *Message) SetBool(tag uint32, v bool) {
	var i int16
	if v {
		i = 1
	}
	m.set(tag, TypeInt16, i)
}

// SetFloat64 sets a floating point field.
func (m *Message) SetFloat64(tag uint32, v float64) { m.set(tag, TypeFloat64, v) }

// SetString sets a UTF-8 string field.
func (m *Message) SetString(tag uint32, v string) { m.set(tag, TypeString, v) }

// SetBinary sets an opaque byte field. The slice is copied.
func (m *Message) SetBinary(tag uint32, v []byte) {
	m.set(tag, TypeBinary, append([]byte(nil), v...))
}

// SetUUID sets a UUID field.
func (m *Message) SetUUID(tag uint32, v uuid.UUID) { m.set(tag, TypeUUID, v) }

// SetInetAddress sets an address field.
func (m *Message) SetInetAddress(tag uint32, v InetAddress) { m.set(tag, TypeInetAddress, v) }

// Field returns the field with tag.
func (m *Message) Field(tag uint32) (Field, bool) {
	i, ok := m.index[tag]
	if !ok {
		return Field{}, false
	}
	return m.fields[i], true
}

// Has reports whether the message carries tag.
func (m *Message) Has(tag uint32) bool {
	_, ok := m.index[tag]
	return ok
}

// Len returns the number of fields.
func (m *Message) Len() int {
	return len(m.fields)
}

// Fields returns the fields in insertion (or wire) order.
func (m *Message) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

// GetInt64 returns an integer field widened to int64 with sign extension.
// Absent or non-integer fields read as 0.
func (m *Message) GetInt64(tag uint32) int64 {
	f, ok := m.Field(tag)
	if !ok {
		return 0
	}
	switch v := f.Value.(type) {
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

// GetUint64 returns an integer field widened to uint64 with zero extension.
func (m *Message) GetUint64(tag uint32) uint64 {
	f, ok := m.Field(tag)
	if !ok {
		return 0
	}
	switch v := f.Value.(type) {
	case int16:
		return uint64(uint16(v))
	case int32:
		return uint64(uint32(v))
	case int64:
		return uint64(v)
	}
	return 0
}

// GetInt32 returns an integer field truncated to 32 bits.
func (m *Message) GetInt32(tag uint32) int32 { return int32(m.GetInt64(tag)) }

// GetUint32 returns an integer field as an unsigned 32-bit value.
func (m *Message) GetUint32(tag uint32) uint32 { return uint32(m.GetUint64(tag)) }

// GetInt16 returns an integer field truncated to 16 bits.
func (m *Message) GetInt16(tag uint32) int16 { return int16(m.GetInt64(tag)) }

// GetBool reports whether an integer field is non-zero.
func (m *Message) GetBool(tag uint32) bool { return m.GetInt64(tag) != 0 }

// GetFloat64 returns a floating point field; integer fields are converted.
func (m *Message) GetFloat64(tag uint32) float64 {
	f, ok := m.Field(tag)
	if !ok {
		return 0
	}
	if v, ok := f.Value.(float64); ok {
		return v
	}
	return float64(m.GetInt64(tag))
}

// GetString returns a string field, or "" when absent.
func (m *Message) GetString(tag uint32) string {
	f, _ := m.Field(tag)
	s, _ := f.Value.(string)
	return s
}

// GetBinary returns an opaque byte field, or nil when absent.
func (m *Message) GetBinary(tag uint32) []byte {
	f, _ := m.Field(tag)
	p, _ := f.Value.([]byte)
	return p
}

// GetUUID returns a UUID field, or uuid.Nil when absent.
func (m *Message) GetUUID(tag uint32) uuid.UUID {
	f, _ := m.Field(tag)
	u, _ := f.Value.(uuid.UUID)
	return u
}

// GetInetAddress returns an address field, or the zero InetAddress when
// absent.
func (m *Message) GetInetAddress(tag uint32) InetAddress {
	f, _ := m.Field(tag)
	a, _ := f.Value.(InetAddress)
	return a
}

func (m *Message) String() string {
	return fmt.Sprintf("%s id=%d flags=0x%04X fields=%d", CommandName(m.Code), m.ID, m.Flags, len(m.fields))
}
