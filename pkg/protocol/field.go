package protocol

import (
	"fmt"
	"net/netip"
)

// FieldType is the one-byte data type code of an encoded field.
type FieldType uint8

const (
	TypeInt32       FieldType = 0
	TypeString      FieldType = 1
	TypeInt64       FieldType = 2
	TypeInt16       FieldType = 3
	TypeBinary      FieldType = 4
	TypeFloat64     FieldType = 5
	TypeUUID        FieldType = 6
	TypeInetAddress FieldType = 7
)

var fieldTypeNames = map[FieldType]string{
	TypeInt32:       "int32",
	TypeString:      "string",
	TypeInt64:       "int64",
	TypeInt16:       "int16",
	TypeBinary:      "binary",
	TypeFloat64:     "float64",
	TypeUUID:        "uuid",
	TypeInetAddress: "inet-address",
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// fixedSize returns the encoded value size of a fixed-width type, or -1 for
// variable-length types and unknown types.
func (t FieldType) fixedSize() int {
	switch t {
	case TypeInt16:
		return 2
	case TypeInt32:
		return 4
	case TypeInt64, TypeFloat64:
		return 8
	case TypeUUID:
		return 16
	case TypeInetAddress:
		return inetAddressSize
	}
	return -1
}

func (t FieldType) known() bool {
	_, ok := fieldTypeNames[t]
	return ok
}

const inetAddressSize = 18

// InetAddress is an IPv4 or IPv6 address with a prefix length. The zero
// value is the unspecified address.
type InetAddress struct {
	Addr netip.Addr
	Bits uint8
}

// HostAddress returns an InetAddress with the full host prefix for a.
func HostAddress(a netip.Addr) InetAddress {
	if !a.IsValid() {
		return InetAddress{}
	}
	return InetAddress{Addr: a, Bits: uint8(a.BitLen())}
}

// IsValid reports whether an address is set.
func (a InetAddress) IsValid() bool {
	return a.Addr.IsValid()
}

func (a InetAddress) String() string {
	if !a.Addr.IsValid() {
		return ""
	}
	if int(a.Bits) == a.Addr.BitLen() {
		return a.Addr.String()
	}
	return fmt.Sprintf("%s/%d", a.Addr, a.Bits)
}

// MarshalText implements encoding.TextMarshaler.
func (a InetAddress) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *InetAddress) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*a = InetAddress{}
		return nil
	}
	if p, err := netip.ParsePrefix(s); err == nil {
		*a = InetAddress{Addr: p.Addr(), Bits: uint8(p.Bits())}
		return nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return fmt.Errorf("protocol: invalid inet address %q: %w", s, err)
	}
	*a = HostAddress(addr)
	return nil
}

func (a InetAddress) encode() [inetAddressSize]byte {
	var out [inetAddressSize]byte
	switch {
	case a.Addr.Is4():
		out[0] = 4
		out[1] = a.Bits
		v4 := a.Addr.As4()
		copy(out[2:], v4[:])
	case a.Addr.Is6():
		out[0] = 6
		out[1] = a.Bits
		v6 := a.Addr.As16()
		copy(out[2:], v6[:])
	}
	return out
}

func decodeInetAddress(p []byte) (InetAddress, error) {
	switch p[0] {
	case 0:
		return InetAddress{}, nil
	case 4:
		if p[1] > 32 {
			return InetAddress{}, fmt.Errorf("ipv4 prefix length %d", p[1])
		}
		return InetAddress{Addr: netip.AddrFrom4([4]byte(p[2:6])), Bits: p[1]}, nil
	case 6:
		if p[1] > 128 {
			return InetAddress{}, fmt.Errorf("ipv6 prefix length %d", p[1])
		}
		return InetAddress{Addr: netip.AddrFrom16([16]byte(p[2:18])), Bits: p[1]}, nil
	}
	return InetAddress{}, fmt.Errorf("address family %d", p[0])
}

// Field is one tagged, typed value of a Message. Value holds int16, int32,
// int64, float64, string, []byte, uuid.UUID or InetAddress according to
// Type.
type Field struct {
	Tag   uint32
	Type  FieldType
	Value any
}
