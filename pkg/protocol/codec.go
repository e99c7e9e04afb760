package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zlib"

	"github.com/fbuehrmann/netxms/pkg/nxcpbuf"
)

// Frame layout:
//
//	[4 bytes] total frame length, header included (big-endian uint32)
//	[2 bytes] command code
//	[2 bytes] flags
//	[4 bytes] request id
//	[N bytes] payload: a sequence of fields
//
// Field layout:
//
//	[4 bytes] tag
//	[1 byte]  type
//	[4 bytes] value length, only for string and binary
//	[M bytes] value
//
// A compressed payload is [4 bytes uncompressed length][zlib stream].
const HeaderSize = 12

// Header flags.
const (
	FlagCompressed    uint16 = 0x0001
	FlagEndOfSequence uint16 = 0x0002
)

const (
	DefaultMaxFrameSize = 4 << 20
	maxInflateRatio     = 16
)

// Codec encodes and decodes frames. The zero value has no frame size limit
// and never compresses; use DefaultCodec for sane limits. A Codec is
// immutable once in use and safe for concurrent use.
type Codec struct {
	MaxFrameSize      int // 0 disables the limit
	CompressThreshold int // payloads at least this long are compressed; 0 disables
	CompressLevel     int // zlib level; 0 selects zlib.DefaultCompression
}

// DefaultCodec returns a Codec with a 4 MiB frame limit and compression
// disabled.
func DefaultCodec() Codec {
	return Codec{MaxFrameSize: DefaultMaxFrameSize}
}

// Encode serializes m into a single frame.
func (c Codec) Encode(m *Message) ([]byte, error) {
	body := nxcpbuf.NewBuffer(64)
	for _, f := range m.fields {
		if err := encodeField(body, f); err != nil {
			return nil, err
		}
	}

	payload := body.Bytes()
	flags := m.Flags &^ FlagCompressed
	if c.CompressThreshold > 0 && len(payload) >= c.CompressThreshold {
		if z, err := c.compress(payload); err == nil && len(z) < len(payload) {
			payload = z
			flags |= FlagCompressed
		}
	}

	total := HeaderSize + len(payload)
	if c.MaxFrameSize > 0 && total > c.MaxFrameSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFrameTooLarge, CommandName(m.Code), total, c.MaxFrameSize)
	}

	out := nxcpbuf.NewBuffer(total)
	out.WriteUint32(uint32(total))
	out.WriteUint16(m.Code)
	out.WriteUint16(flags)
	out.WriteUint32(m.ID)
	out.WriteRaw(payload)
	return out.Bytes(), nil
}

func encodeField(b *nxcpbuf.Buffer, f Field) error {
	b.WriteUint32(f.Tag)
	b.WriteUint8(uint8(f.Type))
	switch v := f.Value.(type) {
	case int16:
		b.WriteUint16(uint16(v))
	case int32:
		b.WriteUint32(uint32(v))
	case int64:
		b.WriteUint64(uint64(v))
	case float64:
		b.WriteFloat64(v)
	case string:
		b.WriteString(v)
	case []byte:
		b.WriteBytes(v)
	case uuid.UUID:
		b.WriteRaw(v[:])
	case InetAddress:
		raw := v.encode()
		b.WriteRaw(raw[:])
	default:
		return fmt.Errorf("protocol: field 0x%X has unsupported value type %T", f.Tag, f.Value)
	}
	return nil
}

func (c Codec) compress(p []byte) ([]byte, error) {
	level := c.CompressLevel
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var out bytes.Buffer
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(p)))
	out.Write(size[:])
	zw, err := zlib.NewWriterLevel(&out, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(p); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Decode parses exactly one complete frame. A short input returns
// ErrIncompleteFrame; a malformed frame returns a *FramingError.
func (c Codec) Decode(frame []byte) (*Message, error) {
	m, n, err := c.decodeFrame(frame)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrIncompleteFrame
	}
	if n != len(frame) {
		return nil, &FramingError{Code: m.Code, Offset: n, Err: ErrTrailingData}
	}
	return m, nil
}

// checkLength validates the declared length of the frame starting at p,
// which must hold at least 4 bytes.
func (c Codec) checkLength(p []byte) (int, error) {
	total := binary.BigEndian.Uint32(p)
	if total < HeaderSize {
		return 0, &FramingError{Err: ErrFrameTooShort, Detail: fmt.Sprintf("declared length %d", total)}
	}
	if c.MaxFrameSize > 0 && uint64(total) > uint64(c.MaxFrameSize) {
		return 0, &FramingError{Err: ErrFrameTooLarge, Detail: fmt.Sprintf("declared length %d, limit %d", total, c.MaxFrameSize)}
	}
	return int(total), nil
}

// decodeFrame decodes the frame at the start of p. It returns n == 0 and no
// error when p does not yet hold the whole frame.
func (c Codec) decodeFrame(p []byte) (*Message, int, error) {
	if len(p) < 4 {
		return nil, 0, nil
	}
	total, err := c.checkLength(p)
	if err != nil {
		return nil, 0, err
	}
	if len(p) < total {
		return nil, 0, nil
	}

	r := nxcpbuf.NewReader(p[4:total])
	code, _ := r.ReadUint16()
	flags, _ := r.ReadUint16()
	id, _ := r.ReadUint32()
	payload, _ := r.ReadRaw(r.Remaining())

	m := NewMessage(code, id)
	m.Flags = flags
	if flags&FlagCompressed != 0 {
		payload, err = c.inflate(code, payload)
		if err != nil {
			return nil, 0, err
		}
	}
	if err := decodeFields(m, payload); err != nil {
		return nil, 0, err
	}
	return m, total, nil
}

func (c Codec) inflate(code uint16, p []byte) ([]byte, error) {
	if len(p) < 4 {
		return nil, &FramingError{Code: code, Offset: HeaderSize, Err: ErrDecompress, Detail: "missing uncompressed length"}
	}
	size := uint64(binary.BigEndian.Uint32(p))
	if c.MaxFrameSize > 0 && size > uint64(c.MaxFrameSize)*maxInflateRatio {
		return nil, &FramingError{Code: code, Offset: HeaderSize, Err: ErrDecompress, Detail: fmt.Sprintf("uncompressed length %d", size)}
	}
	zr, err := zlib.NewReader(bytes.NewReader(p[4:]))
	if err != nil {
		return nil, &FramingError{Code: code, Offset: HeaderSize + 4, Err: ErrDecompress, Detail: err.Error()}
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, int64(size)+1))
	if err != nil {
		return nil, &FramingError{Code: code, Offset: HeaderSize + 4, Err: ErrDecompress, Detail: err.Error()}
	}
	if uint64(len(out)) != size {
		return nil, &FramingError{Code: code, Offset: HeaderSize + 4, Err: ErrDecompress,
			Detail: fmt.Sprintf("inflated %d bytes, header says %d", len(out), size)}
	}
	return out, nil
}

func decodeFields(m *Message, payload []byte) error {
	r := nxcpbuf.NewReader(payload)
	for r.Remaining() > 0 {
		start := HeaderSize + r.Offset()
		tag, err := r.ReadUint32()
		if err != nil {
			return &FramingError{Code: m.Code, Offset: start, Err: ErrFieldOverrun, Detail: "truncated field header"}
		}
		t, err := r.ReadUint8()
		if err != nil {
			return &FramingError{Code: m.Code, Offset: start, Err: ErrFieldOverrun, Detail: "truncated field header"}
		}
		typ := FieldType(t)
		if !typ.known() {
			return &FramingError{Code: m.Code, Offset: start, Err: ErrUnknownFieldType, Detail: fmt.Sprintf("tag 0x%X type %d", tag, t)}
		}

		var raw []byte
		if size := typ.fixedSize(); size >= 0 {
			raw, err = r.ReadRaw(size)
		} else {
			raw, err = r.ReadBytes()
		}
		if err != nil {
			return &FramingError{Code: m.Code, Offset: start, Err: ErrFieldOverrun, Detail: fmt.Sprintf("tag 0x%X %s", tag, typ)}
		}

		f := Field{Tag: tag, Type: typ}
		switch typ {
		case TypeInt16:
			f.Value = int16(binary.BigEndian.Uint16(raw))
		case TypeInt32:
			f.Value = int32(binary.BigEndian.Uint32(raw))
		case TypeInt64:
			f.Value = int64(binary.BigEndian.Uint64(raw))
		case TypeFloat64:
			v, _ := nxcpbuf.NewReader(raw).ReadFloat64()
			f.Value = v
		case TypeString:
			f.Value = string(raw)
		case TypeBinary:
			f.Value = append([]byte(nil), raw...)
		case TypeUUID:
			f.Value = uuid.UUID(raw)
		case TypeInetAddress:
			a, err := decodeInetAddress(raw)
			if err != nil {
				return &FramingError{Code: m.Code, Offset: start, Err: ErrBadFieldValue, Detail: fmt.Sprintf("tag 0x%X: %v", tag, err)}
			}
			f.Value = a
		}
		if !m.add(f) {
			return &FramingError{Code: m.Code, Offset: start, Err: ErrDuplicateTag, Detail: fmt.Sprintf("tag 0x%X", tag)}
		}
	}
	return nil
}
