package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteMessage encodes m with c and writes the frame to w.
func WriteMessage(w io.Writer, c Codec, m *Message) error {
	frame, err := c.Encode(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("protocol: write %s: %w", CommandName(m.Code), err)
	}
	return nil
}

// ReadMessage reads exactly one frame from r. It returns io.EOF when r is
// exhausted cleanly before a header.
func ReadMessage(r io.Reader, c Codec) (*Message, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	total, err := c.checkLength(hdr[:])
	if err != nil {
		return nil, err
	}
	frame := make([]byte, total)
	copy(frame, hdr[:])
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("protocol: read %s body: %w", CommandName(binary.BigEndian.Uint16(hdr[4:])), err)
	}
	return c.Decode(frame)
}
