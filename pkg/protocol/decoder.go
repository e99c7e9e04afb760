package protocol

// Decoder reassembles frames from an arbitrarily chunked byte stream.
// Bytes of a partial frame are retained until the rest arrives. After a
// framing error the decoder stays failed until Reset.
type Decoder struct {
	codec Codec
	data  []byte
	off   int
	err   error
}

// NewDecoder returns a Decoder that validates frames with c.
func NewDecoder(c Codec) *Decoder {
	return &Decoder{codec: c}
}

// Feed appends received bytes.
func (d *Decoder) Feed(p []byte) {
	if d.off > 0 {
		n := copy(d.data, d.data[d.off:])
		d.data = d.data[:n]
		d.off = 0
	}
	d.data = append(d.data, p...)
}

// Next returns the next complete message, or (nil, nil) when more bytes
// are needed.
func (d *Decoder) Next() (*Message, error) {
	if d.err != nil {
		return nil, d.err
	}
	m, n, err := d.codec.decodeFrame(d.data[d.off:])
	if err != nil {
		d.err = err
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	d.off += n
	if d.off == len(d.data) {
		d.data = d.data[:0]
		d.off = 0
	}
	return m, nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	return len(d.data) - d.off
}

// Reset discards buffered bytes and any sticky error, for reuse on a new
// connection.
func (d *Decoder) Reset() {
	d.data = d.data[:0]
	d.off = 0
	d.err = nil
}
