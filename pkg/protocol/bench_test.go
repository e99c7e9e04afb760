package protocol

import (
	"fmt"
	"math/rand"
	"testing"
)

// --------------------------------------------------------------------------
// Encode / decode benchmarks
// --------------------------------------------------------------------------

func objectMessage(children int) *Message {
	m := NewMessage(CmdObject, 1)
	m.SetUint64(TagObjectID, 100)
	m.SetString(TagObjectName, "edge-router-01")
	m.SetInt16(TagObjectClass, 2)
	m.SetInt16(TagObjectStatus, 0)
	m.SetString(TagComments, "rack 4, row B")
	m.SetUint32(TagChildCount, uint32(children))
	for i := 0; i < children; i++ {
		m.SetUint64(TagChildIDBase+uint32(i), uint64(1000+i))
	}
	return m
}

func BenchmarkEncodeObject(b *testing.B) {
	for _, n := range []int{0, 100, 10000} {
		b.Run(fmt.Sprintf("children=%d", n), func(b *testing.B) {
			c := DefaultCodec()
			m := objectMessage(n)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				frame, err := c.Encode(m)
				if err != nil {
					b.Fatal(err)
				}
				b.SetBytes(int64(len(frame)))
			}
		})
	}
}

func BenchmarkDecodeObject(b *testing.B) {
	c := DefaultCodec()
	frame, err := c.Encode(objectMessage(100))
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(frame)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Decode(frame); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeCompressed(b *testing.B) {
	c := Codec{MaxFrameSize: DefaultMaxFrameSize, CompressThreshold: 256}
	m := NewMessage(CmdObject, 1)
	data := make([]byte, 64<<10)
	rng := rand.New(rand.NewSource(42))
	for i := range data {
		data[i] = byte('a' + rng.Intn(4))
	}
	m.SetBinary(TagPolicyConfig, data)
	frame, err := c.Encode(m)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Decode(frame); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecoderStream(b *testing.B) {
	c := DefaultCodec()
	frame, _ := c.Encode(objectMessage(10))
	d := NewDecoder(c)
	b.SetBytes(int64(len(frame)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.Feed(frame[:7])
		d.Feed(frame[7:])
		if m, err := d.Next(); err != nil || m == nil {
			b.Fatalf("Next = %v, %v", m, err)
		}
	}
}
