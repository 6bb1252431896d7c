package archive

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// DecoderPool hands out zstd decoders for successive extractions. A
// decoder keeps its window buffers between streams.
type DecoderPool struct {
	opts  []zstd.DOption
	idle  sync.Pool
	fresh func(io.Reader) (*zstd.Decoder, error)
}

// NewDecoderPool returns a pool whose decoders allocate at most maxMemory
// bytes. Zero keeps the library limit.
func NewDecoderPool(maxMemory uint64) *DecoderPool {
	p := &DecoderPool{opts: decoderOptions(maxMemory)}
	p.fresh = func(r io.Reader) (*zstd.Decoder, error) {
		return zstd.NewReader(r, p.opts...)
	}
	return p
}

func decoderOptions(maxMemory uint64) []zstd.DOption {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if maxMemory > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(maxMemory))
	}
	return opts
}

// Get returns a decoder reading from r and a function that hands it back.
// The release function is nil when err is not.
func (p *DecoderPool) Get(r io.Reader) (*zstd.Decoder, func(), error) {
	if p == nil {
		dec, err := zstd.NewReader(r, decoderOptions(0)...)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	}

	if dec, ok := p.idle.Get().(*zstd.Decoder); ok {
		if err := dec.Reset(r); err == nil {
			return dec, func() { p.put(dec) }, nil
		}
		dec.Close()
	}

	dec, err := p.fresh(r)
	if err != nil {
		return nil, nil, err
	}
	return dec, func() { p.put(dec) }, nil
}

func (p *DecoderPool) put(dec *zstd.Decoder) {
	// Drop the reference to the finished stream before parking the decoder.
	if err := dec.Reset(nil); err != nil {
		dec.Close()
		return
	}
	p.idle.Put(dec)
}
