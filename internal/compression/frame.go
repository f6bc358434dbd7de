package compression

import (
	"context"
	"sync"
)

// Frame is one decoded RGBA raster. Pix is pooled: the pipeline returns it to
// the owning source immediately after the frame is submitted to the sink,
// regardless of submission outcome.
type Frame struct {
	Index  int
	PTS    int64 // microseconds
	Width  int
	Height int
	Pix    []byte // RGBA, len = Width*Height*4
}

// FrameSource produces decoded frames. Next returns io.EOF when the stream
// ends. Buffers handed out by Next must be returned via Release.
type FrameSource interface {
	Next(ctx context.Context) (*Frame, error)
	Release(f *Frame)
	Close() error
}

// FrameSink consumes processed frames and assembles the encoded output.
// Finalize flushes the encoder exactly once and returns the output path.
type FrameSink interface {
	Write(ctx context.Context, f *Frame) error
	Finalize(ctx context.Context) (string, error)
	// Close aborts without finalizing; safe to call after Finalize.
	Close() error
}

// FrameFilter mutates a frame in place before encoding and may replace the
// raster (the filtered executor resizes here). Returns the frame to encode.
type FrameFilter func(f *Frame) *Frame

// ProgressFunc receives a completion percentage in [0,100].
type ProgressFunc func(percent float64)

// framePool reuses RGBA buffers of a fixed size.
type framePool struct {
	pool sync.Pool
	size int
}

func newFramePool(size int) *framePool {
	return &framePool{
		pool: sync.Pool{New: func() any { return make([]byte, size) }},
		size: size,
	}
}

func (p *framePool) get() []byte {
	return p.pool.Get().([]byte)
}

func (p *framePool) put(buf []byte) {
	if len(buf) == p.size {
		p.pool.Put(buf)
	}
}
