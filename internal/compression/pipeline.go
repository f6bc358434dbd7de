package compression

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// pipeline drives frames from a source through an optional filter into a
// sink. One pipeline processes exactly one request; it owns no state beyond
// the current frame.
//
// Termination: end-of-stream or plan.TotalFrames source frames, whichever
// comes first. Finalization happens exactly once on the success path.
type pipeline struct {
	src      FrameSource
	sink     FrameSink
	plan     EncodePlan
	stride   int
	filter   FrameFilter
	progress ProgressFunc
}

// run executes the frame loop and returns the finalized output path.
func (p *pipeline) run(ctx context.Context) (string, error) {
	defer p.src.Close()

	stride := p.stride
	if stride < 1 {
		stride = 1
	}
	total := p.plan.TotalFrames
	if total < 1 {
		total = 1
	}

	read := 0
	encoded := 0
	for read < total {
		// Cancellation is checked once per frame so encoder resources are
		// released promptly instead of at end-of-stream.
		select {
		case <-ctx.Done():
			_ = p.sink.Close()
			return "", fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
		default:
		}

		frame, err := p.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = p.sink.Close()
			return "", &DecodeError{Err: err}
		}

		read++
		if (read-1)%stride != 0 {
			p.src.Release(frame)
			continue
		}

		decoded := frame
		if p.filter != nil {
			frame = p.filter(frame)
		}
		frame.Index = encoded
		frame.PTS = int64(encoded) * 1_000_000 / int64(p.plan.FrameRate)

		werr := p.sink.Write(ctx, frame)
		// The decoded buffer is a bounded resource: return it every
		// iteration, whether or not submission succeeded.
		p.src.Release(decoded)
		if werr != nil {
			_ = p.sink.Close()
			return "", &EncodeError{Err: werr}
		}
		encoded++

		if p.progress != nil {
			p.progress(float64(read) / float64(total) * 100)
		}
	}

	out, err := p.sink.Finalize(ctx)
	if err != nil {
		return "", &EncodeError{Err: err}
	}
	return out, nil
}
