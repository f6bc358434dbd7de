package compression

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ffmpegFrameSource decodes a video file into raw RGBA frames over a stdout
// pipe. When width/height are set, decoding scales to those dimensions;
// otherwise frames come out at native resolution.
type ffmpegFrameSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *logBuffer
	pool   *framePool

	width, height int
	frameRate     int
	frameTimeout  time.Duration
	started       bool
	stalled       atomic.Bool
}

type frameSourceConfig struct {
	FFmpegPath   string
	SourcePath   string
	Width        int // 0 = native
	Height       int
	FrameRate    int
	FrameTimeout time.Duration
}

func newFFmpegFrameSource(cfg frameSourceConfig) (*ffmpegFrameSource, error) {
	args := []string{"-hide_banner", "-i", cfg.SourcePath}
	if cfg.Width > 0 && cfg.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", cfg.Width, cfg.Height))
	}
	args = append(args,
		"-r", strconv.Itoa(cfg.FrameRate),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)

	cmd := exec.Command(cfg.FFmpegPath, args...)
	stderr := &logBuffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("decoder stdout pipe: %w", err)
	}

	return &ffmpegFrameSource{
		cmd:          cmd,
		stdout:       stdout,
		stderr:       stderr,
		width:        cfg.Width,
		height:       cfg.Height,
		frameRate:    cfg.FrameRate,
		frameTimeout: cfg.FrameTimeout,
	}, nil
}

// start launches the decoder lazily so construction stays cheap. The frame
// size must be known by now; native-resolution sources set it via setNative.
func (s *ffmpegFrameSource) start() error {
	if s.width <= 0 || s.height <= 0 {
		return errors.New("frame dimensions not set")
	}
	s.pool = newFramePool(s.width * s.height * 4)
	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start decoder: %w", err)
	}
	s.started = true
	return nil
}

// setNative records the native frame dimensions for sources decoding without
// a scale filter.
func (s *ffmpegFrameSource) setNative(width, height int) {
	if s.width == 0 {
		s.width = width
		s.height = height
	}
}

// Next reads one frame from the decoder. A stalled decoder (no bytes within
// the frame timeout) is killed and reported as a read error, never as a clean
// end of stream: the kill makes the pipe return EOF, and treating that as
// end-of-stream would let a truncated output finalize as a success.
func (s *ffmpegFrameSource) Next(ctx context.Context) (*Frame, error) {
	if !s.started {
		if err := s.start(); err != nil {
			return nil, err
		}
	}

	buf := s.pool.get()

	var watchdog *time.Timer
	if s.frameTimeout > 0 {
		watchdog = time.AfterFunc(s.frameTimeout, func() {
			// The flag must be visible before the read unblocks. Closing
			// stdout unblocks it immediately; the kill alone would leave the
			// read waiting on any surviving child still holding the pipe.
			s.stalled.Store(true)
			if s.cmd.Process != nil {
				_ = s.cmd.Process.Kill()
			}
			_ = s.stdout.Close()
		})
	}

	n, err := io.ReadFull(s.stdout, buf)
	if watchdog != nil {
		watchdog.Stop()
	}

	if err != nil {
		s.pool.put(buf)
		if s.stalled.Load() {
			return nil, fmt.Errorf("decoder stalled: no frame within %s (ffmpeg: %s)", s.frameTimeout, s.stderr.tail())
		}
		if n == 0 && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w (ffmpeg: %s)", err, s.stderr.tail())
	}

	return &Frame{Width: s.width, Height: s.height, Pix: buf}, nil
}

func (s *ffmpegFrameSource) Release(f *Frame) {
	if f != nil && f.Pix != nil {
		s.pool.put(f.Pix)
	}
}

func (s *ffmpegFrameSource) Close() error {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.stdout.Close()
	if s.started {
		_ = s.cmd.Wait()
	}
	return nil
}

// ffmpegFrameSink encodes raw RGBA frames piped to an ffmpeg process.
type ffmpegFrameSink struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    *logBuffer
	outPath   string
	started   bool
	finalized bool
}

type frameSinkConfig struct {
	FFmpegPath string
	OutPath    string
	Plan       EncodePlan
	// CodecArgs selects the encoder, e.g. ["-c:v", "libvpx", "-f", "webm"].
	CodecArgs []string
}

// keyframeInterval is the closed GOP length: every 30th frame is a keyframe.
const keyframeInterval = 30

func newFFmpegFrameSink(cfg frameSinkConfig) (*ffmpegFrameSink, error) {
	args := []string{
		"-hide_banner",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", cfg.Plan.Width, cfg.Plan.Height),
		"-r", strconv.Itoa(cfg.Plan.FrameRate),
		"-i", "pipe:0",
	}
	args = append(args, cfg.CodecArgs...)
	args = append(args,
		"-b:v", strconv.Itoa(cfg.Plan.Bitrate),
		"-g", strconv.Itoa(keyframeInterval),
		"-y",
		cfg.OutPath,
	)

	cmd := exec.Command(cfg.FFmpegPath, args...)
	stderr := &logBuffer{}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("encoder stdin pipe: %w", err)
	}

	return &ffmpegFrameSink{
		cmd:     cmd,
		stdin:   stdin,
		stderr:  stderr,
		outPath: cfg.OutPath,
	}, nil
}

func (s *ffmpegFrameSink) Write(ctx context.Context, f *Frame) error {
	if !s.started {
		if err := s.cmd.Start(); err != nil {
			return fmt.Errorf("start encoder: %w", err)
		}
		s.started = true
	}

	if _, err := s.stdin.Write(f.Pix); err != nil {
		return fmt.Errorf("write frame %d: %w (ffmpeg: %s)", f.Index, err, s.stderr.tail())
	}
	return nil
}

// Finalize flushes the encoder by closing its input and waiting for it to
// drain. Called exactly once on the success path.
func (s *ffmpegFrameSink) Finalize(ctx context.Context) (string, error) {
	if s.finalized {
		return s.outPath, nil
	}
	s.finalized = true

	if !s.started {
		return "", errors.New("no frames were encoded")
	}

	_ = s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return "", fmt.Errorf("encoder exit: %w (ffmpeg: %s)", err, s.stderr.tail())
	}
	return s.outPath, nil
}

func (s *ffmpegFrameSink) Close() error {
	if s.finalized || !s.started {
		return nil
	}
	_ = s.stdin.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.finalized = true
	return nil
}

// logBuffer collects a child process's stderr. os/exec copies into it from
// its own goroutine for the life of the process, so every access is locked.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// tail returns the last few hundred bytes, which is where ffmpeg puts the
// actionable message.
func (b *logBuffer) tail() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	const max = 400
	s := b.buf.String()
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
