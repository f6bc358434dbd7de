package compression

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeStubDecoder writes an executable standing in for ffmpeg that prints
// the given shell body to stdout.
func writeStubDecoder(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub decoder scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "decoder.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub decoder: %v", err)
	}
	return path
}

func TestFrameSource_StalledDecoderIsAnError(t *testing.T) {
	// One 2x2 RGBA frame (16 bytes), then the decoder hangs.
	stub := writeStubDecoder(t, "head -c 16 /dev/zero\nexec sleep 60\n")

	src, err := newFFmpegFrameSource(frameSourceConfig{
		FFmpegPath:   stub,
		SourcePath:   "in.mp4",
		Width:        2,
		Height:       2,
		FrameRate:    30,
		FrameTimeout: 300 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("newFFmpegFrameSource() error: %v", err)
	}
	defer src.Close()

	frame, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() first frame error: %v", err)
	}
	if len(frame.Pix) != 16 {
		t.Fatalf("first frame has %d bytes, want 16", len(frame.Pix))
	}
	src.Release(frame)

	start := time.Now()
	_, err = src.Next(context.Background())
	if err == nil {
		t.Fatal("Next() after decoder stopped producing = nil error, want failure")
	}
	if errors.Is(err, io.EOF) {
		t.Fatalf("Next() after stall = io.EOF; a killed decoder must not read as a clean end of stream")
	}
	if !strings.Contains(err.Error(), "stalled") {
		t.Errorf("Next() error = %v, want a stall report", err)
	}
	// The watchdog has to unblock the read itself rather than wait out the
	// full sleep in the stub.
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("stalled Next() took %v to return", elapsed)
	}
}

func TestFrameSource_CleanEndOfStream(t *testing.T) {
	stub := writeStubDecoder(t, "head -c 16 /dev/zero\n")

	src, err := newFFmpegFrameSource(frameSourceConfig{
		FFmpegPath:   stub,
		SourcePath:   "in.mp4",
		Width:        2,
		Height:       2,
		FrameRate:    30,
		FrameTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("newFFmpegFrameSource() error: %v", err)
	}
	defer src.Close()

	frame, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() first frame error: %v", err)
	}
	src.Release(frame)

	if _, err := src.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after decoder exit = %v, want io.EOF", err)
	}
}
