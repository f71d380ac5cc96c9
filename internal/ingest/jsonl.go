package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cheggaaa/pb/v3"

	"kinemetry/internal/pose"
)

// FileSource reads one frame per line from a JSONL recording.
type FileSource struct {
	file    *os.File
	scanner *bufio.Scanner
	logger  *slog.Logger
	bar     *pb.ProgressBar
	stats   Stats
}

// FileOptions tunes recorded-session ingestion.
type FileOptions struct {
	// Progress renders a terminal progress bar sized by line count.
	Progress bool

	// MaxLineBytes caps one frame line; detector output with all landmarks
	// fits comfortably under the 1 MiB default.
	MaxLineBytes int
}

// OpenFile opens a JSONL recording for sequential reading.
func OpenFile(path string, opts FileOptions, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}

	var bar *pb.ProgressBar
	if opts.Progress {
		total, err := countLines(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("count recording lines: %w", err)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("rewind recording: %w", err)
		}
		bar = pb.StartNew(total)
	}

	maxLine := opts.MaxLineBytes
	if maxLine <= 0 {
		maxLine = 1 << 20
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	return &FileSource{
		file:    f,
		scanner: scanner,
		logger:  logger.With("component", "ingest", "recording", path),
		bar:     bar,
	}, nil
}

// Next returns the next well-formed frame, skipping malformed lines. It
// returns io.EOF at end of file.
func (s *FileSource) Next(ctx context.Context) (*pose.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read recording: %w", err)
			}
			return nil, io.EOF
		}
		if s.bar != nil {
			s.bar.Increment()
		}
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame, err := decodeFrame(line)
		if err != nil {
			s.stats.Malformed++
			s.logger.Warn("skipping malformed frame", "error", err, "line", s.stats.Decoded+s.stats.Malformed)
			continue
		}
		s.stats.Decoded++
		return frame, nil
	}
}

// Stats returns decode counters for the lines consumed so far.
func (s *FileSource) Stats() Stats { return s.stats }

// Landmarks reports the full-body vocabulary; recordings carry whatever
// the capture-time detector produced, validated frame by frame.
func (s *FileSource) Landmarks() []pose.Landmark { return pose.AllLandmarks }

// Close finishes the progress bar and releases the file.
func (s *FileSource) Close() error {
	if s.bar != nil {
		s.bar.Finish()
	}
	return s.file.Close()
}

func countLines(f *os.File) (int, error) {
	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
