package fetch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/patricktcoakley/gdvm-sub001/internal/progress"
)

// Sink receives the body of one download. Begin is called before every
// attempt with the announced content length (-1 when unknown) and must
// discard anything written by a previous attempt.
type Sink interface {
	Write(p []byte) (int, error)
	Begin(total int64) error
}

// BufferSink collects a body in memory.
type BufferSink struct {
	buf bytes.Buffer
}

// Begin discards any previous content.
func (s *BufferSink) Begin(int64) error {
	s.buf.Reset()
	return nil
}

func (s *BufferSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Bytes returns the collected body.
func (s *BufferSink) Bytes() []byte {
	return s.buf.Bytes()
}

// FileSink writes a body to "<path>.tmp" and moves it to path on Commit, so
// a partial download never appears under the final name.
type FileSink struct {
	fs   afero.Fs
	path string
	file afero.File
}

// NewFileSink returns a sink for path on fs.
func NewFileSink(fs afero.Fs, path string) *FileSink {
	return &FileSink{fs: fs, path: path}
}

// Path is the final destination.
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) tmpPath() string {
	return s.path + ".tmp"
}

// Begin truncates the temporary file.
func (s *FileSink) Begin(int64) error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	f, err := s.fs.OpenFile(s.tmpPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	s.file = f
	return nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	if s.file == nil {
		return 0, fmt.Errorf("write %s: sink not started", s.path)
	}
	return s.file.Write(p)
}

// Commit closes the temporary file and renames it into place.
func (s *FileSink) Commit() error {
	if s.file == nil {
		return fmt.Errorf("commit %s: nothing downloaded", s.path)
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Rename(s.tmpPath(), s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Abort closes and removes the temporary file.
func (s *FileSink) Abort() {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	_ = s.fs.Remove(s.tmpPath())
}

// MeteredSink forwards to another sink and feeds a progress.Meter.
type MeteredSink struct {
	Sink
	meter *progress.Meter
}

// NewMeteredSink wraps inner.
func NewMeteredSink(inner Sink, meter *progress.Meter) *MeteredSink {
	return &MeteredSink{Sink: inner, meter: meter}
}

// Begin resets the meter and the inner sink.
func (s *MeteredSink) Begin(total int64) error {
	s.meter.Reset(total)
	return s.Sink.Begin(total)
}

func (s *MeteredSink) Write(p []byte) (int, error) {
	n, err := s.Sink.Write(p)
	if n > 0 {
		s.meter.Add(n)
	}
	return n, err
}
