// Package flatfile stores an ordered sequence of records as one text file,
// one record per line.
//
// The store assumes a single writer in a single process. No locking is
// taken; concurrent writers race and may lose updates.
package flatfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrStorageIO wraps every failure to reach or write the backing file.
var ErrStorageIO = errors.New("flat file storage unavailable")

// Codec converts a record to and from one line of text.
type Codec[T any] interface {
	Encode(item T) string
	Decode(line string) (T, error)
}

// ReadResult is the outcome of ReadAll. Items holds every decoded record in
// file order; Skipped counts the non-blank lines that failed to decode.
type ReadResult[T any] struct {
	Items        []T
	Skipped      int
	SkippedLines []int // 1-based line numbers
}

// Complete reports whether every non-blank line decoded.
func (r ReadResult[T]) Complete() bool { return r.Skipped == 0 }

// Store is a whole-file, line-oriented store for records of type T.
type Store[T any] struct {
	path   string
	codec  Codec[T]
	logger *slog.Logger
	perm   os.FileMode
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger *slog.Logger
	perm   os.FileMode
}

// WithLogger sets the logger used for skipped-line warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPerm sets the permission bits of a newly created backing file. An
// existing file keeps its own mode.
func WithPerm(perm os.FileMode) Option {
	return func(o *options) { o.perm = perm }
}

// New creates a store backed by path. The parent directory and an empty file
// are created when missing; calling New on an existing file leaves it as is.
func New[T any](path string, codec Codec[T], opts ...Option) (*Store[T], error) {
	o := options{logger: slog.Default(), perm: 0o644}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[T]{path: path, codec: codec, logger: o.logger, perm: o.perm}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

func (s *Store[T]) ensureFile() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create directory %s: %v", ErrStorageIO, dir, err)
		}
	}
	if info, err := os.Stat(s.path); err == nil {
		s.perm = info.Mode().Perm()
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_RDONLY|os.O_CREATE, s.perm)
	if err != nil {
		return fmt.Errorf("%w: create file %s: %v", ErrStorageIO, s.path, err)
	}
	return f.Close()
}

// ReadAll decodes every non-blank line. Lines that fail to decode are
// skipped and counted; an empty or entirely corrupt file yields an empty,
// non-nil Items slice and no error. Only I/O failures are returned.
func (s *Store[T]) ReadAll() (ReadResult[T], error) {
	res := ReadResult[T]{Items: []T{}}

	f, err := os.Open(s.path)
	if err != nil {
		return res, fmt.Errorf("%w: open %s: %v", ErrStorageIO, s.path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	n := 0
	for {
		raw, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return res, fmt.Errorf("%w: read %s: %v", ErrStorageIO, s.path, err)
		}
		if raw == "" && err != nil {
			break
		}
		n++
		line := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
		if n == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) != "" {
			s.decodeLine(&res, n, line)
		}
		if err != nil {
			break
		}
	}
	return res, nil
}

func (s *Store[T]) decodeLine(res *ReadResult[T], n int, line string) {
	item, err := s.codec.Decode(line)
	if err != nil {
		res.Skipped++
		res.SkippedLines = append(res.SkippedLines, n)
		s.logger.Warn("Skipping unreadable line",
			"path", s.path,
			"line", n,
			"error", err)
		return
	}
	res.Items = append(res.Items, item)
}

// WriteAll replaces the file content with items, in order. The new content
// is written to a temporary file in the same directory, synced and renamed
// over the target, so a failed write never leaves a truncated file behind.
func (s *Store[T]) WriteAll(items []T) error {
	var buf bytes.Buffer
	for _, item := range items {
		buf.WriteString(s.codec.Encode(item))
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrStorageIO, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		cleanup()
		return fmt.Errorf("%w: write %s: %v", ErrStorageIO, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: sync %s: %v", ErrStorageIO, tmpName, err)
	}
	if err := tmp.Chmod(s.perm); err != nil {
		cleanup()
		return fmt.Errorf("%w: chmod %s: %v", ErrStorageIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrStorageIO, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", ErrStorageIO, s.path, err)
	}
	return nil
}
