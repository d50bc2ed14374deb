package appenders

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"treelog"
)

// FileOptions configures a file appender.
type FileOptions struct {
	Path   string
	Layout treelog.Layout
	// Truncate replaces the file instead of appending to it.
	Truncate bool
	// Encoding names the on-disk text encoding: "" or "utf-8" (native),
	// "utf-16le", "utf-16be", or "latin-1".
	Encoding string
	// Exclusive takes a cross-process advisory lock next to the file so two
	// processes cannot interleave writes into the same log. NewFile fails
	// when another process already holds the lock.
	Exclusive bool
	// Perm is the mode for a newly created file. Default 0o644.
	Perm os.FileMode
}

// File writes rendered events to a log file, optionally re-encoded and
// guarded by a cross-process lock. File owns the handle and closes it.
type File struct {
	name   string
	layout treelog.Layout
	path   string

	mu   sync.Mutex
	file *os.File
	w    io.Writer
	enc  *transform.Writer
	lock *flock.Flock

	threshold *treelog.Level
}

// NewFile opens (creating directories as needed) the log file described by
// opts and returns the appender.
func NewFile(name string, opts FileOptions) (*File, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("file appender: path is required")
	}
	if opts.Layout == nil {
		return nil, errors.New("file appender: layout is required")
	}
	enc, err := resolveEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}

	var lock *flock.Flock
	if opts.Exclusive {
		lock = flock.New(opts.Path + ".lock")
		held, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock log file %s: %w", opts.Path, err)
		}
		if !held {
			return nil, fmt.Errorf("log file %s is locked by another process", opts.Path)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if opts.Truncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(opts.Path, flags, perm)
	if err != nil {
		if lock != nil {
			_ = lock.Unlock()
		}
		return nil, fmt.Errorf("open log file %s: %w", opts.Path, err)
	}

	a := &File{name: name, layout: opts.Layout, path: opts.Path, file: f, w: f, lock: lock}
	if enc != nil {
		a.enc = transform.NewWriter(f, enc.NewEncoder())
		a.w = a.enc
	}
	return a, nil
}

// Name implements treelog.Appender.
func (a *File) Name() string { return a.name }

// Path returns the log file path.
func (a *File) Path() string { return a.path }

// SetThreshold rejects events below level at this sink only.
func (a *File) SetThreshold(level treelog.Level) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lv := level
	a.threshold = &lv
}

// Append implements treelog.Appender.
func (a *File) Append(e *treelog.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return fmt.Errorf("file appender %s: already closed", a.name)
	}
	if a.threshold != nil && !e.Level.IsGreaterOrEqual(*a.threshold) {
		return nil
	}
	if _, err := io.WriteString(a.w, a.layout.Render(e)); err != nil {
		return fmt.Errorf("write event to %s: %w", a.path, err)
	}
	return nil
}

// Close flushes any pending encoder state, closes the file, and releases the
// cross-process lock when one was taken.
func (a *File) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	var errs []error
	if a.enc != nil {
		if err := a.enc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("flush encoder for %s: %w", a.path, err))
		}
	}
	if err := a.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log file %s: %w", a.path, err))
	}
	a.file = nil
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("unlock log file %s: %w", a.path, err))
		}
	}
	return errors.Join(errs...)
}

func resolveEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16le", "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be", "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	}
	return nil, fmt.Errorf("file appender: unsupported encoding %q", name)
}
