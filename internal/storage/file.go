package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/glinharesb/sigflow/internal/sigerr"
)

// ReadPolicy decides what ReadAll does when a file cannot be read.
type ReadPolicy int

const (
	// ReadDegrade logs the failure and substitutes an empty byte slice.
	ReadDegrade ReadPolicy = iota
	// ReadPropagate returns the failure to the caller.
	ReadPropagate
)

func (p ReadPolicy) String() string {
	switch p {
	case ReadDegrade:
		return "degrade"
	case ReadPropagate:
		return "propagate"
	default:
		return "UNKNOWN"
	}
}

func ParseReadPolicy(s string) (ReadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "degrade":
		return ReadDegrade, nil
	case "propagate":
		return ReadPropagate, nil
	default:
		return 0, fmt.Errorf("%w: unknown read policy %q (want degrade or propagate)", sigerr.ErrInvalidArgument, s)
	}
}

// ReadAll returns the contents of path. Under ReadDegrade a failed read is
// logged and yields an empty, non-nil slice and a nil error.
func ReadAll(path string, policy ReadPolicy) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if policy == ReadPropagate {
		return nil, fmt.Errorf("%w: read %s: %w", sigerr.ErrIOFailure, path, err)
	}
	slog.Error("read failed, continuing with empty data", "path", path, "error", err)
	return []byte{}, nil
}

// WriteFile streams write into a temp file next to path, then atomically
// renames it over path. The temp file is removed on failure.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return fmt.Errorf("%w: empty path", sigerr.ErrMissingSink)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: create dir: %w", sigerr.ErrIOFailure, err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", sigerr.ErrIOFailure, err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	err = write(f)
	if cerr := f.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: close temp file: %w", sigerr.ErrIOFailure, cerr))
	}
	if err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: atomic rename: %w", sigerr.ErrIOFailure, err)
	}
	return nil
}

// ReadFile opens path, hands it to read and closes it on every path.
func ReadFile(path string, read func(io.Reader) error) (err error) {
	if path == "" {
		return fmt.Errorf("%w: empty path", sigerr.ErrMissingSource)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", sigerr.ErrIOFailure, path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return read(f)
}
