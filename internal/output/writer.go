package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrDeclined is returned when an existing file was kept.
var ErrDeclined = errors.New("overwrite declined")

// Writer writes generated documents, creating parent directories and
// consulting Policy before replacing an existing file.
type Writer struct {
	Policy OverwritePolicy
}

// Write renders doc and stores it at path. Rendering happens before the file
// is touched, so a failing document leaves any previous output in place.
func (w Writer) Write(path string, doc io.WriterTo) error {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	if _, err := os.Stat(path); err == nil {
		policy := w.Policy
		if policy == nil {
			policy = Always
		}
		ok, err := policy.ShouldOverwrite(path)
		if err != nil {
			return fmt.Errorf("failed to confirm overwrite of %s: %w", path, err)
		}
		if !ok {
			slog.Info("Keeping existing file", "path", path)
			return fmt.Errorf("%s: %w", path, ErrDeclined)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Info("Wrote file", "path", path, "bytes", buf.Len())
	return nil
}
