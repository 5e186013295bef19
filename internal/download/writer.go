package download

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes tables in tab-delimited format. Rows are separated by a
// newline; no newline follows the last row, so the output equals Text.
type Writer struct {
	w    *bufio.Writer
	rows int
}

// NewWriter creates a new tab-delimited writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteRow writes a single row.
func (tw *Writer) WriteRow(row []string) error {
	if tw.rows > 0 {
		if err := tw.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	tw.rows++
	_, err := tw.w.WriteString(strings.Join(row, "\t"))
	return err
}

// WriteTable writes every row of t.
func (tw *Writer) WriteTable(t Table) error {
	for _, row := range t {
		if err := tw.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *Writer) Flush() error {
	return tw.w.Flush()
}

// FileName returns the download file name of a profile.
func FileName(profileName string) string {
	return profileName + ".txt"
}

// WriteFile writes t, transposed if requested, to dir/<profileName>.txt and
// returns the path.
func WriteFile(dir, profileName string, t Table, transposed bool) (string, error) {
	if transposed {
		t = Transpose(t)
	}

	path := filepath.Join(dir, FileName(profileName))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := NewWriter(f)
	if err := w.WriteTable(t); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
