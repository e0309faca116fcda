package etl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archiver moves fully processed source files into an archive
// directory. Callers invoke it only after Load reports success, so a
// crash mid-load never loses or duplicates the source input.
type Archiver struct {
	Dir string
}

func NewArchiver(dir string) *Archiver {
	return &Archiver{Dir: dir}
}

// Archive relocates path into the archive directory, keeping the base
// name. Returns the destination path.
func (a *Archiver) Archive(path string) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure archive dir: %w", err)
	}

	dst := filepath.Join(a.Dir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		// rename fails across filesystems; fall back to copy+remove
		if cerr := copyFile(path, dst); cerr != nil {
			return "", fmt.Errorf("archive %s: %w", path, cerr)
		}
		if rerr := os.Remove(path); rerr != nil {
			return "", fmt.Errorf("remove archived source: %w", rerr)
		}
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
