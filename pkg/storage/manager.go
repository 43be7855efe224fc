package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"lucidaflow/pkg/errors"
)

// DefaultChunkSize is the read size used when streaming a body to disk
const DefaultChunkSize = 8192

// partSuffix marks a file that is still being written
const partSuffix = ".part"

// filePerm is applied to a completed download before it is moved into place
const filePerm = 0644

// Manager writes downloaded audio under an output directory.
// Files are streamed to a uniquely named sibling "<name>.*.part" and renamed
// into place only once complete, so the destination never holds a partial file
// and concurrent saves to the same name do not share a temporary file.
type Manager struct {
	outputDir string
	chunkSize int
	saved     atomic.Int64
}

// NewManager creates a storage manager; the directory is created lazily on first save
func NewManager(outputDir string, chunkSize int) *Manager {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Manager{
		outputDir: outputDir,
		chunkSize: chunkSize,
	}
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of files this manager completed
func (m *Manager) GetSavedCount() int64 {
	return m.saved.Load()
}

// Resolve picks the destination for a download: the caller's path when given,
// otherwise filename inside the output directory
func (m *Manager) Resolve(outputPath, filename string) string {
	if outputPath != "" {
		return outputPath
	}
	return filepath.Join(m.outputDir, filename)
}

// Confine resolves outputPath against the output directory and rejects paths
// that would land outside it. An empty outputPath is returned unchanged.
func (m *Manager) Confine(outputPath string) (string, error) {
	if outputPath == "" {
		return "", nil
	}

	root, err := filepath.Abs(m.outputDir)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeLocalIO, err, "failed to resolve download directory")
	}

	target := filepath.Clean(outputPath)
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New(errors.ErrorTypeValidation, 0, "output path must be inside the download directory")
	}
	return target, nil
}

// Save streams r to dest in fixed-size chunks and returns the number of bytes written.
// Read failures are reported as network errors and filesystem failures as local I/O
// errors. On any failure, including ctx cancellation, nothing is left at dest.
func (m *Manager) Save(ctx context.Context, r io.Reader, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, errors.Wrap(errors.ErrorTypeLocalIO, err, "failed to create directory")
	}

	out, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*"+partSuffix)
	if err != nil {
		return 0, errors.Wrap(errors.ErrorTypeLocalIO, err, "failed to create file")
	}
	tempFile := out.Name()

	written, copyErr := m.copyChunks(ctx, out, r)
	if copyErr == nil {
		if err := out.Chmod(filePerm); err != nil {
			copyErr = errors.Wrap(errors.ErrorTypeLocalIO, err, "failed to set file mode")
		}
	}
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(tempFile)
		return 0, copyErr
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, errors.Wrap(errors.ErrorTypeLocalIO, closeErr, "failed to close file")
	}

	if err := os.Rename(tempFile, dest); err != nil {
		os.Remove(tempFile)
		return 0, errors.Wrap(errors.ErrorTypeLocalIO, err, "failed to move file into place")
	}

	m.saved.Add(1)
	return written, nil
}

func (m *Manager) copyChunks(ctx context.Context, w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, m.chunkSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, errors.Wrap(errors.ErrorTypeNetwork, err, "download interrupted")
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return written, errors.Wrap(errors.ErrorTypeLocalIO, err, "file write error")
			}
			written += int64(n)
		}

		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return written, errors.Wrap(errors.ErrorTypeNetwork, ctxErr, "download interrupted")
			}
			return written, errors.Wrap(errors.ErrorTypeNetwork, readErr, "network error while reading body")
		}
	}
}
