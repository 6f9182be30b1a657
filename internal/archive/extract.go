// Package archive implements C1: decompressing the artist and
// release-group XZ archives to on-disk NDJSON, and opening the release
// archive as a stream that is never materialized to disk.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ulikunitz/xz"
)

// memberPrefix is the directory MusicBrainz dumps store their single
// NDJSON member under.
const memberPrefix = "mbdump"

// Extract decompresses the single NDJSON member of a .tar.xz archive to
// destPath. If destPath already exists and is non-empty, it does nothing
// (idempotent per spec.md §4.1). If an attempt fails, destPath is removed
// and the extraction is retried once before the error is surfaced as fatal.
func Extract(logger arbor.ILogger, archivePath, entity, destPath string) error {
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		logger.Debug().Str("dest", destPath).Msg("extraction already present, skipping")
		return nil
	}

	if err := extractOnce(archivePath, entity, destPath); err != nil {
		logger.Warn().Err(err).Str("archive", archivePath).Msg("extraction failed, retrying once")
		os.Remove(destPath)
		if err2 := extractOnce(archivePath, entity, destPath); err2 != nil {
			return fmt.Errorf("extract %s: failed twice, last error: %w", archivePath, err2)
		}
	}
	return nil
}

func extractOnce(archivePath, entity, destPath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return fmt.Errorf("corrupt xz stream in %s: %w", archivePath, err)
	}
	tr := tar.NewReader(xr)

	wantName := filepath.Join(memberPrefix, entity)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("member %s not found in %s", wantName, archivePath)
		}
		if err != nil {
			return fmt.Errorf("corrupt tar stream in %s: %w", archivePath, err)
		}
		if filepath.Clean(hdr.Name) != wantName {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("mkdir for %s: %w", destPath, err)
		}
		tmp := destPath + ".tmp"
		out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("create temp file %s: %w", tmp, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("write %s: %w", tmp, err)
		}
		if err := out.Sync(); err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("fsync %s: %w", tmp, err)
		}
		if err := out.Close(); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("close %s: %w", tmp, err)
		}
		if err := os.Rename(tmp, destPath); err != nil {
			return fmt.Errorf("rename %s to %s: %w", tmp, destPath, err)
		}
		return nil
	}
}

// streamReader closes the underlying archive file handle when the caller
// closes the tar member stream it wraps.
type streamReader struct {
	io.Reader
	file *os.File
}

func (s *streamReader) Close() error {
	return s.file.Close()
}

// OpenStream opens the single NDJSON member of a .tar.xz archive for
// streaming without ever writing a decompressed copy to disk. Used for the
// release archive, which is too large to materialize (spec.md §4.1).
func OpenStream(archivePath, entity string) (io.ReadCloser, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archivePath, err)
	}

	xr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("corrupt xz stream in %s: %w", archivePath, err)
	}
	tr := tar.NewReader(xr)

	wantName := filepath.Join(memberPrefix, entity)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			f.Close()
			return nil, fmt.Errorf("member %s not found in %s", wantName, archivePath)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("corrupt tar stream in %s: %w", archivePath, err)
		}
		if filepath.Clean(hdr.Name) == wantName {
			return &streamReader{Reader: tr, file: f}, nil
		}
	}
}
