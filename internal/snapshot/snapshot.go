// Package snapshot implements whole-store export/import: a single
// compressed tar archive of the permanent FST tree, for operators moving a
// store between machines in one artifact rather than one bucket at a time.
//
// This is a supplemented feature, not a replacement for internal/dump:
// Backup/Restore remain the format-stable, per-bucket text path; Export/
// Import is a separate convenience that archives the raw .fst files and
// does not use the dump format.
//
// Grounded on rockyardkv's checkpoint.go/backup.go (which assemble a
// transportable directory tree by walking every live sstable) and on
// internal/compression, the teacher's own block-codec package, reused here
// as a whole-archive codec instead of a per-block one.
package snapshot

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/aalhour/graphfst/internal/compression"
	"github.com/aalhour/graphfst/internal/logging"
	"github.com/aalhour/graphfst/internal/pathresolver"
	"github.com/aalhour/graphfst/internal/vfs"
)

// magic identifies a graphfst snapshot archive, written before the codec
// byte and uncompressed-size field so Import can refuse anything else.
var magic = [4]byte{'g', 'f', 's', 't'}

// header is the fixed-size preamble written before the compressed payload:
// magic (4 bytes), codec (1 byte), uncompressed size (8 bytes, big-endian).
// The size is required to decompress LZ4 raw blocks correctly.
const headerSize = 4 + 1 + 8

// Export tars every permanent ".fst" file under root and compresses the
// archive with codec, writing the result to dest via an atomic rename.
func Export(fs vfs.FS, resolver *pathresolver.Resolver, root, dest string, codec compression.Type, logger logging.Logger) error {
	logger = logging.OrDefault(logger)
	if !codec.IsSupported() {
		return fmt.Errorf("snapshot: unsupported codec %s", codec)
	}

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)

	collections, err := fs.ListDir(root)
	if err != nil {
		return fmt.Errorf("snapshot: list %s: %w", root, err)
	}
	var fileCount int
	for _, collDir := range collections {
		dir := filepath.Join(root, collDir)
		entries, err := fs.ListDir(dir)
		if err != nil {
			return fmt.Errorf("snapshot: list %s: %w", dir, err)
		}
		for _, name := range entries {
			if !pathresolver.IsPermanentName(name) {
				continue
			}
			path := filepath.Join(dir, name)
			data, err := readAll(fs, path)
			if err != nil {
				return fmt.Errorf("snapshot: read %s: %w", path, err)
			}
			archivedName := filepath.ToSlash(filepath.Join(collDir, name))
			if err := tw.WriteHeader(&tar.Header{Name: archivedName, Size: int64(len(data)), Mode: 0o644}); err != nil {
				return fmt.Errorf("snapshot: tar header %s: %w", archivedName, err)
			}
			if _, err := tw.Write(data); err != nil {
				return fmt.Errorf("snapshot: tar write %s: %w", archivedName, err)
			}
			fileCount++
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("snapshot: close tar writer: %w", err)
	}

	uncompressed := tarBuf.Bytes()
	compressed, err := compression.Compress(codec, uncompressed)
	if err != nil {
		return fmt.Errorf("snapshot: compress with %s: %w", codec, err)
	}

	var out bytes.Buffer
	out.Write(magic[:])
	out.WriteByte(byte(codec))
	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(len(uncompressed)))
	out.Write(sizeBuf[:])
	out.Write(compressed)

	if err := atomic.WriteFile(dest, &out); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", dest, err)
	}
	logger.Infof("%sexported %d file(s) from %s to %s (%s, %d -> %d bytes)",
		logging.NSSnapshot, fileCount, root, dest, codec, len(uncompressed), len(compressed))
	return nil
}

// Import reverses Export: it reads the archive at src, decompresses it, and
// writes every entry under destRoot, recreating the "<hex_collection>/
// <hex_bucket>.fst" layout.
func Import(fs vfs.FS, src, destRoot string, logger logging.Logger) error {
	logger = logging.OrDefault(logger)

	raw, err := readAll(fs, src)
	if err != nil {
		return fmt.Errorf("snapshot: read %s: %w", src, err)
	}
	if len(raw) < headerSize {
		return fmt.Errorf("snapshot: %s is too short to be a snapshot archive", src)
	}
	if !bytes.Equal(raw[:4], magic[:]) {
		return fmt.Errorf("snapshot: %s is not a graphfst snapshot archive", src)
	}
	codec := compression.Type(raw[4])
	uncompressedSize := binary.BigEndian.Uint64(raw[5:13])
	payload := raw[headerSize:]

	tarBytes, err := compression.DecompressWithSize(codec, payload, int(uncompressedSize))
	if err != nil {
		return fmt.Errorf("snapshot: decompress with %s: %w", codec, err)
	}

	tr := tar.NewReader(bytes.NewReader(tarBytes))
	var fileCount int
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("snapshot: read tar entry: %w", err)
		}
		destPath, err := safeJoin(destRoot, hdr.Name)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if err := fs.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("snapshot: mkdir %s: %w", filepath.Dir(destPath), err)
		}
		f, err := fs.Create(destPath)
		if err != nil {
			return fmt.Errorf("snapshot: create %s: %w", destPath, err)
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return fmt.Errorf("snapshot: write %s: %w", destPath, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("snapshot: close %s: %w", destPath, err)
		}
		fileCount++
	}
	logger.Infof("%simported %d file(s) from %s into %s", logging.NSSnapshot, fileCount, src, destRoot)
	return nil
}

// safeJoin joins root and name, refusing any tar entry that would escape
// root via ".." path segments.
func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(filepath.Join(root, name))
	if clean != root && !strings.HasPrefix(clean, root+string(filepath.Separator)) {
		return "", fmt.Errorf("tar entry %q escapes archive root", name)
	}
	return clean, nil
}

func readAll(fs vfs.FS, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
