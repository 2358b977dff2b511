// Package dump implements format-independent text backup and restore for
// the permanent FST tree: one term per line, ascending byte-lexicographic
// order, written via natefinch/atomic so a crash mid-backup leaves either
// the previous ".fst.bck" or nothing, never a truncated one.
//
// Grounded on rockyardkv's checkpoint.go (walk every live sstable, copy its
// contents out to a destination directory under a consistent view) adapted
// from "copy sstable bytes" to "stream FST terms as text", and on
// internal/consolidate's builder-at-a-path pattern for the restore side.
package dump

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/aalhour/graphfst/internal/atom"
	"github.com/aalhour/graphfst/internal/fstset"
	"github.com/aalhour/graphfst/internal/logging"
	"github.com/aalhour/graphfst/internal/pathresolver"
	"github.com/aalhour/graphfst/internal/pool"
	"github.com/aalhour/graphfst/internal/vfs"
)

// Backup walks the permanent FST tree rooted at root and writes one
// "<dest>/<hex_collection>/<hex_bucket>.fst.bck" text file per bucket.
func Backup(fs vfs.FS, resolver *pathresolver.Resolver, root, dest string, logger logging.Logger) error {
	logger = logging.OrDefault(logger)

	collections, err := fs.ListDir(root)
	if err != nil {
		return fmt.Errorf("dump: list %s: %w", root, err)
	}

	for _, collDir := range collections {
		collAtom, err := atom.ParseHex(collDir)
		if err != nil {
			logger.Warnf("%sbackup: skipping non-collection entry %q: %v", logging.NSDump, collDir, err)
			continue
		}

		srcDir := resolver.CollectionDir(collAtom)
		entries, err := fs.ListDir(srcDir)
		if err != nil {
			return fmt.Errorf("dump: list %s: %w", srcDir, err)
		}

		for _, name := range entries {
			if !pathresolver.IsPermanentName(name) {
				continue
			}
			bucketHex := strings.TrimSuffix(name, ".fst")
			bucketAtom, err := atom.ParseHex(bucketHex)
			if err != nil {
				logger.Warnf("%sbackup: skipping non-bucket entry %q: %v", logging.NSDump, name, err)
				continue
			}
			key := atom.Key{Collection: collAtom, Bucket: bucketAtom}
			if err := backupOne(fs, resolver, key, dest); err != nil {
				return err
			}
			logger.Infof("%sbacked up %s", logging.NSDump, key)
		}
	}
	return nil
}

func backupOne(fs vfs.FS, resolver *pathresolver.Resolver, key atom.Key, dest string) error {
	permPath := resolver.BucketPath(pathresolver.Permanent, key.Collection, key.Bucket)
	set, err := fstset.Open(permPath)
	if err != nil {
		return fmt.Errorf("dump: open %s: %w", permPath, err)
	}
	defer set.Close()

	var buf bytes.Buffer
	var streamErr error
	if err := set.Stream(func(term []byte) bool {
		if _, err := buf.Write(term); err != nil {
			streamErr = err
			return false
		}
		if err := buf.WriteByte('\n'); err != nil {
			streamErr = err
			return false
		}
		return true
	}); err != nil {
		return fmt.Errorf("dump: stream %s: %w", permPath, err)
	}
	if streamErr != nil {
		return fmt.Errorf("dump: buffer %s: %w", permPath, streamErr)
	}

	destResolver := pathresolver.New(dest)
	destDir := destResolver.CollectionDir(key.Collection)
	if err := fs.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("dump: mkdir %s: %w", destDir, err)
	}
	destPath := destResolver.BucketPath(pathresolver.Backup, key.Collection, key.Bucket)
	if err := atomic.WriteFile(destPath, &buf); err != nil {
		return fmt.Errorf("dump: write %s: %w", destPath, err)
	}
	return nil
}

// Restore walks src for "<hex_collection>/<hex_bucket>.fst.bck" files and,
// for each, force-closes any live handle for the key, deletes any existing
// permanent file, and rebuilds the permanent FST from the backup's lines.
// Lines are assumed already sorted; an out-of-order line fails the builder
// and is reported, per the backup format's ordering guarantee.
func Restore(p *pool.Pool, fs vfs.FS, resolver *pathresolver.Resolver, src string, logger logging.Logger) error {
	logger = logging.OrDefault(logger)
	srcResolver := pathresolver.New(src)

	collections, err := fs.ListDir(src)
	if err != nil {
		return fmt.Errorf("dump: list %s: %w", src, err)
	}

	for _, collDir := range collections {
		collAtom, err := atom.ParseHex(collDir)
		if err != nil {
			logger.Warnf("%srestore: skipping non-collection entry %q: %v", logging.NSDump, collDir, err)
			continue
		}

		bckDir := srcResolver.CollectionDir(collAtom)
		entries, err := fs.ListDir(bckDir)
		if err != nil {
			return fmt.Errorf("dump: list %s: %w", bckDir, err)
		}

		for _, name := range entries {
			if !strings.HasSuffix(name, ".fst.bck") {
				continue
			}
			bucketHex := strings.TrimSuffix(name, ".fst.bck")
			bucketAtom, err := atom.ParseHex(bucketHex)
			if err != nil {
				logger.Warnf("%srestore: skipping non-bucket entry %q: %v", logging.NSDump, name, err)
				continue
			}
			key := atom.Key{Collection: collAtom, Bucket: bucketAtom}
			if err := restoreOne(p, fs, resolver, srcResolver, key); err != nil {
				return err
			}
			logger.Infof("%srestored %s", logging.NSDump, key)
		}
	}
	return nil
}

func restoreOne(p *pool.Pool, fs vfs.FS, resolver, srcResolver *pathresolver.Resolver, key atom.Key) error {
	if err := p.ForceClose(key); err != nil {
		return fmt.Errorf("dump: force-close %s: %w", key, err)
	}

	permPath := resolver.BucketPath(pathresolver.Permanent, key.Collection, key.Bucket)
	if fs.Exists(permPath) {
		if err := fs.Remove(permPath); err != nil {
			return fmt.Errorf("dump: remove %s: %w", permPath, err)
		}
	}

	bckPath := srcResolver.BucketPath(pathresolver.Backup, key.Collection, key.Bucket)
	bckFile, err := fs.Open(bckPath)
	if err != nil {
		return fmt.Errorf("dump: open %s: %w", bckPath, err)
	}
	defer bckFile.Close()

	dir := resolver.CollectionDir(key.Collection)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dump: mkdir %s: %w", dir, err)
	}
	permFile, err := fs.Create(permPath)
	if err != nil {
		return fmt.Errorf("dump: create %s: %w", permPath, err)
	}
	builder, err := fstset.NewBuilder(permFile)
	if err != nil {
		permFile.Close()
		return fmt.Errorf("dump: new builder: %w", err)
	}

	scanner := bufio.NewScanner(bckFile)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := builder.Insert([]byte(line)); err != nil {
			permFile.Close()
			return fmt.Errorf("dump: insert %q into %s: %w", line, permPath, err)
		}
	}
	if err := scanner.Err(); err != nil {
		permFile.Close()
		return fmt.Errorf("dump: scan %s: %w", bckPath, err)
	}
	if err := builder.Finish(); err != nil {
		permFile.Close()
		return fmt.Errorf("dump: finish builder for %s: %w", permPath, err)
	}
	if err := permFile.Close(); err != nil {
		return fmt.Errorf("dump: close %s: %w", permPath, err)
	}
	return nil
}
