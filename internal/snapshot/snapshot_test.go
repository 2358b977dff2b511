package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/aalhour/graphfst/internal/compression"
	"github.com/aalhour/graphfst/internal/pathresolver"
	"github.com/aalhour/graphfst/internal/vfs"
)

func seedPermanentFile(t *testing.T, fs vfs.FS, root, collection, bucket string, contents []byte) {
	t.Helper()
	dir := filepath.Join(root, collection)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	f, err := fs.Create(filepath.Join(dir, bucket+".fst"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write(contents); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func readBack(t *testing.T, fs vfs.FS, path string) []byte {
	t.Helper()
	data, err := readAll(fs, path)
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	return data
}

func testExportImport(t *testing.T, codec compression.Type) {
	fs := vfs.Default()
	root := t.TempDir()
	resolver := pathresolver.New(root)

	seedPermanentFile(t, fs, root, "aa", "11", []byte("term-payload-one"))
	seedPermanentFile(t, fs, root, "aa", "22", []byte("term-payload-two, a bit longer so compression has something to chew on"))
	seedPermanentFile(t, fs, root, "bb", "33", []byte("third bucket payload"))

	archive := filepath.Join(t.TempDir(), "snapshot.gfst")
	if err := Export(fs, resolver, root, archive, codec, nil); err != nil {
		t.Fatalf("Export(%s): %v", codec, err)
	}

	destRoot := t.TempDir()
	if err := Import(fs, archive, destRoot, nil); err != nil {
		t.Fatalf("Import(%s): %v", codec, err)
	}

	got := readBack(t, fs, filepath.Join(destRoot, "aa", "11.fst"))
	if string(got) != "term-payload-one" {
		t.Fatalf("aa/11.fst = %q, want %q", got, "term-payload-one")
	}
	got = readBack(t, fs, filepath.Join(destRoot, "aa", "22.fst"))
	if string(got) != "term-payload-two, a bit longer so compression has something to chew on" {
		t.Fatalf("aa/22.fst mismatch: %q", got)
	}
	got = readBack(t, fs, filepath.Join(destRoot, "bb", "33.fst"))
	if string(got) != "third bucket payload" {
		t.Fatalf("bb/33.fst mismatch: %q", got)
	}
}

func TestExportImportNoCompression(t *testing.T) {
	testExportImport(t, compression.NoCompression)
}

func TestExportImportSnappy(t *testing.T) {
	testExportImport(t, compression.SnappyCompression)
}

func TestExportImportLZ4(t *testing.T) {
	testExportImport(t, compression.LZ4Compression)
}

func TestExportImportZstd(t *testing.T) {
	testExportImport(t, compression.ZstdCompression)
}

func TestExportRejectsUnsupportedCodec(t *testing.T) {
	fs := vfs.Default()
	root := t.TempDir()
	resolver := pathresolver.New(root)
	archive := filepath.Join(t.TempDir(), "snapshot.gfst")
	if err := Export(fs, resolver, root, archive, compression.BZip2Compression, nil); err == nil {
		t.Fatalf("Export accepted an unsupported codec")
	}
}

func TestImportRejectsNonSnapshotFile(t *testing.T) {
	fs := vfs.Default()
	bogus := filepath.Join(t.TempDir(), "not-a-snapshot")
	f, err := fs.Create(bogus)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("definitely not a gfst archive")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	if err := Import(fs, bogus, t.TempDir(), nil); err == nil {
		t.Fatalf("Import accepted a non-snapshot file")
	}
}

func TestExportSkipsTemporaryAndBackupFiles(t *testing.T) {
	fs := vfs.Default()
	root := t.TempDir()
	resolver := pathresolver.New(root)
	dir := filepath.Join(root, "aa")
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, name := range []string{"11.fst", "22.fst.tmp", "33.fst.bck", "44.fst.chk"} {
		f, err := fs.Create(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		f.Close()
	}

	archive := filepath.Join(t.TempDir(), "snapshot.gfst")
	if err := Export(fs, resolver, root, archive, compression.NoCompression, nil); err != nil {
		t.Fatalf("Export: %v", err)
	}

	destRoot := t.TempDir()
	if err := Import(fs, archive, destRoot, nil); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if fs.Exists(filepath.Join(destRoot, "aa", "11.fst")) == false {
		t.Fatalf("expected 11.fst to be imported")
	}
	for _, name := range []string{"22.fst.tmp", "33.fst.bck", "44.fst.chk"} {
		if fs.Exists(filepath.Join(destRoot, "aa", name)) {
			t.Fatalf("%s should not have been archived", name)
		}
	}
}
