// graphdump backs up and restores a graphfst store's permanent FST tree.
//
// Usage:
//
//	graphdump backup  --path <store-root> --dest <backup-dir>
//	graphdump restore --path <store-root> --src  <backup-dir>
//	graphdump export  --path <store-root> --dest <snapshot-file> [--codec snappy|zstd|lz4]
//	graphdump import  --src <snapshot-file> --dest <store-root>
package main

import (
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/aalhour/graphfst"
	"github.com/aalhour/graphfst/internal/compression"
	"github.com/aalhour/graphfst/internal/pathresolver"
	"github.com/aalhour/graphfst/internal/snapshot"
	"github.com/aalhour/graphfst/internal/vfs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "graphdump: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return errors.New("missing subcommand")
	}

	switch args[0] {
	case "backup":
		return runBackup(args[1:])
	case "restore":
		return runRestore(args[1:])
	case "export":
		return runExport(args[1:])
	case "import":
		return runImport(args[1:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  graphdump backup  --path <store-root> --dest <backup-dir>")
	fmt.Fprintln(os.Stderr, "  graphdump restore --path <store-root> --src  <backup-dir>")
	fmt.Fprintln(os.Stderr, "  graphdump export  --path <store-root> --dest <snapshot-file> [--codec name]")
	fmt.Fprintln(os.Stderr, "  graphdump import  --src <snapshot-file> --dest <store-root>")
}

func runBackup(args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	path := fs.String("path", "", "store root directory")
	dest := fs.String("dest", "", "backup output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *dest == "" {
		return errors.New("backup requires -path and -dest")
	}

	cfg := graphfst.DefaultConfig()
	cfg.Path = *path
	store := graphfst.OpenDefault(cfg)

	if err := store.Backup(vfs.Default(), *dest); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	fmt.Printf("backed up %s -> %s\n", *path, *dest)
	return nil
}

func runRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	path := fs.String("path", "", "store root directory")
	src := fs.String("src", "", "backup source directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *src == "" {
		return errors.New("restore requires -path and -src")
	}

	cfg := graphfst.DefaultConfig()
	cfg.Path = *path
	store := graphfst.OpenDefault(cfg)

	if err := store.Restore(vfs.Default(), *src); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	fmt.Printf("restored %s -> %s\n", *src, *path)
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	path := fs.String("path", "", "store root directory")
	dest := fs.String("dest", "", "snapshot file path")
	codecName := fs.String("codec", "zstd", "compression codec: none, snappy, zlib, lz4, lz4hc, zstd")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" || *dest == "" {
		return errors.New("export requires -path and -dest")
	}

	codec, err := parseCodec(*codecName)
	if err != nil {
		return err
	}

	resolver := pathresolver.New(*path)
	if err := snapshot.Export(vfs.Default(), resolver, *path, *dest, codec, nil); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Printf("exported %s -> %s (%s)\n", *path, *dest, codec)
	return nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	src := fs.String("src", "", "snapshot file path")
	dest := fs.String("dest", "", "store root directory to populate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *src == "" || *dest == "" {
		return errors.New("import requires -src and -dest")
	}

	if err := snapshot.Import(vfs.Default(), *src, *dest, nil); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Printf("imported %s -> %s\n", *src, *dest)
	return nil
}

func parseCodec(name string) (compression.Type, error) {
	switch name {
	case "none":
		return compression.NoCompression, nil
	case "snappy":
		return compression.SnappyCompression, nil
	case "zlib":
		return compression.ZlibCompression, nil
	case "lz4":
		return compression.LZ4Compression, nil
	case "lz4hc":
		return compression.LZ4HCCompression, nil
	case "zstd":
		return compression.ZstdCompression, nil
	default:
		return 0, fmt.Errorf("unsupported codec %q", name)
	}
}
