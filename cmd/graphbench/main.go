// graphbench measures push/suggest throughput against a graphfst store.
//
// Usage:
//
//	graphbench --path <store-root> --collection <name> --bucket <name> --count <n> [--prefix <p>]
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/aalhour/graphfst"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "graphbench: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("graphbench", flag.ExitOnError)
	path := fs.String("path", "graphfst-bench-data", "store root directory")
	collection := fs.String("collection", "bench", "collection name")
	bucket := fs.String("bucket", "default", "bucket name")
	count := fs.Int("count", 100000, "number of terms to push")
	prefix := fs.String("prefix", "term", "prefix for generated terms")
	seed := fs.Int64("seed", 1, "random seed for term generation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count <= 0 {
		return errors.New("count must be positive")
	}

	cfg := graphfst.DefaultConfig()
	cfg.Path = *path
	cfg.MaxWords = *count + 1
	store := graphfst.OpenDefault(cfg)

	rnd := rand.New(rand.NewSource(*seed))
	terms := make([]string, *count)
	for i := range terms {
		terms[i] = fmt.Sprintf("%s-%08x-%d", *prefix, rnd.Uint32(), i)
	}

	fmt.Printf("pushing %d terms into %s/%s under %s\n", *count, *collection, *bucket, *path)

	pushStart := time.Now()
	var rejected int
	for _, term := range terms {
		if !store.PushWord(*collection, *bucket, term) {
			rejected++
		}
	}
	pushElapsed := time.Since(pushStart)
	fmt.Printf("push:    %d ops in %v (%.0f ops/sec), %d rejected\n",
		*count, pushElapsed.Round(time.Millisecond), float64(*count)/pushElapsed.Seconds(), rejected)

	consolStart := time.Now()
	if err := store.Consolidate(context.Background(), true); err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}
	fmt.Printf("consolidate: %v\n", time.Since(consolStart).Round(time.Millisecond))

	n, err := store.CountWords(*collection, *bucket)
	if err != nil {
		return fmt.Errorf("count_words: %w", err)
	}
	fmt.Printf("durable term count: %d\n", n)

	suggestStart := time.Now()
	const suggestRounds = 1000
	var hits int
	for i := 0; i < suggestRounds; i++ {
		got, err := store.SuggestWords(*collection, *bucket, *prefix, "a-z0-9-", 10, nil)
		if err != nil {
			return fmt.Errorf("suggest_words: %w", err)
		}
		hits += len(got)
	}
	suggestElapsed := time.Since(suggestStart)
	fmt.Printf("suggest: %d ops in %v (%.0f ops/sec), avg %.1f results\n",
		suggestRounds, suggestElapsed.Round(time.Millisecond),
		float64(suggestRounds)/suggestElapsed.Seconds(), float64(hits)/suggestRounds)

	return nil
}
