// graphrepl is an interactive shell for exploring a graphfst store.
//
// Usage:
//
//	graphrepl --path <store-root>
//
// Commands (in REPL):
//
//	push <collection> <bucket> <term>              Insert a term
//	pop <collection> <bucket> <term>                Remove a term
//	suggest <collection> <bucket> <prefix> [limit]  Prefix/fuzzy lookup
//	list <collection> <bucket> [limit] [offset]     Enumerate durable terms
//	count <collection> <bucket>                     Count durable terms
//	buckets <collection>                             Count buckets in collection
//	erase-bucket <collection> <bucket>              Delete one bucket
//	erase-collection <collection>                    Delete a whole collection
//	consolidate [force]                              Run one consolidation sweep
//	janitor                                          Evict idle handles
//	pool                                             Show live/pending handle counts
//	help                                              Show this help
//	exit / quit / q                                  Exit
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/peterh/liner"

	"github.com/aalhour/graphfst"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "graphrepl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("graphrepl", flag.ExitOnError)
	path := fs.String("path", "graphfst-data", "store root directory")
	unicodeClass := fs.String("unicode-class", "a-z0-9", "accepted alphabet, as a regex character class, for suggest")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := graphfst.DefaultConfig()
	cfg.Path = *path
	store := graphfst.OpenDefault(cfg)

	repl := &REPL{store: store, unicodeClass: *unicodeClass}
	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	store        *graphfst.Store
	unicodeClass string
	liner        *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".graphrepl_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("graphrepl - graphfst CLI")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("graphfst> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "push":
			r.cmdPush(args)
		case "pop":
			r.cmdPop(args)
		case "suggest":
			r.cmdSuggest(args)
		case "list":
			r.cmdList(args)
		case "count":
			r.cmdCount(args)
		case "buckets":
			r.cmdBuckets(args)
		case "erase-bucket":
			r.cmdEraseBucket(args)
		case "erase-collection":
			r.cmdEraseCollection(args)
		case "consolidate":
			r.cmdConsolidate(args)
		case "janitor":
			r.cmdJanitor()
		case "pool":
			r.cmdPool()
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"push", "pop", "suggest", "list", "count", "buckets",
		"erase-bucket", "erase-collection", "consolidate", "janitor", "pool",
		"help", "exit", "quit", "q",
	}
	var completions []string
	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  push <collection> <bucket> <term>               Insert a term")
	fmt.Println("  pop <collection> <bucket> <term>                Remove a term")
	fmt.Println("  suggest <collection> <bucket> <prefix> [limit]  Prefix/fuzzy lookup")
	fmt.Println("  list <collection> <bucket> [limit] [offset]     Enumerate durable terms")
	fmt.Println("  count <collection> <bucket>                     Count durable terms")
	fmt.Println("  buckets <collection>                             Count buckets in collection")
	fmt.Println("  erase-bucket <collection> <bucket>               Delete one bucket")
	fmt.Println("  erase-collection <collection>                    Delete a whole collection")
	fmt.Println("  consolidate [force]                              Run one consolidation sweep")
	fmt.Println("  janitor                                          Evict idle handles")
	fmt.Println("  pool                                             Show live/pending handle counts")
	fmt.Println("  help                                              Show this help")
	fmt.Println("  exit / quit / q                                  Exit")
}

func (r *REPL) cmdPush(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: push <collection> <bucket> <term>")
		return
	}
	ok := r.store.PushWord(args[0], args[1], strings.Join(args[2:], " "))
	fmt.Printf("push: %v\n", ok)
}

func (r *REPL) cmdPop(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: pop <collection> <bucket> <term>")
		return
	}
	ok := r.store.PopWord(args[0], args[1], strings.Join(args[2:], " "))
	fmt.Printf("pop: %v\n", ok)
}

func (r *REPL) cmdSuggest(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: suggest <collection> <bucket> <prefix> [limit]")
		return
	}
	limit := 10
	if len(args) >= 4 {
		if v, err := strconv.Atoi(args[3]); err == nil {
			limit = v
		}
	}
	got, err := r.store.SuggestWords(args[0], args[1], args[2], r.unicodeClass, limit, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(got) == 0 {
		fmt.Println("(no matches)")
		return
	}
	for i, w := range got {
		fmt.Printf("%3d. %s\n", i+1, w)
	}
}

func (r *REPL) cmdList(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: list <collection> <bucket> [limit] [offset]")
		return
	}
	limit, offset := 0, 0
	if len(args) >= 3 {
		limit, _ = strconv.Atoi(args[2])
	}
	if len(args) >= 4 {
		offset, _ = strconv.Atoi(args[3])
	}
	words, err := r.store.ListWords(args[0], args[1], limit, offset)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if len(words) == 0 {
		fmt.Println("(empty)")
		return
	}
	for i, w := range words {
		fmt.Printf("%3d. %s\n", i+1+offset, w)
	}
}

func (r *REPL) cmdCount(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: count <collection> <bucket>")
		return
	}
	n, err := r.store.CountWords(args[0], args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%d\n", n)
}

func (r *REPL) cmdBuckets(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: buckets <collection>")
		return
	}
	n, err := r.store.CountCollectionBuckets(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%d\n", n)
}

func (r *REPL) cmdEraseBucket(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: erase-bucket <collection> <bucket>")
		return
	}
	n, err := r.store.EraseBucket(args[0], args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("erased: %d\n", n)
}

func (r *REPL) cmdEraseCollection(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: erase-collection <collection>")
		return
	}
	n, err := r.store.EraseCollection(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("erased: %d\n", n)
}

func (r *REPL) cmdConsolidate(args []string) {
	force := len(args) >= 1 && (args[0] == "force" || args[0] == "true")
	if err := r.store.Consolidate(context.Background(), force); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (r *REPL) cmdJanitor() {
	n := r.store.Janitor()
	fmt.Printf("evicted: %d\n", n)
}

func (r *REPL) cmdPool() {
	live, pending := r.store.PoolCount()
	fmt.Printf("live: %d, pending: %d\n", live, pending)
}
