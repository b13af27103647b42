/*
Vgramstat learns a q-gram frequency table from a corpus.

The input is one string per line. The table is written as a binary file or
stored in Redis, ready to be served to extraction and estimation.

Build an estimation-shaped table (1..3-grams) from a corpus file:

	vgramstat -in corpus.txt -out stats.bin

Build an extraction-shaped table with exact counting and a custom threshold:

	vgramstat -in corpus.txt -out table.bin -minq 2 -maxq 5 -ratio 0.05

Stream a large corpus in bounded memory and store the result in Redis:

	vgramstat -in corpus.txt -lossy -k 2000 -redis -uri redis://127.0.0.1:6379

With -redis the metadata key of the stored table is printed on completion;
pass it to vgramserve -rkey.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/kwertop/govgram"
)

const (
	Version = "0.1.0"
	AppName = "vgramstat"
)

// scanBufferSize is the line length cap of the corpus reader.
const scanBufferSize = 1 << 20

// progressEvery is the line interval of progress logging.
const progressEvery = 100000

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	defaultConfig := govgram.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to TOML config file")
	input := flag.String("in", "-", "Corpus file, one string per line (\"-\" for stdin)")
	output := flag.String("out", "", "Output table file")
	toRedis := flag.Bool("redis", false, "Store the table in Redis instead of a file")
	redisURI := flag.String("uri", defaultConfig.Redis.URI, "Redis URI for -redis")
	minQ := flag.Int("minq", defaultConfig.Stats.MinQ, "Minimum q-gram length")
	maxQ := flag.Int("maxq", defaultConfig.Stats.MaxQ, "Maximum q-gram length")
	ratio := flag.Float64("ratio", defaultConfig.Stats.LimitRatio, "Frequency threshold of exact counting")
	lossy := flag.Bool("lossy", defaultConfig.Stats.Lossy, "Use lossy counting (bounded memory)")
	k := flag.Int("k", defaultConfig.Stats.TargetEntries, "Target table entries for -lossy")
	debugMode := flag.Bool("d", false, "Toggle debug mode")

	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", AppName, Version)
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if *configPath != "" {
		config, err := govgram.LoadConfig(*configPath)
		if err != nil {
			log.Warnf("Falling back to defaults: %v", err)
		}
		applyConfigDefaults(config, minQ, maxQ, ratio, lossy, k, redisURI)
	}

	reader, closer, err := openInput(*input)
	if err != nil {
		log.Fatalf("Failed to open corpus: %v", err)
	}
	defer closer()

	table, err := learn(reader, *minQ, *maxQ, *ratio, *lossy, uint(*k))
	if err != nil {
		log.Fatalf("Failed to learn table: %v", err)
	}
	log.Infof("Learned %d entries from %d strings", table.Len(), table.Rows())

	switch {
	case *toRedis:
		options, err := govgram.ParseRedisURI(*redisURI)
		if err != nil {
			log.Fatalf("Failed to parse Redis URI: %v", err)
		}
		govgram.MakeRedisClient(*options)
		store, err := govgram.NewFrequencyTableRedis()
		if err != nil {
			log.Fatalf("Failed to create Redis store: %v", err)
		}
		if err := store.Store(table); err != nil {
			log.Fatalf("Failed to store table: %v", err)
		}
		fmt.Println(store.MetadataKey())
	case *output != "":
		if err := writeTable(table, *output); err != nil {
			log.Fatalf("Failed to write table: %v", err)
		}
		log.Infof("Wrote %s", *output)
	default:
		log.Fatalf("No output: pass -out or -redis")
	}
}

// applyConfigDefaults overlays config values onto flags the user left at
// their builtin defaults.
func applyConfigDefaults(config *govgram.Config, minQ, maxQ *int, ratio *float64, lossy *bool, k *int, redisURI *string) {
	visited := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { visited[f.Name] = true })
	if !visited["minq"] {
		*minQ = config.Stats.MinQ
	}
	if !visited["maxq"] {
		*maxQ = config.Stats.MaxQ
	}
	if !visited["ratio"] {
		*ratio = config.Stats.LimitRatio
	}
	if !visited["lossy"] {
		*lossy = config.Stats.Lossy
	}
	if !visited["k"] {
		*k = config.Stats.TargetEntries
	}
	if !visited["uri"] {
		*redisURI = config.Redis.URI
	}
}

func openInput(path string) (*bufio.Scanner, func(), error) {
	if path == "-" {
		return newScanner(os.Stdin), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return newScanner(f), func() { f.Close() }, nil
}

func newScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)
	return scanner
}

func learn(scanner *bufio.Scanner, minQ, maxQ int, ratio float64, lossy bool, k uint) (*govgram.FrequencyTable, error) {
	var lines uint64
	progress := func() {
		lines++
		if lines%progressEvery == 0 {
			log.Debugf("Processed %d strings", lines)
		}
	}
	if lossy {
		counter, err := govgram.NewLossyCounter(minQ, maxQ, k)
		if err != nil {
			return nil, err
		}
		for scanner.Scan() {
			counter.Add(scanner.Text())
			progress()
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return counter.BuildTable()
	}
	counter, err := govgram.NewFrequencyCounter(minQ, maxQ)
	if err != nil {
		return nil, err
	}
	for scanner.Scan() {
		counter.Accumulate(scanner.Text())
		progress()
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return counter.BuildTable(ratio)
}

func writeTable(table *govgram.FrequencyTable, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := table.WriteTo(w); err != nil {
		return err
	}
	return w.Flush()
}
