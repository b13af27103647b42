/*
Vgramserve answers v-gram requests over stdin/stdout using MessagePack
messages, one request object in and one response object out.

Serve a table learned by vgramstat:

	vgramserve -stats stats.bin

Serve a table stored in Redis and bulk-index a corpus for LIKE queries,
document ids being line numbers:

	vgramserve -rkey <metadata-key> -index corpus.txt

Supported operations are extract, estimate, query, index, stats and ping.
Logs go to stderr; stdout carries only responses.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/kwertop/govgram"
)

const (
	Version = "0.1.0"
	AppName = "vgramserve"
)

// scanBufferSize is the line length cap of the corpus reader.
const scanBufferSize = 1 << 20

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
	statsPath := flag.String("stats", "", "Table file written by vgramstat")
	redisKey := flag.String("rkey", "", "Metadata key of a table stored in Redis")
	redisURI := flag.String("uri", defaultConfig.Redis.URI, "Redis URI for -rkey")
	corpus := flag.String("index", "", "Corpus file to bulk-index, one document per line")
	minQ := flag.Int("minq", defaultConfig.Index.MinQ, "Minimum v-gram length")
	maxQ := flag.Int("maxq", defaultConfig.Index.MaxQ, "Maximum v-gram length")
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
		log.SetLevel(log.WarnLevel)
	}

	if *configPath != "" {
		config, err := govgram.LoadConfig(*configPath)
		if err != nil {
			log.Warnf("Falling back to defaults: %v", err)
		}
		applyConfigDefaults(config, minQ, maxQ, redisURI)
	}

	table, err := loadTable(*statsPath, *redisKey, *redisURI)
	if err != nil {
		log.Fatalf("Failed to load table: %v", err)
	}
	log.Debugf("Loaded table: %d entries, q in [%d, %d]", table.Len(), table.MinQ(), table.MaxQ())

	index, err := govgram.NewMemIndex(table, *minQ, *maxQ)
	if err != nil {
		log.Fatalf("Failed to create index: %v", err)
	}
	if *corpus != "" {
		docs, err := bulkIndex(index, *corpus)
		if err != nil {
			log.Fatalf("Failed to index corpus: %v", err)
		}
		log.Debugf("Indexed %d documents, %d terms", docs, index.Terms())
	}

	server := govgram.NewServer(table, index, *minQ, *maxQ, os.Stdin, os.Stdout)
	if err := server.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// applyConfigDefaults overlays config values onto flags the user left at
// their builtin defaults.
func applyConfigDefaults(config *govgram.Config, minQ, maxQ *int, redisURI *string) {
	visited := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { visited[f.Name] = true })
	if !visited["minq"] {
		*minQ = config.Index.MinQ
	}
	if !visited["maxq"] {
		*maxQ = config.Index.MaxQ
	}
	if !visited["uri"] {
		*redisURI = config.Redis.URI
	}
}

// loadTable reads the frequency table from the stats file or from Redis.
// Exactly one source must be given.
func loadTable(statsPath, redisKey, redisURI string) (*govgram.FrequencyTable, error) {
	switch {
	case statsPath != "" && redisKey != "":
		return nil, fmt.Errorf("pass either -stats or -rkey, not both")
	case statsPath != "":
		f, err := os.Open(statsPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		table := &govgram.FrequencyTable{}
		if _, err := table.ReadFrom(bufio.NewReader(f)); err != nil {
			return nil, err
		}
		return table, nil
	case redisKey != "":
		options, err := govgram.ParseRedisURI(redisURI)
		if err != nil {
			return nil, err
		}
		govgram.MakeRedisClient(*options)
		store, err := govgram.NewFrequencyTableRedisFromKey(redisKey)
		if err != nil {
			return nil, err
		}
		return store.Load()
	default:
		return nil, fmt.Errorf("no table source: pass -stats or -rkey")
	}
}

func bulkIndex(index *govgram.MemIndex, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), scanBufferSize)
	docs := 0
	for scanner.Scan() {
		if err := index.Add(strconv.Itoa(docs+1), scanner.Text()); err != nil {
			return docs, err
		}
		docs++
	}
	return docs, scanner.Err()
}
