package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"similarity-detector/src/config"
	"similarity-detector/src/minhash"
	"similarity-detector/src/monitoring"
	"similarity-detector/src/parser"
	"similarity-detector/src/similarity"
	"similarity-detector/src/sources"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var statsdClient statsd.Statter
	if cfg.StatsdHost != "" {
		statsdClient, err = monitoring.Connect(cfg.StatsdHost, cfg.StatsdPort, cfg.StatsdPrefix)
		if err != nil {
			log.Printf("WARN: statsd unavailable, continuing without metrics: %v", err)
			statsdClient = nil
		}
	}

	source, err := newSource(ctx, cfg, statsdClient)
	if err != nil {
		log.Fatalf("Failed to create corpus source: %v", err)
	}

	runner := similarity.NewRunner(statsdClient)

	fmt.Println(bold("Let's find similar documents!"))
	for {
		n, quit := promptInt("Number of documents to compare (2-10), 0 quits", 2, similarity.MaxDocuments)
		if quit {
			break
		}
		k, quit := promptInt("Shingle length k (2-10), 0 quits", 2, 10)
		if quit {
			break
		}
		threshold, quit := promptFloat("Similarity threshold (0.1-0.99), 0 quits", 0.1, 0.99)
		if quit {
			break
		}

		if err := runOnce(ctx, runner, source, cfg, n, k, threshold); err != nil {
			log.Printf("ERROR: %v", err)
		}
	}
	fmt.Println("The program has been terminated")
}

func newSource(ctx context.Context, cfg *config.Config, statsdClient statsd.Statter) (sources.Source, error) {
	if cfg.CorpusSource == config.SourceS3 {
		return sources.NewS3Source(ctx, cfg.AWSRegion, cfg.CorpusS3Bucket, cfg.CorpusS3Prefix, statsdClient)
	}
	return sources.NewDirSource(cfg.DataDir), nil
}

func runOnce(ctx context.Context, runner *similarity.Runner, source sources.Source, cfg *config.Config, n, k int, threshold float64) error {
	start := time.Now()

	names, err := source.List(ctx)
	if err != nil {
		return err
	}
	if len(names) < n {
		return fmt.Errorf("corpus has only %d documents, %d requested", len(names), n)
	}
	names = names[:n]

	fmt.Println("\nDocuments selected:")
	docs := make(map[string]string, len(names))
	for i, name := range names {
		raw, err := source.Load(ctx, name)
		if err != nil {
			return err
		}
		id := sources.DocumentID(name)
		docs[id] = parser.Normalize(raw)
		fmt.Printf("%d. %s\n", i+1, id)
	}

	numHashes := cfg.NumHashes
	if numHashes < 1 {
		numHashes = minhash.DefaultNumHashes
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Println("\nPerforming min hashing and comparing documents...")
	result, err := runner.Run(ctx, docs, similarity.Params{
		K:         k,
		NumHashes: numHashes,
		Threshold: threshold,
		Seed:      seed,
		Workers:   cfg.NumWorkers,
	})
	if err != nil {
		return err
	}

	printResult(result, threshold)
	fmt.Printf("\nTotal running time: %.2f seconds\n\n", time.Since(start).Seconds())
	return nil
}

func printResult(result *similarity.Result, threshold float64) {
	fmt.Printf("\n----------- Similar documents (estimate >= %g) -----------\n", threshold)
	similar := result.Similar()
	if len(similar) == 0 {
		fmt.Println(yellow("No similar documents found! Try again with a different k or threshold."))
	}
	for _, p := range similar {
		fmt.Println(green(fmt.Sprintf("%s and %s: estimate=%.4f exact=%.4f", p.DocA, p.DocB, p.Estimated, p.Exact)))
	}

	fmt.Printf("\n----------- Not similar documents (estimate < %g) -----------\n", threshold)
	for _, p := range result.NotSimilar() {
		fmt.Printf("%s and %s: estimate=%.4f exact=%.4f\n", p.DocA, p.DocB, p.Estimated, p.Exact)
	}

	for _, e := range result.Excluded {
		fmt.Println(red(fmt.Sprintf("Excluded %s: %s", e.DocID, e.Reason)))
	}
}

// promptInt asks for an integer in [min, max]; 0 quits the loop.
func promptInt(label string, min, max int) (value int, quit bool) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			v, err := strconv.Atoi(input)
			if err != nil {
				return fmt.Errorf("enter a whole number")
			}
			if v != 0 && (v < min || v > max) {
				return fmt.Errorf("enter a value between %d and %d, or 0 to quit", min, max)
			}
			return nil
		},
	}

	raw, err := prompt.Run()
	if err != nil {
		return 0, true
	}
	v, _ := strconv.Atoi(raw)
	return v, v == 0
}

// promptFloat asks for a float in [min, max]; 0 quits the loop.
func promptFloat(label string, min, max float64) (value float64, quit bool) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			v, err := strconv.ParseFloat(input, 64)
			if err != nil {
				return fmt.Errorf("enter a number")
			}
			if v != 0 && (v < min || v > max) {
				return fmt.Errorf("enter a value between %g and %g, or 0 to quit", min, max)
			}
			return nil
		},
	}

	raw, err := prompt.Run()
	if err != nil {
		return 0, true
	}
	v, _ := strconv.ParseFloat(raw, 64)
	return v, v == 0
}
