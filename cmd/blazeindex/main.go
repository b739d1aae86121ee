package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/wizenheimer/blazeindex"
	"github.com/wizenheimer/blazeindex/internal/config"
	"github.com/wizenheimer/blazeindex/internal/logger"
	"github.com/wizenheimer/blazeindex/internal/metrics"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if c.IsSet("workers") {
		cfg.Indexer.Workers = c.Int("workers")
	}
	if c.IsSet("stemmer") {
		cfg.Analyzer.Stemmer = c.String("stemmer")
	}
	if c.IsSet("stopwords") {
		cfg.Analyzer.StopWords = c.Bool("stopwords")
	}
	if c.IsSet("index-titles") {
		cfg.Indexer.IndexTitles = c.Bool("index-titles")
	}
	if c.IsSet("positions") {
		cfg.Indexer.Positions = c.Bool("positions")
	}
	if c.IsSet("metrics-file") {
		cfg.Metrics.Textfile = c.String("metrics-file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	var m *metrics.Metrics
	if cfg.Metrics.Textfile != "" {
		m = metrics.New()
	}
	opts := append(cfg.IndexerOptions(),
		blazeindex.WithLogger(logger.WithComponent("build")),
		blazeindex.WithMetrics(m),
	)
	ix, err := blazeindex.NewIndexer(opts...)
	if err != nil {
		return err
	}

	idx, buildErr := ix.BuildIndex(c.Context, c.String("texts"), c.String("index"))
	if m != nil {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.WithComponent("build").Warn("failed to write metrics", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	if buildErr != nil {
		return buildErr
	}

	s := idx.Stats()
	fmt.Fprintf(c.App.Writer, "indexed %d documents, %d terms, %d postings\n", s.Documents, s.Terms, s.Postings)
	return nil
}

func inspectCommand(c *cli.Context) error {
	idx, err := blazeindex.ReadIndexFile(c.String("index"))
	if err != nil {
		return err
	}
	w := c.App.Writer

	terms := c.StringSlice("term")
	if len(terms) == 0 {
		s := idx.Stats()
		fmt.Fprintf(w, "build:       %s\n", idx.BuildID())
		fmt.Fprintf(w, "positions:   %t\n", idx.HasPositions())
		fmt.Fprintf(w, "documents:   %d\n", s.Documents)
		fmt.Fprintf(w, "terms:       %d\n", s.Terms)
		fmt.Fprintf(w, "postings:    %d\n", s.Postings)
		fmt.Fprintf(w, "occurrences: %d\n", s.Occurrences)
		fmt.Fprintf(w, "dictionary:  %d bytes\n", s.DictionaryBytes)
		return nil
	}

	for _, term := range terms {
		docs := idx.Postings(term)
		counts := idx.Occurrences(term)
		fmt.Fprintf(w, "%s: %d documents\n", term, len(docs))
		for i, id := range docs {
			title, _ := idx.Title(id)
			fmt.Fprintf(w, "  %d\t%d\t%s\n", id, counts[i], title)
			if idx.HasPositions() {
				fmt.Fprintf(w, "    positions: %v\n", idx.Positions(term, id))
			}
		}
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "blazeindex",
		Usage: "Build inverted indexes over JSON document collections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.yaml or .toml)",
				EnvVars: []string{"BLAZE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (text, json)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "build",
				Aliases: []string{"b"},
				Usage:   "Index a {\"title\": \"body\"} collection and write the index file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "texts",
						Aliases:  []string{"t"},
						Usage:    "Path of the JSON document collection",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"o"},
						Usage:    "Path of the index file to write",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Goroutines analyzing document bodies",
					},
					&cli.StringFlag{
						Name:  "stemmer",
						Usage: "Stemming algorithm (suffix, snowball, porter2, none)",
					},
					&cli.BoolFlag{
						Name:  "stopwords",
						Usage: "Drop English and Russian stop-words",
					},
					&cli.BoolFlag{
						Name:  "index-titles",
						Usage: "Index title words as well as bodies",
					},
					&cli.BoolFlag{
						Name:  "positions",
						Usage: "Record term positions in the index",
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "Write Prometheus build metrics to this textfile",
					},
				},
				Action: buildCommand,
			},
			{
				Name:    "inspect",
				Aliases: []string{"i"},
				Usage:   "Print index statistics or the postings of terms",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "index",
						Aliases:  []string{"o"},
						Usage:    "Path of the index file to read",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "term",
						Usage: "Print the posting list of an index term (repeatable)",
					},
				},
				Action: inspectCommand,
			},
		},
	}
}

func main() {
	app := newApp()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
