// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/docman"
	"github.com/poiesic/docman/ingestion"
	"github.com/poiesic/docman/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docman",
		Usage: "Load documents into an in-memory store and query them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "Storage backend (memory, badger)",
				Value:   string(docman.BackendMemory),
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to a YAML file of documents to load",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent loaders",
				Value: 4,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report load progress every N documents",
				Value: 100,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Print a single document by id",
				Action: getCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Document id",
						Required: true,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Print every document matching all given filters",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "title-prefix",
						Usage: "Match titles starting with this prefix (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "contains",
						Usage: "Match content containing this text (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "author",
						Usage: "Match this author id (repeatable)",
					},
					&cli.TimestampFlag{
						Name:   "from",
						Usage:  "Earliest creation time, inclusive (RFC3339)",
						Layout: time.RFC3339,
					},
					&cli.TimestampFlag{
						Name:   "to",
						Usage:  "Latest creation time, inclusive (RFC3339)",
						Layout: time.RFC3339,
					},
				},
			},
		},
	}
}

// openManager creates a manager on the selected backend and loads the
// document file into it. The caller must Close the returned manager.
func openManager(c *cli.Context) (*docman.Manager, error) {
	docs, err := readDocuments(c.String("file"))
	if err != nil {
		return nil, err
	}

	m, err := docman.NewManager(docman.WithBackend(docman.Backend(c.String("backend"))))
	if err != nil {
		return nil, err
	}

	pipeline, err := m.NewIngestionPipeline(
		ingestion.WithPoolSize(c.Int("workers")),
		ingestion.WithProgress(c.App.ErrWriter, c.Int("report-interval")),
	)
	if err != nil {
		m.Close()
		return nil, err
	}
	defer pipeline.Release()

	if _, err := pipeline.Ingest(c.Context, docs...); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	slog.Debug("documents loaded", "count", len(docs), "backend", c.String("backend"))
	return m, nil
}

func getCommand(c *cli.Context) error {
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	id := c.String("id")
	doc, err := m.FindByID(c.Context, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document not found: %s", id)
	}
	return writeDocument(c.App.Writer, doc)
}

func searchCommand(c *cli.Context) error {
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	req := search.Request{
		TitlePrefixes:    c.StringSlice("title-prefix"),
		ContainsContents: c.StringSlice("contains"),
		AuthorIDs:        c.StringSlice("author"),
	}
	if from := c.Timestamp("from"); from != nil {
		req.CreatedFrom = *from
	}
	if to := c.Timestamp("to"); to != nil {
		req.CreatedTo = *to
	}

	docs, err := m.Search(c.Context, req)
	if err != nil {
		return err
	}
	sortDocuments(docs)
	return writeDocuments(c.App.Writer, docs)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
