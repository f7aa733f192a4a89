// Copyright 2025 The citewell authors
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	citewell "github.com/citewell/citewell"
	"github.com/citewell/citewell/ai"
	"github.com/citewell/citewell/answer"
	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/guard"
	"github.com/citewell/citewell/ingestion"
	"github.com/citewell/citewell/metrics"
	"github.com/citewell/citewell/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "citewell",
		Usage: "Document ingestion and cited question answering over a local knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Upload a file into a workspace and process it to READY",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
				Flags: append(storeFlags(),
					&cli.Uint64Flag{
						Name:     "workspace",
						Aliases:  []string{"w"},
						Usage:    "Workspace identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "mime-type",
						Usage: "MIME type of the uploaded file",
						Value: "text/plain",
					},
				),
			},
			{
				Name:      "status",
				Usage:     "Show the processing status of a document",
				ArgsUsage: "<document-id>",
				Action:    statusCommand,
				Flags:     storeFlags(),
			},
			{
				Name:   "list",
				Usage:  "List live documents in a workspace",
				Action: listCommand,
				Flags: append(storeFlags(),
					&cli.Uint64Flag{
						Name:     "workspace",
						Aliases:  []string{"w"},
						Usage:    "Workspace identifier",
						Required: true,
					},
				),
			},
			{
				Name:      "reprocess",
				Usage:     "Re-queue a document for ingestion and process it",
				ArgsUsage: "<document-id>",
				Action:    reprocessCommand,
				Flags:     storeFlags(),
			},
			{
				Name:      "cancel",
				Usage:     "Cancel an in-flight processing attempt",
				ArgsUsage: "<document-id>",
				Action:    cancelCommand,
				Flags:     storeFlags(),
			},
			{
				Name:   "work",
				Usage:  "Run an ingestion worker until interrupted",
				Action: workCommand,
				Flags: append(storeFlags(),
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent processing slots (0 = auto)",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search a workspace for relevant passages",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(storeFlags(),
					&cli.Uint64Flag{
						Name:     "workspace",
						Aliases:  []string{"w"},
						Usage:    "Workspace identifier",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   answer.DefaultTopK,
					},
					&cli.BoolFlag{
						Name:  "mmr",
						Usage: "Re-rank results for diversity",
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question and print a cited answer",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: append(storeFlags(),
					&cli.Uint64Flag{
						Name:     "workspace",
						Aliases:  []string{"w"},
						Usage:    "Workspace identifier",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:  "conversation",
						Usage: "Conversation identifier for multi-turn history",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of context passages to retrieve",
						Value:   answer.DefaultTopK,
					},
					&cli.BoolFlag{
						Name:  "mmr",
						Usage: "Re-rank retrieved passages for diversity",
					},
					&cli.BoolFlag{
						Name:  "stream",
						Usage: "Stream tokens as they are generated",
					},
					&cli.StringFlag{
						Name:  "guard",
						Usage: "Injection guard mode (off, flag, block)",
						Value: "flag",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// storeFlags are shared by every command: where the database lives and which
// AI services back embedding and generation.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL for embedding and generation",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "nomic-embed-text",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Generation model name",
			Value: "qwen2.5:3b",
		},
		&cli.IntFlag{
			Name:  "embedding-dimensions",
			Usage: "Expected embedding vector size",
			Value: 768,
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: "Publish counters and latency histograms to the global OpenTelemetry meter provider",
		},
	}
}

// openLibrary builds a Library from the shared flags plus any extra options.
func openLibrary(c *cli.Context, opts ...citewell.LibraryOption) (*citewell.Library, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts = append([]citewell.LibraryOption{citewell.WithAIConfig(aiConfig)}, opts...)
	if c.Bool("metrics") {
		opts = append(opts, citewell.WithMetricsSink(metrics.NewOTelSink()))
	}
	lib, err := citewell.NewLibrary(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, nil
}

func documentArg(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("exactly one document id argument is required")
	}
	raw, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q: %w", c.Args().First(), err)
	}
	return core.ID(raw), nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("exactly one file argument is required")
	}
	path := c.Args().First()
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	title := c.String("title")
	if title == "" {
		title = path
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	doc, err := lib.Upload(ctx, core.ID(c.Uint64("workspace")), title, c.String("mime-type"), content)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Uploaded document %d (%d bytes)\n", doc.Id, len(content))

	worker, err := lib.NewWorker()
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	defer worker.Close()
	worker.Drain(ctx)

	report, err := lib.Status(ctx, doc.Id)
	if err != nil {
		return fmt.Errorf("status lookup failed: %w", err)
	}
	fmt.Printf("document %d: %s", doc.Id, report.Status)
	if report.IsReady {
		fmt.Printf(" (%d chunks)", report.ChunksCreated)
	}
	if report.ErrorMessage != "" {
		fmt.Printf(": %s", report.ErrorMessage)
	}
	fmt.Println()
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentArg(c)
	if err != nil {
		return err
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	report, err := lib.Status(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("status: %s\n", report.Status)
	fmt.Printf("chunks: %d\n", report.ChunksCreated)
	if report.ErrorMessage != "" {
		fmt.Printf("error: %s\n", report.ErrorMessage)
	}
	return nil
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	docs, err := lib.Documents(ctx, core.ID(c.Uint64("workspace")))
	if err != nil {
		return err
	}
	for _, doc := range docs {
		fmt.Printf("%d\t%s\t%s\t%d chunks\n", doc.Id, doc.Status, doc.Title, doc.ChunksCreated)
	}
	return nil
}

func reprocessCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentArg(c)
	if err != nil {
		return err
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	if _, err := lib.Reprocess(ctx, id); err != nil {
		return fmt.Errorf("reprocess failed: %w", err)
	}

	worker, err := lib.NewWorker()
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	defer worker.Close()
	worker.Drain(ctx)

	report, err := lib.Status(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("document %d: %s\n", id, report.Status)
	return nil
}

func cancelCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentArg(c)
	if err != nil {
		return err
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	doc, err := lib.Cancel(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}
	fmt.Printf("document %d: %s\n", doc.Id, doc.Status)
	return nil
}

func workCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	var opts []ingestion.WorkerOption
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	worker, err := lib.NewWorker(opts...)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	defer worker.Close()

	worker.Start(ctx)
	fmt.Fprintln(os.Stderr, "Worker running, press Ctrl-C to stop")
	<-ctx.Done()
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("exactly one query argument is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	results, err := lib.Search(ctx, search.Query{
		WorkspaceId: core.ID(c.Uint64("workspace")),
		Text:        c.Args().First(),
		TopK:        c.Int("top-k"),
		UseMMR:      c.Bool("mmr"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	for _, scored := range results {
		fmt.Printf("%.4f\tdoc %d\tchunk %d\n", scored.Similarity, scored.Chunk.DocumentId, scored.Chunk.Id)
		fmt.Printf("\t%s\n", scored.Chunk.Content)
	}
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("exactly one question argument is required")
	}

	mode, err := parseGuardMode(c.String("guard"))
	if err != nil {
		return err
	}

	lib, err := openLibrary(c, citewell.WithGuardMode(mode))
	if err != nil {
		return err
	}
	defer lib.Close()

	req := answer.Request{
		WorkspaceId:    core.ID(c.Uint64("workspace")),
		Question:       c.Args().First(),
		ConversationId: core.ID(c.Uint64("conversation")),
		TopK:           c.Int("top-k"),
		UseMMR:         c.Bool("mmr"),
	}

	if c.Bool("stream") {
		return streamAnswer(ctx, lib, req)
	}

	result, err := lib.Ask(ctx, req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	fmt.Println(result.Text)
	printSources(result.Sources)
	return nil
}

func streamAnswer(ctx context.Context, lib *citewell.Library, req answer.Request) error {
	var sources []answer.Source
	for ev := range lib.AskStream(ctx, req) {
		switch ev.Type {
		case answer.EventSources:
			sources = ev.Sources
		case answer.EventToken:
			fmt.Print(ev.Token)
		case answer.EventDone:
			fmt.Println()
			if ev.Answer != nil && ev.Answer.Status == core.MessageCancelled {
				fmt.Fprintln(os.Stderr, "(generation cancelled)")
			}
			printSources(sources)
		case answer.EventError:
			fmt.Println()
			return fmt.Errorf("ask failed: %w", ev.Err)
		}
	}
	return nil
}

func printSources(sources []answer.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Sources:")
	for _, src := range sources {
		fmt.Printf("  %s doc %d, offset %d (%.4f)\n", src.Marker, src.DocumentId, src.Offset, src.Similarity)
	}
}

func parseGuardMode(raw string) (guard.Mode, error) {
	switch strings.ToLower(raw) {
	case "off":
		return guard.ModeOff, nil
	case "flag":
		return guard.ModeFlag, nil
	case "block":
		return guard.ModeBlock, nil
	default:
		return 0, fmt.Errorf("invalid guard mode %q: must be one of off, flag, block", raw)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
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
