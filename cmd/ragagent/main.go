package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/Samuellps/Rag-Reranking-Agent/internal/types"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/agent"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/annotator"
	cfgPkg "github.com/Samuellps/Rag-Reranking-Agent/pkg/config"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/llm"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/processor"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/rerank"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/retriever"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/session"
	"github.com/Samuellps/Rag-Reranking-Agent/pkg/store"
	"github.com/Samuellps/Rag-Reranking-Agent/server"
)

type Options struct {
	ConfigPath string
	DocPath    string
	Model      string
	DBUrl      string
	DataDir    string
	TopK       int
	Serve      bool
	Addr       string
}

func main() {
	opts := parseFlags()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Options {
	var opts Options

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&opts.DocPath, "doc", "", "Path to the source .txt document")
	flag.StringVar(&opts.Model, "model", "", "Chat model to use")
	flag.StringVar(&opts.DBUrl, "db-url", "", "PostgreSQL connection string (enables the pgvector store)")
	flag.StringVar(&opts.DataDir, "data-dir", "", "Directory for caches and store artifacts")
	flag.IntVar(&opts.TopK, "k", 0, "Number of results per search")
	flag.BoolVar(&opts.Serve, "serve", false, "Run the WebSocket server instead of the REPL")
	flag.StringVar(&opts.Addr, "addr", ":8080", "WebSocket server address")
	flag.Parse()

	return opts
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(opts Options) error {
	// API keys come from the environment; .env is optional.
	godotenv.Load()

	cfg, err := cfgPkg.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.Model != "" {
		cfg.LLM.Model = opts.Model
	}
	if opts.DBUrl != "" {
		cfg.Database.URL = opts.DBUrl
	}
	if opts.DataDir != "" {
		cfg.Paths.DataDir = opts.DataDir
	}
	if opts.TopK > 0 {
		cfg.Retrieval.TopK = opts.TopK
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	if opts.DocPath == "" {
		return fmt.Errorf("no document provided, use -doc path/to/document.txt")
	}
	if _, err := processor.LoadDocument(opts.DocPath); err != nil {
		return err
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.Keys.OpenAI,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	embedder := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbeddingModel,
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.Keys.OpenAI,
	})

	reranker := rerank.NewWithConfig(rerank.ClientConfig{
		APIKey: cfg.Keys.Cohere,
		Model:  cfg.Rerank.Model,
	})

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		MaxTokensPerChunk: cfg.Retrieval.MaxTokensPerChunk,
	})

	var annotateBar *progressbar.ProgressBar
	annot := annotator.NewWithConfig(opts.DocPath, chatEngine, proc, annotator.AnnotatorConfig{
		DataDir:   cfg.Paths.DataDir,
		RateLimit: cfg.Annotator.RateLimit,
		OnProgress: func(done, total int) {
			if annotateBar == nil {
				annotateBar = getProgressBar(total, " Annotating chunks...")
			}
			annotateBar.Set(done)
		},
	})

	docName := processor.DocumentName(opts.DocPath)

	var embedBar *progressbar.ProgressBar
	embedProgress := func(done, total int) {
		if embedBar == nil {
			embedBar = getProgressBar(total, " Embedding chunks...")
		}
		embedBar.Set(done)
	}

	var vectorStore types.VectorStore
	if cfg.Database.URL != "" {
		pgStore, err := store.NewPGStore(store.PGStoreConfig{
			ConnString: cfg.Database.URL,
			TableName:  cfg.Database.TableName,
			VectorDim:  cfg.Database.VectorDim,
			DocName:    docName,
			Embedder:   embedder,
			Reranker:   reranker,
			OnProgress: embedProgress,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize vector store: %v", err)
		}
		defer pgStore.Close()
		vectorStore = pgStore
	} else {
		vectorStore = store.NewFileStore(store.FileStoreConfig{
			Name:       docName,
			DataDir:    cfg.Paths.DataDir,
			Embedder:   embedder,
			Reranker:   reranker,
			OnProgress: embedProgress,
		})
	}

	ret := retriever.NewWithConfig(annot, vectorStore, llm.NewExpander(chatEngine), retriever.RetrieverConfig{
		TopK:                   cfg.Retrieval.TopK,
		UseSimilarityThreshold: cfg.Retrieval.UseSimilarityThreshold,
		SimilarityThreshold:    cfg.Retrieval.SimilarityThreshold,
		UseRerank:              cfg.Retrieval.UseRerank,
		UseHyde:                cfg.Retrieval.UseHyde,
	})

	color.Blue("\nPreparing knowledge base for %s\n", opts.DocPath)
	ctx := context.Background()
	if err := ret.EnsureReady(ctx); err != nil {
		return err
	}
	if annotateBar != nil {
		annotateBar.Finish()
	}
	if embedBar != nil {
		embedBar.Finish()
	}
	if fs, ok := vectorStore.(*store.FileStore); ok {
		color.Green("✓ Knowledge base ready: %d chunks, %d embedding tokens ($%.4f)\n",
			fs.Count(), fs.TotalTokensUsed(), fs.TotalCost())
	} else {
		color.Green("✓ Knowledge base ready\n")
	}

	sessions := session.NewStore()
	ag := agent.NewWithConfig(chatEngine.Model(), ret, sessions, agent.AgentConfig{
		Temperature: cfg.LLM.Temperature,
		DefaultK:    cfg.Retrieval.TopK,
	})

	if opts.Serve {
		return server.NewWSServer(ag, server.Config{Addr: opts.Addr}).Start()
	}

	return repl(ctx, ag)
}

func repl(ctx context.Context, ag *agent.Agent) error {
	color.Cyan("\nChat with your document (type 'exit' to quit)")

	sessionID := fmt.Sprintf("cli-%d", time.Now().UnixNano())
	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if strings.ToLower(query) == "exit" {
			break
		}
		if query == "" {
			continue
		}

		responseSpinner := getSpinner(" Thinking...")
		answer, err := ag.Ask(ctx, sessionID, query)
		responseSpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		assistantPrompt("Assistant: %s\n", answer)
	}

	return nil
}
