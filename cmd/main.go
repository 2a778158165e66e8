package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docs-chat/internal/answer"
	"docs-chat/internal/auth"
	"docs-chat/internal/chat"
	"docs-chat/internal/config"
	"docs-chat/internal/ingest"
	"docs-chat/internal/render"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	indexPath := flag.String("index", "", "Documentation file or directory to index")
	dryRun := flag.Bool("dry-run", false, "Parse only, do not embed or store")
	serve := flag.Bool("serve", false, "Run the local answer service")
	ask := flag.String("ask", "", "Ask one question and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	applyLogLevel(cfg.Log.Level)

	ctx := context.Background()

	switch {
	case *indexPath != "":
		runIndex(ctx, cfg, *indexPath, *dryRun)
	case *serve:
		runServe(cfg)
	case *ask != "":
		runAsk(ctx, cfg, *ask)
	default:
		runInteractive(ctx, cfg)
	}
}

func applyLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "", "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func newStore(cfg *config.Config) (answer.Store, error) {
	if cfg.RAG.DatabaseURL != "" {
		store, err := answer.NewPGStore(&cfg.RAG)
		if err != nil {
			return nil, err
		}
		if err := store.Init(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	}
	return answer.NewChromemStore(&cfg.RAG)
}

func newService(cfg *config.Config) *answer.Service {
	var embedder answer.Embedder
	var err error
	if cfg.Embedding.Key != "" {
		embedder, err = answer.NewOpenAIEmbedder(&cfg.Embedding)
	} else {
		embedder, err = answer.NewOllamaEmbedder(&cfg.Embedding)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening index store")
	}

	return answer.NewService(embedder, store, answer.NewOpenAIGenerator(&cfg.LLM), cfg.RAG.TopK)
}

func runIndex(ctx context.Context, cfg *config.Config, path string, dryRun bool) {
	in := ingest.New(&cfg.RAG)

	var docs []answer.Document
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		chunks, err := in.Parse(p)
		if err != nil {
			log.Debug().Err(err).Str("file", p).Msg("Skipping file")
			return nil
		}
		for _, c := range chunks {
			docs = append(docs, answer.Document{
				ID:      fmt.Sprintf("%s-%d-%d", filepath.Base(p), c.PageNumber, c.ChunkID),
				Content: c.Content,
				Metadata: map[string]string{
					"source": filepath.Base(p),
					"page":   fmt.Sprintf("%d", c.PageNumber),
					"chunk":  fmt.Sprintf("%d", c.ChunkID),
				},
			})
		}
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error walking documentation path")
	}

	log.Info().Int("documents", len(docs)).Msg("Parsed documentation")
	if dryRun {
		prettyPrint(docs)
		return
	}

	svc := newService(cfg)
	if err := svc.Index(ctx, docs); err != nil {
		log.Fatal().Err(err).Msg("Error indexing documentation")
	}
	log.Info().Msg("Index updated")
}

func runServe(cfg *config.Config) {
	svc := newService(cfg)
	log.Info().Int("port", cfg.Server.Port).Msg("Serving local answer API")
	if err := answer.Run(svc, cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func runAsk(ctx context.Context, cfg *config.Config, question string) {
	client := newWidgetClient(cfg)
	s := chat.NewSession(client, chat.WithInitialMessage(question))
	s.Open(ctx)
	printTranscript(s.Messages()[1:])
}

func runInteractive(ctx context.Context, cfg *config.Config) {
	client := newWidgetClient(cfg)

	gate := loginGate(cfg)
	if gate.Session() == nil {
		gate.OpenLoginModal()
		return
	}

	s := chat.NewSession(client)
	printTranscript(s.Messages())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			return
		case "/reset":
			s.Reset()
			printTranscript(s.Messages())
			continue
		}

		before := len(s.Messages())
		s.Submit(ctx, line)
		printTranscript(s.Messages()[before:])
	}
}

func newWidgetClient(cfg *config.Config) *chat.Client {
	return chat.NewClient(cfg.Widget.Endpoint,
		chat.WithTopK(cfg.Widget.TopK),
		chat.WithTimeout(time.Duration(cfg.Widget.TimeoutSeconds)*time.Second),
	)
}

// loginGate verifies the configured session token against the auth
// provider's database when one is configured, otherwise stays signed in
// locally.
func loginGate(cfg *config.Config) auth.Gate {
	onLogin := func() {
		fmt.Println("Please sign in on the documentation site and set auth.token in the config.")
	}

	if cfg.Auth.DatabaseURL == "" {
		return &auth.StaticGate{
			Current: &auth.Session{UserID: "local", ExpiresAt: time.Now().Add(24 * time.Hour)},
			OnLogin: onLogin,
		}
	}

	store, err := auth.NewStore(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to auth database")
	}
	gate := &auth.TokenGate{Store: store, Token: cfg.Auth.Token, OnLogin: onLogin}
	if session := gate.Session(); session != nil {
		log.Info().Str("email", session.Email).Msg("Signed in")
	}
	return gate
}

func printTranscript(msgs []chat.Message) {
	for _, m := range msgs {
		if err := render.WriteMessage(os.Stdout, m); err != nil {
			log.Warn().Err(err).Msg("Failed to render message")
		}
	}
}

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Msg("Error pretty printing")
		return
	}
	fmt.Println(string(b))
}
