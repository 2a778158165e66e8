package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"docs-chat/internal/chat"
	"docs-chat/internal/config"
)

const systemPrompt = "You are a helpful assistant. Use the provided context to answer the query."

// GenerateFunc produces an answer from a prompt pair.
type GenerateFunc func(ctx context.Context, system, user string) (string, error)

// NewOpenAIGenerator returns a GenerateFunc backed by an OpenAI-compatible
// chat completion endpoint.
func NewOpenAIGenerator(cfg *config.LLMConfig) GenerateFunc {
	return func(ctx context.Context, system, user string) (string, error) {
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return "", err
		}

		res, err := llm.GenerateContent(ctx, []llms.MessageContent{
			{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextContent{Text: system}}},
			{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: user}}},
		})
		if err != nil {
			return "", err
		}
		if len(res.Choices) == 0 {
			return "", fmt.Errorf("empty completion response")
		}
		return res.Choices[0].Content, nil
	}
}

// Service answers questions over the local documentation index.
type Service struct {
	embedder Embedder
	store    Store
	generate GenerateFunc
	topK     int
}

func NewService(embedder Embedder, store Store, generate GenerateFunc, topK int) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{embedder: embedder, store: store, generate: generate, topK: topK}
}

// Answer embeds the question, retrieves the closest chunks and generates
// an answer grounded on them. topK <= 0 falls back to the service default.
func (s *Service) Answer(ctx context.Context, question string, topK int) (string, []chat.Source, error) {
	if topK <= 0 {
		topK = s.topK
	}

	queryEmbedding, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := s.store.Search(ctx, queryEmbedding, topK)
	if err != nil {
		return "", nil, fmt.Errorf("searching index: %w", err)
	}
	log.Debug().Int("hits", len(hits)).Str("question", question).Msg("Retrieved context")

	var contextText strings.Builder
	for _, hit := range hits {
		contextText.WriteString(hit.Text + "\n\n")
	}

	user := fmt.Sprintf("Context:\n%s\nQuery: %s", contextText.String(), question)
	answerText, err := s.generate(ctx, systemPrompt, user)
	if err != nil {
		return "", nil, fmt.Errorf("generating answer: %w", err)
	}

	sources := make([]chat.Source, len(hits))
	for i, hit := range hits {
		sources[i] = chat.Source{
			ID:       hit.ID,
			Score:    hit.Score,
			Text:     hit.Text,
			Metadata: hit.Metadata,
		}
	}
	return answerText, sources, nil
}

// Index parses chunks into documents and stores them with embeddings.
func (s *Service) Index(ctx context.Context, docs []Document) error {
	for i := range docs {
		if docs[i].Embedding != nil {
			continue
		}
		embedding, err := s.embedder.EmbedQuery(ctx, docs[i].Content)
		if err != nil {
			return fmt.Errorf("embedding document %s: %w", docs[i].ID, err)
		}
		docs[i].Embedding = embedding
	}
	return s.store.Add(ctx, docs)
}
