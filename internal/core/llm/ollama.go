package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/markdave123-py/legalmind/internal/core"
)

var (
	_ core.EmbeddingProvider = (*OllamaClient)(nil)
	_ core.LLMProvider       = (*OllamaClient)(nil)
)

// OllamaClient serves both embeddings and generation from a local Ollama server.
type OllamaClient struct {
	client     *api.Client
	embedModel string
	genModel   string
}

func NewOllamaClient(host, embedModel, genModel string) (*OllamaClient, error) {
	if host == "" {
		host = "http://localhost:11434"
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	if embedModel == "" {
		embedModel = "nomic-embed-text"
	}
	if genModel == "" {
		genModel = "llama3.2"
	}
	return &OllamaClient{
		client:     api.NewClient(base, &http.Client{Timeout: 5 * time.Minute}),
		embedModel: embedModel,
		genModel:   genModel,
	}, nil
}

func (o *OllamaClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := o.client.Embed(ctx, &api.EmbedRequest{Model: o.embedModel, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embed: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

func (o *OllamaClient) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	var messages []api.Message
	if systemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, api.Message{Role: "user", Content: userPrompt})

	stream := false
	req := &api.ChatRequest{
		Model:    o.genModel,
		Messages: messages,
		Stream:   &stream,
		Options:  map[string]interface{}{"temperature": temperature},
	}

	var b strings.Builder
	err := o.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("ollama chat: %w", ErrEmptyResponse)
	}
	return b.String(), nil
}
