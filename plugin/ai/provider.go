package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// ErrProviderUnavailable indicates that a model provider could not serve the
// request (network, auth or quota failure). Callers must not retry internally;
// the search orchestrator decides the fallback.
var ErrProviderUnavailable = errors.New("model provider unavailable")

// Provider is a per-provider capability object exposing embedding and text
// generation. Implementations are selected through the Registry, never
// through type switches.
type Provider interface {
	// Embed generates the embedding vector for a single non-empty text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Complete performs a chat completion with a system and a user prompt.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Dimensions returns the provider-specific vector dimension.
	Dimensions() int
}

type openAICompatProvider struct {
	client *openai.Client
	cfg    ProviderConfig
}

// NewProvider creates a Provider backed by an OpenAI-compatible API.
// Both OpenAI and Gemini (through its compatibility endpoint) use this path.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &openAICompatProvider{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

func (p *openAICompatProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("text is required for embedding")
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.cfg.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create embeddings: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrProviderUnavailable)
	}

	return resp.Data[0].Embedding, nil
}

func (p *openAICompatProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty chat response", ErrProviderUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *openAICompatProvider) Dimensions() int {
	return p.cfg.Dimensions
}
