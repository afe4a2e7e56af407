// Package llm is a thin client for the Gemini API covering the two calls the
// server needs: text generation and text embedding.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model produced no text or vectors.
var ErrEmptyResponse = errors.New("empty model response")

// maxEmbedBatch is the per-request content limit of the embedding endpoint.
const maxEmbedBatch = 100

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Embedder maps texts to embedding vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// models is the subset of *genai.Models used here.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Client implements Generator and Embedder. Calls are made once; there is
// no retry and no timeout beyond the caller's context.
type Client struct {
	models          models
	generationModel string
	embeddingModel  string
}

// newGenaiClient is a seam for tests.
var newGenaiClient = genai.NewClient

// NewClient connects to the Gemini API backend with apiKey.
func NewClient(ctx context.Context, apiKey, generationModel, embeddingModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is not set")
	}
	c, err := newGenaiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return newClient(c.Models, generationModel, embeddingModel), nil
}

func newClient(m models, generationModel, embeddingModel string) *Client {
	return &Client{models: m, generationModel: generationModel, embeddingModel: embeddingModel}
}

func (c *Client) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.generationModel, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for _, batch := range lo.Chunk(texts, maxEmbedBatch) {
		contents := lo.Map(batch, func(t string, _ int) *genai.Content {
			return genai.NewContentFromText(t, genai.RoleUser)
		})

		resp, err := c.models.EmbedContent(ctx, c.embeddingModel, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		if resp == nil || len(resp.Embeddings) != len(batch) {
			return nil, ErrEmptyResponse
		}
		for _, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, ErrEmptyResponse
			}
			out = append(out, e.Values)
		}
	}
	return out, nil
}
