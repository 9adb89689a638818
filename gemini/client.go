package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	// EmbeddingDimensions is the vector size stored in law_chunks
	EmbeddingDimensions = 768

	maxRetries     = 3
	initialBackoff = time.Second
	maxBatchSize   = 100
)

var (
	ErrEmptyResponse = errors.New("model returned empty content")
	ErrBlocked       = errors.New("model blocked the prompt")
)

// Client wraps the Gemini SDK for text generation and embeddings
type Client struct {
	client          *genai.Client
	generationModel string
	embeddingModel  string
	temperature     float32
	backoff         time.Duration
}

// Option configures a Client
type Option func(*Client)

func WithGenerationModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.generationModel = name
		}
	}
}

func WithEmbeddingModel(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.embeddingModel = name
		}
	}
}

// WithTemperature sets the sampling temperature used by Generate
func WithTemperature(t float32) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// New creates a Gemini client authenticated with apiKey
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		slog.Warn("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	c := &Client{
		client:          client,
		generationModel: "gemini-2.5-flash",
		embeddingModel:  "text-embedding-004",
		temperature:     0.2,
		backoff:         initialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Generate sends prompt to the generation model and returns the answer text
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.generationModel)
	model.SetTemperature(c.temperature)

	return retry(ctx, c.backoff, func() (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		return responseText(resp)
	})
}

// EmbedQuery embeds a search query
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	em.TaskType = genai.TaskTypeRetrievalQuery

	return retry(ctx, c.backoff, func() ([]float32, error) {
		res, err := em.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return nil, ErrEmptyResponse
		}
		return normalize(res.Embedding.Values), nil
	})
}

// EmbedDocuments embeds texts for storage, in batches the API accepts
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	em.TaskType = genai.TaskTypeRetrievalDocument

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatchSize {
		end := min(start+maxBatchSize, len(texts))

		batch, err := retry(ctx, c.backoff, func() ([][]float32, error) {
			b := em.NewBatch()
			for _, t := range texts[start:end] {
				b.AddContent(genai.Text(t))
			}
			res, err := em.BatchEmbedContents(ctx, b)
			if err != nil {
				return nil, err
			}
			if len(res.Embeddings) != end-start {
				return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(res.Embeddings))
			}
			out := make([][]float32, len(res.Embeddings))
			for i, e := range res.Embeddings {
				out[i] = normalize(e.Values)
			}
			return out, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("%w: %s", ErrBlocked, resp.PromptFeedback.BlockReason)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// normalize scales v to unit length in place
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// retry calls fn up to maxRetries times, doubling the wait between attempts
func retry[T any](ctx context.Context, backoff time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		v, err := fn()
		if err == nil {
			return v, nil
		}
		if errors.Is(err, ErrBlocked) || errors.Is(err, context.Canceled) {
			return zero, err
		}
		lastErr = err
		slog.Warn("gemini call failed", "attempt", attempt+1, "error", err)
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}
