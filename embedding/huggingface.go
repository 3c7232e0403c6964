package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// HuggingFaceInferenceAPIURL is the default HuggingFace Inference API endpoint.
const HuggingFaceInferenceAPIURL = "https://api-inference.huggingface.co"

// DefaultHuggingFaceModel is used when no model is configured.
const DefaultHuggingFaceModel = "sentence-transformers/all-MiniLM-L6-v2"

// HuggingFaceEmbedding is an embedding client for a HuggingFace model,
// reached through the public Inference API or a self-hosted Text
// Embeddings Inference (TEI) server when WithHuggingFaceTEI is set.
type HuggingFaceEmbedding struct {
	apiKey     string
	baseURL    string
	model      string
	useTEI     bool
	httpClient *http.Client
	logger     *slog.Logger
}

// HuggingFaceEmbeddingOption configures a HuggingFaceEmbedding.
type HuggingFaceEmbeddingOption func(*HuggingFaceEmbedding)

// WithHuggingFaceAPIKey sets the API key.
func WithHuggingFaceAPIKey(apiKey string) HuggingFaceEmbeddingOption {
	return func(h *HuggingFaceEmbedding) { h.apiKey = apiKey }
}

// WithHuggingFaceBaseURL sets the base URL (e.g. a TEI server address).
func WithHuggingFaceBaseURL(baseURL string) HuggingFaceEmbeddingOption {
	return func(h *HuggingFaceEmbedding) { h.baseURL = baseURL }
}

// WithHuggingFaceModel sets the model.
func WithHuggingFaceModel(model string) HuggingFaceEmbeddingOption {
	return func(h *HuggingFaceEmbedding) { h.model = model }
}

// WithHuggingFaceTEI switches from the Inference API to a Text Embeddings
// Inference server's /embed endpoint, which natively batches.
func WithHuggingFaceTEI(useTEI bool) HuggingFaceEmbeddingOption {
	return func(h *HuggingFaceEmbedding) { h.useTEI = useTEI }
}

// NewHuggingFaceEmbedding builds a HuggingFaceEmbedding, defaulting the
// API key to HUGGINGFACE_API_KEY.
func NewHuggingFaceEmbedding(opts ...HuggingFaceEmbeddingOption) *HuggingFaceEmbedding {
	h := &HuggingFaceEmbedding{
		apiKey:     os.Getenv("HUGGINGFACE_API_KEY"),
		baseURL:    HuggingFaceInferenceAPIURL,
		model:      DefaultHuggingFaceModel,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type hfInferenceRequest struct {
	Inputs  interface{} `json:"inputs"`
	Options struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options,omitempty"`
}

type teiEmbedRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate,omitempty"`
}

// GetTextEmbedding embeds a single text.
func (h *HuggingFaceEmbedding) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	if h.useTEI {
		vecs, err := h.embedTEI(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		return vecs[0], nil
	}
	return h.embedInferenceAPI(ctx, text)
}

// GetTextEmbeddingsBatch embeds texts in TEI calls of up to 32 texts each
// when TEI mode is enabled, or one Inference API call per text otherwise.
func (h *HuggingFaceEmbedding) GetTextEmbeddingsBatch(ctx context.Context, texts []string, callback ProgressCallback) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if h.useTEI {
		const batchSize = 32
		results := make([][]float64, 0, len(texts))
		for i := 0; i < len(texts); i += batchSize {
			end := i + batchSize
			if end > len(texts) {
				end = len(texts)
			}
			vecs, err := h.embedTEI(ctx, texts[i:end])
			if err != nil {
				return nil, fmt.Errorf("huggingface tei batch at offset %d: %w", i, err)
			}
			results = append(results, vecs...)
			if callback != nil {
				callback(len(results), len(texts))
			}
		}
		return results, nil
	}

	results := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := h.embedInferenceAPI(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("huggingface embedding for text %d: %w", i, err)
		}
		results[i] = vec
		if callback != nil {
			callback(i+1, len(texts))
		}
	}
	return results, nil
}

func (h *HuggingFaceEmbedding) embedInferenceAPI(ctx context.Context, text string) ([]float64, error) {
	reqBody := hfInferenceRequest{Inputs: text}
	reqBody.Options.WaitForModel = true

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("huggingface request marshal: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", h.baseURL, h.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("huggingface request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("huggingface response read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("huggingface embedding failed", "model", h.model, "status", resp.StatusCode)
		return nil, fmt.Errorf("huggingface embedding (%d): %s", resp.StatusCode, string(respBody))
	}

	// Sentence-transformers models on the Inference API commonly return a
	// flat vector, but some return token-level embeddings; fall back to
	// mean pooling when the response is nested.
	var flat []float64
	if err := json.Unmarshal(respBody, &flat); err == nil {
		return flat, nil
	}
	var tokenEmbeddings [][]float64
	if err := json.Unmarshal(respBody, &tokenEmbeddings); err == nil && len(tokenEmbeddings) > 0 {
		return meanPool(tokenEmbeddings), nil
	}

	return nil, fmt.Errorf("huggingface embedding: unrecognized response shape")
}

func (h *HuggingFaceEmbedding) embedTEI(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(teiEmbedRequest{Inputs: texts, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("tei request marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tei request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tei request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tei response read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tei embedding (%d): %s", resp.StatusCode, string(respBody))
	}

	var vecs [][]float64
	if err := json.Unmarshal(respBody, &vecs); err != nil {
		return nil, fmt.Errorf("tei response decode: %w", err)
	}
	return vecs, nil
}

func meanPool(tokenEmbeddings [][]float64) []float64 {
	if len(tokenEmbeddings) == 0 {
		return nil
	}
	result := make([]float64, len(tokenEmbeddings[0]))
	for _, token := range tokenEmbeddings {
		for i, v := range token {
			result[i] += v
		}
	}
	n := float64(len(tokenEmbeddings))
	for i := range result {
		result[i] /= n
	}
	return result
}

var _ EmbeddingModel = (*HuggingFaceEmbedding)(nil)
var _ EmbeddingModelWithBatch = (*HuggingFaceEmbedding)(nil)
