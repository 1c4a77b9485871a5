package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/observability"
	"github.com/zatekoja/productar/pkg/retry"
)

// ModelMetadata is the metadata document published next to the model weights
type ModelMetadata struct {
	ModelName string   `json:"modelName"`
	Labels    []string `json:"labels"`
	ImageSize int      `json:"imageSize,omitempty"`
}

type predictResponse struct {
	Predictions []entities.Prediction `json:"predictions"`
}

// HTTPEngine resolves a model reference over HTTP and runs inference against
// a model server that hosts the same weights.
type HTTPEngine struct {
	inferenceURL string
	httpClient   *http.Client
	retryConfig  retry.Config
	metadata     *ModelMetadata
}

// NewHTTPEngine creates an engine posting frames to inferenceURL
func NewHTTPEngine(inferenceURL string, timeout time.Duration) *HTTPEngine {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPEngine{
		inferenceURL: strings.TrimRight(inferenceURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		retryConfig:  retry.QuickConfig(),
	}
}

var _ providers.InferenceEngine = (*HTTPEngine)(nil)

// Metadata returns the loaded model metadata, nil before Load succeeds
func (e *HTTPEngine) Metadata() *ModelMetadata {
	return e.metadata
}

// Load fetches the model topology and metadata documents
func (e *HTTPEngine) Load(ctx context.Context, ref entities.ModelReference) ([]string, error) {
	if ref.ModelURL == "" || ref.MetadataURL == "" {
		return nil, fmt.Errorf("model reference requires both model and metadata URLs")
	}
	if e.inferenceURL == "" {
		return nil, fmt.Errorf("no inference endpoint configured")
	}

	logger := observability.Component("classifier")
	onRetry := func(attempt int, err error, next time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("model fetch failed")
	}

	var topology map[string]json.RawMessage
	err := retry.DoWithLog(ctx, e.retryConfig, "model topology", func() error {
		return e.getJSON(ctx, ref.ModelURL, &topology)
	}, onRetry)
	if err != nil {
		return nil, err
	}
	if len(topology) == 0 {
		return nil, fmt.Errorf("model document at %s is empty", ref.ModelURL)
	}

	var metadata ModelMetadata
	err = retry.DoWithLog(ctx, e.retryConfig, "model metadata", func() error {
		return e.getJSON(ctx, ref.MetadataURL, &metadata)
	}, onRetry)
	if err != nil {
		return nil, err
	}
	if len(metadata.Labels) == 0 {
		return nil, fmt.Errorf("model metadata at %s declares no labels", ref.MetadataURL)
	}

	e.metadata = &metadata
	return metadata.Labels, nil
}

// Predict posts the encoded frame and returns the model's label scores
func (e *HTTPEngine) Predict(ctx context.Context, frame *entities.Frame) ([]entities.Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.inferenceURL, bytes.NewReader(frame.Data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType(frame.Format))
	req.Header.Set("X-Frame-Width", strconv.Itoa(frame.Width))
	req.Header.Set("X-Frame-Height", strconv.Itoa(frame.Height))
	req.Header.Set("X-Frame-Seq", strconv.FormatUint(frame.Seq, 10))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("inference endpoint returned status %d", resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode predictions: %w", err)
	}
	return out.Predictions, nil
}

func (e *HTTPEngine) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func contentType(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
