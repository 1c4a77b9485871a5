package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

// HTTPTransport posts analytics batches as a JSON array to a bulk insert endpoint
type HTTPTransport struct {
	endpoint   string
	httpClient *http.Client
	headers    map[string]string
}

func NewHTTPTransport(endpoint string, timeout time.Duration, headers map[string]string) *HTTPTransport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPTransport{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
	}
}

var _ providers.TelemetryTransport = (*HTTPTransport)(nil)

// SendBatch posts events in one request. Any non-2xx response is a transport error.
func (t *HTTPTransport) SendBatch(ctx context.Context, events []entities.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	body, err := json.Marshal(events)
	if err != nil {
		return apperrors.NewTelemetryTransportError("failed to marshal analytics batch", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewTelemetryTransportError("failed to build analytics request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTelemetryTransportError("analytics endpoint unreachable", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewTelemetryTransportError(
			fmt.Sprintf("analytics endpoint returned status %d", resp.StatusCode), nil)
	}
	return nil
}
