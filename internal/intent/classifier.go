// internal/intent/classifier.go
package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sahayak-workers/internal/common/config"
	apperrors "sahayak-workers/internal/common/errors"
	commonhttp "sahayak-workers/internal/common/http"
	"sahayak-workers/internal/common/logger"
	"sahayak-workers/internal/models"
)

// Classifier supplies NLU classifications for utterances that arrive
// without one in the job variables.
type Classifier interface {
	Classify(ctx context.Context, text, language string) (*models.Classification, error)
}

// HTTPClassifier calls the external classification endpoint.
type HTTPClassifier struct {
	baseURL string
	apiKey  string
	client  *commonhttp.Client
	logger  logger.Logger
}

func NewHTTPClassifier(cfg config.ClassifierConfig, log logger.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		logger:  log.WithFields(map[string]interface{}{"component": "intent-classifier"}),
	}
}

type classifyRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Classify posts the utterance and decodes the classification. Transport
// failures map to the upstream error codes so callers can apply their
// retry budget.
func (c *HTTPClassifier) Classify(ctx context.Context, text, language string) (*models.Classification, error) {
	payload, err := json.Marshal(classifyRequest{Text: text, Language: language})
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("marshal classify request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("build classify request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewUpstreamTimeoutError("intent-classifier", err)
		}
		return nil, apperrors.NewUpstreamUnavailableError("intent-classifier", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, apperrors.NewUpstreamUnavailableError("intent-classifier",
			fmt.Errorf("classify failed (status %d): %s", resp.StatusCode, string(body)))
	}

	var classification models.Classification
	if err := json.NewDecoder(resp.Body).Decode(&classification); err != nil {
		return nil, apperrors.NewUpstreamUnavailableError("intent-classifier",
			fmt.Errorf("decode classification: %w", err))
	}

	c.logger.Debug("utterance classified", map[string]interface{}{
		"category":   string(classification.Category),
		"confidence": classification.Confidence,
	})
	return &classification, nil
}
