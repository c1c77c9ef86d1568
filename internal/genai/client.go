// Package genai calls the language-model service that phrases the final
// reply. The prompt only ever carries entity data the validator has already
// approved.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"district-concierge/internal/common/config"
	"district-concierge/internal/common/errors"
	"district-concierge/internal/common/logger"
	"district-concierge/internal/models"
)

// Generator produces conversational phrasing for validated content.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is the generation input. Records must already have passed
// validation before they are placed here.
type Request struct {
	QueryText string
	Intent    models.Intent
	BaseText  string
	Records   []models.CatalogRecord
}

// Client talks to the generation endpoint over HTTP. Timeouts come from the
// request context only; the underlying http.Client carries none.
type Client struct {
	cfg    config.GenAIConfig
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{"component": "genai-client"}),
	}
}

// Generate asks the model to phrase the validated base text. Retries with
// exponential backoff up to MaxRetries; a context deadline maps to the
// timeout error so callers can fall back to the pre-phrased text.
func (c *Client) Generate(ctx context.Context, genReq Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Timeout)*time.Millisecond)
	defer cancel()

	body, err := json.Marshal(map[string]interface{}{
		"prompt": c.buildPrompt(genReq),
		"context": map[string]interface{}{
			"intent":  genReq.Intent,
			"records": genReq.Records,
		},
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
	})
	if err != nil {
		return "", errors.NewLLMGenerationFailedError(err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", errors.NewLLMTimeoutError()
			}
		}

		// The body reader is consumed per attempt, so the request is
		// rebuilt each time.
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/ai/generate", bytes.NewReader(body))
		if reqErr != nil {
			return "", errors.NewLLMGenerationFailedError(reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", errors.NewLLMTimeoutError()
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.NewLLMTimeoutError()
		}
		return "", errors.NewLLMGenerationFailedError(lastErr)
	}
	if resp == nil {
		return "", errors.NewLLMGenerationFailedError(fmt.Errorf("no successful response after retries"))
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", errors.NewLLMGenerationFailedError(fmt.Errorf("decode error: %v", err))
	}

	if strings.TrimSpace(apiResponse.Text) == "" {
		return "", errors.NewLLMGenerationFailedError(fmt.Errorf("empty generation"))
	}

	c.logger.Debug("generation completed", map[string]interface{}{
		"confidence": apiResponse.Confidence,
	})
	return apiResponse.Text, nil
}

func (c *Client) buildPrompt(genReq Request) string {
	var parts []string

	parts = append(parts, "You are the concierge for a shopping district. Rephrase the verified answer below conversationally.")
	parts = append(parts, "Use ONLY the businesses listed. Never add, rename, or invent a business.")
	parts = append(parts, fmt.Sprintf("\nUser Question: %s", genReq.QueryText))
	parts = append(parts, fmt.Sprintf("\nVerified Answer: %s", genReq.BaseText))

	if len(genReq.Records) > 0 {
		recordsJSON, _ := json.MarshalIndent(genReq.Records, "", "  ")
		parts = append(parts, "\nVerified Businesses:")
		parts = append(parts, string(recordsJSON))
	}

	parts = append(parts, "\nInstructions:")
	parts = append(parts, "- Keep every business name, address, and phone number exactly as given")
	parts = append(parts, "- Keep the response short and friendly")
	parts = append(parts, "\nAnswer:")

	return strings.Join(parts, "\n")
}
