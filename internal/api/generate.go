package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/eerieecho/internal/errors"
	"github.com/diogo/eerieecho/internal/models"
)

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 4 << 20

// Gemini response paths
const (
	PathErrorMessage = "error.message"
	PathCandidates   = "candidates"
	PathFirstText    = "candidates.0.content.parts.0.text"
)

// Generate sends the transcript to the model and returns the first
// candidate's first text segment verbatim. One attempt, no retries.
func (c *GeminiClient) Generate(ctx context.Context, transcript []models.TranscriptEntry, apiKey string) (string, error) {
	if apiKey == "" {
		return "", apierrors.NewMissingCredentialError()
	}

	if c.IsClosed() {
		return "", apierrors.NewTransportError("", fmt.Errorf("client is closed"))
	}

	model := c.GetModel()
	endpoint := models.GenerateURL(c.endpoint, model)

	body, err := buildPayload(transcript, c.genConfig)
	if err != nil {
		return "", apierrors.NewParseError(endpoint, fmt.Sprintf("failed to build payload: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", apierrors.NewTransportError(endpoint, fmt.Errorf("failed to create request: %w", err))
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}

	c.logger.Debug().
		Str("model", model.Name).
		Int("turns", len(transcript)).
		Msg("sending generateContent request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			err = apierrors.NewTimeoutError(fmt.Sprintf("no reply after %s", c.timeout))
		}
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("generateContent transport failure")
		return "", apierrors.NewTransportError(endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", apierrors.NewTransportError(endpoint, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("generateContent response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := parseErrorMessage(data)
		c.logger.Warn().Int("status", resp.StatusCode).Str("message", msg).Msg("generateContent failed")
		return "", apierrors.NewCompletionError(resp.StatusCode, endpoint, msg)
	}

	return parseResponse(data, endpoint)
}

// buildPayload creates the generateContent JSON body
func buildPayload(transcript []models.TranscriptEntry, cfg models.GenerationConfig) ([]byte, error) {
	req := models.GenerateRequest{
		Contents:         models.ToContents(transcript),
		GenerationConfig: &cfg,
	}
	return json.Marshal(req)
}

// parseErrorMessage extracts error.message, or the generic failure text
func parseErrorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, PathErrorMessage).String(); msg != "" {
			return msg
		}
	}
	return apierrors.MsgGenericFailure
}

// parseResponse validates the candidate array and extracts the first text
func parseResponse(body []byte, endpoint string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError(endpoint, "response is not valid JSON")
	}

	candidates := gjson.GetBytes(body, PathCandidates)
	if !candidates.IsArray() || len(candidates.Array()) == 0 {
		return "", &apierrors.CompletionError{
			Endpoint: endpoint,
			Message:  apierrors.MsgNoCandidates,
			Cause:    apierrors.ErrNoCandidates,
		}
	}

	text := gjson.GetBytes(body, PathFirstText)
	if !text.Exists() {
		return "", apierrors.NewParseError(endpoint, "first candidate has no text part")
	}

	return text.String(), nil
}
