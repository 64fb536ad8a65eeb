// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the remote completion client for pocketchat.
package cloud

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/pocketchat/internal/config"
	"github.com/jeranaias/pocketchat/internal/model"
)

// Configuration constants for the completion endpoints.
const (
	// OpenRouterURL is the OpenRouter chat completions endpoint.
	OpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

	// OpenAIURL is the OpenAI chat completions endpoint.
	OpenAIURL = "https://api.openai.com/v1/chat/completions"

	// FallbackURL is the keyless endpoint used for free models when no
	// credential is configured.
	FallbackURL = "https://toolkit.rork.com/text/llm/"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// refererHeader and titleHeader identify the app to OpenRouter.
	refererHeader = "https://your-app.com"
	titleHeader   = "AI Chat App"
)

// sharedHTTPClient is shared across clients. Connection pooling reduces
// TCP handshake overhead; TLS verification is always on.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrModelNotFound indicates the requested model is not in the catalog.
	ErrModelNotFound = errors.New("model not found")

	// ErrUnexpectedFormat indicates the response body matched no known shape.
	ErrUnexpectedFormat = errors.New("unexpected response format from API")
)

// RequestError represents a non-2xx response from a completion endpoint.
// The body is carried for logging; callers should not show it verbatim.
type RequestError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("API request failed: %d", e.Status)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single message in the wire format shared by every
// supported endpoint.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openAIRequest is the standard chat completions body.
type openAIRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// minimalRequest carries only the messages array.
type minimalRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// completionResponse covers both response shapes: the openai choices
// array and the flat completion field of the fallback endpoint.
type completionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Completion string `json:"completion"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client dispatches chat completions to the endpoint matching the
// model's provider. Safe for concurrent use.
type Client struct {
	settings   *config.Settings
	logger     *zap.Logger
	httpClient *http.Client

	openRouterURL string
	openAIURL     string
	fallbackURL   string
}

// NewClient creates a completion client backed by the shared pooled
// HTTP client.
func NewClient(settings *config.Settings, logger *zap.Logger) *Client {
	return &Client{
		settings:      settings,
		logger:        logger,
		httpClient:    sharedHTTPClient,
		openRouterURL: OpenRouterURL,
		openAIURL:     OpenAIURL,
		fallbackURL:   FallbackURL,
	}
}

// WithHTTPClient sets a custom HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithEndpoints overrides the provider endpoints. Empty strings keep
// the current values.
func (c *Client) WithEndpoints(openRouter, openAI, fallback string) *Client {
	if openRouter != "" {
		c.openRouterURL = openRouter
	}
	if openAI != "" {
		c.openAIURL = openAI
	}
	if fallback != "" {
		c.fallbackURL = fallback
	}
	return c
}

// Complete sends the conversation to the model's endpoint and returns
// the assistant reply.
//
// Transport-level failures are returned as-is so callers can classify
// them; endpoint rejections surface as *RequestError.
func (c *Client) Complete(ctx context.Context, messages []model.Message, modelID string) (string, error) {
	desc, ok := model.Lookup(modelID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrModelNotFound, modelID)
	}

	wire := make([]ChatMessage, 0, len(messages)+1)
	wire = append(wire, ChatMessage{
		Role:    model.RoleSystem.String(),
		Content: fmt.Sprintf("You are a helpful AI assistant using the %s model. Be concise, helpful, and friendly.", desc.Name),
	})
	for _, msg := range messages {
		wire = append(wire, ChatMessage{Role: msg.Role.String(), Content: msg.Content})
	}

	apiURL, headers := c.route(desc)

	// No credential and a free model: route through the keyless
	// fallback so the request still succeeds.
	if headers.Get("Authorization") == "" && desc.Free {
		apiURL = c.fallbackURL
		headers = http.Header{}
		headers.Set("Content-Type", "application/json")
	}

	body, err := c.encodeBody(desc, wire)
	if err != nil {
		return "", err
	}

	c.logger.Debug("sending completion request",
		zap.String("url", apiURL),
		zap.String("model", desc.ID),
		zap.Int("messages", len(wire)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header = headers

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Returned unwrapped for connectivity classification.
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", err
	}

	c.logger.Debug("completion response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("completion request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("model", desc.ID))
		return "", &RequestError{Status: resp.StatusCode, Body: string(data)}
	}

	return parseCompletion(data)
}

// route resolves the endpoint URL and headers for a model's provider.
func (c *Client) route(desc model.Descriptor) (string, http.Header) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	var apiURL string
	switch desc.Provider {
	case model.ProviderOpenRouter:
		apiURL = c.openRouterURL
		if key := c.settings.APIKey(model.ProviderOpenRouter); key != "" {
			headers.Set("Authorization", "Bearer "+key)
		}
		headers.Set("HTTP-Referer", refererHeader)
		headers.Set("X-Title", titleHeader)

	case model.ProviderOpenAI:
		apiURL = c.openAIURL
		if key := c.settings.APIKey(model.ProviderOpenAI); key != "" {
			headers.Set("Authorization", "Bearer "+key)
		}

	default:
		apiURL = c.settings.CustomEndpoint()
		if key := c.settings.APIKey(model.ProviderCustom); key != "" {
			headers.Set("Authorization", "Bearer "+key)
		}
	}

	return apiURL, headers
}

// encodeBody builds the request body for the model's API format.
func (c *Client) encodeBody(desc model.Descriptor, wire []ChatMessage) ([]byte, error) {
	if desc.APIFormat == model.FormatOpenAI {
		tuning := c.settings.Request()
		return json.Marshal(openAIRequest{
			Model:       desc.ID,
			Messages:    wire,
			Temperature: tuning.Temperature,
			MaxTokens:   tuning.MaxTokens,
		})
	}
	return json.Marshal(minimalRequest{Messages: wire})
}

// parseCompletion extracts the assistant reply from a response body.
// Accepts the openai choices shape and the flat completion field.
func parseCompletion(data []byte) (string, error) {
	var parsed completionResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedFormat, err)
	}
	if len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != "" {
		return parsed.Choices[0].Message.Content, nil
	}
	if parsed.Completion != "" {
		return parsed.Completion, nil
	}
	return "", ErrUnexpectedFormat
}
