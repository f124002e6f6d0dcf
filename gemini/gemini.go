package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash-exp"

// Turn is one prior exchange of the conversation, role "user" or "model".
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to the Gemini generateContent REST API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a Gemini client for the given API key and model. An empty
// model falls back to DefaultModel.
func New(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{},
	}
}

// ModelName returns the chat model identifier.
func (c *Client) ModelName() string {
	return c.model
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

// GenerateContent sends the system prompt, prior turns, and the new message
// in a single non-streaming completion call and returns the reply text.
func (c *Client) GenerateContent(ctx context.Context, systemPrompt string, history []Turn, message string) (string, error) {
	contents := []content{
		{Role: "user", Parts: []part{{Text: systemPrompt}}},
	}
	for _, turn := range history {
		role := "model"
		if turn.Role == "user" {
			role = "user"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: turn.Content}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})

	payload := map[string]interface{}{
		"contents": contents,
	}

	body, err := c.post(ctx, fmt.Sprintf("/v1beta/models/%s:generateContent", c.model), payload)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gemini generate decode: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini generate: empty response")
	}

	text := ""
	for _, p := range resp.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
