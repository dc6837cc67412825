package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/amishk599/pitchdesk/internal/model"
)

var _ model.ContactResolver = (*ContactClient)(nil)

// contactShape is the structured answer requested from the lookup service.
// Every field is sent empty; the service fills what it finds.
var contactShape = model.ResolvedContact{}

type answerRequest struct {
	Task string                `json:"task"`
	JSON model.ResolvedContact `json:"json"`
}

type answerResponse struct {
	Result *struct {
		JSONContent string `json:"json_content"`
	} `json:"result"`
}

// ContactClient asks a web-answers service for a person's contact details.
type ContactClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewContactClient creates a client for the answers API rooted at baseURL.
func NewContactClient(baseURL, apiKey string, client *http.Client) *ContactClient {
	return &ContactClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// Resolve submits instruction and decodes the structured answer. It makes a
// single attempt; callers decide what a failure means.
func (c *ContactClient) Resolve(ctx context.Context, instruction string) (model.ResolvedContact, error) {
	var out model.ResolvedContact
	if c.apiKey == "" {
		return out, errors.New("contact lookup: api key not configured")
	}

	body, err := json.Marshal(answerRequest{Task: instruction, JSON: contactShape})
	if err != nil {
		return out, fmt.Errorf("contact lookup: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/answers", bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("contact lookup: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("contact lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("contact lookup: %w", statusError(resp, "answers"))
	}

	var ar answerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return out, fmt.Errorf("contact lookup: decode: %w", err)
	}
	if ar.Result == nil || ar.Result.JSONContent == "" {
		return out, errors.New("contact lookup: response has no json_content")
	}
	// json_content is itself a JSON document encoded as a string.
	if err := json.Unmarshal([]byte(ar.Result.JSONContent), &out); err != nil {
		return model.ResolvedContact{}, fmt.Errorf("contact lookup: decode json_content: %w", err)
	}
	return out, nil
}
