package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// Proxy actions accepted by a provider proxy endpoint.
const (
	ActionEtymology = "etymology"
	ActionChat      = "chat"
)

// ProxyRequest is the body posted to a provider proxy.
type ProxyRequest struct {
	Action  string              `json:"action"`
	Name    string              `json:"name,omitempty"`
	History []model.ChatMessage `json:"history,omitempty"`
	Message string              `json:"message,omitempty"`
}

// ProxyChatResponse is the proxy's answer to a chat action.
type ProxyChatResponse struct {
	Text string `json:"text"`
}

// ProxyErrorResponse is the body of a failed proxy call.
type ProxyErrorResponse struct {
	Error string `json:"error"`
}

// Proxy implements Provider by calling a remote proxy endpoint that holds
// the model credentials, such as another instance's /api/provider.
type Proxy struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewProxy creates a Proxy for endpoint with the given request timeout.
func NewProxy(endpoint string, timeout time.Duration) (*Proxy, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("provider proxy endpoint not set")
	}
	return &Proxy{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: timeout},
	}, nil
}

// FetchEtymology posts an etymology action and parses the returned JSON.
func (p *Proxy) FetchEtymology(ctx context.Context, name string) (*model.EtymologyResult, error) {
	body, err := p.post(ctx, ProxyRequest{Action: ActionEtymology, Name: name})
	if err != nil {
		return nil, wrap(OpEtymology, err)
	}
	result, err := ParseEtymology(string(body))
	if err != nil {
		return nil, wrap(OpEtymology, err)
	}
	return result, nil
}

// FetchReply posts a chat action and returns the reply text.
func (p *Proxy) FetchReply(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	body, err := p.post(ctx, ProxyRequest{Action: ActionChat, History: history, Message: message})
	if err != nil {
		return "", wrap(OpChat, err)
	}

	var resp ProxyChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", wrap(OpChat, fmt.Errorf("parsing response: %w", err))
	}
	if resp.Text == "" {
		return emptyReply, nil
	}
	return resp.Text, nil
}

func (p *Proxy) post(ctx context.Context, reqBody ProxyRequest) ([]byte, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr ProxyErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return respBody, nil
}
