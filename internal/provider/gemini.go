package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// Gemini implements Provider with the Google Gen AI SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini provider for the given API key and model. Each
// request is bounded by timeout.
func NewGemini(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not set (GEMINI_API_KEY or provider.api_key)")
	}
	return newGemini(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}, modelName)
}

func newGemini(ctx context.Context, cc *genai.ClientConfig, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: modelName}, nil
}

// FetchEtymology asks the model for JSON constrained by etymologySchema.
func (g *Gemini) FetchEtymology(ctx context.Context, name string) (*model.EtymologyResult, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   etymologySchema(),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildEtymologyPrompt(name)), cfg)
	if err != nil {
		return nil, wrap(OpEtymology, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, wrap(OpEtymology, fmt.Errorf("no data returned for %q", name))
	}

	result, err := ParseEtymology(text)
	if err != nil {
		return nil, wrap(OpEtymology, err)
	}
	return result, nil
}

// FetchReply sends the transcript plus the new message as one conversation.
func (g *Gemini) FetchReply(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, genai.NewContentFromText(m.Text, geminiRole(m.Role)))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chatSystemPrompt, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", wrap(OpChat, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return emptyReply, nil
	}
	return text, nil
}

func geminiRole(r model.Role) genai.Role {
	if r == model.RoleAssistant {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func etymologySchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	strList := &genai.Schema{Type: genai.TypeArray, Items: str}

	categories := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		categories = append(categories, string(c))
	}

	location := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":         str,
			"lat":          {Type: genai.TypeNumber},
			"lng":          {Type: genai.TypeNumber},
			"significance": str,
			"type":         {Type: genai.TypeString, Enum: categories},
		},
		Required: []string{"name", "lat", "lng", "significance", "type"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":                 str,
			"meaning":              str,
			"gender":               str,
			"originRoots":          strList,
			"locations":            {Type: genai.TypeArray, Items: location},
			"history":              str,
			"culturalSignificance": str,
			"relatedNames":         strList,
			"funFact":              str,
		},
		Required: []string{"name", "meaning", "locations", "history", "culturalSignificance", "originRoots"},
	}
}
