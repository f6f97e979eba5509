package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const transcribePrompt = "Transcribe all text on this page exactly as printed, one line of output per printed line. " +
	"Output only the text, with no commentary and no markdown."

// GeminiClient calls Google's Gemini models. It also implements image
// transcription for the OCR fallback.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{client: cl, model: strings.TrimSpace(model)}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}
	if req.JSON {
		m.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		n := int32(req.MaxTokens)
		m.GenerationConfig.MaxOutputTokens = &n
	}
	if req.System != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	return g.generate(ctx, m, genai.Text(req.Prompt))
}

// RecognizeImage transcribes a rendered page image.
func (g *GeminiClient) RecognizeImage(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/" + strings.TrimPrefix(strings.ToLower(filepath.Ext(imagePath)), ".")
	}
	m := g.client.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}
	return g.generate(ctx, m, genai.Text(transcribePrompt), &genai.Blob{MIMEType: mime, Data: data})
}

func (g *GeminiClient) generate(ctx context.Context, m *genai.GenerativeModel, parts ...genai.Part) (string, error) {
	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		se := &ServiceError{Provider: "gemini", Err: err}
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			se.StatusCode = gerr.Code
			se.Message = gerr.Message
		}
		return "", se
	}
	txt := firstText(resp)
	if txt == "" {
		return "", &ServiceError{Provider: "gemini", Message: "empty response"}
	}
	return txt, nil
}

func (g *GeminiClient) Model() string { return g.model }

func (g *GeminiClient) Close() {
	g.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
