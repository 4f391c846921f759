package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/sashabaranov/go-openai"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
)

const (
	MaxDraftTitle     = 200
	MaxDraftNotes     = 2000
	MaxDraftName      = 100
	MaxDraftAttendees = 20
	DefaultDraftTone  = "friendly"
)

var draftTones = map[string]string{
	"friendly": "warm and friendly",
	"formal":   "polite and formal",
	"casual":   "short and casual",
}

// TextGenerator turns a system and user prompt into a single completion.
type TextGenerator interface {
	Generate(ctx context.Context, system string, prompt string) (string, error)
}

type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator talks to baseURL, given without the /v1 suffix.
func NewOpenAIGenerator(apiKey string, model string, baseURL string, timeout time.Duration) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, system string, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   400,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type DraftService struct {
	Dep       *dependency.Dependency
	Generator TextGenerator
}

// NewDraftService accepts a nil generator; drafting then reports 503.
func NewDraftService(dep *dependency.Dependency, generator TextGenerator) *DraftService {
	return &DraftService{
		Dep:       dep,
		Generator: generator,
	}
}

// NewDefaultTextGenerator returns nil when no OpenAI key is configured.
func NewDefaultTextGenerator(dep *dependency.Dependency) TextGenerator {
	if dep.Cfg.OpenAIAPIKey == "" {
		return nil
	}
	return NewOpenAIGenerator(dep.Cfg.OpenAIAPIKey, dep.Cfg.OpenAIModel, dep.Cfg.OpenAIBaseURL, time.Duration(dep.Cfg.ProviderTimeoutInSec)*time.Second)
}

// SanitizeText trims, drops control characters, collapses whitespace runs into one
// space and cuts the result to max runes.
func SanitizeText(s string, max int) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	out := []rune(b.String())
	if len(out) > max {
		out = out[:max]
	}
	return strings.TrimSpace(string(out))
}

// DraftInput is a sanitized draft request.
type DraftInput struct {
	Title     string
	Attendees []string
	Notes     string
	Tone      string
}

func SanitizeDraftRequest(request *dto.DraftInvitationRequest) DraftInput {
	in := DraftInput{
		Title: SanitizeText(request.Title, MaxDraftTitle),
		Notes: SanitizeText(request.Notes, MaxDraftNotes),
		Tone:  DefaultDraftTone,
	}

	if _, ok := draftTones[request.Tone]; ok {
		in.Tone = request.Tone
	}

	for _, name := range request.Attendees {
		if len(in.Attendees) == MaxDraftAttendees {
			break
		}
		if clean := SanitizeText(name, MaxDraftName); clean != "" {
			in.Attendees = append(in.Attendees, clean)
		}
	}

	return in
}

func buildDraftPrompt(in DraftInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", in.Title)
	if len(in.Attendees) > 0 {
		fmt.Fprintf(&b, "Attendees: %s\n", strings.Join(in.Attendees, ", "))
	}
	if in.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", in.Notes)
	}
	return b.String()
}

func (s *DraftService) DraftInvitation(ctx context.Context, request *dto.DraftInvitationRequest) (*dto.DraftInvitationResponse, error) {
	in := SanitizeDraftRequest(request)
	if in.Title == "" {
		return nil, appError.NewBadRequest("title is required")
	}

	if s.Generator == nil {
		return nil, appError.NewServiceUnavailable("invitation drafting is not available")
	}

	system := "You write short calendar invitation messages. Keep the tone " + draftTones[in.Tone] +
		". Reply with the invitation text only."

	draft, err := s.Generator.Generate(ctx, system, buildDraftPrompt(in))
	if err != nil {
		s.Dep.Logger.Warn("failed to generate invitation draft", "err", err)
		return nil, appError.NewAppError(http.StatusBadGateway, "failed to generate draft")
	}

	return &dto.DraftInvitationResponse{Draft: draft}, nil
}
