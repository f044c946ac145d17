package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
)

// LLMStage identifies which pipeline step is calling the model, so the router
// can pick a tier per stage (cheap/fast for classification and keyword
// assist, higher quality for intent extraction and user-facing responses).
type LLMStage string

const (
	StageClassifyIntent LLMStage = "classify_intent"
	StageExtractIntent  LLMStage = "extract_intent"
	StageKeywordAssist  LLMStage = "keyword_assist"
	StagePlaceRerank    LLMStage = "place_rerank"
	StageRespond        LLMStage = "respond"
	StageGeneralChat    LLMStage = "general_chat"
)

// LLMClientInterface is the single injectable port for every LLM-backed step.
// Implementations must honor ctx cancellation.
type LLMClientInterface interface {
	Complete(ctx context.Context, stage LLMStage, systemPrompt, userPrompt string) (string, error)
}

type llmProvider interface {
	complete(ctx context.Context, system, user string) (string, error)
	name() string
}

// LLMRouter calls the primary provider and falls back to the secondary one
// when the primary errors. A nil fallback means primary-only.
type LLMRouter struct {
	primary  llmProvider
	fallback llmProvider
	timeout  time.Duration
}

// NewLLMRouterFromEnv wires OpenAI as the primary provider and Gemini as the
// fallback tier when GEMINI_API_KEY is set.
func NewLLMRouterFromEnv() LLMClientInterface {
	router := &LLMRouter{
		primary: newOpenAIProvider(
			GetEnv("OPENAI_API_KEY", ""),
			GetEnv("OPENAI_MODEL", openai.GPT4oMini),
		),
		timeout: time.Duration(GetEnvInt("LLM_TIMEOUT_SECONDS", 20)) * time.Second,
	}

	if geminiKey := GetEnv("GEMINI_API_KEY", ""); geminiKey != "" {
		fallback, err := newGeminiProvider(geminiKey, GetEnv("GEMINI_MODEL", "gemini-1.5-flash"))
		if err != nil {
			log.Printf("Gemini fallback unavailable: %v", err)
		} else {
			router.fallback = fallback
		}
	}

	return router
}

func (r *LLMRouter) Complete(ctx context.Context, stage LLMStage, systemPrompt, userPrompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	content, err := r.primary.complete(callCtx, systemPrompt, userPrompt)
	if err == nil {
		return content, nil
	}
	log.Printf("LLM primary call failed: stage=%s provider=%s err=%v", stage, r.primary.name(), err)

	if r.fallback == nil {
		return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	fallbackCtx, cancelFallback := context.WithTimeout(ctx, r.timeout)
	defer cancelFallback()

	content, fallbackErr := r.fallback.complete(fallbackCtx, systemPrompt, userPrompt)
	if fallbackErr != nil {
		log.Printf("LLM fallback call failed: stage=%s provider=%s err=%v", stage, r.fallback.name(), fallbackErr)
		return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, fallbackErr)
	}
	return content, nil
}

// --------- OpenAI provider ---------

type openAIProvider struct {
	client *openai.Client
	model  string
}

func newOpenAIProvider(apiKey, model string) *openAIProvider {
	return &openAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *openAIProvider) name() string { return "openai" }

func (p *openAIProvider) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// --------- Gemini provider ---------

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(apiKey, model string) (*geminiProvider, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) name() string { return "gemini" }

func (p *geminiProvider) complete(ctx context.Context, system, user string) (string, error) {
	m := p.client.GenerativeModel(p.model)
	m.SetTemperature(0.1)
	m.SetTopP(0.5)
	m.SetTopK(20)

	resp, err := m.GenerateContent(ctx, genai.Text(system+"\n\n"+user))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
