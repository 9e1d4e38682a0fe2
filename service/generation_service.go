package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	openai "github.com/sashabaranov/go-openai"
)

// Generator turns a query and an assembled context block into an answer.
// The answer text is passed through to the caller untouched.
type Generator interface {
	GenerateAnswer(ctx context.Context, query, contextBlock string) (string, error)
}

const answerSystemPrompt = `You are a GDPR expert assistant. Provide accurate and helpful responses based on the provided guidelines.
Answer in the same language as the user's query (English or Japanese).

When answering:
- When citing from guidelines, indicate the source immediately after the citation like:
  "[From Guidelines on XXX: citation text]"
- When referencing GDPR articles, cite them inline like:
  "[GDPR Art. XX: relevant text]"
- Prioritize information from more recent guidelines when there are conflicts
- If providing information beyond what is covered in the guidelines, explicitly state this
- Keep the same language as the query (English or Japanese) for the entire response`

func answerPrompt(query, contextBlock string) string {
	return fmt.Sprintf(`Question: %s

Relevant Context:
%s

Please provide a comprehensive answer, citing sources inline when referencing guidelines or GDPR articles.
Prioritize information from more recent guidelines when available.`, query, contextBlock)
}

// OpenAIGenerator produces answers with an OpenAI chat model.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API
func NewOpenAIGenerator(client *openai.Client) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: client,
		model:  openai.GPT4o,
	}
}

// GenerateAnswer runs the chat completion with retry and backoff.
func (g *OpenAIGenerator) GenerateAnswer(ctx context.Context, query, contextBlock string) (string, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       g.model,
			Temperature: 0,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: answerSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: answerPrompt(query, contextBlock)},
			},
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = errors.New("empty completion")
			continue
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", maxRetries, lastErr)
}

// GeminiGenerator produces answers with a Gemini model.
type GeminiGenerator struct {
	model *genai.GenerativeModel
}

// NewGeminiGenerator creates a generator backed by the Gemini API
func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	gm := client.GenerativeModel("gemini-1.5-pro")
	gm.SetTemperature(0)
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(answerSystemPrompt)},
	}
	return &GeminiGenerator{model: gm}
}

// GenerateAnswer runs the generation call with retry and backoff.
func (g *GeminiGenerator) GenerateAnswer(ctx context.Context, query, contextBlock string) (string, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		resp, err := g.model.GenerateContent(ctx, genai.Text(answerPrompt(query, contextBlock)))
		if err != nil {
			lastErr = err
			continue
		}

		text := collectText(resp)
		if text == "" {
			lastErr = errors.New("empty completion")
			continue
		}

		return text, nil
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", maxRetries, lastErr)
}

func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				b.WriteString(string(txt))
			}
		}
	}
	return b.String()
}
