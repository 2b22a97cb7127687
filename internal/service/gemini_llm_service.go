package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/lshigami/tutorlab/config"
	"github.com/lshigami/tutorlab/internal/grading"
	"github.com/lshigami/tutorlab/internal/model"
)

// GeminiLLMService explains to a student why an answer was marked wrong.
type GeminiLLMService interface {
	Enabled() bool
	ExplainAnswer(ctx context.Context, question model.QuestionSnapshot, studentAnswer string) (string, error)
}

type geminiLLMService struct {
	client *genai.GenerativeModel
}

func NewGeminiLLMService(cfg *config.Config) (GeminiLLMService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Execution reviews will not include explanations.")
		return &geminiLLMService{}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	m := client.GenerativeModel("gemini-1.5-flash")
	m.SetTemperature(0.2)
	return &geminiLLMService{client: m}, nil
}

func (s *geminiLLMService) Enabled() bool { return s.client != nil }

func (s *geminiLLMService) ExplainAnswer(ctx context.Context, question model.QuestionSnapshot, studentAnswer string) (string, error) {
	if s.client == nil {
		return "", nil
	}

	resp, err := s.client.GenerateContent(ctx, genai.Text(buildExplanationPrompt(question, studentAnswer)))
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("Gemini API error during explanation")
		return "", fmt.Errorf("gemini explain question %d: %w", question.ID, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn().Uint("questionID", question.ID).Msg("Gemini returned no candidates or parts in response.")
		return "", fmt.Errorf("gemini returned no content")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	explanation := strings.TrimSpace(b.String())
	if explanation == "" {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return explanation, nil
}

func buildExplanationPrompt(q model.QuestionSnapshot, studentAnswer string) string {
	var b strings.Builder
	b.WriteString("You are a patient tutor reviewing a student's test.\n")
	b.WriteString("Explain in at most four sentences why the correct answer is right and where the student's answer goes wrong.\n")
	b.WriteString("Address the student directly and do not restate the question.\n\n")
	b.WriteString("Question:\n---\n")
	b.WriteString(q.Text)
	b.WriteString("\n---\n")
	if len(q.Options) > 0 {
		b.WriteString("Options:\n")
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "%c) %s\n", 'A'+rune(i%26), opt)
		}
	}
	if key, ok := grading.KeyFor(q); ok {
		fmt.Fprintf(&b, "Correct answer (%s): %s\n", key.Encoding, key.Text)
	}
	fmt.Fprintf(&b, "Student's answer: %s\n", studentAnswer)
	return b.String()
}
