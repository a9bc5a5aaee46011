package tutor

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/tatianab/cyber-clicker/internal/models"
)

//go:embed prompts/lesson.txt
var lessonPrompt string

var lessonTemplate = template.Must(template.New("lesson").Parse(lessonPrompt))

// Request describes the moment a lesson is wanted for.
type Request struct {
	// Level is the player's level after the event.
	Level int
	// Upgrade is set when the lesson follows a purchase.
	Upgrade *models.Upgrade
}

// Tutor produces short lessons shown to the player.
type Tutor interface {
	Lesson(ctx context.Context, req Request) (string, error)
}

var levelTips = []string{
	"Never share your password, not even with friends. A real company will never ask for it.",
	"Use a different password for every account, so one leak does not unlock everything.",
	"Think before you click: hover over a link to see where it really goes.",
	"Lock your screen when you walk away from your computer or phone.",
	"Be careful what you post online. Your school name and address help strangers find you.",
	"If a message makes you panic or feel rushed, slow down. That is a common scam trick.",
	"Back up your important files, so ransomware or a broken laptop cannot take them away.",
	"Only install apps from official stores, and check what permissions they ask for.",
}

// Static answers from the catalog and a fixed rotation of tips.
type Static struct{}

func (Static) Lesson(ctx context.Context, req Request) (string, error) {
	if req.Upgrade != nil && req.Upgrade.Lesson != "" {
		return req.Upgrade.Lesson, nil
	}
	i := req.Level - 2
	if i < 0 {
		i = 0
	}
	return levelTips[i%len(levelTips)], nil
}

// Gemini asks a Gemini model for a lesson and falls back to Static when the
// call fails or returns nothing usable.
type Gemini struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	fallback Tutor
	logger   *zap.Logger
}

func NewGemini(ctx context.Context, apiKey string, logger *zap.Logger) (*Gemini, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel("gemini-2.5-flash")
	return &Gemini{
		client:   client,
		model:    model,
		fallback: Static{},
		logger:   logger,
	}, nil
}

func (g *Gemini) Close() {
	g.client.Close()
}

func (g *Gemini) Lesson(ctx context.Context, req Request) (string, error) {
	text, err := g.generate(ctx, req)
	if err != nil {
		g.logger.Warn("Tutor request failed, using built-in lesson", zap.Error(err))
		return g.fallback.Lesson(ctx, req)
	}
	return text, nil
}

func (g *Gemini) generate(ctx context.Context, req Request) (string, error) {
	prompt, err := renderPrompt(req)
	if err != nil {
		return "", err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	part, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	text := cleanLesson(string(part))
	if text == "" {
		return "", fmt.Errorf("empty lesson from Gemini")
	}
	return text, nil
}

func renderPrompt(req Request) (string, error) {
	data := struct {
		Event   string
		Concept string
		Level   int
	}{
		Event: "reached a new level",
		Level: req.Level,
	}
	if req.Upgrade != nil {
		data.Event = "bought the " + req.Upgrade.Name + " upgrade"
		data.Concept = req.Upgrade.Lesson
	}

	var buf bytes.Buffer
	if err := lessonTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// cleanLesson removes the code fences and quotes models sometimes add.
func cleanLesson(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// New picks Gemini when an API key is configured and Static otherwise. The
// returned close func is always safe to call.
func New(ctx context.Context, apiKey string, logger *zap.Logger) (Tutor, func()) {
	if apiKey == "" {
		return Static{}, func() {}
	}
	g, err := NewGemini(ctx, apiKey, logger)
	if err != nil {
		if logger != nil {
			logger.Warn("Failed to create Gemini tutor, using built-in lessons", zap.Error(err))
		}
		return Static{}, func() {}
	}
	return g, g.Close
}
