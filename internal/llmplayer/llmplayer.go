// Package llmplayer lets a Gemini model pick Wumpus World actions. Any reply
// that does not name a legal action falls back to the rule-based policy.
package llmplayer

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/tatianab/wumpus/internal/agent"
	"github.com/tatianab/wumpus/internal/driver"
	"github.com/tatianab/wumpus/internal/logging"
	"github.com/tatianab/wumpus/internal/models"
)

//go:embed prompts/choose_action.txt
var chooseActionPrompt string

var promptTmpl = template.Must(template.New("choose_action").Parse(chooseActionPrompt))

// recentEvents is how many log lines go into the prompt.
const recentEvents = 8

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Player asks a generative model for each action.
type Player struct {
	client   *genai.Client
	model    contentGenerator
	fallback driver.Player
	logger   *zap.Logger
}

// New connects to Gemini with apiKey. fallback answers whenever the model
// cannot; nil means the heuristic with the global random source.
func New(ctx context.Context, apiKey, model string, fallback driver.Player, logger *zap.Logger) (*Player, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.2)
	m.ResponseMIMEType = "text/plain"

	if fallback == nil {
		fallback = driver.Heuristic{}
	}
	return &Player{client: client, model: m, fallback: fallback, logger: logging.OrNop(logger)}, nil
}

func (p *Player) Name() string { return "gemini" }

func (p *Player) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Choose asks the model for an action. Only context errors are returned;
// model failures degrade to the fallback player.
func (p *Player) Choose(ctx context.Context, b agent.Beliefs, s models.WorldState) (models.Action, error) {
	prompt, err := buildPrompt(b, s)
	if err != nil {
		return 0, err
	}

	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		p.logger.Warn("model call failed, using fallback", zap.Int("turn", s.Turn), zap.Error(err))
		return p.fallback.Choose(ctx, b, s)
	}

	a, err := parseReply(responseText(resp))
	if err != nil {
		p.logger.Warn("unusable model reply, using fallback", zap.Int("turn", s.Turn), zap.Error(err))
		return p.fallback.Choose(ctx, b, s)
	}
	p.logger.Debug("model chose", zap.Int("turn", s.Turn), zap.Stringer("action", a))
	return a, nil
}

func buildPrompt(b agent.Beliefs, s models.WorldState) (string, error) {
	recent := s.Log
	if len(recent) > recentEvents {
		recent = recent[len(recent)-recentEvents:]
	}
	names := make([]string, len(models.Actions))
	for i, a := range models.Actions {
		names[i] = a.String()
	}

	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, map[string]any{
		"Size":        s.Size(),
		"Explanation": agent.Explain(b, s),
		"Score":       s.Score,
		"Turn":        s.Turn,
		"WumpusAlive": s.WumpusAlive,
		"Recent":      recent,
		"Actions":     strings.Join(names, ", "),
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// parseReply takes the first word of the reply, ignoring code fences and
// punctuation the model tends to add.
func parseReply(text string) (models.Action, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, errors.New("empty reply")
	}
	word := strings.Trim(fields[0], "`\"'.,:;!*")
	return models.ParseAction(word)
}
