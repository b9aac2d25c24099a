// Package outreach generates and delivers personalized sales email.
package outreach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/pkg/anthropic"
)

const (
	// DefaultModel is the model used for email generation.
	DefaultModel = "claude-sonnet-4-5-20250929"

	defaultMaxTokens = 1000
)

const systemPrompt = `You are a B2B sales agent. Your goal is to write a personalized email to a potential client based on their LinkedIn profile and our product's vision/goal.`

const userPromptTemplate = `Here is the LinkedIn profile information:
%s

Here is our product vision/goal:
%s

Generate a concise and compelling email. The email should be in HTML format. The response MUST be a JSON object with two keys: 'subject' for the email subject line, and 'body_html' for the HTML content of the email body. Ensure the HTML is well-formed and suitable for direct use. All newlines and special characters within the 'body_html' string MUST be properly escaped for JSON.

Example JSON output:
{"subject": "Your personalized subject line", "body_html": "<p>Your email body in HTML format.</p>"}

Your JSON response:`

// Email is a generated subject and HTML body pair.
type Email struct {
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
}

// Generator produces personalized email copy from a prospect profile and a
// product goal. A single model call per email, no retry on bad output.
type Generator struct {
	client anthropic.Client
	model  string
}

// NewGenerator creates a Generator backed by the given client.
func NewGenerator(client anthropic.Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// Generate asks the model for a subject line and HTML body.
func (g *Generator) Generate(ctx context.Context, profileText, productGoal string) (*Email, error) {
	if strings.TrimSpace(profileText) == "" {
		return nil, eris.New("outreach: profile text is required")
	}
	if strings.TrimSpace(productGoal) == "" {
		return nil, eris.New("outreach: product goal is required")
	}

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: defaultMaxTokens,
		System: []anthropic.SystemBlock{
			{Text: systemPrompt, CacheControl: &anthropic.CacheControl{TTL: "5m"}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, profileText, productGoal)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "outreach: generate email")
	}

	resp.Usage.LogCost(g.model, "email_generation")

	email, err := parseEmail(resp.Text())
	if err != nil {
		zap.L().Warn("model returned unparseable email payload",
			zap.String("model", g.model),
			zap.Error(err),
		)
		return nil, err
	}

	return email, nil
}

// parseEmail extracts the JSON object from the raw model output. The model
// may wrap the object in prose, so everything from the first '{' to the
// last '}' is treated as the payload.
func parseEmail(raw string) (*Email, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, eris.New("outreach: no JSON object in model response")
	}

	var email Email
	if err := json.Unmarshal([]byte(raw[start:end+1]), &email); err != nil {
		return nil, eris.Wrap(err, "outreach: parse model response")
	}
	if email.Subject == "" || email.BodyHTML == "" {
		return nil, eris.New("outreach: model response missing subject or body_html")
	}

	return &email, nil
}
