package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/classification"
	"github.com/Veraticus/finassist/internal/query"
)

// Decision is the router's verdict for one question.
type Decision struct {
	Reasoning   string         `json:"reasoning"`
	Template    query.Template `json:"template,omitempty"`
	HasTemplate bool           `json:"has_template"`
}

const routerSystemPrompt = "You are the SQL Library Consultant for a family expense tracker. " +
	"You MUST respond with ONLY a valid JSON object. Do not include any commentary before or after the JSON."

// Router decides whether a question can be answered by a fixed template.
type Router struct {
	client Client
	cache  *ttlCache[Decision]
	logger *slog.Logger
}

// NewRouter creates a router whose decisions are cached for ttl.
func NewRouter(client Client, ttl time.Duration, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		client: client,
		cache:  newTTLCache[Decision](ttl, nil),
		logger: logger,
	}
}

// routable lists the templates a question can be routed to without extra
// parameters.
func routable() []query.Template {
	var out []query.Template
	for _, t := range query.Templates() {
		if !t.Monthly() {
			out = append(out, t)
		}
	}
	return out
}

func routerPrompt(question string) string {
	var sb strings.Builder
	sb.WriteString("Your job is to determine if a user question can be answered with an existing SQL template.\n\n")
	sb.WriteString("Available SQL Templates:\n")
	for _, t := range routable() {
		fmt.Fprintf(&sb, "%s: %s\n", t, t.Description())
	}
	fmt.Fprintf(&sb, "\nUser Question: %q\n\n", question)
	sb.WriteString(`Respond in JSON format:
{
  "has_template": true/false,
  "template_name": "template_name" or null,
  "reasoning": "explanation of your decision"
}

Examples:
- "how much did I spend this week" -> {"has_template": true, "template_name": "week_total", "reasoning": "Direct match for weekly spending total"}
- "top 5 expenses this year" -> {"has_template": false, "template_name": null, "reasoning": "Requires custom SQL for top N with yearly filter and individual records"}
`)
	return sb.String()
}

type routerReply struct {
	TemplateName *string `json:"template_name"`
	Reasoning    string  `json:"reasoning"`
	HasTemplate  bool    `json:"has_template"`
}

// parseDecision reads the model's reply. Malformed JSON or a template name
// outside the routable catalogue yields a no-match decision.
func parseDecision(content string) Decision {
	var reply routerReply
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(content)), &reply); err != nil {
		return Decision{Reasoning: "unparseable router reply"}
	}
	if !reply.HasTemplate || reply.TemplateName == nil {
		return Decision{Reasoning: reply.Reasoning}
	}
	t, err := query.ParseTemplate(*reply.TemplateName)
	if err != nil || t.Monthly() {
		return Decision{Reasoning: fmt.Sprintf("router proposed unusable template %q", *reply.TemplateName)}
	}
	return Decision{Template: t, HasTemplate: true, Reasoning: reply.Reasoning}
}

// Route classifies question. Transport failures are returned; every reply
// the model gives, however malformed, produces a decision.
func (r *Router) Route(ctx context.Context, question string) (Decision, error) {
	key := classification.Normalize(question)
	if d, ok := r.cache.get(key); ok {
		return d, nil
	}

	content, err := r.client.Complete(ctx, routerSystemPrompt, routerPrompt(question))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to route question: %w", err)
	}

	d := parseDecision(content)
	r.logger.Debug("routed question",
		"question", question,
		"has_template", d.HasTemplate,
		"template", d.Template.String(),
		"reasoning", d.Reasoning)

	r.cache.put(key, d)
	return d, nil
}

// cleanMarkdownWrapper strips a surrounding ``` or ```json fence.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		first := strings.TrimSpace(content[:nl])
		if first == "" || isFenceLanguage(first) {
			content = content[nl+1:]
		}
	} else {
		for _, lang := range []string{"json", "sql"} {
			content = strings.TrimPrefix(content, lang)
		}
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func isFenceLanguage(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
