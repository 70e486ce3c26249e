package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ridecircle/backend/commuter"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

var (
	ErrNoCredential    = errors.New("completion service credential not configured")
	ErrUnauthorized    = errors.New("completion service rejected the credential")
	ErrRateLimited     = errors.New("completion call rate limit reached")
	ErrEmptyCompletion = errors.New("completion service returned no text")
)

// Role tags of a conversation turn.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Turn is one prior message of a conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// MaxHistory bounds the turns forwarded to the completion service.
const MaxHistory = 20

// Recent keeps the last MaxHistory turns of h.
func Recent(h []Turn) []Turn {
	if len(h) > MaxHistory {
		return h[len(h)-MaxHistory:]
	}
	return h
}

// Completer produces an answer to question on behalf of p.
type Completer interface {
	Complete(ctx context.Context, question string, p commuter.Profile, history []Turn) (string, error)
}

// OpenAIConfig configures the chat-completions client.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// RPS and Burst size the client-side token bucket. RPS <= 0 disables it.
	RPS   float64
	Burst int
}

// OpenAICompleter calls the OpenAI chat-completions API.
type OpenAICompleter struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewOpenAICompleter returns ErrNoCredential when no API key is set.
func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoCredential
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	c := &OpenAICompleter{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: cfg.Timeout,
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return c, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, question string, p commuter.Profile, history []Turn) (string, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		return "", ErrRateLimited
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    buildMessages(question, p, history),
		Temperature: 0.8,
		MaxTokens:   300,
		TopP:        1,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || fmt.Sprint(apiErr.Code) == "invalid_api_key" {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return fmt.Errorf("completion request: %w", err)
}

func buildMessages(question string, p commuter.Profile, history []Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: SystemPrompt(p),
	})
	for _, t := range history {
		role := openai.ChatMessageRoleAssistant
		if t.Role == RoleUser {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})
}

// SystemPrompt is the instruction that makes the model speak for p.
func SystemPrompt(p commuter.Profile) string {
	verified := "Not verified"
	if p.Verified {
		verified = "Verified"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are an intelligent AI assistant representing %s on RideCircle, a commuter networking platform. ", p.Name)
	fmt.Fprintf(&b, "Your role is to help people connect with %s for carpooling, commuting, or building community.\n\n", p.Name)
	b.WriteString("IMPORTANT USER INFORMATION:\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	fmt.Fprintf(&b, "- Age: %d years old\n", p.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Commute Route: From %s to %s\n", p.From, p.To)
	fmt.Fprintf(&b, "- Commute Time: %s\n", p.CommuteTime)
	fmt.Fprintf(&b, "- Route Distance: %s\n", p.RouteDistance)
	fmt.Fprintf(&b, "- Bio: %s\n", p.Bio)
	fmt.Fprintf(&b, "- Interests: %s\n", strings.Join(p.Interests, ", "))
	fmt.Fprintf(&b, "- Verified Status: %s\n", verified)
	fmt.Fprintf(&b, "- Preferred Gender for Connections: %s\n\n", p.PreferredGender)
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Answer questions naturally and conversationally.\n")
	b.WriteString("2. Always provide accurate information from the user profile above.\n")
	fmt.Fprintf(&b, "3. When asked where they are from, mention %s and that they commute to %s.\n", p.From, p.To)
	fmt.Fprintf(&b, "4. When asked about commute time, mention %s.\n", p.CommuteTime)
	fmt.Fprintf(&b, "5. When asked about distance, mention %s.\n", p.RouteDistance)
	b.WriteString("6. Be friendly and helpful, and encourage carpooling.\n")
	b.WriteString("7. If asked something you don't know, say you don't have that information and offer details you do know.\n\n")
	fmt.Fprintf(&b, "You are speaking on behalf of %s, so use \"I\" or \"%s\" appropriately.", p.Name, p.Name)
	return b.String()
}
