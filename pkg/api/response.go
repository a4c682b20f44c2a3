package api

import "github.com/rhuss/chatwire/pkg/schema"

// Finish reasons reported by chat completion services.
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
)

// Response is a complete chat completion, either decoded from a single body
// or merged from a stream.
type Response struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
}

// Choice is one candidate completion. FinishReason is nil until the service
// reports one.
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason *string         `json:"finish_reason"`
}

// ResponseMessage is the assistant message of a choice. Content is never
// null; an absent value decodes as the empty string.
type ResponseMessage struct {
	Role             schema.Role       `json:"role"`
	Content          string            `json:"content"`
	ReasoningContent string            `json:"reasoning_content,omitempty"`
	ToolCalls        []schema.ToolCall `json:"tool_calls,omitempty"`
	Refusal          string            `json:"refusal,omitempty"`
}

// Message converts the response message into a request message so the
// conversation can continue with it.
func (m ResponseMessage) Message() (schema.Message, error) {
	role := m.Role
	if role == "" {
		role = schema.RoleAssistant
	}
	return schema.NewMessage().
		WithRole(role).
		WithContent(m.Content).
		WithToolCalls(m.ToolCalls...).
		Build()
}

// Usage holds token accounting for one exchange.
type Usage struct {
	PromptTokens        int                  `json:"prompt_tokens"`
	CompletionTokens    int                  `json:"completion_tokens"`
	TotalTokens         int                  `json:"total_tokens"`
	PromptTokensDetails *PromptTokensDetails `json:"prompt_tokens_details,omitempty"`
}

// PromptTokensDetails breaks down prompt token usage.
type PromptTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

// CachedTokens returns the number of prompt tokens served from the service's
// prompt cache, or zero when not reported.
func (u *Usage) CachedTokens() int {
	if u == nil || u.PromptTokensDetails == nil {
		return 0
	}
	return u.PromptTokensDetails.CachedTokens
}

// FirstChoice returns the choice with index 0, falling back to the first
// element.
func (r *Response) FirstChoice() (Choice, bool) {
	if r == nil || len(r.Choices) == 0 {
		return Choice{}, false
	}
	for _, c := range r.Choices {
		if c.Index == 0 {
			return c, true
		}
	}
	return r.Choices[0], true
}

// Text returns the content of the first choice.
func (r *Response) Text() string {
	c, _ := r.FirstChoice()
	return c.Message.Content
}

// FinishReasons returns the finish reason of every finished choice, in
// choice order.
func (r *Response) FinishReasons() []string {
	var reasons []string
	for _, c := range r.Choices {
		if c.FinishReason != nil {
			reasons = append(reasons, *c.FinishReason)
		}
	}
	return reasons
}

// ModelList is the body of a /models response.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// Model describes one model offered by the service.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}
