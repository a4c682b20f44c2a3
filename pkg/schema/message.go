package schema

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolTypeFunction is the only tool call type defined by the protocol.
const ToolTypeFunction = "function"

// ToolCall is a function invocation emitted by the model. It appears on
// assistant messages, both in responses and when a conversation is replayed.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the function name and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ParseArguments decodes the call's arguments.
func (tc ToolCall) ParseArguments() (Arguments, error) {
	return ParseArguments(tc.Function.Arguments)
}

// Message is an immutable chat message. Construct it with NewMessage or one of
// the shorthand constructors.
type Message struct {
	role       Role
	content    Content
	toolCalls  []ToolCall
	toolCallID string
	name       string
}

func (m Message) Role() Role            { return m.role }
func (m Message) Content() Content      { return m.content }
func (m Message) Text() string          { return m.content.String() }
func (m Message) ToolCallID() string    { return m.toolCallID }
func (m Message) Name() string          { return m.name }
func (m Message) ToolCalls() []ToolCall { return slices.Clone(m.toolCalls) }

type messageJSON struct {
	Role       Role       `json:"role"`
	Content    *Content   `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// MarshalJSON encodes the message in the chat completions wire format. Empty
// content is sent as null.
func (m Message) MarshalJSON() ([]byte, error) {
	w := messageJSON{
		Role:       m.role,
		Name:       m.name,
		ToolCalls:  m.toolCalls,
		ToolCallID: m.toolCallID,
	}
	if !m.content.IsEmpty() {
		c := m.content
		w.Content = &c
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire message and validates it like Build does.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b := NewMessage().WithRole(w.Role).WithName(w.Name).WithToolCallID(w.ToolCallID).WithToolCalls(w.ToolCalls...)
	if w.Content != nil {
		b.content = *w.Content
	}
	built, err := b.Build()
	if err != nil {
		return err
	}
	*m = built
	return nil
}

// MessageBuilder assembles a Message. The zero value is ready to use.
type MessageBuilder struct {
	role       Role
	content    Content
	toolCalls  []ToolCall
	toolCallID string
	name       string
}

// NewMessage returns an empty MessageBuilder.
func NewMessage() MessageBuilder {
	return MessageBuilder{}
}

func (b MessageBuilder) WithRole(role Role) MessageBuilder {
	b.role = role
	return b
}

// WithContent replaces the content with plain text.
func (b MessageBuilder) WithContent(text string) MessageBuilder {
	b.content = Text(text)
	return b
}

// WithParts replaces the content with the given parts.
func (b MessageBuilder) WithParts(parts ...ContentPart) MessageBuilder {
	b.content = Parts(parts...)
	return b
}

// AddPart appends a content part, converting plain text content to parts.
func (b MessageBuilder) AddPart(p ContentPart) MessageBuilder {
	b.content = b.content.Append(p)
	return b
}

// AddImageURL appends an image part referencing url.
func (b MessageBuilder) AddImageURL(url string) MessageBuilder {
	return b.AddPart(ImageURLPart(url))
}

func (b MessageBuilder) WithName(name string) MessageBuilder {
	b.name = name
	return b
}

func (b MessageBuilder) WithToolCallID(id string) MessageBuilder {
	b.toolCallID = id
	return b
}

// AddToolCall attaches a tool call. Only assistant messages may carry them.
func (b MessageBuilder) AddToolCall(tc ToolCall) MessageBuilder {
	b.toolCalls = append(slices.Clone(b.toolCalls), tc)
	return b
}

// WithToolCalls replaces the attached tool calls.
func (b MessageBuilder) WithToolCalls(calls ...ToolCall) MessageBuilder {
	b.toolCalls = slices.Clone(calls)
	return b
}

// Build validates the message.
//
// Content may be empty only for an assistant message that carries at least
// one tool call. Tool messages must reference the call they answer. A tool
// call without a type defaults to "function".
func (b MessageBuilder) Build() (Message, error) {
	if b.role == "" {
		return Message{}, MissingField("role")
	}
	if !b.role.Valid() {
		return Message{}, InvalidValue("role", fmt.Sprintf("unknown role %q", b.role))
	}

	if len(b.toolCalls) > 0 && b.role != RoleAssistant {
		return Message{}, InvalidValue("tool_calls", "only assistant messages carry tool calls")
	}
	calls := slices.Clone(b.toolCalls)
	for i := range calls {
		field := fmt.Sprintf("tool_calls[%d]", i)
		if calls[i].ID == "" {
			return Message{}, MissingField(field + ".id")
		}
		if calls[i].Function.Name == "" {
			return Message{}, MissingField(field + ".function.name")
		}
		if calls[i].Type == "" {
			calls[i].Type = ToolTypeFunction
		}
	}

	if b.content.IsEmpty() && !(b.role == RoleAssistant && len(calls) > 0) {
		return Message{}, MissingField("content")
	}

	if b.role == RoleTool && b.toolCallID == "" {
		return Message{}, MissingField("tool_call_id")
	}

	return Message{
		role:       b.role,
		content:    b.content,
		toolCalls:  calls,
		toolCallID: b.toolCallID,
		name:       b.name,
	}, nil
}

// System builds a system message.
func System(text string) (Message, error) {
	return NewMessage().WithRole(RoleSystem).WithContent(text).Build()
}

// User builds a user message.
func User(text string) (Message, error) {
	return NewMessage().WithRole(RoleUser).WithContent(text).Build()
}

// Assistant builds an assistant text message.
func Assistant(text string) (Message, error) {
	return NewMessage().WithRole(RoleAssistant).WithContent(text).Build()
}

// ToolResult builds the tool message answering the call with the given id.
func ToolResult(toolCallID, text string) (Message, error) {
	return NewMessage().WithRole(RoleTool).WithToolCallID(toolCallID).WithContent(text).Build()
}
