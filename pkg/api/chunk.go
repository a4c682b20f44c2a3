package api

import "github.com/rhuss/chatwire/pkg/schema"

// StreamChunk is one decoded stream fragment. It has the response shape with
// a delta in place of each choice's message.
type StreamChunk struct {
	ID                string        `json:"id"`
	Object            string        `json:"object"`
	Created           int64         `json:"created"`
	Model             string        `json:"model"`
	SystemFingerprint string        `json:"system_fingerprint,omitempty"`
	Choices           []ChunkChoice `json:"choices"`
	Usage             *Usage        `json:"usage,omitempty"`
}

// ChunkChoice is a partial update of the choice with the given index. Some
// vendors report usage per choice instead of at the top level.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
	Usage        *Usage  `json:"usage,omitempty"`
}

// Delta carries only the fields that changed since the previous chunk.
type Delta struct {
	Role             schema.Role     `json:"role,omitempty"`
	Content          *string         `json:"content,omitempty"`
	ReasoningContent *string         `json:"reasoning_content,omitempty"`
	Refusal          *string         `json:"refusal,omitempty"`
	ToolCalls        []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is an increment of the tool call at Index within its choice.
// ID and Type arrive with the first increment; Arguments is a fragment of
// JSON text that is only valid once complete.
type ToolCallDelta struct {
	Index    int           `json:"index"`
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type,omitempty"`
	Function FunctionDelta `json:"function"`
}

// FunctionDelta is an increment of a function call.
type FunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}
