package stream

import (
	"maps"
	"slices"
	"strings"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/schema"
)

// Accumulator merges stream chunks into one response. Choices and tool calls
// are kept in maps keyed by their wire index and only ordered when a
// snapshot is taken, so indices may arrive in any order.
//
// An Accumulator is not safe for concurrent use; the engine's producer owns
// it exclusively.
type Accumulator struct {
	id          string
	object      string
	model       string
	fingerprint string
	created     int64

	choices map[int]*choiceState
	usage   *api.Usage

	chunks    int
	finalized bool
}

type choiceState struct {
	role         schema.Role
	content      strings.Builder
	reasoning    strings.Builder
	refusal      strings.Builder
	toolCalls    map[int]*toolCallState
	finishReason *string
}

type toolCallState struct {
	id   string
	typ  string
	name string
	args strings.Builder
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{choices: make(map[int]*choiceState)}
}

// Chunks returns the number of chunks merged so far.
func (a *Accumulator) Chunks() int { return a.chunks }

// Merge applies one chunk.
//
//   - id, object, model, created and system_fingerprint: first non-empty wins
//   - role: set once
//   - content, reasoning content and refusal: appended
//   - tool calls: id and type come from the first increment carrying them,
//     the function name is set once, arguments are appended
//   - finish_reason: set once; later values, null or not, are ignored
//   - usage, top level or per choice: replaces the previous value
//
// Merge panics when called after Finalize.
func (a *Accumulator) Merge(chunk *api.StreamChunk) {
	if a.finalized {
		panic("stream: Merge called after Finalize")
	}
	if chunk == nil {
		return
	}
	a.chunks++

	if a.id == "" {
		a.id = chunk.ID
	}
	if a.object == "" {
		a.object = chunk.Object
	}
	if a.model == "" {
		a.model = chunk.Model
	}
	if a.fingerprint == "" {
		a.fingerprint = chunk.SystemFingerprint
	}
	if a.created == 0 {
		a.created = chunk.Created
	}

	for i := range chunk.Choices {
		a.mergeChoice(&chunk.Choices[i])
	}

	if chunk.Usage != nil {
		a.usage = copyUsage(chunk.Usage)
	}
}

func (a *Accumulator) mergeChoice(c *api.ChunkChoice) {
	st, ok := a.choices[c.Index]
	if !ok {
		st = &choiceState{toolCalls: make(map[int]*toolCallState)}
		a.choices[c.Index] = st
	}

	d := c.Delta
	if st.role == "" && d.Role != "" {
		st.role = d.Role
	}
	if d.Content != nil {
		st.content.WriteString(*d.Content)
	}
	if d.ReasoningContent != nil {
		st.reasoning.WriteString(*d.ReasoningContent)
	}
	if d.Refusal != nil {
		st.refusal.WriteString(*d.Refusal)
	}

	for _, tc := range d.ToolCalls {
		call, ok := st.toolCalls[tc.Index]
		if !ok {
			call = &toolCallState{}
			st.toolCalls[tc.Index] = call
		}
		if call.id == "" {
			call.id = tc.ID
		}
		if call.typ == "" {
			call.typ = tc.Type
		}
		if call.name == "" {
			call.name = tc.Function.Name
		}
		call.args.WriteString(tc.Function.Arguments)
	}

	if st.finishReason == nil && c.FinishReason != nil {
		reason := *c.FinishReason
		st.finishReason = &reason
	}

	if c.Usage != nil {
		a.usage = copyUsage(c.Usage)
	}
}

// Snapshot returns an independent copy of the merged state with choices and
// tool calls ordered by index.
func (a *Accumulator) Snapshot() *api.Response {
	resp := &api.Response{
		ID:                a.id,
		Object:            a.object,
		Created:           a.created,
		Model:             a.model,
		SystemFingerprint: a.fingerprint,
		Choices:           make([]api.Choice, 0, len(a.choices)),
		Usage:             copyUsage(a.usage),
	}

	for _, idx := range slices.Sorted(maps.Keys(a.choices)) {
		st := a.choices[idx]
		choice := api.Choice{
			Index: idx,
			Message: api.ResponseMessage{
				Role:             st.role,
				Content:          st.content.String(),
				ReasoningContent: st.reasoning.String(),
				Refusal:          st.refusal.String(),
			},
		}
		if st.finishReason != nil {
			reason := *st.finishReason
			choice.FinishReason = &reason
		}
		for _, ti := range slices.Sorted(maps.Keys(st.toolCalls)) {
			call := st.toolCalls[ti]
			choice.Message.ToolCalls = append(choice.Message.ToolCalls, schema.ToolCall{
				ID:   call.id,
				Type: call.typ,
				Function: schema.FunctionCall{
					Name:      call.name,
					Arguments: call.args.String(),
				},
			})
		}
		resp.Choices = append(resp.Choices, choice)
	}
	return resp
}

// Finalize returns the merged response and closes the accumulator to
// further merges.
func (a *Accumulator) Finalize() *api.Response {
	a.finalized = true
	return a.Snapshot()
}

func copyUsage(u *api.Usage) *api.Usage {
	if u == nil {
		return nil
	}
	c := *u
	if u.PromptTokensDetails != nil {
		d := *u.PromptTokensDetails
		c.PromptTokensDetails = &d
	}
	return &c
}
