package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/schema"
	"github.com/rhuss/chatwire/pkg/transport"
	transporthttp "github.com/rhuss/chatwire/pkg/transport/http"
)

const mockModel = "mock-model"

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

// reply is the scripted answer to one request.
type reply struct {
	text      string
	toolCalls []schema.ToolCall
	apiErr    *api.APIError

	// truncated streams end without the [DONE] sentinel.
	truncated bool
}

// scenario picks the reply from the last message:
//
//	"trigger error"      500 error envelope
//	"rate limit"         429 error envelope
//	"truncate"           stream ends without [DONE]
//	"count from 1 to 5"  "1, 2, 3, 4, 5"
//	tools declared       one call of the first tool
//	tool result          echoes the result
//	system prompt        pirate greeting
//	image part           image description
func scenario(req api.ChatCompletionRequest) reply {
	msgs := req.Messages()
	last := msgs[len(msgs)-1]
	prompt := strings.ToLower(last.Text())

	switch {
	case strings.Contains(prompt, "trigger error"):
		return reply{apiErr: &api.APIError{StatusCode: http.StatusInternalServerError, Type: api.ErrorTypeServerError, Message: "The mock backend failed as requested"}}
	case strings.Contains(prompt, "rate limit"):
		return reply{apiErr: &api.APIError{StatusCode: http.StatusTooManyRequests, Type: api.ErrorTypeTooManyRequests, Code: "rate_limit_exceeded", Message: "Rate limit reached for requests"}}
	case strings.Contains(prompt, "truncate"):
		return reply{text: "This answer is cut", truncated: true}
	case last.Role() == schema.RoleTool:
		return reply{text: "The result is " + last.Text() + "."}
	case last.Role() == schema.RoleUser && len(req.Tools()) > 0:
		fn := req.Tools()[0]
		return reply{toolCalls: []schema.ToolCall{{
			ID:   "call_mock_1",
			Type: schema.ToolTypeFunction,
			Function: schema.FunctionCall{
				Name:      fn.Name(),
				Arguments: sampleArguments(fn),
			},
		}}}
	case strings.Contains(prompt, "count from 1 to 5"):
		return reply{text: "1, 2, 3, 4, 5"}
	case req.HasImages():
		return reply{text: "I can see the image you shared. It appears to be a small red icon or symbol."}
	case msgs[0].Role() == schema.RoleSystem:
		return reply{text: "Ahoy there, matey! Welcome aboard!"}
	default:
		return reply{text: "Hello, nice day!"}
	}
}

// sampleArguments fills every declared parameter with a fixed value of its
// type: numbers are 2, strings "test".
func sampleArguments(fn schema.Function) string {
	params, ok := fn.Parameters()
	if !ok {
		return "{}"
	}
	args := make(map[string]any, params.Len())
	for _, name := range params.Names() {
		p, _ := params.Property(name)
		switch p.Type() {
		case schema.TypeNumber, schema.TypeInteger:
			args[name] = 2
		case schema.TypeBoolean:
			args[name] = true
		case schema.TypeArray:
			args[name] = []any{}
		case schema.TypeObject:
			args[name] = map[string]any{}
		default:
			if enum := p.Enum(); len(enum) > 0 {
				args[name] = enum[0]
			} else {
				args[name] = "test"
			}
		}
	}
	data, _ := json.Marshal(args)
	return string(data)
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		transport.WriteAPIError(w, api.NewStatusError(http.StatusBadRequest, "unreadable body"))
		return
	}
	var req api.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		transport.WriteAPIError(w, &api.APIError{StatusCode: http.StatusBadRequest, Type: api.ErrorTypeInvalidRequest, Message: err.Error()})
		return
	}

	rep := scenario(req)
	slog.Debug("mock request", "model", req.Model(), "stream", req.Stream(), "tools", len(req.Tools()))
	if rep.apiErr != nil {
		transport.WriteAPIError(w, rep.apiErr)
		return
	}

	model := req.Model()
	if model == "" {
		model = mockModel
	}
	if req.Stream() {
		streamReply(w, req, model, rep)
		return
	}

	content := rep.text
	finish := api.FinishReasonStop
	if len(rep.toolCalls) > 0 {
		finish = api.FinishReasonToolCalls
	}
	resp := api.Response{
		ID:      "chatcmpl-mock",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []api.Choice{{
			Message: api.ResponseMessage{
				Role:      schema.RoleAssistant,
				Content:   content,
				ToolCalls: rep.toolCalls,
			},
			FinishReason: &finish,
		}},
		Usage: usage(req, rep),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// streamReply sends the reply as chunks: a role chunk, the text word by word
// or the tool call arguments in two halves, a finish chunk, an optional
// usage chunk, then [DONE].
func streamReply(w http.ResponseWriter, req api.ChatCompletionRequest, model string, rep reply) {
	sw := transporthttp.NewSSEWriter(w)
	created := time.Now().Unix()
	send := func(c api.ChunkChoice, u *api.Usage) bool {
		chunk := api.StreamChunk{
			ID:      "chatcmpl-mock-stream",
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Usage:   u,
		}
		if u == nil {
			chunk.Choices = []api.ChunkChoice{c}
		} else {
			chunk.Choices = []api.ChunkChoice{}
		}
		if err := sw.WriteJSON(chunk); err != nil {
			slog.Debug("mock stream aborted", "error", err)
			return false
		}
		return true
	}

	if !send(api.ChunkChoice{Delta: api.Delta{Role: schema.RoleAssistant}}, nil) {
		return
	}
	for _, word := range splitWords(rep.text) {
		if !send(api.ChunkChoice{Delta: api.Delta{Content: &word}}, nil) {
			return
		}
	}
	for i, tc := range rep.toolCalls {
		half := len(tc.Function.Arguments) / 2
		first := api.ToolCallDelta{
			Index: i, ID: tc.ID, Type: tc.Type,
			Function: api.FunctionDelta{Name: tc.Function.Name, Arguments: tc.Function.Arguments[:half]},
		}
		rest := api.ToolCallDelta{Index: i, Function: api.FunctionDelta{Arguments: tc.Function.Arguments[half:]}}
		for _, d := range []api.ToolCallDelta{first, rest} {
			if !send(api.ChunkChoice{Delta: api.Delta{ToolCalls: []api.ToolCallDelta{d}}}, nil) {
				return
			}
		}
	}
	if rep.truncated {
		return
	}

	finish := api.FinishReasonStop
	if len(rep.toolCalls) > 0 {
		finish = api.FinishReasonToolCalls
	}
	if !send(api.ChunkChoice{Delta: api.Delta{}, FinishReason: &finish}, nil) {
		return
	}
	if req.Params().StreamUsage {
		if !send(api.ChunkChoice{}, usage(req, rep)) {
			return
		}
	}
	sw.WriteDone()
}

// splitWords splits text into chunks that concatenate back to text.
func splitWords(text string) []string {
	var out []string
	for text != "" {
		i := strings.IndexByte(text[1:], ' ')
		if i < 0 {
			out = append(out, text)
			break
		}
		out = append(out, text[:i+1])
		text = text[i+1:]
	}
	return out
}

func usage(req api.ChatCompletionRequest, rep reply) *api.Usage {
	prompt := 0
	for _, m := range req.Messages() {
		prompt += len(strings.Fields(m.Text()))
	}
	completion := len(strings.Fields(rep.text)) + 5*len(rep.toolCalls)
	return &api.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	list := api.ModelList{
		Object: "list",
		Data: []api.Model{
			{ID: mockModel, Object: "model", OwnedBy: "chatwire-mock"},
			{ID: "mock-reasoner", Object: "model", OwnedBy: "chatwire-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		slog.Warn("writing models", "error", err)
	}
}
