package tools

import (
	"context"
	"fmt"

	"github.com/rhuss/chatwire/pkg/debug"
	"github.com/rhuss/chatwire/pkg/observability"
	"github.com/rhuss/chatwire/pkg/schema"
)

// Executor executes tool calls for the tools it provides.
type Executor interface {
	// CanExecute checks if this executor can handle the given tool name.
	CanExecute(name string) bool

	// Call runs the tool. Tool-level failures are reported as a Result with
	// IsError set; a returned error means the call could not be attempted.
	Call(ctx context.Context, call schema.ToolCall) (*Result, error)
}

// Result is the output of one tool execution.
type Result struct {
	// CallID matches the originating ToolCall.ID.
	CallID string

	// Output is the tool output text.
	Output string

	// IsError indicates that Output is an error message.
	IsError bool
}

// ErrorResult returns a failed result for the given call.
func ErrorResult(callID, format string, args ...any) *Result {
	return &Result{CallID: callID, Output: fmt.Sprintf(format, args...), IsError: true}
}

// EmptyOutput stands in for a tool that produced no text, since tool
// messages must carry content.
const EmptyOutput = "(no output)"

// Message converts the result into the tool message answering its call.
func (r *Result) Message() (schema.Message, error) {
	text := r.Output
	if text == "" {
		text = EmptyOutput
	}
	return schema.ToolResult(r.CallID, text)
}

// Run executes calls in order and returns one tool message per call, in the
// same order. Calls outside allowed (when non-empty), calls no executor
// provides, and failed calls are answered with an error message so the
// model can react. Run stops only when ctx is done or a message cannot be
// built.
func Run(ctx context.Context, exec Executor, calls []schema.ToolCall, allowed []string) ([]schema.Message, error) {
	filtered := FilterAllowedTools(calls, allowed)
	rejected := make(map[string]*Result, len(filtered.Rejected))
	for i := range filtered.Rejected {
		rejected[filtered.Rejected[i].CallID] = &filtered.Rejected[i]
	}

	msgs := make([]schema.Message, 0, len(calls))
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return msgs, err
		}

		name := call.Function.Name
		res, ok := rejected[call.ID]
		if !ok {
			res = execute(ctx, exec, call)
		}
		if err := ctx.Err(); err != nil {
			return msgs, err
		}

		status := "ok"
		if res.IsError {
			status = "error"
		}
		observability.ToolExecutionsTotal.WithLabelValues(name, status).Inc()
		debug.Log(debug.MCP, "tool executed", "tool", name, "call_id", call.ID, "status", status)

		msg, err := res.Message()
		if err != nil {
			return msgs, fmt.Errorf("answering tool call %q: %w", call.ID, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func execute(ctx context.Context, exec Executor, call schema.ToolCall) *Result {
	name := call.Function.Name
	if exec == nil || !exec.CanExecute(name) {
		return ErrorResult(call.ID, "no executor provides tool %q", name)
	}
	res, err := exec.Call(ctx, call)
	if err != nil {
		return ErrorResult(call.ID, "tool %q failed: %v", name, err)
	}
	if res.CallID == "" {
		res.CallID = call.ID
	}
	return res
}
