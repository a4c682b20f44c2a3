package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/schema"
	"github.com/rhuss/chatwire/pkg/tools"
)

// DefaultMaxTurns bounds a tool loop whose MaxTurns is not positive.
const DefaultMaxTurns = 10

// ErrMaxTurns is returned when the model still asks for tools after the
// last allowed turn.
var ErrMaxTurns = errors.New("tool loop reached the maximum number of turns")

// ToolLoop configures RunTools.
type ToolLoop struct {
	// Executor answers the model's tool calls.
	Executor tools.Executor

	// MaxTurns is the maximum number of completions requested.
	MaxTurns int

	// Allowed restricts which tools may run. Empty allows all.
	Allowed []string
}

func (l ToolLoop) maxTurns() int {
	if l.MaxTurns <= 0 {
		return DefaultMaxTurns
	}
	return l.MaxTurns
}

// ToolRun is the result of a tool loop.
type ToolRun struct {
	// Response is the last completion received.
	Response *api.Response

	// Messages is the conversation appended to the original request: the
	// assistant tool call messages and the tool results.
	Messages []schema.Message

	Turns int
	Usage api.Usage
}

// RunTools completes req, answers the tool calls of the first choice with
// loop.Executor and sends the results back until the model answers without
// calling a tool. Streaming is not used.
//
// On ErrMaxTurns the returned run holds everything received so far.
func (c *Client) RunTools(ctx context.Context, req api.ChatCompletionRequest, loop ToolLoop) (*ToolRun, error) {
	run := &ToolRun{}
	for run.Turns < loop.maxTurns() {
		if err := ctx.Err(); err != nil {
			return run, err
		}

		resp, err := c.Complete(ctx, req)
		if err != nil {
			return run, err
		}
		run.Turns++
		run.Response = resp
		if u := resp.Usage; u != nil {
			run.Usage.PromptTokens += u.PromptTokens
			run.Usage.CompletionTokens += u.CompletionTokens
			run.Usage.TotalTokens += u.TotalTokens
		}

		choice, ok := resp.FirstChoice()
		if !ok || len(choice.Message.ToolCalls) == 0 {
			return run, nil
		}

		// The assistant message carrying the calls precedes their results.
		assistant, err := choice.Message.Message()
		if err != nil {
			return run, fmt.Errorf("continuing conversation: %w", err)
		}
		results, err := tools.Run(ctx, loop.Executor, choice.Message.ToolCalls, loop.Allowed)
		if err != nil {
			return run, err
		}

		turn := append([]schema.Message{assistant}, results...)
		run.Messages = append(run.Messages, turn...)
		req = req.AppendMessages(turn...)
	}
	return run, ErrMaxTurns
}
