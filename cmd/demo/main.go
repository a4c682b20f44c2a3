// Command demo walks through the protocol layer without a network: it
// assembles a request with a tool, shows its wire form, merges a scripted
// stream of chunks and shows the stream state machine.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/schema"
	"github.com/rhuss/chatwire/pkg/stream"
)

func main() {
	fmt.Println("=== chatwire protocol demo ===")
	fmt.Println()

	// 1. Build a tool and a request.
	weather, err := schema.NewFunction().
		WithName("get_weather").
		WithDescription("Current weather for a city").
		DefineParameters(schema.NewParameters().
			DefineProperty("city", schema.NewProperty().WithType(schema.TypeString)).
			DefineProperty("unit", schema.NewProperty().WithType(schema.TypeString).WithEnum("celsius", "fahrenheit")).
			AddRequired("city")).
		Build()
	if err != nil {
		fmt.Printf("Function build FAILED: %v\n", err)
		return
	}
	user, _ := schema.User("What's the weather in Paris?")
	req, err := api.NewRequest().
		WithModel("gpt-4o-mini").
		AddMessage(user).
		AddTool(weather).
		WithTemperature(0.2).
		WithStream(true).
		Build()
	if err != nil {
		fmt.Printf("Request build FAILED: %v\n", err)
		return
	}
	fmt.Println("[1] Request built and validated")

	// 2. Wire form, with a vendor that wants max_completion_tokens and usage.
	body, _ := api.EncodeRequest(req, api.EncodeOptions{IncludeUsage: true, MaxTokensField: api.MaxCompletionTokens})
	var pretty bytes.Buffer
	json.Indent(&pretty, body, "", "  ")
	fmt.Printf("\n[2] Request JSON:\n%s\n", pretty.String())

	// 3. Builder errors name the offending field.
	fmt.Println("\n[3] Validation error examples:")
	if _, err := api.NewRequest().AddMessage(user).Build(); err != nil {
		fmt.Printf("    Missing model:     %v\n", err)
	}
	if _, err := api.NewRequest().WithModel("m").AddMessage(user).WithTemperature(3).Build(); err != nil {
		fmt.Printf("    Bad temperature:   %v\n", err)
	}
	if _, err := schema.NewParameters().
		DefineProperty("a", schema.NewProperty().WithType(schema.TypeString)).
		AddRequired("b").Build(); err != nil {
		fmt.Printf("    Undeclared field:  %v\n", err)
	}

	// 4. Merge a scripted stream: text first, then a tool call whose
	// arguments arrive in pieces.
	fragments := []string{
		`{"id":"c1","object":"chat.completion.chunk","model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","content":"Let me check"}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":""}}]}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
		`{"id":"c1","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		`{"id":"c1","choices":[],"usage":{"prompt_tokens":42,"completion_tokens":17,"total_tokens":59}}`,
		stream.Sentinel,
	}
	i := 0
	src := stream.FragmentsFunc(func() (string, error) {
		f := fragments[i]
		i++
		return f, nil
	})
	s := stream.Engine{Snapshots: true}.Start(context.Background(), src, nil)

	fmt.Println("\n[4] Streaming merge:")
	for ev := range s.Events() {
		if ev.Err != nil {
			fmt.Printf("    error: %v\n", ev.Err)
			break
		}
		snap := ev.Snapshot
		choice, _ := snap.FirstChoice()
		args := ""
		if len(choice.Message.ToolCalls) > 0 {
			args = choice.Message.ToolCalls[0].Function.Arguments
		}
		fmt.Printf("    content=%q arguments=%q\n", choice.Message.Content, args)
	}
	resp, err := s.Result()
	if err != nil {
		fmt.Printf("    stream FAILED: %v\n", err)
		return
	}
	call := resp.Choices[0].Message.ToolCalls[0]
	parsed, _ := call.ParseArguments()
	city, _ := parsed.String("city")
	fmt.Printf("    final: %s(%s) city=%s finish=%v tokens=%d\n",
		call.Function.Name, call.Function.Arguments, city, resp.FinishReasons(), resp.Usage.TotalTokens)

	// 5. Answer the call and continue the conversation.
	assistant, _ := resp.Choices[0].Message.Message()
	result, _ := schema.ToolResult(call.ID, `{"temperature":18,"unit":"celsius"}`)
	next := req.AppendMessages(assistant, result)
	fmt.Printf("\n[5] Next request carries %d messages\n", len(next.Messages()))

	// 6. Stream state machine.
	fmt.Println("\n[6] Stream state transitions:")
	transitions := []struct{ from, to api.StreamState }{
		{api.StateIdle, api.StateStreaming},
		{api.StateStreaming, api.StateCompleted},
		{api.StateCompleted, api.StateStreaming},
		{api.StateTruncated, api.StateCompleted},
	}
	for _, t := range transitions {
		if err := api.ValidateStreamTransition(t.from, t.to); err != nil {
			fmt.Printf("    %s -> %s: BLOCKED (%v)\n", t.from, t.to, err)
		} else {
			fmt.Printf("    %s -> %s: OK\n", t.from, t.to)
		}
	}

	fmt.Println("\n=== demo complete ===")
}
