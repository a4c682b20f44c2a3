package provider

import (
	"errors"
	"testing"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/schema"
)

func buildRequest(t *testing.T, stream, tools, image bool) api.ChatCompletionRequest {
	t.Helper()
	mb := schema.NewMessage().WithRole(schema.RoleUser).WithContent("hello")
	if image {
		mb = mb.AddImageURL("https://example.com/cat.png")
	}
	msg, err := mb.Build()
	if err != nil {
		t.Fatalf("building message: %v", err)
	}
	b := api.NewRequest().WithModel("test").AddMessage(msg).WithStream(stream)
	if tools {
		fn, err := schema.NewFunction().WithName("lookup").Build()
		if err != nil {
			t.Fatalf("building function: %v", err)
		}
		b = b.AddTool(fn)
	}
	req, err := b.Build()
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	return req
}

func TestValidateCapabilities(t *testing.T) {
	tests := []struct {
		name      string
		caps      Capabilities
		stream    bool
		tools     bool
		image     bool
		wantField string
	}{
		{name: "text request with minimal caps", caps: Capabilities{}},
		{name: "streaming without streaming support", caps: Capabilities{}, stream: true, wantField: "stream"},
		{name: "streaming with streaming support", caps: Capabilities{Streaming: true}, stream: true},
		{name: "tools without tool calling support", caps: Capabilities{Streaming: true}, tools: true, wantField: "tools"},
		{name: "tools with tool calling support", caps: Capabilities{ToolCalling: true}, tools: true},
		{name: "image without vision support", caps: Capabilities{ToolCalling: true}, image: true, wantField: "messages"},
		{name: "image with vision support", caps: Capabilities{Vision: true}, image: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCapabilities(tt.caps, buildRequest(t, tt.stream, tt.tools, tt.image))
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateCapabilities() error = %v", err)
				}
				return
			}
			if !errors.Is(err, schema.ErrInvalidValue) {
				t.Fatalf("ValidateCapabilities() error = %v, want invalid value", err)
			}
			var be *schema.BuildError
			if errors.As(err, &be) && be.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", be.Field, tt.wantField)
			}
		})
	}
}
