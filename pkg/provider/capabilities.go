package provider

import (
	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/schema"
)

// Capabilities declares what features a vendor supports.
type Capabilities struct {
	// Streaming indicates whether the vendor supports streamed completions.
	Streaming bool

	// ToolCalling indicates whether the vendor accepts tool definitions.
	ToolCalling bool

	// Vision indicates whether the vendor accepts image content parts.
	Vision bool

	// Reasoning indicates whether the vendor emits reasoning_content.
	Reasoning bool
}

// ValidateCapabilities checks whether the request is compatible with the
// vendor's declared capabilities. It returns an invalid value error naming
// the unsupported feature, or nil.
func ValidateCapabilities(caps Capabilities, req api.ChatCompletionRequest) error {
	if req.Stream() && !caps.Streaming {
		return schema.InvalidValue("stream", "the configured provider does not support streaming responses")
	}
	if len(req.Tools()) > 0 && !caps.ToolCalling {
		return schema.InvalidValue("tools", "the configured provider does not support tool calling")
	}
	if req.HasImages() && !caps.Vision {
		return schema.InvalidValue("messages", "the configured provider does not support image inputs")
	}
	return nil
}
