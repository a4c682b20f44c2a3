package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/rhuss/chatwire/pkg/schema"
)

// ToolChoice controls whether and which tool the model calls. The zero value
// leaves the decision to the service.
type ToolChoice struct {
	mode     string
	function string
}

var (
	ToolChoiceAuto     = ToolChoice{mode: "auto"}
	ToolChoiceNone     = ToolChoice{mode: "none"}
	ToolChoiceRequired = ToolChoice{mode: "required"}
)

// ToolChoiceFunction forces a call to the named function.
func ToolChoiceFunction(name string) ToolChoice {
	return ToolChoice{mode: schema.ToolTypeFunction, function: name}
}

// Mode returns "auto", "none", "required", "function", or "" when unset.
func (c ToolChoice) Mode() string { return c.mode }

// FunctionName returns the forced function name for function mode.
func (c ToolChoice) FunctionName() string { return c.function }

// IsZero reports whether no tool choice was set.
func (c ToolChoice) IsZero() bool { return c.mode == "" }

type toolChoiceFunctionJSON struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

// MarshalJSON encodes a mode as a string and a forced function as an object.
func (c ToolChoice) MarshalJSON() ([]byte, error) {
	if c.mode != schema.ToolTypeFunction {
		return json.Marshal(c.mode)
	}
	var w toolChoiceFunctionJSON
	w.Type = schema.ToolTypeFunction
	w.Function.Name = c.function
	return json.Marshal(w)
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (c *ToolChoice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var mode string
		if err := json.Unmarshal(data, &mode); err != nil {
			return err
		}
		*c = ToolChoice{mode: mode}
		return nil
	}
	var w toolChoiceFunctionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = ToolChoiceFunction(w.Function.Name)
	return nil
}

// ResponseFormat selects the output format.
type ResponseFormat string

const (
	ResponseFormatText       ResponseFormat = "text"
	ResponseFormatJSONObject ResponseFormat = "json_object"
)

type responseFormatJSON struct {
	Type ResponseFormat `json:"type"`
}

// Stop holds up to four stop sequences. A single sequence is sent as a
// string, several as a list.
type Stop []string

func (s Stop) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return json.Marshal(s[0])
	}
	return json.Marshal([]string(s))
}

func (s *Stop) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = Stop{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Params are the optional sampling and output parameters of a request. Nil
// pointers are omitted from the wire body.
type Params struct {
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	N                *int
	Stop             []string
	FrequencyPenalty *float64
	PresencePenalty  *float64
	Seed             *int64
	User             string
	ResponseFormat   ResponseFormat
	ToolChoice       ToolChoice
	StreamUsage      bool
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (p Params) clone() Params {
	p.Temperature = clonePtr(p.Temperature)
	p.TopP = clonePtr(p.TopP)
	p.MaxTokens = clonePtr(p.MaxTokens)
	p.N = clonePtr(p.N)
	p.Stop = slices.Clone(p.Stop)
	p.FrequencyPenalty = clonePtr(p.FrequencyPenalty)
	p.PresencePenalty = clonePtr(p.PresencePenalty)
	p.Seed = clonePtr(p.Seed)
	return p
}

// ChatCompletionRequest is an immutable, validated chat completion request.
// It is constructed only through RequestBuilder.
type ChatCompletionRequest struct {
	model    string
	messages []schema.Message
	tools    []schema.Function
	stream   bool
	params   Params
}

func (r ChatCompletionRequest) Model() string              { return r.model }
func (r ChatCompletionRequest) Stream() bool               { return r.stream }
func (r ChatCompletionRequest) Messages() []schema.Message { return slices.Clone(r.messages) }
func (r ChatCompletionRequest) Tools() []schema.Function   { return slices.Clone(r.tools) }
func (r ChatCompletionRequest) Params() Params             { return r.params.clone() }

// WithStreaming returns a copy of the request with the stream flag set.
func (r ChatCompletionRequest) WithStreaming(stream bool) ChatCompletionRequest {
	r.stream = stream
	return r
}

// AppendMessages returns a copy of the request with msgs added to the
// conversation. The receiver is not modified.
func (r ChatCompletionRequest) AppendMessages(msgs ...schema.Message) ChatCompletionRequest {
	r.messages = append(slices.Clip(r.messages), msgs...)
	return r
}

// Tool returns the declared function with the given name.
func (r ChatCompletionRequest) Tool(name string) (schema.Function, bool) {
	for _, t := range r.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return schema.Function{}, false
}

// HasImages reports whether any message carries image content.
func (r ChatCompletionRequest) HasImages() bool {
	for _, m := range r.messages {
		for _, p := range m.Content().Parts() {
			if p.Type == schema.PartImageURL {
				return true
			}
		}
	}
	return false
}

// StreamOptions controls streaming behavior.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type requestJSON struct {
	Model               string              `json:"model"`
	Messages            []schema.Message    `json:"messages"`
	Tools               []schema.Tool       `json:"tools,omitempty"`
	ToolChoice          *ToolChoice         `json:"tool_choice,omitempty"`
	Temperature         *float64            `json:"temperature,omitempty"`
	TopP                *float64            `json:"top_p,omitempty"`
	MaxTokens           *int                `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int                `json:"max_completion_tokens,omitempty"`
	N                   *int                `json:"n,omitempty"`
	Stop                Stop                `json:"stop,omitempty"`
	FrequencyPenalty    *float64            `json:"frequency_penalty,omitempty"`
	PresencePenalty     *float64            `json:"presence_penalty,omitempty"`
	Seed                *int64              `json:"seed,omitempty"`
	User                string              `json:"user,omitempty"`
	ResponseFormat      *responseFormatJSON `json:"response_format,omitempty"`
	Stream              bool                `json:"stream"`
	StreamOptions       *StreamOptions      `json:"stream_options,omitempty"`
}

// MaxTokensField names the wire field carrying the output token limit.
type MaxTokensField string

const (
	MaxTokensDefault    MaxTokensField = "max_tokens"
	MaxCompletionTokens MaxTokensField = "max_completion_tokens"
)

// EncodeOptions carry per-vendor serialization differences.
type EncodeOptions struct {
	// Model replaces the request's model name on the wire when non-empty.
	Model string

	// MaxTokensField selects the token limit field. Defaults to max_tokens.
	MaxTokensField MaxTokensField

	// IncludeUsage requests a usage chunk on streaming requests even when
	// the request did not ask for one.
	IncludeUsage bool
}

// EncodeRequest serializes the request into a chat completions body.
func EncodeRequest(req ChatCompletionRequest, opts EncodeOptions) ([]byte, error) {
	w := requestJSON{
		Model:            req.model,
		Messages:         req.messages,
		Temperature:      req.params.Temperature,
		TopP:             req.params.TopP,
		N:                req.params.N,
		Stop:             Stop(req.params.Stop),
		FrequencyPenalty: req.params.FrequencyPenalty,
		PresencePenalty:  req.params.PresencePenalty,
		Seed:             req.params.Seed,
		User:             req.params.User,
		Stream:           req.stream,
	}
	if opts.Model != "" {
		w.Model = opts.Model
	}
	for _, fn := range req.tools {
		w.Tools = append(w.Tools, fn.Tool())
	}
	if !req.params.ToolChoice.IsZero() {
		tc := req.params.ToolChoice
		w.ToolChoice = &tc
	}
	if opts.MaxTokensField == MaxCompletionTokens {
		w.MaxCompletionTokens = req.params.MaxTokens
	} else {
		w.MaxTokens = req.params.MaxTokens
	}
	if req.params.ResponseFormat != "" {
		w.ResponseFormat = &responseFormatJSON{Type: req.params.ResponseFormat}
	}
	if req.stream && (req.params.StreamUsage || opts.IncludeUsage) {
		w.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	return json.Marshal(w)
}

// MarshalJSON encodes the request with default options.
func (r ChatCompletionRequest) MarshalJSON() ([]byte, error) {
	return EncodeRequest(r, EncodeOptions{})
}

// UnmarshalJSON decodes a chat completions body and validates it like Build
// does. Either token limit field is accepted.
func (r *ChatCompletionRequest) UnmarshalJSON(data []byte) error {
	var w requestJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b := NewRequest().WithModel(w.Model).WithMessages(w.Messages...).WithStream(w.Stream)
	for _, t := range w.Tools {
		b = b.AddTool(t.Function)
	}
	p := Params{
		Temperature:      w.Temperature,
		TopP:             w.TopP,
		MaxTokens:        w.MaxTokens,
		N:                w.N,
		Stop:             w.Stop,
		FrequencyPenalty: w.FrequencyPenalty,
		PresencePenalty:  w.PresencePenalty,
		Seed:             w.Seed,
		User:             w.User,
	}
	if p.MaxTokens == nil {
		p.MaxTokens = w.MaxCompletionTokens
	}
	if w.ToolChoice != nil {
		p.ToolChoice = *w.ToolChoice
	}
	if w.ResponseFormat != nil {
		p.ResponseFormat = w.ResponseFormat.Type
	}
	if w.StreamOptions != nil {
		p.StreamUsage = w.StreamOptions.IncludeUsage
	}
	b.params = p.clone()
	built, err := b.Build()
	if err != nil {
		return err
	}
	*r = built
	return nil
}

// RequestBuilder assembles a ChatCompletionRequest. Every method returns a
// new builder; validation happens in Build.
type RequestBuilder struct {
	model    string
	messages []schema.Message
	tools    []schema.Function
	stream   bool
	params   Params
}

// NewRequest returns an empty RequestBuilder. Streaming defaults to false.
func NewRequest() RequestBuilder {
	return RequestBuilder{}
}

func (b RequestBuilder) WithModel(model string) RequestBuilder {
	b.model = model
	return b
}

// WithMessages replaces the conversation.
func (b RequestBuilder) WithMessages(msgs ...schema.Message) RequestBuilder {
	b.messages = slices.Clone(msgs)
	return b
}

// AddMessage appends one message to the conversation.
func (b RequestBuilder) AddMessage(msg schema.Message) RequestBuilder {
	b.messages = append(slices.Clone(b.messages), msg)
	return b
}

// WithTools replaces the declared tools.
func (b RequestBuilder) WithTools(fns ...schema.Function) RequestBuilder {
	b.tools = slices.Clone(fns)
	return b
}

// AddTool declares one more tool.
func (b RequestBuilder) AddTool(fn schema.Function) RequestBuilder {
	b.tools = append(slices.Clone(b.tools), fn)
	return b
}

func (b RequestBuilder) WithToolChoice(c ToolChoice) RequestBuilder {
	b.params = b.params.clone()
	b.params.ToolChoice = c
	return b
}

func (b RequestBuilder) WithTemperature(v float64) RequestBuilder {
	b.params = b.params.clone()
	b.params.Temperature = &v
	return b
}

func (b RequestBuilder) WithTopP(v float64) RequestBuilder {
	b.params = b.params.clone()
	b.params.TopP = &v
	return b
}

func (b RequestBuilder) WithMaxTokens(n int) RequestBuilder {
	b.params = b.params.clone()
	b.params.MaxTokens = &n
	return b
}

// WithN sets the number of choices to generate.
func (b RequestBuilder) WithN(n int) RequestBuilder {
	b.params = b.params.clone()
	b.params.N = &n
	return b
}

func (b RequestBuilder) WithStop(sequences ...string) RequestBuilder {
	b.params = b.params.clone()
	b.params.Stop = slices.Clone(sequences)
	return b
}

func (b RequestBuilder) WithFrequencyPenalty(v float64) RequestBuilder {
	b.params = b.params.clone()
	b.params.FrequencyPenalty = &v
	return b
}

func (b RequestBuilder) WithPresencePenalty(v float64) RequestBuilder {
	b.params = b.params.clone()
	b.params.PresencePenalty = &v
	return b
}

func (b RequestBuilder) WithSeed(seed int64) RequestBuilder {
	b.params = b.params.clone()
	b.params.Seed = &seed
	return b
}

func (b RequestBuilder) WithUser(user string) RequestBuilder {
	b.params = b.params.clone()
	b.params.User = user
	return b
}

func (b RequestBuilder) WithResponseFormat(f ResponseFormat) RequestBuilder {
	b.params = b.params.clone()
	b.params.ResponseFormat = f
	return b
}

// WithStream sets the stream flag the client uses to pick its decode path.
func (b RequestBuilder) WithStream(stream bool) RequestBuilder {
	b.stream = stream
	return b
}

// WithStreamUsage asks the service for a final usage chunk. Build rejects it
// on a request that does not stream.
func (b RequestBuilder) WithStreamUsage(include bool) RequestBuilder {
	b.params = b.params.clone()
	b.params.StreamUsage = include
	return b
}

// Build validates the request and returns it, or a *schema.BuildError.
func (b RequestBuilder) Build() (ChatCompletionRequest, error) {
	if b.model == "" {
		return ChatCompletionRequest{}, schema.MissingField("model")
	}
	if len(b.messages) == 0 {
		return ChatCompletionRequest{}, schema.MissingField("messages")
	}

	for i, m := range b.messages {
		if m.Role() == "" {
			return ChatCompletionRequest{}, schema.InvalidValue(fmt.Sprintf("messages[%d]", i),
				"messages must be built with NewMessage")
		}
	}
	if b.params.StreamUsage && !b.stream {
		return ChatCompletionRequest{}, schema.InvalidValue("stream_options",
			"stream usage is only valid on streaming requests")
	}

	seen := make(map[string]bool, len(b.tools))
	for _, t := range b.tools {
		if t.Name() == "" {
			return ChatCompletionRequest{}, schema.InvalidValue("tools", "tool functions must be built with NewFunction")
		}
		if seen[t.Name()] {
			return ChatCompletionRequest{}, schema.InvalidValue("tools",
				fmt.Sprintf("duplicate tool name %q", t.Name()))
		}
		seen[t.Name()] = true
	}

	if err := b.params.validate(seen); err != nil {
		return ChatCompletionRequest{}, err
	}

	return ChatCompletionRequest{
		model:    b.model,
		messages: slices.Clone(b.messages),
		tools:    slices.Clone(b.tools),
		stream:   b.stream,
		params:   b.params.clone(),
	}, nil
}

// inRange reports whether v is a finite number within [lo, hi]. NaN fails
// every comparison, so it is checked first.
func inRange(v, lo, hi float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= lo && v <= hi
}

func (p Params) validate(tools map[string]bool) error {
	if p.Temperature != nil && !inRange(*p.Temperature, 0.0, 2.0) {
		return schema.InvalidValue("temperature", "temperature must be between 0.0 and 2.0")
	}
	if p.TopP != nil && !inRange(*p.TopP, 0.0, 1.0) {
		return schema.InvalidValue("top_p", "top_p must be between 0.0 and 1.0")
	}
	if p.MaxTokens != nil && *p.MaxTokens <= 0 {
		return schema.InvalidValue("max_tokens", "max_tokens must be positive")
	}
	if p.N != nil && *p.N < 1 {
		return schema.InvalidValue("n", "n must be at least 1")
	}
	if len(p.Stop) > 4 {
		return schema.InvalidValue("stop", "at most 4 stop sequences are allowed")
	}
	for _, s := range p.Stop {
		if s == "" {
			return schema.InvalidValue("stop", "stop sequences must not be empty")
		}
	}
	if p.FrequencyPenalty != nil && !inRange(*p.FrequencyPenalty, -2.0, 2.0) {
		return schema.InvalidValue("frequency_penalty", "frequency_penalty must be between -2.0 and 2.0")
	}
	if p.PresencePenalty != nil && !inRange(*p.PresencePenalty, -2.0, 2.0) {
		return schema.InvalidValue("presence_penalty", "presence_penalty must be between -2.0 and 2.0")
	}
	switch p.ResponseFormat {
	case "", ResponseFormatText, ResponseFormatJSONObject:
	default:
		return schema.InvalidValue("response_format",
			fmt.Sprintf("unsupported response format %q", p.ResponseFormat))
	}

	switch p.ToolChoice.mode {
	case "", "auto", "none":
	case "required":
		if len(tools) == 0 {
			return schema.InvalidValue("tool_choice", "tool_choice required needs at least one tool")
		}
	case schema.ToolTypeFunction:
		if !tools[p.ToolChoice.function] {
			return schema.InvalidValue("tool_choice",
				fmt.Sprintf("tool_choice references unknown tool %q", p.ToolChoice.function))
		}
	default:
		return schema.InvalidValue("tool_choice",
			fmt.Sprintf("unsupported tool_choice %q", p.ToolChoice.mode))
	}
	return nil
}
