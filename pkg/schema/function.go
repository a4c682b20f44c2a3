package schema

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Function describes a callable tool offered to the model.
type Function struct {
	name        string
	description string
	parameters  *Parameters
	strict      bool
}

func (f Function) Name() string        { return f.name }
func (f Function) Description() string { return f.description }
func (f Function) Strict() bool        { return f.strict }

// Parameters returns the argument schema, if one was set.
func (f Function) Parameters() (Parameters, bool) {
	if f.parameters == nil {
		return Parameters{}, false
	}
	return *f.parameters, true
}

type functionJSON struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  *Parameters `json:"parameters,omitempty"`
	Strict      bool        `json:"strict,omitempty"`
}

// MarshalJSON encodes the function definition object.
func (f Function) MarshalJSON() ([]byte, error) {
	return json.Marshal(functionJSON{
		Name:        f.name,
		Description: f.description,
		Parameters:  f.parameters,
		Strict:      f.strict,
	})
}

// UnmarshalJSON decodes a function definition and validates it.
func (f *Function) UnmarshalJSON(data []byte) error {
	var w functionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b := NewFunction().WithName(w.Name).WithDescription(w.Description).WithStrict(w.Strict)
	if w.Parameters != nil {
		b = b.WithParameters(*w.Parameters)
	}
	built, err := b.Build()
	if err != nil {
		return err
	}
	*f = built
	return nil
}

// Tool is the wire wrapper the request's tools list carries.
type Tool struct {
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Tool wraps f for the request's tools list.
func (f Function) Tool() Tool {
	return Tool{Type: ToolTypeFunction, Function: f}
}

// FunctionBuilder assembles a Function.
type FunctionBuilder struct {
	name        string
	description string
	parameters  *Parameters
	paramsB     *ParametersBuilder
	strict      bool
}

// NewFunction returns an empty FunctionBuilder.
func NewFunction() FunctionBuilder {
	return FunctionBuilder{}
}

func (b FunctionBuilder) WithName(name string) FunctionBuilder {
	b.name = name
	return b
}

func (b FunctionBuilder) WithDescription(desc string) FunctionBuilder {
	b.description = desc
	return b
}

// WithStrict asks the service to enforce the schema exactly.
func (b FunctionBuilder) WithStrict(strict bool) FunctionBuilder {
	b.strict = strict
	return b
}

// WithParameters sets an already built argument schema.
func (b FunctionBuilder) WithParameters(p Parameters) FunctionBuilder {
	b.parameters = &p
	b.paramsB = nil
	return b
}

// DefineParameters sets the argument schema from a builder that runs when
// Build is called. Its errors are reported under "parameters".
func (b FunctionBuilder) DefineParameters(pb ParametersBuilder) FunctionBuilder {
	b.paramsB = &pb
	b.parameters = nil
	return b
}

// Build validates the function. The name is echoed back by the service in
// tool calls, so it must be non-empty and free of whitespace.
func (b FunctionBuilder) Build() (Function, error) {
	if b.name == "" {
		return Function{}, MissingField("name")
	}
	if strings.IndexFunc(b.name, unicode.IsSpace) >= 0 {
		return Function{}, InvalidValue("name", "must not contain whitespace")
	}
	params := b.parameters
	if b.paramsB != nil {
		built, err := b.paramsB.Build()
		if err != nil {
			return Function{}, nest("parameters", err)
		}
		params = &built
	}
	return Function{
		name:        b.name,
		description: b.description,
		parameters:  params,
		strict:      b.strict,
	}, nil
}
