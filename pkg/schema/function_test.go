package schema

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFunctionBuild(t *testing.T) {
	tests := []struct {
		name      string
		builder   FunctionBuilder
		wantKind  error
		wantField string
	}{
		{name: "name only", builder: NewFunction().WithName("get_weather")},
		{name: "missing name", builder: NewFunction().WithDescription("x"), wantKind: ErrMissingField, wantField: "name"},
		{name: "whitespace in name", builder: NewFunction().WithName("get weather"), wantKind: ErrInvalidValue, wantField: "name"},
		{name: "tab in name", builder: NewFunction().WithName("get\tweather"), wantKind: ErrInvalidValue, wantField: "name"},
		{
			name: "parameter failure is nested",
			builder: NewFunction().WithName("f").DefineParameters(
				NewParameters().DefineProperty("a", NewProperty())),
			wantKind:  ErrMissingField,
			wantField: "parameters.properties.a.type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if tt.wantKind == nil {
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("Build() error = %v, want %v", err, tt.wantKind)
			}
			var be *BuildError
			if errors.As(err, &be) && be.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", be.Field, tt.wantField)
			}
		})
	}
}

func TestFunctionToolJSON(t *testing.T) {
	fn, err := NewFunction().
		WithName("add").
		WithDescription("Add two numbers").
		DefineParameters(NewParameters().
			DefineProperty("a", NewProperty().WithType(TypeNumber)).
			DefineProperty("b", NewProperty().WithType(TypeNumber)).
			AddRequired("a", "b")).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(fn.Tool())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"function","function":{"name":"add","description":"Add two numbers",` +
		`"parameters":{"type":"object","properties":{"a":{"type":"number"},"b":{"type":"number"}},"required":["a","b"]}}}`
	if string(data) != want {
		t.Fatalf("Marshal = %s\nwant %s", data, want)
	}

	var back Tool
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Function.Name() != "add" {
		t.Errorf("Name() = %q", back.Function.Name())
	}
	if p, ok := back.Function.Parameters(); !ok || p.Len() != 2 {
		t.Errorf("Parameters() lost properties")
	}
}
