package schema

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func mustProperty(t *testing.T, b PropertyBuilder) Property {
	t.Helper()
	p, err := b.Build()
	if err != nil {
		t.Fatalf("Property Build() error = %v", err)
	}
	return p
}

func TestParametersRequiredMustBeDeclared(t *testing.T) {
	a := mustProperty(t, NewProperty().WithType(TypeNumber))
	_, err := NewParameters().AddProperty("a", a).AddRequired("b").Build()
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("Build() error = %v, want invalid value", err)
	}
	var be *BuildError
	if errors.As(err, &be) && be.Field != "required" {
		t.Errorf("Field = %q, want %q", be.Field, "required")
	}
}

func TestParametersDuplicatesOverwriteInPlace(t *testing.T) {
	str := mustProperty(t, NewProperty().WithType(TypeString))
	num := mustProperty(t, NewProperty().WithType(TypeNumber))

	params, err := NewParameters().
		AddProperty("a", str).
		AddProperty("b", str).
		AddProperty("a", num).
		AddRequired("a", "b", "a").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := params.Names(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if p, _ := params.Property("a"); p.Type() != TypeNumber {
		t.Errorf("a type = %q, want %q", p.Type(), TypeNumber)
	}
	if got, want := params.Required(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Required() = %v, want %v", got, want)
	}
}

func TestParametersBuilderDoesNotAlias(t *testing.T) {
	str := mustProperty(t, NewProperty().WithType(TypeString))
	base := NewParameters().AddProperty("a", str)
	left, err := base.AddProperty("l", str).Build()
	if err != nil {
		t.Fatal(err)
	}
	right, err := base.AddProperty("r", str).Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := left.Names(); !reflect.DeepEqual(got, []string{"a", "l"}) {
		t.Errorf("left Names() = %v", got)
	}
	if got := right.Names(); !reflect.DeepEqual(got, []string{"a", "r"}) {
		t.Errorf("right Names() = %v", got)
	}
}

func TestPropertyBuild(t *testing.T) {
	str := mustProperty(t, NewProperty().WithType(TypeString))

	tests := []struct {
		name      string
		builder   PropertyBuilder
		wantKind  error
		wantField string
	}{
		{name: "scalar accepted", builder: NewProperty().WithType(TypeInteger)},
		{name: "missing type", builder: NewProperty(), wantKind: ErrMissingField, wantField: "type"},
		{name: "unknown type", builder: NewProperty().WithType("date"), wantKind: ErrInvalidValue, wantField: "type"},
		{name: "array without items", builder: NewProperty().WithType(TypeArray), wantKind: ErrMissingField, wantField: "items"},
		{name: "array with items", builder: NewProperty().WithType(TypeArray).WithItems(str)},
		{name: "items on scalar", builder: NewProperty().WithType(TypeString).WithItems(str), wantKind: ErrInvalidValue, wantField: "items"},
		{name: "enum on string", builder: NewProperty().WithType(TypeString).WithEnum("c", "f")},
		{name: "enum on object", builder: NewProperty().WithType(TypeObject).WithEnum("x"), wantKind: ErrInvalidValue, wantField: "enum"},
		{
			name:      "nested properties on scalar",
			builder:   NewProperty().WithType(TypeString).AddProperty("x", str),
			wantKind:  ErrInvalidValue,
			wantField: "properties",
		},
		{
			name:      "nested required undeclared",
			builder:   NewProperty().WithType(TypeObject).AddProperty("x", str).AddRequired("y"),
			wantKind:  ErrInvalidValue,
			wantField: "required",
		},
		{
			name:      "nested builder failure reports path",
			builder:   NewProperty().WithType(TypeObject).DefineProperty("x", NewProperty()),
			wantKind:  ErrMissingField,
			wantField: "properties.x.type",
		},
		{
			name:      "items builder failure reports path",
			builder:   NewProperty().WithType(TypeArray).DefineItems(NewProperty().WithType(TypeArray)),
			wantKind:  ErrMissingField,
			wantField: "items.items",
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

func TestParametersJSONKeepsOrder(t *testing.T) {
	params, err := NewParameters().
		DefineProperty("zeta", NewProperty().WithType(TypeString).WithDescription("last letter")).
		DefineProperty("alpha", NewProperty().WithType(TypeArray).DefineItems(NewProperty().WithType(TypeInteger))).
		DefineProperty("unit", NewProperty().WithType(TypeString).WithEnum("c", "f")).
		AddRequired("zeta").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"type":"object","properties":{` +
		`"zeta":{"type":"string","description":"last letter"},` +
		`"alpha":{"type":"array","items":{"type":"integer"}},` +
		`"unit":{"type":"string","enum":["c","f"]}},` +
		`"required":["zeta"]}`
	if string(data) != want {
		t.Fatalf("Marshal = %s\nwant %s", data, want)
	}

	var back Parameters
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	again, err := json.Marshal(back)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != want {
		t.Errorf("round trip = %s\nwant %s", again, want)
	}
}

func TestParametersUnmarshalValidates(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField string
	}{
		{"required not declared", `{"type":"object","properties":{"a":{"type":"string"}},"required":["b"]}`, "required"},
		{"nested missing type", `{"type":"object","properties":{"a":{"description":"x"}}}`, "properties.a.type"},
		{"non object schema", `{"type":"string"}`, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Parameters
			err := json.Unmarshal([]byte(tt.input), &p)
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("Unmarshal error = %v, want *BuildError", err)
			}
			if be.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", be.Field, tt.wantField)
			}
		})
	}
}
