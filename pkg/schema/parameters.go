package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// PropertyType is the JSON schema type of a parameter property.
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeNumber  PropertyType = "number"
	TypeInteger PropertyType = "integer"
	TypeBoolean PropertyType = "boolean"
	TypeObject  PropertyType = "object"
	TypeArray   PropertyType = "array"
)

// Valid reports whether t is a supported schema type.
func (t PropertyType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

func (t PropertyType) scalar() bool {
	return t != TypeObject && t != TypeArray
}

// propertySet is an insertion-ordered set of named properties.
type propertySet struct {
	names []string
	props map[string]Property
}

func (s propertySet) len() int { return len(s.names) }

func (s propertySet) get(name string) (Property, bool) {
	p, ok := s.props[name]
	return p, ok
}

func (s propertySet) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.props[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeOrdered splits a JSON object into its members, keeping key order.
// A repeated key keeps its first position and its last value.
func decodeOrdered(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected a JSON object")
	}
	var names []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected an object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		if _, seen := values[key]; !seen {
			names = append(names, key)
		}
		values[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return names, values, nil
}

// propertyEntry is a declared property, either already built or still a
// builder resolved at Build time.
type propertyEntry struct {
	name    string
	prop    Property
	builder *PropertyBuilder
}

// objectSpec holds the declared properties and required names shared by
// ParametersBuilder and object-typed PropertyBuilders.
type objectSpec struct {
	entries  []propertyEntry
	required []string
}

func (o objectSpec) empty() bool {
	return len(o.entries) == 0 && len(o.required) == 0
}

func (o objectSpec) with(e propertyEntry) objectSpec {
	entries := slices.Clone(o.entries)
	if i := slices.IndexFunc(entries, func(x propertyEntry) bool { return x.name == e.name }); i >= 0 {
		entries[i] = e
	} else {
		entries = append(entries, e)
	}
	return objectSpec{entries: entries, required: o.required}
}

func (o objectSpec) require(names ...string) objectSpec {
	required := slices.Clone(o.required)
	for _, n := range names {
		if !slices.Contains(required, n) {
			required = append(required, n)
		}
	}
	return objectSpec{entries: o.entries, required: required}
}

func (o objectSpec) build() (propertySet, []string, error) {
	set := propertySet{props: make(map[string]Property, len(o.entries))}
	for _, e := range o.entries {
		if e.name == "" {
			return propertySet{}, nil, InvalidValue("properties", "property name must not be empty")
		}
		p := e.prop
		if e.builder != nil {
			built, err := e.builder.Build()
			if err != nil {
				return propertySet{}, nil, nest("properties."+e.name, err)
			}
			p = built
		}
		set.names = append(set.names, e.name)
		set.props[e.name] = p
	}
	for _, r := range o.required {
		if _, ok := set.props[r]; !ok {
			return propertySet{}, nil, InvalidValue("required", fmt.Sprintf("property %q is not declared", r))
		}
	}
	return set, slices.Clone(o.required), nil
}

// Parameters is the JSON schema of a function's arguments. Its top-level type
// is always "object".
type Parameters struct {
	props    propertySet
	required []string
}

// Len returns the number of declared properties.
func (p Parameters) Len() int { return p.props.len() }

// Names returns the property names in declaration order.
func (p Parameters) Names() []string { return slices.Clone(p.props.names) }

// Property returns the named property.
func (p Parameters) Property(name string) (Property, bool) { return p.props.get(name) }

// Required returns the required property names.
func (p Parameters) Required() []string { return slices.Clone(p.required) }

// MarshalJSON encodes the schema with properties in declaration order.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return marshalObject(TypeObject, "", p.props, p.required, nil)
}

// UnmarshalJSON decodes an object schema and validates it like Build does.
// Unknown schema keywords are ignored.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	w, err := decodeSchema(data)
	if err != nil {
		return err
	}
	if w.Type != "" && w.Type != TypeObject {
		return InvalidValue("type", fmt.Sprintf("parameters must be an object schema, got %q", w.Type))
	}
	b := NewParameters()
	b.obj = w.obj
	built, err := b.Build()
	if err != nil {
		return err
	}
	*p = built
	return nil
}

// ParametersBuilder assembles Parameters.
type ParametersBuilder struct {
	obj objectSpec
}

// NewParameters returns an empty ParametersBuilder.
func NewParameters() ParametersBuilder {
	return ParametersBuilder{}
}

// AddProperty declares a property. Declaring an existing name replaces it
// and keeps its original position.
func (b ParametersBuilder) AddProperty(name string, prop Property) ParametersBuilder {
	b.obj = b.obj.with(propertyEntry{name: name, prop: prop})
	return b
}

// DefineProperty declares a property whose builder runs when Build is
// called. Its errors are reported under "properties.<name>".
func (b ParametersBuilder) DefineProperty(name string, pb PropertyBuilder) ParametersBuilder {
	b.obj = b.obj.with(propertyEntry{name: name, builder: &pb})
	return b
}

// AddRequired marks property names as required. Repeated names are ignored.
func (b ParametersBuilder) AddRequired(names ...string) ParametersBuilder {
	b.obj = b.obj.require(names...)
	return b
}

// Build validates that every required name is a declared property.
func (b ParametersBuilder) Build() (Parameters, error) {
	set, required, err := b.obj.build()
	if err != nil {
		return Parameters{}, err
	}
	return Parameters{props: set, required: required}, nil
}

// Property is a single property of a parameter schema.
type Property struct {
	typ         PropertyType
	description string
	enum        []string
	props       propertySet
	required    []string
	items       *Property
}

func (p Property) Type() PropertyType  { return p.typ }
func (p Property) Description() string { return p.description }
func (p Property) Enum() []string      { return slices.Clone(p.enum) }

// Items returns the element schema of an array property.
func (p Property) Items() (Property, bool) {
	if p.items == nil {
		return Property{}, false
	}
	return *p.items, true
}

// Names returns the nested property names of an object property.
func (p Property) Names() []string { return slices.Clone(p.props.names) }

// Property returns a nested property of an object property.
func (p Property) Property(name string) (Property, bool) { return p.props.get(name) }

// Required returns the required nested names of an object property.
func (p Property) Required() []string { return slices.Clone(p.required) }

// MarshalJSON encodes the property schema.
func (p Property) MarshalJSON() ([]byte, error) {
	return marshalObject(p.typ, p.description, p.props, p.required, func(buf *bytes.Buffer) error {
		if len(p.enum) > 0 {
			enum, err := json.Marshal(p.enum)
			if err != nil {
				return err
			}
			buf.WriteString(`,"enum":`)
			buf.Write(enum)
		}
		if p.items != nil {
			items, err := json.Marshal(*p.items)
			if err != nil {
				return err
			}
			buf.WriteString(`,"items":`)
			buf.Write(items)
		}
		return nil
	})
}

// UnmarshalJSON decodes a property schema and validates it like Build does.
func (p *Property) UnmarshalJSON(data []byte) error {
	w, err := decodeSchema(data)
	if err != nil {
		return err
	}
	b := NewProperty().WithType(w.Type).WithDescription(w.Description).WithEnum(w.Enum...)
	b.obj = w.obj
	if w.items != nil {
		b = b.WithItems(*w.items)
	}
	built, err := b.Build()
	if err != nil {
		return err
	}
	*p = built
	return nil
}

// PropertyBuilder assembles a Property.
type PropertyBuilder struct {
	typ         PropertyType
	description string
	enum        []string
	obj         objectSpec
	items       *Property
	itemsB      *PropertyBuilder
}

// NewProperty returns an empty PropertyBuilder.
func NewProperty() PropertyBuilder {
	return PropertyBuilder{}
}

func (b PropertyBuilder) WithType(t PropertyType) PropertyBuilder {
	b.typ = t
	return b
}

func (b PropertyBuilder) WithDescription(desc string) PropertyBuilder {
	b.description = desc
	return b
}

// WithEnum restricts a scalar property to the given values.
func (b PropertyBuilder) WithEnum(values ...string) PropertyBuilder {
	b.enum = slices.Clone(values)
	return b
}

// AddProperty declares a nested property of an object property.
func (b PropertyBuilder) AddProperty(name string, prop Property) PropertyBuilder {
	b.obj = b.obj.with(propertyEntry{name: name, prop: prop})
	return b
}

// DefineProperty declares a nested property built when Build is called.
func (b PropertyBuilder) DefineProperty(name string, pb PropertyBuilder) PropertyBuilder {
	b.obj = b.obj.with(propertyEntry{name: name, builder: &pb})
	return b
}

// AddRequired marks nested property names as required.
func (b PropertyBuilder) AddRequired(names ...string) PropertyBuilder {
	b.obj = b.obj.require(names...)
	return b
}

// WithItems sets the element schema of an array property.
func (b PropertyBuilder) WithItems(items Property) PropertyBuilder {
	b.items = &items
	b.itemsB = nil
	return b
}

// DefineItems sets the element schema of an array property from a builder.
func (b PropertyBuilder) DefineItems(items PropertyBuilder) PropertyBuilder {
	b.itemsB = &items
	b.items = nil
	return b
}

// Build validates the property.
func (b PropertyBuilder) Build() (Property, error) {
	if b.typ == "" {
		return Property{}, MissingField("type")
	}
	if !b.typ.Valid() {
		return Property{}, InvalidValue("type", fmt.Sprintf("unsupported type %q", b.typ))
	}
	if len(b.enum) > 0 && !b.typ.scalar() {
		return Property{}, InvalidValue("enum", fmt.Sprintf("enum is not allowed on %s properties", b.typ))
	}
	if !b.obj.empty() && b.typ != TypeObject {
		return Property{}, InvalidValue("properties", "only object properties declare nested properties")
	}

	items := b.items
	if b.itemsB != nil {
		built, err := b.itemsB.Build()
		if err != nil {
			return Property{}, nest("items", err)
		}
		items = &built
	}
	switch {
	case b.typ == TypeArray && items == nil:
		return Property{}, MissingField("items")
	case b.typ != TypeArray && items != nil:
		return Property{}, InvalidValue("items", "only array properties take items")
	}

	set, required, err := b.obj.build()
	if err != nil {
		return Property{}, err
	}
	return Property{
		typ:         b.typ,
		description: b.description,
		enum:        slices.Clone(b.enum),
		props:       set,
		required:    required,
		items:       items,
	}, nil
}

// marshalObject writes the shared schema layout. Object schemas always carry
// a properties member.
func marshalObject(typ PropertyType, desc string, props propertySet, required []string, extra func(*bytes.Buffer) error) ([]byte, error) {
	var buf bytes.Buffer
	t, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"type":`)
	buf.Write(t)
	if desc != "" {
		d, err := json.Marshal(desc)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"description":`)
		buf.Write(d)
	}
	if typ == TypeObject {
		ps, err := props.marshal()
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"properties":`)
		buf.Write(ps)
		if len(required) > 0 {
			r, err := json.Marshal(required)
			if err != nil {
				return nil, err
			}
			buf.WriteString(`,"required":`)
			buf.Write(r)
		}
	}
	if extra != nil {
		if err := extra(&buf); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type schemaJSON struct {
	Type        PropertyType    `json:"type"`
	Description string          `json:"description"`
	Enum        []string        `json:"enum"`
	Properties  json.RawMessage `json:"properties"`
	Required    []string        `json:"required"`
	Items       json.RawMessage `json:"items"`

	obj   objectSpec
	items *Property
}

func decodeSchema(data []byte) (schemaJSON, error) {
	var w schemaJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return w, err
	}
	if len(w.Properties) > 0 && !bytes.Equal(bytes.TrimSpace(w.Properties), []byte("null")) {
		names, raws, err := decodeOrdered(w.Properties)
		if err != nil {
			return w, fmt.Errorf("properties: %w", err)
		}
		for _, name := range names {
			var p Property
			if err := json.Unmarshal(raws[name], &p); err != nil {
				return w, nest("properties."+name, err)
			}
			w.obj = w.obj.with(propertyEntry{name: name, prop: p})
		}
	}
	w.obj = w.obj.require(w.Required...)
	if len(w.Items) > 0 && !bytes.Equal(bytes.TrimSpace(w.Items), []byte("null")) {
		var items Property
		if err := json.Unmarshal(w.Items, &items); err != nil {
			return w, nest("items", err)
		}
		w.items = &items
	}
	return w, nil
}
