// Package frontmatter parses and generates the narrow frontmatter dialect used
// by command and skill source documents.
//
// The dialect is intentionally smaller than YAML. It understands flat
// "key: value" scalars and single-level arrays whose items are objects anchored
// by "- name:" with optional "description" and "required" fields. Nested
// mappings, multiline scalars and anchors are not part of the dialect, and
// plain "- value" array items are dropped by Parse.
package frontmatter

// Kind identifies the shape of a frontmatter value.
type Kind int

const (
	// KindScalar is a single string value.
	KindScalar Kind = iota
	// KindScalarList is an array of plain strings. Generate emits it; Parse
	// never produces it.
	KindScalarList
	// KindObjectList is an array of name-anchored objects.
	KindObjectList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindScalarList:
		return "scalar-list"
	case KindObjectList:
		return "object-list"
	default:
		return "unknown"
	}
}

// Object is one "- name:" item of an object array.
type Object struct {
	Name           string
	Description    string
	HasDescription bool
	Required       *bool
}

// Value is a tagged frontmatter value. Exactly one of the payloads is
// meaningful, selected by Kind.
type Value struct {
	kind    Kind
	scalar  string
	list    []string
	objects []Object
}

// Scalar builds a scalar value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// ScalarList builds an array of plain strings.
func ScalarList(items ...string) Value {
	return Value{kind: KindScalarList, list: append([]string{}, items...)}
}

// ObjectList builds an array of objects.
func ObjectList(items ...Object) Value {
	objs := cloneObjects(items)
	if objs == nil {
		objs = []Object{}
	}
	return Value{kind: KindObjectList, objects: objs}
}

// Kind returns the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// AsScalar returns the scalar payload and whether the value is a scalar.
func (v Value) AsScalar() (string, bool) {
	if v.kind != KindScalar {
		return "", false
	}
	return v.scalar, true
}

// AsScalarList returns a copy of the string items and whether the value is a
// scalar list.
func (v Value) AsScalarList() ([]string, bool) {
	if v.kind != KindScalarList {
		return nil, false
	}
	return append([]string{}, v.list...), true
}

// AsObjectList returns a copy of the object items and whether the value is an
// object list.
func (v Value) AsObjectList() ([]Object, bool) {
	if v.kind != KindObjectList {
		return nil, false
	}
	objs := cloneObjects(v.objects)
	if objs == nil {
		objs = []Object{}
	}
	return objs, true
}

// IsEmpty reports whether the value carries no content.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindScalar:
		return v.scalar == ""
	case KindScalarList:
		return len(v.list) == 0
	case KindObjectList:
		return len(v.objects) == 0
	}
	return true
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	out := Value{kind: v.kind, scalar: v.scalar, objects: cloneObjects(v.objects)}
	if v.list != nil {
		out.list = append([]string{}, v.list...)
	}
	return out
}

func cloneObjects(in []Object) []Object {
	if in == nil {
		return nil
	}
	out := make([]Object, len(in))
	for i, o := range in {
		out[i] = o
		if o.Required != nil {
			r := *o.Required
			out[i].Required = &r
		}
	}
	return out
}

// Frontmatter is an insertion-ordered mapping of keys to values.
type Frontmatter struct {
	keys   []string
	values map[string]Value
}

// New returns an empty Frontmatter.
func New() *Frontmatter {
	return &Frontmatter{values: make(map[string]Value)}
}

// Set stores a value. Re-setting an existing key keeps its original position.
func (f *Frontmatter) Set(key string, v Value) *Frontmatter {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
	return f
}

// SetScalar is shorthand for Set(key, Scalar(value)).
func (f *Frontmatter) SetScalar(key, value string) *Frontmatter {
	return f.Set(key, Scalar(value))
}

// Get returns the value stored under key.
func (f *Frontmatter) Get(key string) (Value, bool) {
	if f == nil || f.values == nil {
		return Value{}, false
	}
	v, ok := f.values[key]
	return v, ok
}

// String returns the scalar stored under key, or "" when the key is missing or
// holds an array.
func (f *Frontmatter) String(key string) string {
	v, ok := f.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.AsScalar()
	return s
}

// Objects returns the object items stored under key, or nil when the key is
// missing or not an object list.
func (f *Frontmatter) Objects(key string) []Object {
	v, ok := f.Get(key)
	if !ok {
		return nil
	}
	objs, _ := v.AsObjectList()
	return objs
}

// Keys returns the keys in insertion order.
func (f *Frontmatter) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string{}, f.keys...)
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Clone returns a deep copy.
func (f *Frontmatter) Clone() *Frontmatter {
	out := New()
	if f == nil {
		return out
	}
	for _, k := range f.keys {
		out.Set(k, f.values[k].Clone())
	}
	return out
}
