package mapping

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// TagKey is the struct tag inspected on entity fields.
const TagKey = "esmap"

// FieldKind is the declared Elasticsearch type of a mapped field.
type FieldKind string

// Field kinds accepted in the esmap struct tag.
const (
	KindID      FieldKind = "id"
	KindKeyword FieldKind = "keyword"
	KindText    FieldKind = "text"
	KindLong    FieldKind = "long"
	KindDouble  FieldKind = "double"
	KindDate    FieldKind = "date"
	KindBool    FieldKind = "bool"
	KindVector  FieldKind = "vector"
	// KindAuto marks a field with no explicit kind; the Elasticsearch
	// type is inferred from the Go type when generating the mapping.
	KindAuto FieldKind = ""
)

// IndexNamer lets an entity type declare its own index name.
// When absent, the snake_cased type name is used.
type IndexNamer interface {
	IndexName() string
}

// Field is one mapped struct field.
type Field struct {
	Name      string // document field name
	Index     int    // struct field index
	Kind      FieldKind
	VectorDim int
	Type      reflect.Type
}

// Metadata is the parsed mapping of one entity type. Parsed once per
// type and cached by the typed index handle.
type Metadata struct {
	typ       reflect.Type
	indexName string
	idIndex   int
	fields    []Field // includes the id field
}

var timeType = reflect.TypeOf(time.Time{})

// Parse reflects over t and extracts esmap tag metadata.
func Parse(t reflect.Type) (*Metadata, error) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, domain.NewMappingError(base.String(), "", "not a struct type")
	}

	meta := &Metadata{typ: base, idIndex: -1}

	for i := 0; i < base.NumField(); i++ {
		sf := base.Field(i)
		tag := sf.Tag.Get(TagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, domain.NewMappingError(base.String(), sf.Name, "esmap tag on unexported field")
		}
		f, err := parseField(base, i, sf, tag)
		if err != nil {
			return nil, err
		}
		if f.Kind == KindID {
			if meta.idIndex != -1 {
				return nil, domain.NewMappingError(base.String(), f.Name, "duplicate id tag")
			}
			meta.idIndex = i
		}
		meta.fields = append(meta.fields, f)
	}

	if meta.idIndex == -1 {
		return nil, domain.NewMappingError(base.String(), "", "no field with `esmap:\"...,id\"` tag")
	}

	meta.indexName = deriveIndexName(base)
	return meta, nil
}

func parseField(t reflect.Type, idx int, sf reflect.StructField, tag string) (Field, error) {
	name, kindSpec, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}

	f := Field{Name: name, Index: idx, Type: sf.Type}

	kind, arg, hasArg := strings.Cut(kindSpec, "=")
	switch FieldKind(kind) {
	case KindAuto, KindKeyword, KindText, KindLong, KindDouble, KindDate, KindBool:
		f.Kind = FieldKind(kind)
	case KindID:
		if sf.Type.Kind() != reflect.String {
			return Field{}, domain.NewMappingError(t.String(), name, "id field must be a string, got %s", sf.Type)
		}
		f.Kind = KindID
	case KindVector:
		if !hasArg {
			return Field{}, domain.NewMappingError(t.String(), name, "vector kind requires a dimension, e.g. vector=768")
		}
		dim, err := strconv.Atoi(arg)
		if err != nil || dim <= 0 {
			return Field{}, domain.NewMappingError(t.String(), name, "invalid vector dimension %q", arg)
		}
		f.Kind = KindVector
		f.VectorDim = dim
	default:
		return Field{}, domain.NewMappingError(t.String(), name, "unknown field kind %q", kind)
	}

	return f, nil
}

// deriveIndexName picks the index name for an entity type: the
// IndexNamer result when implemented (on value or pointer receiver),
// otherwise the snake_cased type name.
func deriveIndexName(t reflect.Type) string {
	zero := reflect.New(t)
	if n, ok := zero.Elem().Interface().(IndexNamer); ok {
		return n.IndexName()
	}
	if n, ok := zero.Interface().(IndexNamer); ok {
		return n.IndexName()
	}
	return snakeCase(t.Name())
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Type returns the mapped struct type.
func (m *Metadata) Type() reflect.Type { return m.typ }

// IndexName returns the derived index name.
func (m *Metadata) IndexName() string { return m.indexName }

// Fields returns all mapped fields, including the id field.
func (m *Metadata) Fields() []Field { return m.fields }

// VectorField returns the first dense vector field, if any.
func (m *Metadata) VectorField() (Field, bool) {
	for _, f := range m.fields {
		if f.Kind == KindVector {
			return f, true
		}
	}
	return Field{}, false
}

// MappingJSON renders the index creation body with explicit property
// types for every mapped field. Fields whose type cannot be inferred
// are left to dynamic mapping.
func (m *Metadata) MappingJSON() ([]byte, error) {
	props := make(map[string]any, len(m.fields))
	for _, f := range m.fields {
		prop, ok := property(f)
		if !ok {
			continue
		}
		props[f.Name] = prop
	}

	body := map[string]any{
		"mappings": map[string]any{"properties": props},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewMappingError(m.typ.String(), "", "marshal index mapping: %v", err)
	}
	return data, nil
}

func property(f Field) (map[string]any, bool) {
	switch f.Kind {
	case KindID, KindKeyword:
		return map[string]any{"type": "keyword"}, true
	case KindText:
		return map[string]any{"type": "text"}, true
	case KindLong:
		return map[string]any{"type": "long"}, true
	case KindDouble:
		return map[string]any{"type": "double"}, true
	case KindDate:
		return map[string]any{"type": "date"}, true
	case KindBool:
		return map[string]any{"type": "boolean"}, true
	case KindVector:
		return map[string]any{"type": "dense_vector", "dims": f.VectorDim}, true
	default:
		return inferProperty(f.Type)
	}
}

func inferProperty(t reflect.Type) (map[string]any, bool) {
	if t == timeType {
		return map[string]any{"type": "date"}, true
	}
	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "keyword"}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "long"}, true
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "double"}, true
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, true
	default:
		return nil, false
	}
}

// String implements fmt.Stringer for debug logging.
func (m *Metadata) String() string {
	return fmt.Sprintf("mapping(%s -> %s, %d fields)", m.typ, m.indexName, len(m.fields))
}
