package mapping

import (
	"encoding/json"
	"reflect"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// Mapper converts entities to and from their JSON document form using
// parsed metadata and the converter registry. Pure transformation, no
// side effects.
type Mapper struct {
	reg *Registry
}

// NewMapper creates a mapper backed by the given registry.
func NewMapper(reg *Registry) *Mapper {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Mapper{reg: reg}
}

// Encode serializes an entity into its document source and extracts the
// identifier. The id field is kept in the source as well, so that
// Decode(Encode(e)) restores every mapped field.
func (m *Mapper) Encode(meta *Metadata, entity any) (string, json.RawMessage, error) {
	v := reflect.ValueOf(entity)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil, domain.NewMappingError(meta.typ.String(), "", "entity is nil")
		}
		v = v.Elem()
	}
	if v.Type() != meta.typ {
		return "", nil, domain.NewMappingError(meta.typ.String(), "", "entity has type %s", v.Type())
	}

	doc := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		val, err := m.encodeField(meta, f, v.Field(f.Index))
		if err != nil {
			return "", nil, err
		}
		doc[f.Name] = val
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", nil, domain.NewMappingError(meta.typ.String(), "", "marshal document: %v", err)
	}
	return v.Field(meta.idIndex).String(), data, nil
}

func (m *Mapper) encodeField(meta *Metadata, f Field, fv reflect.Value) (any, error) {
	if conv, ok := m.reg.Lookup(f.Type); ok {
		val, err := conv.ToDocument(fv.Interface())
		if err != nil {
			return nil, domain.NewMappingError(meta.typ.String(), f.Name, "convert: %v", err)
		}
		return val, nil
	}
	return fv.Interface(), nil
}

// Decode deserializes a document source into out, which must be a
// non-nil pointer to the mapped struct type. A non-empty id overrides
// whatever the source carries in the id field; the document identifier
// is authoritative.
func (m *Mapper) Decode(meta *Metadata, id string, src json.RawMessage, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return domain.NewMappingError(meta.typ.String(), "", "target must be a non-nil pointer")
	}
	ev := rv.Elem()
	if ev.Type() != meta.typ {
		return domain.NewMappingError(meta.typ.String(), "", "target has type %s", ev.Type())
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(src, &raw); err != nil {
		return domain.NewMappingError(meta.typ.String(), "", "unmarshal document: %v", err)
	}

	for _, f := range meta.fields {
		fragment, ok := raw[f.Name]
		if !ok {
			continue
		}
		if err := m.decodeField(meta, f, fragment, ev.Field(f.Index)); err != nil {
			return err
		}
	}

	if id != "" {
		ev.Field(meta.idIndex).SetString(id)
	}
	return nil
}

func (m *Mapper) decodeField(meta *Metadata, f Field, fragment json.RawMessage, fv reflect.Value) error {
	if conv, ok := m.reg.Lookup(f.Type); ok {
		var decoded any
		if err := json.Unmarshal(fragment, &decoded); err != nil {
			return domain.NewMappingError(meta.typ.String(), f.Name, "unmarshal: %v", err)
		}
		val, err := conv.FromDocument(decoded)
		if err != nil {
			return domain.NewMappingError(meta.typ.String(), f.Name, "convert: %v", err)
		}
		cv := reflect.ValueOf(val)
		if !cv.IsValid() || !cv.Type().AssignableTo(f.Type) {
			return domain.NewMappingError(meta.typ.String(), f.Name,
				"converter returned %T, want %s", val, f.Type)
		}
		fv.Set(cv)
		return nil
	}

	if err := json.Unmarshal(fragment, fv.Addr().Interface()); err != nil {
		return domain.NewMappingError(meta.typ.String(), f.Name, "unmarshal: %v", err)
	}
	return nil
}
