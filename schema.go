package esmap

import (
	"reflect"

	"github.com/kailas-cloud/esmap/internal/mapping"
)

// Converter customizes the document representation of one Go type.
// Register with WithConverterFor.
type Converter = mapping.Converter

// IndexNamer lets an entity type declare its own index name. Types
// without it map to the snake_cased type name.
type IndexNamer = mapping.IndexNamer

// parseSchema reflects on T and extracts esmap struct tag metadata.
// Parsed once per TypedIndex and cached on the handle.
func parseSchema[T any]() (*mapping.Metadata, error) {
	return mapping.Parse(reflect.TypeOf((*T)(nil)).Elem())
}
