package mapping

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/esmap/internal/domain"
)

type book struct {
	ID        string    `esmap:"id,id"`
	Title     string    `esmap:"title,text"`
	Author    string    `esmap:"author,keyword"`
	Year      int       `esmap:"year,long"`
	Rating    float64   `esmap:"rating"`
	Published time.Time `esmap:"published_at,date"`
	Draft     bool      `esmap:"-"`
	internal  string    //nolint:unused // untagged, must be ignored
}

type article struct {
	ID        string    `esmap:"id,id"`
	Body      string    `esmap:"body,text"`
	Embedding []float32 `esmap:"embedding,vector=4"`
}

func (article) IndexName() string { return "articles-v2" }

func TestParse_Book(t *testing.T) {
	meta, err := Parse(reflect.TypeOf(book{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.IndexName() != "book" {
		t.Errorf("IndexName() = %q, want %q", meta.IndexName(), "book")
	}
	if meta.idIndex != 0 {
		t.Errorf("idIndex = %d, want 0", meta.idIndex)
	}
	// ID, Title, Author, Year, Rating, Published; Draft and internal skipped.
	if len(meta.Fields()) != 6 {
		t.Fatalf("len(fields) = %d, want 6", len(meta.Fields()))
	}
	f := meta.Fields()[1]
	if f.Name != "title" || f.Kind != KindText {
		t.Errorf("fields[1] = %+v, want title/text", f)
	}
	if meta.Fields()[4].Kind != KindAuto {
		t.Errorf("untyped tag should parse as KindAuto, got %q", meta.Fields()[4].Kind)
	}
}

func TestParse_IndexNamer(t *testing.T) {
	meta, err := Parse(reflect.TypeOf(article{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.IndexName() != "articles-v2" {
		t.Errorf("IndexName() = %q, want %q", meta.IndexName(), "articles-v2")
	}
	vf, ok := meta.VectorField()
	if !ok {
		t.Fatal("expected a vector field")
	}
	if vf.Name != "embedding" || vf.VectorDim != 4 {
		t.Errorf("vector field = %+v, want embedding/dims=4", vf)
	}
}

func TestParse_SnakeCasesTypeName(t *testing.T) {
	type BookReview struct {
		ID string `esmap:"id,id"`
	}
	meta, err := Parse(reflect.TypeOf(BookReview{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.IndexName() != "book_review" {
		t.Errorf("IndexName() = %q, want %q", meta.IndexName(), "book_review")
	}
}

func TestParse_Errors(t *testing.T) {
	type noID struct {
		Name string `esmap:"name,keyword"`
	}
	type twoIDs struct {
		A string `esmap:"a,id"`
		B string `esmap:"b,id"`
	}
	type intID struct {
		ID int `esmap:"id,id"`
	}
	type badKind struct {
		ID string `esmap:"id,id"`
		X  string `esmap:"x,geopoint"`
	}
	type badDim struct {
		ID string    `esmap:"id,id"`
		V  []float32 `esmap:"v,vector=abc"`
	}

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{name: "not a struct", typ: reflect.TypeOf("")},
		{name: "no id", typ: reflect.TypeOf(noID{})},
		{name: "duplicate id", typ: reflect.TypeOf(twoIDs{})},
		{name: "non-string id", typ: reflect.TypeOf(intID{})},
		{name: "unknown kind", typ: reflect.TypeOf(badKind{})},
		{name: "bad vector dim", typ: reflect.TypeOf(badDim{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.typ)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrMapping) {
				t.Errorf("error %v does not match ErrMapping", err)
			}
		})
	}
}

func TestMappingJSON(t *testing.T) {
	meta, err := Parse(reflect.TypeOf(article{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := meta.MappingJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Mappings struct {
			Properties map[string]map[string]any `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("mapping is not valid JSON: %v", err)
	}

	props := body.Mappings.Properties
	if props["id"]["type"] != "keyword" {
		t.Errorf("id type = %v, want keyword", props["id"]["type"])
	}
	if props["body"]["type"] != "text" {
		t.Errorf("body type = %v, want text", props["body"]["type"])
	}
	if props["embedding"]["type"] != "dense_vector" || props["embedding"]["dims"] != float64(4) {
		t.Errorf("embedding = %v, want dense_vector dims=4", props["embedding"])
	}
}

func TestMappingJSON_InferredTypes(t *testing.T) {
	meta, err := Parse(reflect.TypeOf(book{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := meta.MappingJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Mappings struct {
			Properties map[string]map[string]any `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("mapping is not valid JSON: %v", err)
	}
	if got := body.Mappings.Properties["rating"]["type"]; got != "double" {
		t.Errorf("inferred rating type = %v, want double", got)
	}
}
