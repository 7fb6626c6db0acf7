package esmap

// Document is an untyped document: an identifier plus its fields.
// An empty ID on write lets the server assign one.
type Document struct {
	ID     string
	Fields map[string]any
}

// SearchHit is one untyped search result.
type SearchHit struct {
	ID     string
	Score  float64
	Fields map[string]any
}

// SearchPage is the result of an untyped search.
type SearchPage struct {
	Total    int64
	MaxScore float64
	Hits     []SearchHit
}

// BulkItem reports the outcome of one document in a bulk write.
type BulkItem struct {
	ID     string
	Status int
	Reason string // empty on success
}

// BulkResult reports a bulk write. Errors is true when at least one
// item failed; inspect Items to find which.
type BulkResult struct {
	Errors bool
	Items  []BulkItem
}

// Hit is one typed search result.
type Hit[T any] struct {
	ID    string
	Score float64
	Item  T
}

// Page is the result of a typed search.
type Page[T any] struct {
	Total    int64
	MaxScore float64
	Hits     []Hit[T]
}
