package es

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/esmap/internal/domain"
)

// errorBody is the standard Elasticsearch error envelope.
type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// decodeError turns a non-2xx esapi response into a ClientError carrying
// the server-side error type and reason. The response body is consumed.
func decodeError(op string, res *esapi.Response) error {
	data, _ := io.ReadAll(res.Body)

	var body errorBody
	_ = json.Unmarshal(data, &body)

	cause := causeFor(res.StatusCode, body.Error.Type)
	return domain.NewStatusError(op, res.StatusCode, body.Error.Type, body.Error.Reason, cause)
}

// causeFor maps status codes and Elasticsearch exception types onto the
// sentinel errors callers match with errors.Is.
func causeFor(status int, esType string) error {
	switch esType {
	case "index_not_found_exception":
		return domain.ErrIndexNotFound
	case "resource_already_exists_exception":
		return domain.ErrIndexExists
	case "version_conflict_engine_exception":
		return domain.ErrConflict
	}
	switch status {
	case http.StatusNotFound:
		return domain.ErrDocumentNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return domain.ErrUnavailable
	}
	return nil
}
