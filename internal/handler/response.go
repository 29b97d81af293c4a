package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// maxJSONBody bounds every JSON request body. Report photos travel as
// multipart and are capped separately.
const maxJSONBody = 64 << 10

// errTrailingData is returned when a body holds more than one JSON value
var errTrailingData = errors.New("unexpected data after JSON body")

// DataResponse is the envelope for a single resource. Links point at the
// follow-up routes a client is expected to call next.
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse is the envelope for lists such as the report feed and
// comment threads
type CollectionResponse struct {
	Data       interface{}       `json:"data"`
	Pagination *PaginationInfo   `json:"pagination,omitempty"`
	Links      map[string]string `json:"_links,omitempty"`
}

// PaginationInfo carries the offset of the next page as an opaque cursor
type PaginationInfo struct {
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// WriteJSON writes v with the given status. Responses carry tokens and
// per-user vote state, so they are never cached by intermediaries.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	WriteJSON(w, status, DataResponse{Data: data, Links: links})
}

func WriteCollection(w http.ResponseWriter, status int, data interface{}, pagination *PaginationInfo, links map[string]string) {
	WriteJSON(w, status, CollectionResponse{Data: data, Pagination: pagination, Links: links})
}

// WriteError writes an RFC 9457 problem document
func WriteError(w http.ResponseWriter, problem *model.ProblemDetails) {
	w.Header().Set("Cache-Control", "no-store")
	problem.WriteJSON(w)
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// reportLinks are the follow-up routes for a freshly created report
func reportLinks(id string) map[string]string {
	self := "/api/reports/" + id
	return map[string]string{
		"self":     self,
		"vote":     self + "/vote",
		"comments": self + "/comments",
	}
}

// offsetPage reports whether a full page may be followed by another. An
// empty or short page ends the feed.
func offsetPage(returned, limit, offset int) *PaginationInfo {
	if limit <= 0 || returned < limit {
		return &PaginationInfo{HasMore: false}
	}
	return &PaginationInfo{Cursor: strconv.Itoa(offset + returned), HasMore: true}
}

// DecodeJSON reads exactly one JSON value of at most maxJSONBody bytes into
// v. Unknown fields are rejected so clients cannot smuggle in server-owned
// values like role or points.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return errTrailingData
	}
	return nil
}

// bodyProblem maps a DecodeJSON failure to the problem returned to the client
func bodyProblem(err error) *model.ProblemDetails {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return model.NewPayloadTooLargeError(tooLarge.Limit)
	case errors.Is(err, io.EOF):
		return model.NewBadRequestError("request body is required")
	default:
		return model.NewBadRequestError("invalid request body")
	}
}
