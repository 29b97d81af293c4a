package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/middleware"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
)

// actorFrom builds the service actor from the authenticated request
func actorFrom(r *http.Request) (service.Actor, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return service.Actor{}, false
	}
	role := middleware.GetUserRole(r.Context())
	if role == "" {
		role = model.UserRoleCitizen
	}
	return service.Actor{UserID: userID, Role: role}, true
}

// requireActor writes 401 when the request carries no authenticated user
func requireActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	actor, ok := actorFrom(r)
	if !ok {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
	}
	return actor, ok
}

// decodeBody decodes a JSON body, writing 400 on malformed input and 413
// when it is oversized
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := DecodeJSON(w, r, v); err != nil {
		WriteError(w, bodyProblem(err))
		return false
	}
	return true
}

// decodeOptionalBody is decodeBody that accepts an empty body
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := DecodeJSON(w, r, v); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, bodyProblem(err))
		return false
	}
	return true
}

// queryParams collects field errors while reading query values
type queryParams struct {
	r    *http.Request
	errs []model.FieldError
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{r: r}
}

func (q *queryParams) string(name string) *string {
	v := strings.TrimSpace(q.r.URL.Query().Get(name))
	if v == "" {
		return nil
	}
	return &v
}

func (q *queryParams) int(name string, def int) int {
	raw := q.r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		q.errs = append(q.errs, model.FieldError{Field: name, Message: "must be a non-negative integer"})
		return def
	}
	return v
}

func (q *queryParams) float(name string, required bool) float64 {
	raw := q.r.URL.Query().Get(name)
	if raw == "" {
		if required {
			q.errs = append(q.errs, model.FieldError{Field: name, Message: "is required"})
		}
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.errs = append(q.errs, model.FieldError{Field: name, Message: "must be a number"})
		return 0
	}
	return v
}

func (q *queryParams) bool(name string) bool {
	raw := q.r.URL.Query().Get(name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.errs = append(q.errs, model.FieldError{Field: name, Message: "must be true or false"})
	}
	return v
}

func (q *queryParams) invalid(field, message string) {
	q.errs = append(q.errs, model.FieldError{Field: field, Message: message})
}

// check writes a validation problem when any parameter was invalid
func (q *queryParams) check(w http.ResponseWriter) bool {
	if len(q.errs) > 0 {
		WriteError(w, model.NewValidationError(q.errs))
		return false
	}
	return true
}
