package repository

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// isUniqueConstraintError checks if an error is a unique index violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, database.ErrDuplicate) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "already contains") ||
		strings.Contains(errStr, "already exists")
}

// nearestFirst binds the box to vars and returns a projection named
// distance_rank: the squared equirectangular distance from the box center to
// the [lng, lat] pair at field. Ordering by it ranks rows nearest first.
func nearestFirst(field string, box model.BoundingBox, vars map[string]interface{}) string {
	vars["min_lat"] = box.MinLat
	vars["max_lat"] = box.MaxLat
	vars["min_lng"] = box.MinLng
	vars["max_lng"] = box.MaxLng
	vars["center_lat"] = box.Center.Lat
	vars["center_lng"] = box.Center.Lng
	vars["lng_scale"] = math.Cos(box.Center.Lat * math.Pi / 180)
	return fmt.Sprintf(
		"math::pow(%[1]s[1] - $center_lat, 2) + math::pow((%[1]s[0] - $center_lng) * $lng_scale, 2) AS distance_rank",
		field,
	)
}

// surrealDuration renders d as a SurrealDB duration literal for type::duration()
func surrealDuration(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(d/time.Second))
}

// openStatuses is passed as $open to queries guarded on non-terminal status
func openStatuses() []string {
	open := model.OpenStatuses()
	out := make([]string, 0, len(open))
	for _, s := range open {
		out = append(out, string(s))
	}
	return out
}

// eachRecord calls fn for every record of every statement in a Query result
func eachRecord(result []interface{}, fn func(data map[string]interface{})) {
	for _, res := range result {
		resp, ok := res.(map[string]interface{})
		if !ok {
			continue
		}
		resultData, ok := resp["result"].([]interface{})
		if !ok {
			continue
		}
		for _, item := range resultData {
			if data, ok := item.(map[string]interface{}); ok {
				fn(data)
			}
		}
	}
}

// lastRecord returns the first record of the last statement that produced one.
// Transactions return a result per statement, and the final UPDATE ... RETURN
// AFTER is the one callers care about.
func lastRecord(result []interface{}) map[string]interface{} {
	for i := len(result) - 1; i >= 0; i-- {
		resp, ok := result[i].(map[string]interface{})
		if !ok {
			continue
		}
		if resultData, ok := resp["result"].([]interface{}); ok && len(resultData) > 0 {
			if data, ok := resultData[0].(map[string]interface{}); ok {
				return data
			}
		}
	}
	return nil
}

// parseTime parses time from various formats
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// extractCountValue converts various numeric types to int
func extractCountValue(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	}
	return 0
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getStringPtr extracts an optional string value from a map
func getStringPtr(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	return extractCountValue(m[key])
}

func toFloat(v interface{}) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case float32:
		return float64(f)
	case int:
		return float64(f)
	case int64:
		return float64(f)
	case uint64:
		return float64(f)
	}
	return 0
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getMap extracts a nested object from a map
func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	if m[key] == nil {
		return nil
	}
	t := parseTime(m[key])
	if t.IsZero() {
		return nil
	}
	return &t
}

// getStringSlice extracts a string slice from a map
func getStringSlice(m map[string]interface{}, key string) []string {
	if v, ok := m[key].([]interface{}); ok {
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

// getRecordIDSlice extracts an array of record links as "table:id" strings
func getRecordIDSlice(m map[string]interface{}, key string) []string {
	v, ok := m[key].([]interface{})
	if !ok {
		return []string{}
	}
	result := make([]string, 0, len(v))
	for _, item := range v {
		if id := convertSurrealID(item); id != "" {
			result = append(result, id)
		}
	}
	return result
}

// getRecordIDPtr extracts an optional record link
func getRecordIDPtr(m map[string]interface{}, key string) *string {
	if id := convertSurrealID(m[key]); id != "" {
		return &id
	}
	return nil
}

// getGeoPoint extracts a [lng, lat] array
func getGeoPoint(m map[string]interface{}, key string) *model.GeoPoint {
	pair, ok := m[key].([]interface{})
	if !ok || len(pair) != 2 {
		return nil
	}
	return &model.GeoPoint{Lng: toFloat(pair[0]), Lat: toFloat(pair[1])}
}

// geoPointVar converts a point to the [lng, lat] array stored in the database
func geoPointVar(p *model.GeoPoint) interface{} {
	if p == nil {
		return nil
	}
	return []float64{p.Lng, p.Lat}
}

type createdRecord struct {
	ID        string
	CreatedOn time.Time
	UpdatedOn time.Time
}

func extractCreatedRecord(result []interface{}) (*createdRecord, error) {
	data := lastRecord(result)
	if data == nil {
		return nil, errors.New("no result returned")
	}

	record := &createdRecord{ID: convertSurrealID(data["id"])}
	if t := getTime(data, "created_on"); t != nil {
		record.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		record.UpdatedOn = *t
	}
	return record, nil
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string.
// Missing values convert to "".
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case map[string]interface{}:
		// {"tb": "user", "id": {"String": "demo"}} or similar
		tb := ""
		for _, k := range []string{"tb", "TB", "Table"} {
			if t, ok := v[k].(string); ok {
				tb = t
				break
			}
		}
		idPart := ""
		for _, k := range []string{"id", "ID"} {
			if idVal, ok := v[k]; ok {
				idPart = extractIDValue(idVal)
				break
			}
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		return idPart
	}
	return fmt.Sprintf("%v", id)
}

// extractIDValue extracts the ID value which may be nested
func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
		if s, ok := m["string"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// ptrToNone converts a string pointer to its value or nil. Queries test the
// variable for truthiness and write NONE when it is empty.
func ptrToNone(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
