package grist

import (
	"fmt"
	"strconv"
	"strings"
)

// Record represents one logical row: a mapping from column id to cell
// value. Cell values are the JSON scalars (string, number, bool, nil)
// or a tagged compound value such as an ["L", ...] list; compound
// values keep their wire shape. The "id" column, when present, holds
// the row's numeric identifier in the remote table.
type Record map[string]interface{}

// RowID returns the record's numeric row id, or false when the id is
// absent or not numeric.
func (r Record) RowID() (int64, bool) {
	v, ok := r["id"]
	if !ok || !isNumeric(v) {
		return 0, false
	}
	return int64(toFloat64(v)), true
}

// GetAsString returns the value as string or defaultValue if not found
func (r Record) GetAsString(col string, defaultValue string) string {
	v, ok := r[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case string:
		return val
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// GetAsInt64 returns the value as int64 or defaultValue if not found
func (r Record) GetAsInt64(col string, defaultValue int64) int64 {
	v, ok := r[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case string:
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// GetAsFloat64 returns the value as float64 or defaultValue if not found
func (r Record) GetAsFloat64(col string, defaultValue float64) float64 {
	v, ok := r[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetAsBool returns the value as bool or defaultValue if not found
func (r Record) GetAsBool(col string, defaultValue bool) bool {
	v, ok := r[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "1"
	case int, int64:
		return val != 0
	case float64:
		return val != 0
	}
	return defaultValue
}

// GetAsStrings returns the value as []string or defaultValue if not
// found. Tagged ["L", ...] list cells yield their elements.
func (r Record) GetAsStrings(col string, defaultValue []string) []string {
	v, ok := r[col]
	if !ok {
		return defaultValue
	}

	switch val := v.(type) {
	case []string:
		return val
	case string:
		if val == "" {
			return []string{}
		}
		return strings.Split(val, ",")
	case []interface{}:
		items := val
		if len(items) > 0 {
			if tag, ok := items[0].(string); ok && tag == "L" {
				items = items[1:]
			}
		}
		result := make([]string, len(items))
		for i, item := range items {
			result[i] = fmt.Sprintf("%v", item)
		}
		return result
	}
	return defaultValue
}

// SetString sets a string value
func (r Record) SetString(col string, value string) {
	r[col] = value
}

// SetInt64 sets an int64 value
func (r Record) SetInt64(col string, value int64) {
	r[col] = value
}

// SetFloat64 sets a float64 value
func (r Record) SetFloat64(col string, value float64) {
	r[col] = value
}

// SetBool sets a bool value
func (r Record) SetBool(col string, value bool) {
	r[col] = value
}

// SetStrings sets a list value in its tagged ["L", ...] wire shape
func (r Record) SetStrings(col string, value []string) {
	cell := make([]interface{}, 0, len(value)+1)
	cell = append(cell, "L")
	for _, item := range value {
		cell = append(cell, item)
	}
	r[col] = cell
}

// sameCell reports whether two scalar cell values are equal. Numbers
// compare by value regardless of Go type, so an int64 matches the
// float64 the JSON decoder produces. Compound values and mismatched
// scalar types never compare equal.
func sameCell(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumeric(a) && isNumeric(b) {
		return toFloat64(a) == toFloat64(b)
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// isNumeric checks if a value is numeric
func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// toFloat64 converts a numeric value to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	default:
		return 0
	}
}
