// Package checker matches decoded bus payloads against scenario
// expectations. Grounded on the teacher's
// e2e/internal/checker/matcher.go, which is domain-agnostic already
// (it matches arbitrary decoded JSON/msgpack values) and needed no
// LIDAR-specific behaviour beyond its existing regex and numeric
// comparison matchers.
package checker

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// MatchValue reports whether actual satisfies expected. expected may
// be a literal value, a "~regex~" pattern matched against actual's
// string form, or a ">"/"<"/">="/"<=" numeric comparison.
func MatchValue(actual, expected interface{}) (bool, string) {
	if expected == nil {
		if actual == nil {
			return true, ""
		}
		return false, fmt.Sprintf("expected nil, got %v", actual)
	}
	if actual == nil {
		return false, fmt.Sprintf("expected %v, got nil", expected)
	}

	if s, ok := expected.(string); ok {
		if strings.HasPrefix(s, "~") && strings.HasSuffix(s, "~") && len(s) >= 2 {
			return matchRegex(actual, strings.Trim(s, "~"))
		}
		if strings.HasPrefix(s, ">") || strings.HasPrefix(s, "<") {
			return matchComparison(actual, s)
		}
	}

	actualType, expectedType := reflect.TypeOf(actual), reflect.TypeOf(expected)
	switch expectedType.Kind() {
	case reflect.String:
		return matchString(actual, expected.(string))
	case reflect.Bool:
		return matchBool(actual, expected.(bool))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return matchNumber(actual, expected)
	case reflect.Map:
		return matchMap(actual, expected)
	case reflect.Slice, reflect.Array:
		return matchSlice(actual, expected)
	default:
		if reflect.DeepEqual(actual, expected) {
			return true, ""
		}
		return false, fmt.Sprintf("type mismatch: expected %s, got %s", expectedType, actualType)
	}
}

func matchString(actual interface{}, expected string) (bool, string) {
	actualStr, ok := actual.(string)
	if !ok {
		return false, fmt.Sprintf("expected string, got %T", actual)
	}
	if actualStr == expected {
		return true, ""
	}
	return false, fmt.Sprintf("expected %q, got %q", expected, actualStr)
}

func matchBool(actual interface{}, expected bool) (bool, string) {
	actualBool, ok := actual.(bool)
	if !ok {
		return false, fmt.Sprintf("expected bool, got %T", actual)
	}
	if actualBool == expected {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actualBool)
}

func matchNumber(actual, expected interface{}) (bool, string) {
	af, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("actual value is not numeric: %v", actual)
	}
	ef, err := toFloat64(expected)
	if err != nil {
		return false, fmt.Sprintf("expected value is not numeric: %v", expected)
	}
	if af == ef {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func matchRegex(actual interface{}, pattern string) (bool, string) {
	actualStr := fmt.Sprintf("%v", actual)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern %q: %v", pattern, err)
	}
	if re.MatchString(actualStr) {
		return true, ""
	}
	return false, fmt.Sprintf("value %q does not match pattern ~%s~", actualStr, pattern)
}

func matchComparison(actual interface{}, comparison string) (bool, string) {
	af, err := toFloat64(actual)
	if err != nil {
		return false, fmt.Sprintf("cannot compare non-numeric value: %v", actual)
	}

	var op, valueStr string
	switch {
	case strings.HasPrefix(comparison, ">="):
		op, valueStr = ">=", strings.TrimPrefix(comparison, ">=")
	case strings.HasPrefix(comparison, "<="):
		op, valueStr = "<=", strings.TrimPrefix(comparison, "<=")
	case strings.HasPrefix(comparison, ">"):
		op, valueStr = ">", strings.TrimPrefix(comparison, ">")
	case strings.HasPrefix(comparison, "<"):
		op, valueStr = "<", strings.TrimPrefix(comparison, "<")
	default:
		return false, fmt.Sprintf("invalid comparison: %s", comparison)
	}

	ef, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		return false, fmt.Sprintf("invalid comparison value: %s", valueStr)
	}

	var result bool
	switch op {
	case ">":
		result = af > ef
	case "<":
		result = af < ef
	case ">=":
		result = af >= ef
	case "<=":
		result = af <= ef
	}
	if result {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v %s %v, got %v", actual, op, ef, af)
}

func matchMap(actual, expected interface{}) (bool, string) {
	actualMap, ok := actual.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("expected map, got %T", actual)
	}
	expectedMap, ok := expected.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("expected value is not a map: %T", expected)
	}
	for key, expVal := range expectedMap {
		actVal, exists := actualMap[key]
		if !exists {
			return false, fmt.Sprintf("missing key %q", key)
		}
		if ok, reason := MatchValue(actVal, expVal); !ok {
			return false, fmt.Sprintf("key %q: %s", key, reason)
		}
	}
	return true, ""
}

func matchSlice(actual, expected interface{}) (bool, string) {
	actualVal, expectedVal := reflect.ValueOf(actual), reflect.ValueOf(expected)
	if actualVal.Len() != expectedVal.Len() {
		return false, fmt.Sprintf("expected length %d, got %d", expectedVal.Len(), actualVal.Len())
	}
	for i := 0; i < expectedVal.Len(); i++ {
		if ok, reason := MatchValue(actualVal.Index(i).Interface(), expectedVal.Index(i).Interface()); !ok {
			return false, fmt.Sprintf("element %d: %s", i, reason)
		}
	}
	return true, ""
}

func toFloat64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("not a numeric type: %T", val)
	}
}
