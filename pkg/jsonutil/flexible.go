// Package jsonutil tolerantly decodes JSON values whose types wobble,
// typically fields in LLM responses that come back as a string one call
// and a number the next.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling
// cases where the producer returns numbers or booleans instead of
// strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleFloatValue converts a json.RawMessage to a float64, accepting
// both numbers and numeric strings ("0.8", "80%"). Returns an error when
// the value is neither.
func FlexibleFloatValue(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("empty value")
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal, nil
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		strVal = strings.TrimSpace(strVal)
		percent := strings.HasSuffix(strVal, "%")
		strVal = strings.TrimSuffix(strVal, "%")
		v, err := strconv.ParseFloat(strVal, 64)
		if err != nil {
			return 0, fmt.Errorf("not a numeric string: %q", strVal)
		}
		if percent {
			v /= 100
		}
		return v, nil
	}

	return 0, fmt.Errorf("not a number: %s", string(raw))
}
