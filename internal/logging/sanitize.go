package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

var sensitiveKeys = []string{"password"}

// SanitizeBody prepares a request body for logging. JSON objects and form bodies
// come back as a map with sensitive keys removed. Anything that cannot be parsed
// is replaced by a placeholder and never logged verbatim.
func SanitizeBody(contentType string, body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return unparsed(body)
		}
		fields := make(map[string]interface{}, len(values))
		for key, v := range values {
			if isSensitive(key) {
				continue
			}
			if len(v) == 1 {
				fields[key] = v[0]
			} else {
				fields[key] = v
			}
		}
		return fields
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return unparsed(body)
	}
	for key := range fields {
		if isSensitive(key) {
			delete(fields, key)
		}
	}
	return fields
}

func isSensitive(key string) bool {
	for _, k := range sensitiveKeys {
		if strings.EqualFold(key, k) {
			return true
		}
	}
	return false
}

func unparsed(body []byte) string {
	return fmt.Sprintf("[unparsed body, %d bytes]", len(body))
}
