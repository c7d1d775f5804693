package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/livetl"
)

// parseTranslations reads a reply that should hold an ordered list of
// strings. Accepted shapes are a bare JSON array, an object with a
// "translations" array, or an object with any single array value. Markdown
// code fences around the JSON are ignored.
func parseTranslations(content string, expectedCount int) ([]string, error) {
	content = stripFences(content)

	var arr []interface{}
	if err := json.Unmarshal([]byte(content), &arr); err == nil {
		return toStringSlice(arr, expectedCount)
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return nil, &livetl.MalformedResponseError{Reason: "reply is not JSON", Cause: err}
	}

	if translations, ok := obj["translations"]; ok {
		if arr, ok := translations.([]interface{}); ok {
			return toStringSlice(arr, expectedCount)
		}
	}
	for _, v := range obj {
		if arr, ok := v.([]interface{}); ok {
			return toStringSlice(arr, expectedCount)
		}
	}

	return nil, &livetl.MalformedResponseError{Reason: "reply holds no array"}
}

func toStringSlice(arr []interface{}, expectedCount int) ([]string, error) {
	if len(arr) != expectedCount {
		return nil, &livetl.CountMismatchError{Expected: expectedCount, Got: len(arr)}
	}

	result := make([]string, len(arr))
	for i, v := range arr {
		switch s := v.(type) {
		case string:
			result[i] = s
		case nil:
			return nil, &livetl.MalformedResponseError{Reason: fmt.Sprintf("item %d is null", i)}
		default:
			return nil, &livetl.MalformedResponseError{Reason: fmt.Sprintf("item %d is not a string", i)}
		}
	}
	return result, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(content), "```"))
}
