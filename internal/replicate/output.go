package replicate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var ErrUnrecognizedOutput = errors.New("unrecognized prediction output")

var urlKeys = []string{"url", "image", "src"}

// ExtractImageURL reduces a prediction output to a single image URL. The
// documented contract is a URL string or a list of URL strings; other shapes
// seen from image models (objects keyed by url/image/src/output, nested
// images lists) are accepted as a fallback.
func ExtractImageURL(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}

	if gjson.ValidBytes(raw) {
		if url, ok := sniff(gjson.ParseBytes(raw)); ok {
			return url, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnrecognizedOutput, truncateBody(raw))
}

func sniff(out gjson.Result) (string, bool) {
	switch {
	case out.Type == gjson.String:
		return nonEmpty(out.Str)
	case out.IsArray():
		items := out.Array()
		if len(items) == 0 {
			return "", false
		}
		first := items[0]
		if first.Type == gjson.String {
			return nonEmpty(first.Str)
		}
		if first.IsObject() {
			if url, ok := stringAt(first, urlKeys...); ok {
				return url, true
			}
			return firstOf(first.Get("images"))
		}
	case out.IsObject():
		for _, key := range []string{"url", "image", "output"} {
			val := out.Get(key)
			if val.Type == gjson.String {
				return nonEmpty(val.Str)
			}
			if url, ok := firstOf(val); ok {
				return url, true
			}
		}
		return firstOf(out.Get("images"))
	}
	return "", false
}

// firstOf inspects the first element of a list: a URL string or an object carrying one.
func firstOf(list gjson.Result) (string, bool) {
	if !list.IsArray() {
		return "", false
	}
	items := list.Array()
	if len(items) == 0 {
		return "", false
	}
	if items[0].Type == gjson.String {
		return nonEmpty(items[0].Str)
	}
	if items[0].IsObject() {
		return stringAt(items[0], urlKeys...)
	}
	return "", false
}

func stringAt(obj gjson.Result, keys ...string) (string, bool) {
	for _, key := range keys {
		if val := obj.Get(key); val.Type == gjson.String {
			return nonEmpty(val.Str)
		}
	}
	return "", false
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}
