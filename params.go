package elastomer

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Params holds the values used to fill a path template. Parameters not
// consumed by the template are sent as the query string.
type Params map[string]interface{}

// Merge returns a copy of p with the entries of other layered on top.
func (p Params) Merge(other Params) Params {
	merged := Params{}
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Matches `{name}` (required segment) and `{/name}` (optional segment).
var templateExpression = regexp.MustCompile(`\{(/?)([A-Za-z_]+)\}`)

func paramValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []interface{}:
		values := make([]string, 0, len(v))
		for _, item := range v {
			values = append(values, paramValue(item))
		}
		return strings.Join(values, ",")
	default:
		return fmt.Sprint(v)
	}
}

func escapeSegment(value string) string {
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, ",")
}

// expandPath fills template from params and returns the resulting path and
// the encoded query string built from the parameters the template did not use.
func expandPath(template string, params Params) (string, string, error) {
	used := map[string]bool{}
	missing := []string{}

	path := templateExpression.ReplaceAllStringFunc(template, func(expression string) string {
		match := templateExpression.FindStringSubmatch(expression)
		optional, name := match[1] == "/", match[2]
		used[name] = true

		value := paramValue(params[name])
		if value == "" {
			if !optional {
				missing = append(missing, name)
			}
			return ""
		}

		if optional {
			return "/" + escapeSegment(value)
		}
		return escapeSegment(value)
	})

	if len(missing) > 0 {
		return "", "", fmt.Errorf("missing required path parameter(s) for %q: %s", template, strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	query := url.Values{}
	for name, value := range params {
		if used[name] || value == nil {
			continue
		}
		query.Set(name, paramValue(value))
	}

	return path, query.Encode(), nil
}
