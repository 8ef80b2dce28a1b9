package stratz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BindError reports a programmer error in query construction. It is
// surfaced immediately and never retried.
type BindError struct {
	Name   string
	Reason string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("cannot bind query variable $%s: %s", e.Name, e.Reason)
}

// EnumValue renders as a bare GraphQL enum literal instead of a quoted
// string.
type EnumValue string

var placeholderPattern = regexp.MustCompile(`\$[a-zA-Z_][a-zA-Z0-9_]*`)

// bindQuery substitutes $name placeholders in a query with typed
// renderings of the supplied values. String values are escaped and
// quoted; values carrying the placeholder syntax itself are rejected.
// Every variable must consume a placeholder and every placeholder must
// be consumed.
func bindQuery(query string, vars map[string]interface{}) (string, error) {
	for name, value := range vars {
		rendered, err := renderValue(name, value)
		if err != nil {
			return "", err
		}

		placeholder := "$" + name
		if !strings.Contains(query, placeholder) {
			return "", &BindError{Name: name, Reason: "no matching placeholder in query"}
		}
		query = strings.ReplaceAll(query, placeholder, rendered)
	}

	if loose := placeholderPattern.FindString(query); loose != "" {
		return "", &BindError{Name: strings.TrimPrefix(loose, "$"), Reason: "placeholder has no bound value"}
	}

	return query, nil
}

func renderValue(name string, value interface{}) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case EnumValue:
		if !isEnumLiteral(string(v)) {
			return "", &BindError{Name: name, Reason: fmt.Sprintf("%q is not a valid enum literal", string(v))}
		}
		return string(v), nil
	case string:
		if strings.ContainsAny(v, "$\"'{}") {
			return "", &BindError{Name: name, Reason: "string value contains reserved query syntax"}
		}
		return strconv.Quote(v), nil
	case []int:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.Itoa(n)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case []int64:
		parts := make([]string, len(v))
		for i, n := range v {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case []EnumValue:
		parts := make([]string, len(v))
		for i, e := range v {
			if !isEnumLiteral(string(e)) {
				return "", &BindError{Name: name, Reason: fmt.Sprintf("%q is not a valid enum literal", string(e))}
			}
			parts[i] = string(e)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", &BindError{Name: name, Reason: fmt.Sprintf("unsupported value type %T", value)}
	}
}

func isEnumLiteral(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
