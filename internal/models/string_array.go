package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray stores an ordered string set as JSON text, while tolerating
// legacy Postgres array literals ({a,b}) and plain-string data.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *StringArray) Scan(value interface{}) error {
	if a == nil {
		return fmt.Errorf("models.StringArray: Scan on nil pointer")
	}
	if value == nil {
		*a = StringArray{}
		return nil
	}

	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("models.StringArray: unsupported Scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "{}" {
		*a = StringArray{}
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		*a = arr
		return nil
	}

	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		*a = parsePGArray(raw[1 : len(raw)-1])
		return nil
	}

	*a = StringArray{raw}
	return nil
}

// Contains reports whether s is an element of the array.
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// Without returns a copy of a with every occurrence of s removed.
func (a StringArray) Without(s string) StringArray {
	out := make(StringArray, 0, len(a))
	for _, v := range a {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// parsePGArray handles the text form of a one-dimensional text[] column.
func parsePGArray(body string) StringArray {
	out := StringArray{}
	var cur strings.Builder
	quoted, escaped, wasQuoted := false, false, false
	flush := func() {
		item := cur.String()
		if !wasQuoted {
			item = strings.TrimSpace(item)
			if item == "NULL" {
				item = ""
			}
		}
		if item != "" || wasQuoted {
			out = append(out, item)
		}
		cur.Reset()
		wasQuoted = false
	}
	for _, r := range body {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
			wasQuoted = true
		case r == ',' && !quoted:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}
