package parser

import (
	"fmt"
	"strings"
)

// Field is one entry of a record contract, in declaration order.
type Field struct {
	Name string
	// Type is the scalar type, or the element type when Array is set.
	Type  string
	Array bool
}

// Describe renders the type the way it is spelled out to a model,
// e.g. "string" or "array of strings".
func (f Field) Describe() string {
	if !f.Array {
		return f.Type
	}
	return "array of " + plural(f.Type)
}

func plural(t string) string {
	switch t {
	case "boolean":
		return "booleans"
	case "", "string":
		return "strings"
	default:
		return t + "s"
	}
}

// ParseFormat parses a contract shorthand like "key1:type,key2:type[],..." into
// an ordered field list. Arrays may be written as "key:type[]" or "key[]:type".
// A missing type defaults to string.
func ParseFormat(format string) ([]Field, error) {
	if format == "" {
		return nil, nil
	}

	var fields []Field
	seen := make(map[string]bool)

	pairs := strings.Split(format, ",")
	for _, pair := range pairs {
		trimmed := strings.TrimSpace(pair)
		if trimmed == "" {
			return nil, fmt.Errorf("invalid format pair: %s", pair)
		}

		parts := strings.SplitN(trimmed, ":", 2)
		key := strings.TrimSpace(parts[0])
		keyIsArray := false
		if strings.HasSuffix(key, "[]") {
			keyIsArray = true
			key = strings.TrimSpace(strings.TrimSuffix(key, "[]"))
		}
		typeStr := "string"
		if len(parts) == 2 {
			// name:string:string
			if strings.Contains(parts[1], ":") {
				return nil, fmt.Errorf("invalid format pair: %s", pair)
			}
			if ts := strings.TrimSpace(parts[1]); ts != "" {
				typeStr = ts
			}
		}

		if key == "" {
			return nil, fmt.Errorf("empty key in format pair: %s", pair)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate key in format: %s", key)
		}
		seen[key] = true

		typeIsArray := strings.HasSuffix(typeStr, "[]")
		if keyIsArray && typeIsArray {
			return nil, fmt.Errorf("nested array types are not supported: %s", trimmed)
		}

		f := Field{Name: key, Type: typeStr}
		if typeIsArray {
			elementType := strings.TrimSpace(strings.TrimSuffix(typeStr, "[]"))
			if elementType == "" {
				return nil, fmt.Errorf("empty element type in array specification: %s", typeStr)
			}
			if strings.HasSuffix(elementType, "[]") {
				return nil, fmt.Errorf("nested array types are not supported: %s", typeStr)
			}
			f.Type = elementType
			f.Array = true
		} else if keyIsArray {
			f.Array = true
		}
		fields = append(fields, f)
	}

	return fields, nil
}

// MustParseFormat is ParseFormat for package-level contracts known at compile time.
func MustParseFormat(format string) []Field {
	fields, err := ParseFormat(format)
	if err != nil {
		panic(err)
	}
	return fields
}

// Names returns the field names in order.
func Names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}
