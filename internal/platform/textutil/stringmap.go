package textutil

import "strings"

// NormalizeStringMap returns a copy with trimmed keys and values. Entries
// whose key trims to empty are dropped; an input with nothing left yields nil
// so omitempty serialisation elides the field.
func NormalizeStringMap(values map[string]string) map[string]string {
	var result map[string]string
	for key, value := range values {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if result == nil {
			result = make(map[string]string, len(values))
		}
		result[key] = strings.TrimSpace(value)
	}
	return result
}
