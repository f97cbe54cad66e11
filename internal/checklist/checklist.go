// Package checklist extracts completion-gating items from a task description.
package checklist

import "strings"

var bulletMarkers = []string{"-", "*", "•"}

var boxMarkers = []string{"[ ]", "[x]", "[X]"}

// Parse returns the bullet lines of description, in order, without duplicates.
// A bullet is a line starting with one of -, * or • followed by whitespace; an
// optional [ ] or [x] box after the marker is dropped.
func Parse(description string) []string {
	seen := make(map[string]struct{})
	items := make([]string, 0)

	for _, line := range strings.Split(description, "\n") {
		item, ok := bulletText(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		items = append(items, item)
	}

	return items
}

func bulletText(line string) (string, bool) {
	for _, marker := range bulletMarkers {
		rest, found := strings.CutPrefix(line, marker)
		if !found || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		rest = strings.TrimSpace(rest)
		for _, box := range boxMarkers {
			if after, ok := strings.CutPrefix(rest, box); ok {
				rest = strings.TrimSpace(after)
				break
			}
		}
		if rest == "" {
			return "", false
		}
		return rest, true
	}
	return "", false
}

// Contains reports whether item is one of items.
func Contains(items []string, item string) bool {
	for _, v := range items {
		if v == item {
			return true
		}
	}
	return false
}

// Missing returns the items not yet present in completed.
func Missing(items, completed []string) []string {
	missing := make([]string, 0)
	for _, item := range items {
		if !Contains(completed, item) {
			missing = append(missing, item)
		}
	}
	return missing
}

// Covered reports whether completed includes every item. An empty checklist is
// always covered.
func Covered(items, completed []string) bool {
	return len(Missing(items, completed)) == 0
}

// Toggle adds or removes item from completed. Both directions are idempotent.
func Toggle(completed []string, item string, checked bool) []string {
	result := make([]string, 0, len(completed)+1)
	for _, v := range completed {
		if v != item {
			result = append(result, v)
		}
	}
	if checked {
		result = append(result, item)
	}
	return result
}
