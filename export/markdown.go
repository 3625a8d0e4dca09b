package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/instruct/value"
)

// NullText is how Markdown renders null values.
const NullText = "_(none)_"

// renderMarkdown writes "# title" followed by one bullet per key. Objects and
// lists open a bullet and indent their content by two spaces; top-level lists
// are rendered under an "items" key.
func renderMarkdown(tree any, title string) string {
	lines := []string{"# " + title + "\n"}
	root := orderedValue(tree)
	if l, ok := root.(value.List); ok {
		t := value.NewTree(1)
		t.Set("items", l)
		root = t
	}
	lines = appendMarkdown(lines, root, 0)
	return strings.Join(lines, "\n")
}

func appendMarkdown(lines []string, v any, indent int) []string {
	prefix := strings.Repeat("  ", indent)
	switch x := v.(type) {
	case *value.Tree:
		for _, k := range x.Keys() {
			cv, _ := x.Get(k)
			if isContainer(cv) {
				lines = append(lines, fmt.Sprintf("%s- **%s**:", prefix, k))
				lines = appendMarkdown(lines, cv, indent+1)
				continue
			}
			lines = append(lines, fmt.Sprintf("%s- **%s**: %s", prefix, k, scalarText(cv)))
		}
	case value.List:
		for _, item := range x {
			if isContainer(item) {
				lines = appendMarkdown(lines, item, indent)
				continue
			}
			lines = append(lines, prefix+"- "+scalarText(item))
		}
	default:
		lines = append(lines, prefix+scalarText(v))
	}
	return lines
}

func isContainer(v any) bool {
	switch v.(type) {
	case *value.Tree, value.List:
		return true
	}
	return false
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// orderedValue converts plain maps and slices into Tree and List so both
// renderers walk one shape. Map keys are sorted.
func orderedValue(v any) any {
	switch x := v.(type) {
	case *value.Tree:
		if x == nil {
			return nil
		}
		out := value.NewTree(x.Len())
		for _, k := range x.Keys() {
			cv, _ := x.Get(k)
			out.Set(k, orderedValue(cv))
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := value.NewTree(len(keys))
		for _, k := range keys {
			out.Set(k, orderedValue(x[k]))
		}
		return out
	case value.List:
		out := make(value.List, len(x))
		for i := range x {
			out[i] = orderedValue(x[i])
		}
		return out
	case []any:
		out := make(value.List, len(x))
		for i := range x {
			out[i] = orderedValue(x[i])
		}
		return out
	}
	return v
}
