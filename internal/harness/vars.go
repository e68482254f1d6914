package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var (
	validVarName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	wholeVar     = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*)$`)
	inlineVar    = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// substitute replaces variable references in v. A string that is exactly
// "$name" becomes the saved value itself; "${name}" inside a longer
// string is replaced by the saved value, which must then be a string.
func substitute(v any, vars map[string]any) (any, error) {
	switch val := v.(type) {
	case string:
		if m := wholeVar.FindStringSubmatch(val); m != nil {
			saved, ok := vars[m[1]]
			if !ok {
				return nil, fmt.Errorf("undefined variable $%s", m[1])
			}
			return saved, nil
		}
		var missing error
		out := inlineVar.ReplaceAllStringFunc(val, func(ref string) string {
			name := ref[2 : len(ref)-1]
			saved, ok := vars[name]
			if !ok {
				missing = fmt.Errorf("undefined variable ${%s}", name)
				return ref
			}
			s, ok := saved.(string)
			if !ok {
				missing = fmt.Errorf("variable ${%s} is not a string", name)
				return ref
			}
			return s
		})
		return out, missing
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			sub, err := substitute(elem, vars)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = sub
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			sub, err := substitute(elem, vars)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = sub
		}
		return out, nil
	}
	return v, nil
}

// substituteStrings resolves a list of id references.
func substituteStrings(refs []string, vars map[string]any) ([]string, error) {
	out := make([]string, len(refs))
	for i, ref := range refs {
		v, err := substitute(ref, vars)
		if err != nil {
			return nil, err
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s is not a string", ref)
		}
		out[i] = s
	}
	return out, nil
}

// normalize converts v to its generic JSON form with exact numbers, so
// typed payloads and YAML-decoded expectations compare equal.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// lookup follows a dotted path through maps and arrays.
func lookup(v any, path string) (any, error) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("path %q: no key %q", path, seg)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("path %q: bad index %q into %d elements", path, seg, len(node))
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("path %q: cannot descend into %T at %q", path, cur, seg)
		}
	}
	return cur, nil
}

// matches reports whether actual contains expected: map keys are a
// subset, arrays match element-wise, scalars are equal.
func matches(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range exp {
			av, ok := act[k]
			if !ok || !matches(av, ev) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matches(act[i], exp[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(actual, expected)
}

// memberIDs extracts the "id" of every element of a collection payload.
func memberIDs(payload any) ([]string, error) {
	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("payload is %T, not a collection", payload)
	}
	ids := make([]string, 0, len(items))
	for i, item := range items {
		id, err := lookup(item, "id")
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		s, ok := id.(string)
		if !ok {
			return nil, fmt.Errorf("[%d]: id is %T", i, id)
		}
		ids = append(ids, s)
	}
	return ids, nil
}
