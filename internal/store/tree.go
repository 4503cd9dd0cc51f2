package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// The drivers keep data as a tree of map[string]any with json.Number and
// other JSON scalars at the leaves. Arrays are folded into index-keyed maps
// on the way in and rendered back as arrays on the way out, the way the
// hosted realtime database does it.

func decodeTree(raw []byte) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeTree(v), nil
}

// toTree converts an arbitrary Go value into tree form.
func toTree(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return decodeTree(raw)
}

func normalizeTree(v any) any {
	switch t := v.(type) {
	case []any:
		m := make(map[string]any, len(t))
		for i, e := range t {
			if n := normalizeTree(e); n != nil {
				m[strconv.Itoa(i)] = n
			}
		}
		if len(m) == 0 {
			return nil
		}
		return m
	case map[string]any:
		for k, e := range t {
			if n := normalizeTree(e); n != nil {
				t[k] = n
			} else {
				delete(t, k)
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	default:
		return v
	}
}

func getPath(root any, segs []string) any {
	node := root
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[seg]
	}
	return node
}

// setPath replaces the node at segs and returns the new root. A nil value
// deletes the node and prunes emptied parents.
func setPath(root any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := root.(map[string]any)
	if !ok {
		if value == nil {
			return root
		}
		m = make(map[string]any)
	}
	child := setPath(m[segs[0]], segs[1:], value)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// mergePath replaces each named child of the node at segs. Field names may
// themselves be slash-separated relative paths.
func mergePath(root any, segs []string, fields map[string]any) any {
	for key, value := range fields {
		target := append(append([]string{}, segs...), splitPath(key)...)
		root = setPath(root, target, value)
	}
	return root
}

func renderTree(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = renderTree(e)
	}
	if arr, ok := asArray(out); ok {
		return arr
	}
	return out
}

// asArray renders a map as an array when every key is an index and more
// than half of the slots up to the largest index are filled.
func asArray(m map[string]any) ([]any, bool) {
	max := -1
	for k := range m {
		i, ok := arrayIndex(k)
		if !ok {
			return nil, false
		}
		if i > max {
			max = i
		}
	}
	if max < 0 || 2*len(m) <= max+1 {
		return nil, false
	}
	arr := make([]any, max+1)
	for k, e := range m {
		i, _ := arrayIndex(k)
		arr[i] = e
	}
	return arr, true
}

func arrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(key)
	return i, err == nil
}

func encodeTree(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	raw, err := json.Marshal(renderTree(v))
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return raw, nil
}
