package store

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Snapshot is the full value stored at Path when it was taken.
type Snapshot struct {
	Path  string
	Value json.RawMessage
}

// Child is one member of a collection snapshot.
type Child struct {
	Key   string
	Value json.RawMessage
}

// Exists reports whether there is any data at the path.
func (s Snapshot) Exists() bool {
	v := bytes.TrimSpace(s.Value)
	return len(v) > 0 && !bytes.Equal(v, []byte("null"))
}

// Key returns the last segment of the path.
func (s Snapshot) Key() string {
	segs := splitPath(s.Path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Decode unmarshals the value into v. A missing value leaves v untouched.
func (s Snapshot) Decode(v any) error {
	if !s.Exists() {
		return nil
	}
	return json.Unmarshal(s.Value, v)
}

// Children lists a collection's members whether it is stored as an array
// or as a keyed object. Array members are keyed by their index; null
// members are skipped. Keys are ordered with integer keys first.
func (s Snapshot) Children() []Child {
	if !s.Exists() {
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(s.Value, &list); err == nil {
		children := make([]Child, 0, len(list))
		for i, v := range list {
			if !(Snapshot{Value: v}).Exists() {
				continue
			}
			children = append(children, Child{Key: strconv.Itoa(i), Value: v})
		}
		return children
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(s.Value, &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k, v := range obj {
		if (Snapshot{Value: v}).Exists() {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	children := make([]Child, 0, len(keys))
	for _, k := range keys {
		children = append(children, Child{Key: k, Value: obj[k]})
	}
	return children
}

// Child returns the snapshot of a direct or nested child.
func (s Snapshot) Child(path string) Snapshot {
	child := Snapshot{Path: Join(s.Path, path), Value: json.RawMessage("null")}
	tree, err := decodeTree(s.Value)
	if err != nil {
		return child
	}
	if raw, err := encodeTree(getPath(tree, splitPath(path))); err == nil {
		child.Value = raw
	}
	return child
}

func sortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, okA := arrayIndex(keys[i])
		b, okB := arrayIndex(keys[j])
		switch {
		case okA && okB:
			return a < b
		case okA != okB:
			return okA
		default:
			return keys[i] < keys[j]
		}
	})
}
