package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// applyField sets or deletes the value at path, creating intermediate
// objects as needed.
func applyField(doc []byte, path string, value any) ([]byte, error) {
	if IsDelete(value) {
		if !gjson.GetBytes(doc, path).Exists() {
			return doc, nil
		}
		out, err := sjson.DeleteBytes(doc, path)
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", path, err)
		}
		return out, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}

	segs := splitPath(path)
	for i := 1; i < len(segs); i++ {
		parent := strings.Join(segs[:i], ".")
		if gjson.GetBytes(doc, parent).IsObject() {
			continue
		}
		if doc, err = sjson.SetRawBytes(doc, parent, []byte("{}")); err != nil {
			return nil, fmt.Errorf("create %s: %w", parent, err)
		}
	}

	out, err := sjson.SetRawBytes(doc, path, raw)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return out, nil
}

// mergeJSON writes every leaf of patch into doc, descending into objects
// present on both sides. Fields of doc absent from patch are kept.
func mergeJSON(doc, patch []byte, prefix string) ([]byte, error) {
	var err error
	gjson.ParseBytes(patch).ForEach(func(k, v gjson.Result) bool {
		path := FieldPath(k.String())
		if prefix != "" {
			path = prefix + "." + path
		}
		if v.IsObject() && gjson.GetBytes(doc, path).IsObject() {
			doc, err = mergeJSON(doc, []byte(v.Raw), path)
		} else {
			doc, err = sjson.SetRawBytes(doc, path, []byte(v.Raw))
		}
		return err == nil
	})
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	return doc, nil
}

// canonical re-encodes a document with sorted keys so that equal documents
// compare equal byte-wise.
func canonical(doc []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, fmt.Errorf("document must be a JSON object")
	}
	return json.Marshal(v)
}
