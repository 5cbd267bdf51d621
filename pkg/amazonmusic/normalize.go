package amazonmusic

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// payload wraps one upstream JSON object. Every read goes through require
// or optional so that a missing field is reported instead of defaulted.
type payload struct {
	gjson.Result
}

func parsePayload(data []byte) payload {
	return payload{gjson.ParseBytes(data)}
}

// present reports whether v exists and is not null.
func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// require returns the value at path or a *SchemaMismatchError naming it.
func (p payload) require(path string) (gjson.Result, error) {
	v := p.Get(path)
	if !present(v) {
		return v, p.mismatch(path)
	}
	return v, nil
}

// requireString is require for string fields.
func (p payload) requireString(path string) (string, error) {
	v, err := p.require(path)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// optional returns the value at path and whether it is set.
func (p payload) optional(path string) (gjson.Result, bool) {
	v := p.Get(path)
	return v, present(v)
}

// firstString returns the first non-empty string among paths.
func (p payload) firstString(paths ...string) (string, bool) {
	for _, path := range paths {
		if v, ok := p.optional(path); ok && v.String() != "" {
			return v.String(), true
		}
	}
	return "", false
}

// child returns the nested object at path as a payload.
func (p payload) child(path string) (payload, error) {
	v, err := p.require(path)
	if err != nil {
		return payload{}, err
	}
	return payload{v}, nil
}

// items returns the array at path.
func (p payload) items(path string) ([]gjson.Result, error) {
	v, err := p.require(path)
	if err != nil {
		return nil, err
	}
	if !v.IsArray() {
		return nil, p.mismatch(path)
	}
	return v.Array(), nil
}

func (p payload) mismatch(path string) error {
	return &SchemaMismatchError{Field: path, Payload: p.Raw}
}

// raw returns a copy of the underlying JSON document.
func (p payload) raw() json.RawMessage {
	if p.Raw == "" {
		return nil
	}
	return json.RawMessage(p.Raw)
}
