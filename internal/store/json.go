package store

import (
	"encoding/json"

	semerrors "semcore/internal/errors"
)

// marshalJSON encodes v to its JSON text, falling back to "{}"/"[]"-shaped
// zero values being encoded normally (nil maps/slices marshal to "null",
// which callers normalize before persisting since these columns are
// declared NOT NULL DEFAULT '{}'/'[]').
func marshalJSON(op, subject string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", semerrors.New(semerrors.KindSemantic, op, subject, err)
	}
	return string(data), nil
}

func unmarshalJSON(op, subject, text string, v interface{}) error {
	if text == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return semerrors.New(semerrors.KindStorage, op, subject, err)
	}
	return nil
}

// marshalJSONArray/marshalJSONObject wrap marshalJSON for the slice- and
// map-shaped columns declared NOT NULL DEFAULT '[]'/'{}': a nil slice or
// map marshals to the four-byte string "null", which these normalize back
// to the column's declared empty shape before it reaches a write.
func marshalJSONArray(op, subject string, v interface{}) (string, error) {
	s, err := marshalJSON(op, subject, v)
	if err != nil {
		return "", err
	}
	return orEmptyArray(s), nil
}

func marshalJSONObject(op, subject string, v interface{}) (string, error) {
	s, err := marshalJSON(op, subject, v)
	if err != nil {
		return "", err
	}
	return orEmptyObject(s), nil
}

func orEmptyObject(s string) string {
	if s == "" || s == "null" {
		return "{}"
	}
	return s
}

func orEmptyArray(s string) string {
	if s == "" || s == "null" {
		return "[]"
	}
	return s
}
