package qtable

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// KeyCodec converts states to and from the string keys used in persisted tables.
type KeyCodec[S comparable] interface {
	EncodeKey(state S) (string, error)
	DecodeKey(key string) (S, error)
}

type IntCodec struct{}

func (IntCodec) EncodeKey(state int) (string, error) {
	return strconv.Itoa(state), nil
}

func (IntCodec) DecodeKey(key string) (int, error) {
	state, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("decode int state %q: %w", key, err)
	}
	return state, nil
}

type StringCodec struct{}

func (StringCodec) EncodeKey(state string) (string, error) {
	return state, nil
}

func (StringCodec) DecodeKey(key string) (string, error) {
	return key, nil
}

// JSONCodec encodes any JSON-representable comparable state, such as small structs or
// fixed-size arrays of observations.
type JSONCodec[S comparable] struct{}

func (JSONCodec[S]) EncodeKey(state S) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return string(data), nil
}

func (JSONCodec[S]) DecodeKey(key string) (S, error) {
	var state S
	if err := json.Unmarshal([]byte(key), &state); err != nil {
		return state, fmt.Errorf("decode state %q: %w", key, err)
	}
	return state, nil
}
