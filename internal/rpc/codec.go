package rpc

import (
	"bytes"
	"encoding/json"
)

// Codec carries plain Go messages as JSON. It replaces Connect's built-in
// "json" codec, which only accepts protobuf messages.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal keeps JSON numbers as json.Number so epoch values in schedule
// records reach the timeline adapter unrounded.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
