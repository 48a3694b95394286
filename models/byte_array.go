package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ByteArray is a byte slice that marshals to JSON as an array of numbers
// (e.g. [12,200,7]) rather than the base64 string encoding/json uses for
// []byte. Keychain files written by earlier releases use this layout for
// nonces and ciphertexts.
//
// Unmarshalling accepts both the numeric array and a base64 string.
type ByteArray []byte

// MarshalJSON implements json.Marshaler.
func (b ByteArray) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	ints := make([]uint16, len(b))
	for i, v := range b {
		ints[i] = uint16(v)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteArray) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}

	// base64 string form
	if len(data) >= 2 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("decode byte array: %w", err)
		}
		*b = decoded
		return nil
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("decode byte array: %w", err)
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("decode byte array: value %d at index %d out of range", v, i)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}
