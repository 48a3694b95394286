package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteArray_MarshalsAsNumbers(t *testing.T) {
	out, err := json.Marshal(struct {
		Nonce ByteArray `json:"nonce"`
		Empty ByteArray `json:"empty"`
	}{Nonce: ByteArray{12, 200, 7}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"nonce":[12,200,7],"empty":[]}`, string(out))
}

func TestByteArray_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    ByteArray
		wantErr bool
	}{
		{name: "number array", in: `[1,2,255]`, want: ByteArray{1, 2, 255}},
		{name: "base64 string", in: `"AQL/"`, want: ByteArray{1, 2, 255}},
		{name: "null", in: `null`, want: nil},
		{name: "out of range", in: `[256]`, wantErr: true},
		{name: "negative", in: `[-1]`, wantErr: true},
		{name: "bad base64", in: `"%%%"`, wantErr: true},
		{name: "object", in: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ByteArray
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
