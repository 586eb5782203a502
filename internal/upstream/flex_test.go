package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID string `json:"id"`
}

func TestOneOrMany(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"array", `{"list":[{"id":"a"},{"id":"b"}]}`, []string{"a", "b"}},
		{"single object", `{"list":{"id":"a"}}`, []string{"a"}},
		{"null", `{"list":null}`, nil},
		{"missing", `{}`, nil},
		{"empty string", `{"list":""}`, nil},
		{"empty array", `{"list":[]}`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				List OneOrMany[item] `json:"list"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.input), &out))

			var ids []string
			for _, it := range out.List {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}
}

func TestOneOrManyRejectsWrongShape(t *testing.T) {
	var out struct {
		List OneOrMany[item] `json:"list"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"list":[1,2]}`), &out))
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{`{"v":45}`, 45},
		{`{"v":"45"}`, 45},
		{`{"v":" 7 "}`, 7},
		{`{"v":""}`, 0},
		{`{"v":null}`, 0},
		{`{}`, 0},
		{`{"v":"n/a"}`, 0},
		{`{"v":12.0}`, 12},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			var out struct {
				V FlexInt `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.input), &out))
			assert.Equal(t, tc.expected, out.V.Int())
		})
	}
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`{"v":"234000016"}`, "234000016"},
		{`{"v":234000016}`, "234000016"},
		{`{"v":null}`, ""},
		{`{"v":"서울역"}`, "서울역"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			var out struct {
				V FlexString `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(tc.input), &out))
			assert.Equal(t, tc.expected, out.V.String())
		})
	}
}
