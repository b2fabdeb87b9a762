package entity

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityMarshalJSON(t *testing.T) {
	ts := time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)
	e := New(
		F("z", Int(1)),
		F("a", String("two")),
		F("when", DateTime(ts)),
		F("color", EnumValue("Color", "Red")),
		F("nested", Record(Create("list", []any{1, 2.5, nil, true}))),
	)

	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t,
		`{"z":1,"a":"two","when":"2022-01-02T03:04:05.000Z","color":"Color.Red","nested":{"list":[1,2.5,null,true]}}`,
		string(b),
	)
}

func TestParseJSON(t *testing.T) {
	t.Run("object keeps key order", func(t *testing.T) {
		e, err := ParseJSON([]byte(`{"key3": 3, "key4": ["four", "forty"], "f": 1.5, "n": null}`))
		require.NoError(t, err)
		assert.Equal(t, `('key3': 3 'key4': ["four", "forty"] 'f': 1.5 'n': null)`, e.String())
	})

	t.Run("scalar becomes a single value", func(t *testing.T) {
		e, err := ParseJSON([]byte(`"hello"`))
		require.NoError(t, err)
		v, ok := e.Primitive()
		require.True(t, ok)
		assert.True(t, v.Equal(String("hello")))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"a":`))
		assert.Error(t, err)
	})
}

func TestEntityUnmarshalJSON(t *testing.T) {
	var payload struct {
		Record Entity `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"record":{"b":2,"a":{"c":[1]}}}`), &payload))
	assert.Equal(t, "('b': 2 'a': ('c': [1]))", payload.Record.String())

	out, err := json.Marshal(payload.Record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2,"a":{"c":[1]}}`, string(out))
}
