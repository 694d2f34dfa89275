package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "bare", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", raw: "Here you go: {\"a\":{\"b\":2}} hope it helps", want: `{"a":{"b":2}}`},
		{name: "brace in string", raw: `{"reasoning":"tier {fractured}","x":1}`, want: `{"reasoning":"tier {fractured}","x":1}`},
		{name: "escaped quote", raw: `{"r":"say \"}\" twice"}`, want: `{"r":"say \"}\" twice"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractJSONFailures(t *testing.T) {
	_, err := ExtractJSON("no object here")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ExtractJSON(`{"unterminated": 1`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	require.NoError(t, DecodeJSON("```\n{\"category\":\"economy\",\"confidence\":0.82}\n```", &out))
	assert.Equal(t, "economy", out.Category)
	assert.InDelta(t, 0.82, out.Confidence, 1e-9)

	assert.Error(t, DecodeJSON(`{"category": economy}`, &out))
}

func TestOfflineIsUnavailable(t *testing.T) {
	_, err := Offline{}.Complete(context.Background(), "prompt", FormatJSON)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenerateConfigOnlyForcesJSONWhenAsked(t *testing.T) {
	jsonConfig := generateConfig(FormatJSON)
	assert.Equal(t, "application/json", jsonConfig.ResponseMIMEType)

	textConfig := generateConfig(FormatText)
	assert.Empty(t, textConfig.ResponseMIMEType)
	require.NotNil(t, textConfig.Temperature)
}
