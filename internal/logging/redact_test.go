package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensitiveField(t *testing.T) {
	assert.True(t, IsSensitiveField("bot_token"))
	assert.True(t, IsSensitiveField("PASSWORD"))
	assert.True(t, IsSensitiveField("Api_Key"))
	assert.False(t, IsSensitiveField("trader_id"))
	assert.False(t, IsSensitiveField(""))
}

func TestMaskCredential(t *testing.T) {
	assert.Equal(t, "", MaskCredential(""))
	assert.Equal(t, "***", MaskCredential("abc123"))

	masked := MaskCredential("7712345678:AAEexampleexample")
	assert.Equal(t, "771...****", masked)
	assert.NotContains(t, masked, "AAEexampleexample")
}

func TestMaskSensitive(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		leaked string
	}{
		{
			"quoted token assignment",
			`request failed: bot_token="7712345678:AAEexampleexample"`,
			"AAEexampleexample",
		},
		{
			"colon separated password",
			"smtp auth: password: hunter2secret",
			"hunter2secret",
		},
		{
			"mixed-case key",
			"API_KEY=sk_live_abcdef123456",
			"sk_live_abcdef123456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := MaskSensitive(tt.in)
			assert.NotContains(t, out, tt.leaked)
		})
	}

	t.Run("plain text untouched", func(t *testing.T) {
		msg := "no bar for 2024-03-09"
		assert.Equal(t, msg, MaskSensitive(msg))
	})
}
