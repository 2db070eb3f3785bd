package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"openai_api_key", "sk-live",
		"Authorization", "Bearer abc",
		"campaign_id", "c-1",
	})

	assert.Equal(t, []interface{}{
		"openai_api_key", "[REDACTED]",
		"Authorization", "[REDACTED]",
		"campaign_id", "c-1",
	}, out)
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "00000000-0000-0000-0000-000000000001"})

	hashed, ok := out[1].(string)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(hashed, "hash:"))
	assert.Len(t, hashed, len("hash:")+12)
	assert.Equal(t, hashed, hashValue("00000000-0000-0000-0000-000000000001"))
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	out := sanitizeKVs([]interface{}{"status", 200, "orphan"})
	assert.Equal(t, []interface{}{"status", 200, "orphan"}, out)
}
