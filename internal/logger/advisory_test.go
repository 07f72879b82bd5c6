package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvisoryResponseDumpReindentsJSON(t *testing.T) {
	var buf bytes.Buffer
	SetAdvisoryWriter(&buf)
	defer SetAdvisoryWriter(nil)

	LogAdvisoryResponse("deepseek", "BTCUSDT", `{"action":"buy","confidence":0.8}`)

	out := buf.String()
	assert.Contains(t, out, "[ADVISORY][response][deepseek][BTCUSDT]")
	assert.Contains(t, out, "--- RAW ---")
	assert.Contains(t, out, "\"action\": \"buy\"")
	assert.Contains(t, out, "=====")
}

func TestAdvisoryResponseDumpKeepsProseVerbatim(t *testing.T) {
	var buf bytes.Buffer
	SetAdvisoryWriter(&buf)
	defer SetAdvisoryWriter(nil)

	LogAdvisoryResponse("deepseek", "BTCUSDT", "not a json reply")
	assert.Contains(t, buf.String(), "not a json reply")
}

func TestAdvisoryRequestDumpCarriesBothPrompts(t *testing.T) {
	var buf bytes.Buffer
	SetAdvisoryWriter(&buf)
	defer SetAdvisoryWriter(nil)

	LogAdvisoryRequest("deepseek", "ETHUSDT", "you are a trader", "market context here")

	out := buf.String()
	assert.Contains(t, out, "--- SYSTEM ---")
	assert.Contains(t, out, "you are a trader")
	assert.Contains(t, out, "--- USER ---")
	assert.Contains(t, out, "market context here")
}

func TestAdvisoryDumpDisabledWritesNothing(t *testing.T) {
	SetAdvisoryWriter(nil)
	LogAdvisoryResponse("deepseek", "BTCUSDT", "ignored")
}
