package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscrm/crm/internal/logging"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("info", "json", &buf)

	log.Info().Str("deal_id", "7").Msg("deal created")
	log.Debug().Msg("filtered out")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "crm", entry["service"])
	assert.Equal(t, "deal created", entry["message"])
	assert.Equal(t, "7", entry["deal_id"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("chatty", "json", &buf)

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Info().Msg("shown")
	assert.NotZero(t, buf.Len())
}
