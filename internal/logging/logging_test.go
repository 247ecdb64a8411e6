package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "info", "json")
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("symbol", "NVDA").Msg("parsed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "parsed", line["message"])
	assert.Equal(t, "NVDA", line["symbol"])
	assert.Equal(t, "info", line["level"])
	assert.Contains(t, line, "time")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "debug", "console")
	require.NoError(t, err)

	log.Debug().Msg("row classified")
	assert.Contains(t, buf.String(), "row classified")
}

func TestNew_EmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "", "json")
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "json")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
