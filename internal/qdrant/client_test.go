package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQdrantAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		host string
		port int
	}{
		{"", "localhost", 6334},
		{"qdrant.internal", "qdrant.internal", 6334},
		{"qdrant.internal:7000", "qdrant.internal", 7000},
		{"http://qdrant.internal:6333", "qdrant.internal", 6333},
		{":6400", "localhost", 6400},
	}
	for _, tt := range tests {
		host, port, err := parseQdrantAddress(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.host, host, tt.raw)
		assert.Equal(t, tt.port, port, tt.raw)
	}

	_, _, err := parseQdrantAddress("qdrant:notaport")
	assert.Error(t, err)
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()
	payload := MapToPayload(map[string]interface{}{
		"identifier": "greet",
		"params":     []string{"name", "greeting"},
		"async":      true,
		"order":      2,
	})

	assert.Equal(t, map[string]interface{}{
		"identifier": "greet",
		"params":     []interface{}{"name", "greeting"},
		"async":      true,
		"order":      int64(2),
	}, PayloadToMap(payload))
}

func TestKeywordFilter(t *testing.T) {
	t.Parallel()
	filter := KeywordFilter("plugin", "clock")
	require.Len(t, filter.Must, 1)
	field := filter.Must[0].GetField()
	require.NotNil(t, field)
	assert.Equal(t, "plugin", field.Key)
	assert.Equal(t, "clock", field.GetMatch().GetKeyword())

	assert.Equal(t, uint64(7), PointID(7).GetNum())
}
