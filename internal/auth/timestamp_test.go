package auth

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_JSON(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		wire string
	}{
		{name: "whole second", time: time.Unix(1_773_480_413, 0), wire: "1773480413"},
		{name: "milliseconds", time: time.Unix(1_773_480_413, 589_000_000), wire: "1773480413.589"},
		{name: "nanoseconds", time: time.Unix(1_773_480_413, 589_123_457), wire: "1773480413.589123457"},
		{name: "before epoch", time: time.Unix(-2, 750_000_000), wire: "-1.25"},
		{name: "just before epoch", time: time.Unix(-1, 750_000_000), wire: "-0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := json.Marshal(NewTimestamp(tt.time))
			require.NoError(t, err)
			assert.Equal(t, tt.wire, string(encoded))

			var decoded Timestamp
			require.NoError(t, json.Unmarshal(encoded, &decoded))
			assert.True(t, decoded.Equal(tt.time), "got %s want %s", decoded.Time, tt.time)
		})
	}
}

func TestTimestamp_UnmarshalForeignForms(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte("1.7734804135e9"), &ts))
	assert.Equal(t, int64(1_773_480_413), ts.Unix())

	require.NoError(t, json.Unmarshal([]byte("1773480413.5891234579"), &ts))
	assert.True(t, ts.Equal(time.Unix(1_773_480_413, 589_123_457)))

	for _, bad := range []string{`"1773480413"`, `1.2.3`, `--5`, `true`} {
		assert.Error(t, json.Unmarshal([]byte(bad), &ts), bad)
	}
}
