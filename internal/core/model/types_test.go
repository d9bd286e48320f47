package model

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		jsonData    string
		wantId      string
		wantCall    bool
		wantEnded   bool
		expectError bool
	}{
		{
			name:     "plain_message",
			jsonData: `{"id": "1", "timestamp": "2024-01-15T10:00:00+00:00", "content": "hi"}`,
			wantId:   "1",
		},
		{
			name:      "ended_call",
			jsonData:  `{"id": "2", "timestamp": "2024-01-15T10:00:00+00:00", "call": {"participants": ["9"], "ended_timestamp": "2024-01-15T11:00:00+00:00"}}`,
			wantId:    "2",
			wantCall:  true,
			wantEnded: true,
		},
		{
			name:     "ongoing_call",
			jsonData: `{"id": "3", "timestamp": "2024-01-15T10:00:00+00:00", "call": {"ended_timestamp": null}}`,
			wantId:   "3",
			wantCall: true,
		},
		{
			name:     "null_call",
			jsonData: `{"id": "4", "timestamp": "2024-01-15T10:00:00+00:00", "call": null}`,
			wantId:   "4",
		},
		{
			name:        "missing_id",
			jsonData:    `{"timestamp": "2024-01-15T10:00:00+00:00"}`,
			expectError: true,
		},
		{
			name:        "not_an_object",
			jsonData:    `"hello"`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg Message
			err := sonic.Unmarshal([]byte(tt.jsonData), &msg)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantId, msg.Id)
			assert.Equal(t, tt.wantCall, msg.IsCall())
			assert.Equal(t, tt.wantEnded, msg.IsEndedCall())
		})
	}
}

func TestMessageMarshalPreservesUnknownFields(t *testing.T) {
	input := `{"id":"42","timestamp":"2024-01-15T10:00:00+00:00","author":{"username":"alice"},"content":"call me"}`

	var msg Message
	require.NoError(t, sonic.Unmarshal([]byte(input), &msg))

	out, err := sonic.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestMessageMarshalWithoutRaw(t *testing.T) {
	ended := "2024-01-15T11:00:00Z"
	msg := Message{Id: "7", Timestamp: "2024-01-15T10:00:00Z", Call: &Call{EndedTimestamp: &ended}}

	out, err := sonic.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","timestamp":"2024-01-15T10:00:00Z","call":{"ended_timestamp":"2024-01-15T11:00:00Z"}}`, string(out))
}

func TestDecodePage(t *testing.T) {
	t.Run("message_list", func(t *testing.T) {
		page, err := DecodePage([]byte(` [{"id":"2","timestamp":"t"},{"id":"1","timestamp":"t"}]`))
		require.NoError(t, err)
		assert.Equal(t, PageKindMessages, page.Kind)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, "2", page.Messages[0].Id)
		assert.Nil(t, page.Error)
	})

	t.Run("empty_list", func(t *testing.T) {
		page, err := DecodePage([]byte(`[]`))
		require.NoError(t, err)
		assert.Equal(t, PageKindMessages, page.Kind)
		assert.Empty(t, page.Messages)
	})

	t.Run("error_object", func(t *testing.T) {
		page, err := DecodePage([]byte(`{"message": "401: Unauthorized", "code": 0}`))
		require.NoError(t, err)
		assert.Equal(t, PageKindError, page.Kind)
		require.NotNil(t, page.Error)
		assert.Equal(t, "401: Unauthorized", page.Error.Message)
		assert.Equal(t, `{"message": "401: Unauthorized", "code": 0}`, page.Error.String())
	})

	malformed := map[string]string{
		"empty_body":       ``,
		"scalar":           `42`,
		"object_no_message": `{"code": 50001}`,
		"broken_list":      `[{"id":`,
	}
	for name, body := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePage([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedPage)
		})
	}
}
