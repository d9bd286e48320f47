package fixtures

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	g := NewHistoryGenerator()
	entries := g.Generate(120)

	require.Len(t, entries, 120)
	assert.Equal(t, "120", entries[0].Id)
	assert.Equal(t, "1", entries[119].Id)

	// ids 100 and 50 carry calls
	assert.NotNil(t, entries[20].Call)
	assert.NotNil(t, entries[70].Call)
	assert.Nil(t, entries[0].Call)

	count, sum := g.TotalCallTime(120)
	assert.Equal(t, 2, count)
	assert.Equal(t, 15*time.Minute+45*time.Minute, sum)
}

func TestChannelServerPaging(t *testing.T) {
	channel := NewChannelServer(NewHistoryGenerator().Generate(120))
	server := httptest.NewServer(channel)
	defer server.Close()

	get := func(query string) []MessageEntry {
		resp, err := http.Get(server.URL + "/channels/1/messages?" + query)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var page []MessageEntry
		require.NoError(t, sonic.Unmarshal(data, &page))
		return page
	}

	first := get("limit=100")
	require.Len(t, first, 100)
	assert.Equal(t, "120", first[0].Id)

	rest := get("before=21&limit=100")
	require.Len(t, rest, 20)
	assert.Equal(t, "20", rest[0].Id)

	assert.Len(t, get(""), 50)
	assert.Empty(t, get("before=1&limit=100"))
	assert.Equal(t, 4, channel.Requests())
}

func TestChannelServerFailure(t *testing.T) {
	channel := &ChannelServer{FailStatus: http.StatusUnauthorized, FailBody: `{"message": "401: Unauthorized", "code": 0}`}
	server := httptest.NewServer(channel)
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	req.Header.Set("authorization", "bad")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "bad", channel.LastToken())
}
