package radio

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMetadataSingleMount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/status-json.xsl", r.URL.Path)
		_, _ = w.Write([]byte(`{"icestats":{"source":{
			"listenurl":"http://radio.example/live",
			"server_name":"Community Radio",
			"title":"Midnight Set",
			"listeners":12
		}}}`))
	}))
	defer server.Close()

	metadata, ok := FetchMetadata(server.URL + "/live")
	require.True(t, ok)
	assert.Equal(t, "Midnight Set", metadata.Title)
	assert.Equal(t, "Community Radio", metadata.ServerName)
	assert.Equal(t, 12, metadata.Listeners)
}

func TestFetchMetadataPicksMatchingMount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"icestats":{"source":[
			{"listenurl":"http://radio.example/talk","title":"Talk Show","listeners":3},
			{"listenurl":"http://radio.example/live","title":"Midnight Set","listeners":12}
		]}}`))
	}))
	defer server.Close()

	metadata, ok := FetchMetadata(server.URL + "/live")
	require.True(t, ok)
	assert.Equal(t, "Midnight Set", metadata.Title)
}

func TestFetchMetadataServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, ok := FetchMetadata(server.URL + "/live")
	assert.False(t, ok)
}

func TestFetchMetadataRejectsNonHTTPURL(t *testing.T) {
	_, ok := FetchMetadata("not a url")
	assert.False(t, ok)
}

func TestStatusEndpointStripsMountAndQuery(t *testing.T) {
	endpoint, ok := statusEndpoint("http://radio.example:8000/live.mp3?token=abc")
	require.True(t, ok)
	assert.Equal(t, "http://radio.example:8000/status-json.xsl", endpoint)
}
