package radio

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	simplejson "github.com/bitly/go-simplejson"
	"github.com/nordwache/guildbot/logger/dlog"
)

// Metadata is the now-playing information an icecast server publishes
// on its status-json.xsl endpoint.
type Metadata struct {
	Title      string
	ServerName string
	Listeners  int
}

var metadataClient = &http.Client{Timeout: 10 * time.Second}

// FetchMetadata queries the icecast status endpoint next to the stream
// mount. Stations without one just make the status command less chatty,
// so every failure is reported as "no metadata".
func FetchMetadata(streamURL string) (Metadata, bool) {
	statusURL, ok := statusEndpoint(streamURL)
	if !ok {
		return Metadata{}, false
	}

	resp, err := metadataClient.Get(statusURL)
	if err != nil {
		dlog.Log.Debug("Radio metadata fetch failed", "url", statusURL, "err", err)
		return Metadata{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		dlog.Log.Debug("Radio metadata fetch failed", "url", statusURL, "status", resp.Status)
		return Metadata{}, false
	}

	body, err := simplejson.NewFromReader(resp.Body)
	if err != nil {
		dlog.Log.Debug("Radio metadata is not json", "url", statusURL, "err", err)
		return Metadata{}, false
	}

	source, ok := pickSource(body.Get("icestats").Get("source"), streamURL)
	if !ok {
		return Metadata{}, false
	}
	return Metadata{
		Title:      source.Get("title").MustString(),
		ServerName: source.Get("server_name").MustString(),
		Listeners:  source.Get("listeners").MustInt(),
	}, true
}

// pickSource resolves the mount matching the stream URL. Icecast emits
// a bare object for a single mount and an array for several.
func pickSource(sources *simplejson.Json, streamURL string) (*simplejson.Json, bool) {
	if list, err := sources.Array(); err == nil {
		for i := range list {
			source := sources.GetIndex(i)
			if sameMount(source.Get("listenurl").MustString(), streamURL) {
				return source, true
			}
		}
		if len(list) > 0 {
			return sources.GetIndex(0), true
		}
		return nil, false
	}
	if _, err := sources.Map(); err == nil {
		return sources, true
	}
	return nil, false
}

func sameMount(listenURL, streamURL string) bool {
	a, errA := url.Parse(listenURL)
	b, errB := url.Parse(streamURL)
	if errA != nil || errB != nil {
		return false
	}
	return a.Path != "" && a.Path == b.Path
}

// statusEndpoint rewrites the mount URL to the server's status page.
func statusEndpoint(streamURL string) (string, bool) {
	parsed, err := url.Parse(streamURL)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return "", false
	}
	parsed.Path = "/status-json.xsl"
	parsed.RawQuery = ""
	return parsed.String(), true
}
