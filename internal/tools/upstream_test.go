package tools_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sabbour/worldtime-mcp-go/internal/tools"
	"github.com/sabbour/worldtime-mcp-go/internal/upstream"
)

func TestToolsOverHTTPUpstreams(t *testing.T) {
	var (
		mu      sync.Mutex
		agents  []string
		queries = map[string]url.Values{}
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ip/8.8.8.8", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"timezone":"America/Chicago","datetime":"2024-05-07T21:40:00-05:00","utc_datetime":"2024-05-08T02:40:00+00:00","client_ip":"8.8.8.8"}`))
	})
	mux.HandleFunc("/api/timezone/Europe/Atlantis", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unknown location"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/api/timezone/America/Argentina/Buenos_Aires", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timezone":"America/Argentina/Buenos_Aires","unixtime":1715136000,"utc_datetime":"2024-05-08T02:40:00+00:00","utc_offset":"-03:00"}`))
	})
	mux.HandleFunc("/tzdb/get-time-zone", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries["get-time-zone"] = r.URL.Query()
		mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"OK","countryName":"Japan","zoneName":"Asia/Tokyo","abbreviation":"JST","gmtOffset":32400,"dst":"0","formatted":"2024-05-08 11:40:00"}`))
	})
	mux.HandleFunc("/tzdb/list-time-zone", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"FAILED","message":"Invalid API key."}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	opts := upstream.Options{UserAgent: "worldtime-app/1.0"}
	c := newClient(t, tools.Deps{
		WorldTime:  upstream.NewWorldTime(srv.URL+"/api", opts),
		TimezoneDB: upstream.NewTimezoneDB(srv.URL+"/tzdb", "k3y", opts),
	})

	t.Run("get-time-by-ip", func(t *testing.T) {
		text, isErr := call(t, c, "get-time-by-ip", map[string]any{"ip": "8.8.8.8"})
		require.False(t, isErr, text)
		require.Contains(t, text, "The local time in America/Chicago is 2024-05-07T21:40:00-05:00.")
		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, []string{"worldtime-app/1.0"}, agents)
	})

	t.Run("get-timezone by position", func(t *testing.T) {
		text, isErr := call(t, c, "get-timezone", map[string]any{"timezone": "JST", "latitude": 35.6762, "longitude": 139.6503})
		require.False(t, isErr, text)
		require.Contains(t, text, "The local time in Japan Asia/Tokyo JST is 2024-05-08 11:40:00 in Asia/Tokyo JST.")
		require.Contains(t, text, "GMT offset is GMT+9.")

		mu.Lock()
		q := queries["get-time-zone"]
		mu.Unlock()
		require.Equal(t, "position", q.Get("by"))
		require.Equal(t, "35.6762", q.Get("lat"))
		require.Equal(t, "139.6503", q.Get("lng"))
		require.Equal(t, "k3y", q.Get("key"))
		require.Equal(t, "json", q.Get("format"))
	})

	t.Run("list-timezones with a rejected key", func(t *testing.T) {
		text, isErr := call(t, c, "list-timezones", nil)
		require.True(t, isErr)
		require.Equal(t, "Error fetching time zones from TimezoneDB: timezonedb: Invalid API key.", text)
	})

	t.Run("get-time-by-region with a three-part zone", func(t *testing.T) {
		text, isErr := call(t, c, "get-time-by-region", map[string]any{"area": "America", "location": "Argentina/Buenos_Aires"})
		require.False(t, isErr, text)
		require.Contains(t, text, "The local time in America/Argentina/Buenos_Aires is 11:40:00 PM GMT-3.")
		require.Contains(t, text, "for Argentina/Buenos_Aires.")
	})

	t.Run("get-time-by-region with an unknown location", func(t *testing.T) {
		text, isErr := call(t, c, "get-time-by-region", map[string]any{"area": "Europe", "location": "Atlantis"})
		require.True(t, isErr)
		require.Equal(t, "Error fetching time data for Europe/Atlantis from WorldTimeAPI: HTTP error! status: 404", text)
	})
}
