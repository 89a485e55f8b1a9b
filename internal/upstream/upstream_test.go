package upstream_test

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sabbour/worldtime-mcp-go/internal/upstream"
)

func serveJSON(t *testing.T, status int, body string, inspect func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWorldTime(t *testing.T) {
	t.Run("fetches by region with the configured headers", func(t *testing.T) {
		var got *http.Request
		srv := serveJSON(t, http.StatusOK, `{"timezone":"Europe/London","unixtime":1715136000,"utc_offset":"+01:00","dst":true}`, func(r *http.Request) {
			got = r
		})

		client := upstream.NewWorldTime(srv.URL+"/api/", upstream.Options{UserAgent: "worldtime-app/1.0"})
		resp, err := client.ByRegion(context.Background(), "Europe", "London")
		require.NoError(t, err)
		require.Equal(t, "Europe/London", resp.Timezone)
		require.Equal(t, int64(1715136000), resp.UnixTime)
		require.True(t, resp.DST)

		require.Equal(t, "/api/timezone/Europe/London", got.URL.Path)
		require.Equal(t, "worldtime-app/1.0", got.Header.Get("User-Agent"))
		require.Equal(t, "application/json", got.Header.Get("Accept"))
	})

	t.Run("keeps multi-segment locations as separate path segments", func(t *testing.T) {
		var uri string
		srv := serveJSON(t, http.StatusOK, `{"timezone":"America/Argentina/Buenos_Aires"}`, func(r *http.Request) {
			uri = r.RequestURI
		})

		client := upstream.NewWorldTime(srv.URL+"/api", upstream.Options{})
		resp, err := client.ByRegion(context.Background(), "America", "Argentina/Buenos_Aires")
		require.NoError(t, err)
		require.Equal(t, "America/Argentina/Buenos_Aires", resp.Timezone)
		require.Equal(t, "/api/timezone/America/Argentina/Buenos_Aires", uri)
	})

	t.Run("fetches by IP address", func(t *testing.T) {
		var path string
		srv := serveJSON(t, http.StatusOK, `{"client_ip":"8.8.8.8","timezone":"America/Chicago"}`, func(r *http.Request) {
			path = r.URL.Path
		})

		client := upstream.NewWorldTime(srv.URL, upstream.Options{})
		resp, err := client.ByIP(context.Background(), netip.MustParseAddr("8.8.8.8"))
		require.NoError(t, err)
		require.Equal(t, "8.8.8.8", resp.ClientIP)
		require.Equal(t, "/ip/8.8.8.8", path)
	})

	t.Run("returns a status error for non-2xx responses", func(t *testing.T) {
		srv := serveJSON(t, http.StatusNotFound, `{"error":"unknown location"}`, nil)

		client := upstream.NewWorldTime(srv.URL, upstream.Options{})
		_, err := client.ByRegion(context.Background(), "Nowhere", "Town")

		var statusErr *upstream.StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		require.Contains(t, statusErr.Body, "unknown location")
		require.EqualError(t, err, "HTTP error! status: 404")
	})

	t.Run("reports an unparseable body", func(t *testing.T) {
		srv := serveJSON(t, http.StatusOK, `<html>maintenance</html>`, nil)

		client := upstream.NewWorldTime(srv.URL, upstream.Options{})
		_, err := client.ByRegion(context.Background(), "Europe", "London")
		require.ErrorContains(t, err, "decode")
	})

	t.Run("honors the request timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		t.Cleanup(srv.Close)

		client := upstream.NewWorldTime(srv.URL, upstream.Options{Timeout: 50 * time.Millisecond})
		_, err := client.ByRegion(context.Background(), "Europe", "London")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("writes debug lines when asked to", func(t *testing.T) {
		srv := serveJSON(t, http.StatusOK, `{}`, nil)

		var buf bytes.Buffer
		client := upstream.NewWorldTime(srv.URL, upstream.Options{Debug: log.New(&buf, "", 0)})
		_, err := client.ByRegion(context.Background(), "Europe", "Paris")
		require.NoError(t, err)
		require.Contains(t, buf.String(), "DEBUG: GET "+srv.URL+"/timezone/Europe/Paris -> 200")
	})
}

func TestTimezoneDB(t *testing.T) {
	t.Run("lists zones", func(t *testing.T) {
		var query map[string][]string
		srv := serveJSON(t, http.StatusOK, `{"status":"OK","message":"","zones":[
			{"countryCode":"AD","countryName":"Andorra","zoneName":"Europe/Andorra","gmtOffset":7200,"timestamp":1715143200},
			{"countryCode":"IN","countryName":"India","zoneName":"Asia/Kolkata","gmtOffset":19800,"timestamp":1715155800}]}`,
			func(r *http.Request) { query = r.URL.Query() })

		client := upstream.NewTimezoneDB(srv.URL, "secret", upstream.Options{})
		zones, err := client.ListTimeZones(context.Background())
		require.NoError(t, err)
		require.Len(t, zones, 2)
		require.Equal(t, "Asia/Kolkata", zones[1].ZoneName)
		require.Equal(t, 19800, zones[1].GMTOffset)
		require.Equal(t, []string{"secret"}, query["key"])
		require.Equal(t, []string{"json"}, query["format"])
	})

	t.Run("looks up a zone by name", func(t *testing.T) {
		var r0 *http.Request
		srv := serveJSON(t, http.StatusOK, `{"status":"OK","countryName":"United Kingdom","zoneName":"Europe/London","abbreviation":"BST","gmtOffset":3600,"dst":"1","timestamp":1715139600,"formatted":"2024-05-08 03:40:00"}`,
			func(r *http.Request) { r0 = r })

		client := upstream.NewTimezoneDB(srv.URL, "secret", upstream.Options{})
		tz, err := client.GetTimeZoneByZone(context.Background(), "Europe/London")
		require.NoError(t, err)
		require.Equal(t, "BST", tz.Abbreviation)
		require.True(t, tz.InDST())
		require.Equal(t, "/get-time-zone", r0.URL.Path)
		require.Equal(t, "zone", r0.URL.Query().Get("by"))
		require.Equal(t, "Europe/London", r0.URL.Query().Get("zone"))
	})

	t.Run("looks up a zone by position", func(t *testing.T) {
		var q map[string][]string
		srv := serveJSON(t, http.StatusOK, `{"status":"OK","zoneName":"Asia/Tokyo","dst":"0"}`,
			func(r *http.Request) { q = r.URL.Query() })

		client := upstream.NewTimezoneDB(srv.URL, "secret", upstream.Options{})
		tz, err := client.GetTimeZoneByPosition(context.Background(), 35.6762, 139.6503)
		require.NoError(t, err)
		require.False(t, tz.InDST())
		require.Equal(t, []string{"position"}, q["by"])
		require.Equal(t, []string{"35.6762"}, q["lat"])
		require.Equal(t, []string{"139.6503"}, q["lng"])
	})

	t.Run("converts between zones", func(t *testing.T) {
		var q map[string][]string
		srv := serveJSON(t, http.StatusOK, `{"status":"OK","fromZoneName":"America/New_York","fromAbbreviation":"EDT","fromTimestamp":1715121600,"toZoneName":"Europe/London","toAbbreviation":"BST","toTimestamp":1715139600,"offset":18000}`,
			func(r *http.Request) { q = r.URL.Query() })

		client := upstream.NewTimezoneDB(srv.URL, "secret", upstream.Options{})
		conv, err := client.ConvertTimeZone(context.Background(), "America/New_York", "Europe/London", 1715136000)
		require.NoError(t, err)
		require.Equal(t, int64(1715139600), conv.ToTimestamp)
		require.Equal(t, 18000, conv.Offset)
		require.Equal(t, []string{"1715136000"}, q["time"])
		require.Equal(t, []string{"America/New_York"}, q["from"])
		require.Equal(t, []string{"Europe/London"}, q["to"])
	})

	t.Run("surfaces a failed status", func(t *testing.T) {
		srv := serveJSON(t, http.StatusOK, `{"status":"FAILED","message":"Invalid API key."}`, nil)

		client := upstream.NewTimezoneDB(srv.URL, "", upstream.Options{})
		_, err := client.GetTimeZoneByZone(context.Background(), "UTC")

		var apiErr *upstream.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Invalid API key.", apiErr.Message)
	})

	t.Run("keeps the API key out of spans and errors", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

		client := upstream.NewTimezoneDB("http://127.0.0.1:1", "secret", upstream.Options{Tracer: tp.Tracer("test")})
		_, err := client.ListTimeZones(context.Background())
		require.Error(t, err)
		require.NotContains(t, err.Error(), "secret")

		ended := recorder.Ended()
		require.Len(t, ended, 1)
		require.Equal(t, "upstream.get", ended[0].Name())
		for _, attr := range ended[0].Attributes() {
			require.NotContains(t, attr.Value.Emit(), "secret")
		}
	})
}
