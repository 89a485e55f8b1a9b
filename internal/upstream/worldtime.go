package upstream

import (
	"context"
	"net/netip"
	"strings"
)

// WorldTimeResponse is the worldtimeapi.org payload for a zone or an IP address.
type WorldTimeResponse struct {
	Abbreviation string `json:"abbreviation"`
	ClientIP     string `json:"client_ip"`
	Datetime     string `json:"datetime"`
	DayOfWeek    int    `json:"day_of_week"`
	DayOfYear    int    `json:"day_of_year"`
	DST          bool   `json:"dst"`
	DSTOffset    int    `json:"dst_offset"`
	RawOffset    int    `json:"raw_offset"`
	Timezone     string `json:"timezone"`
	UnixTime     int64  `json:"unixtime"`
	UTCDatetime  string `json:"utc_datetime"`
	UTCOffset    string `json:"utc_offset"`
	WeekNumber   int    `json:"week_number"`
}

// WorldTime talks to a worldtimeapi.org compatible service.
type WorldTime struct {
	baseURL string
	get     *getter
}

// NewWorldTime creates a client for the service rooted at baseURL.
func NewWorldTime(baseURL string, opts Options) *WorldTime {
	return &WorldTime{baseURL: baseURL, get: newGetter(opts)}
}

// ByRegion fetches the current time of the zone area/location, e.g. Europe/London or
// America/Argentina/Buenos_Aires.
func (c *WorldTime) ByRegion(ctx context.Context, area, location string) (*WorldTimeResponse, error) {
	segments := []string{"timezone", area}
	for _, s := range strings.Split(location, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	var out WorldTimeResponse
	if err := c.get.getJSON(ctx, joinURL(c.baseURL, segments...), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ByIP fetches the current time of the zone an IP address geolocates to.
func (c *WorldTime) ByIP(ctx context.Context, ip netip.Addr) (*WorldTimeResponse, error) {
	var out WorldTimeResponse
	if err := c.get.getJSON(ctx, joinURL(c.baseURL, "ip", ip.String()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
