package upstream

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// APIError is a TimeZoneDB response whose status is not OK, such as a bad API key.
type APIError struct {
	Status  string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "timezonedb: status " + e.Status
	}
	return "timezonedb: " + e.Message
}

type apiStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s apiStatus) err() error {
	if s.Status == "" || strings.EqualFold(s.Status, "OK") {
		return nil
	}
	return &APIError{Status: s.Status, Message: s.Message}
}

// Zone is one entry of the list-time-zone response.
type Zone struct {
	CountryCode string `json:"countryCode"`
	CountryName string `json:"countryName"`
	ZoneName    string `json:"zoneName"`
	GMTOffset   int    `json:"gmtOffset"`
	Timestamp   int64  `json:"timestamp"`
}

// TimeZone is the get-time-zone response.
type TimeZone struct {
	apiStatus
	CountryCode  string `json:"countryCode"`
	CountryName  string `json:"countryName"`
	RegionName   string `json:"regionName"`
	CityName     string `json:"cityName"`
	ZoneName     string `json:"zoneName"`
	Abbreviation string `json:"abbreviation"`
	GMTOffset    int    `json:"gmtOffset"`
	DST          string `json:"dst"`
	Timestamp    int64  `json:"timestamp"`
	Formatted    string `json:"formatted"`
}

// InDST reports whether daylight saving time is in effect.
func (z *TimeZone) InDST() bool {
	return z.DST == "1"
}

// Conversion is the convert-time-zone response.
type Conversion struct {
	apiStatus
	FromZoneName     string `json:"fromZoneName"`
	FromAbbreviation string `json:"fromAbbreviation"`
	FromTimestamp    int64  `json:"fromTimestamp"`
	ToZoneName       string `json:"toZoneName"`
	ToAbbreviation   string `json:"toAbbreviation"`
	ToTimestamp      int64  `json:"toTimestamp"`
	Offset           int    `json:"offset"`
}

type zoneList struct {
	apiStatus
	Zones []Zone `json:"zones"`
}

// TimezoneDB talks to a TimeZoneDB v2.1 compatible service.
type TimezoneDB struct {
	baseURL string
	apiKey  string
	get     *getter
}

// NewTimezoneDB creates a client for the service rooted at baseURL.
func NewTimezoneDB(baseURL, apiKey string, opts Options) *TimezoneDB {
	return &TimezoneDB{baseURL: baseURL, apiKey: apiKey, get: newGetter(opts)}
}

func (c *TimezoneDB) endpoint(method string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)
	params.Set("format", "json")
	return joinURL(c.baseURL, method) + "?" + params.Encode()
}

// ListTimeZones returns every zone the service knows.
func (c *TimezoneDB) ListTimeZones(ctx context.Context) ([]Zone, error) {
	var out zoneList
	if err := c.get.getJSON(ctx, c.endpoint("list-time-zone", nil), &out); err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return out.Zones, nil
}

// GetTimeZoneByZone looks a zone up by name or abbreviation.
func (c *TimezoneDB) GetTimeZoneByZone(ctx context.Context, zone string) (*TimeZone, error) {
	return c.getTimeZone(ctx, url.Values{
		"by":   {"zone"},
		"zone": {zone},
	})
}

// GetTimeZoneByPosition looks a zone up by coordinates.
func (c *TimezoneDB) GetTimeZoneByPosition(ctx context.Context, lat, lng float64) (*TimeZone, error) {
	return c.getTimeZone(ctx, url.Values{
		"by":  {"position"},
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(lng, 'f', -1, 64)},
	})
}

func (c *TimezoneDB) getTimeZone(ctx context.Context, params url.Values) (*TimeZone, error) {
	var out TimeZone
	if err := c.get.getJSON(ctx, c.endpoint("get-time-zone", params), &out); err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConvertTimeZone converts the unix time at from zone from into zone to.
func (c *TimezoneDB) ConvertTimeZone(ctx context.Context, from, to string, at int64) (*Conversion, error) {
	var out Conversion
	params := url.Values{
		"from": {from},
		"to":   {to},
		"time": {strconv.FormatInt(at, 10)},
	}
	if err := c.get.getJSON(ctx, c.endpoint("convert-time-zone", params), &out); err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return &out, nil
}
