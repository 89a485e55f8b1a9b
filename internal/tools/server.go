// Package tools registers the world clock tools on an MCP server.
package tools

import (
	"context"
	"encoding/json"
	"log"
	"net/netip"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/sabbour/worldtime-mcp-go/internal/upstream"
)

const ServerName = "worldtime"

// WorldTimeAPI is the subset of the worldtimeapi.org client the tools use.
type WorldTimeAPI interface {
	ByRegion(ctx context.Context, area, location string) (*upstream.WorldTimeResponse, error)
	ByIP(ctx context.Context, ip netip.Addr) (*upstream.WorldTimeResponse, error)
}

// TimezoneDBAPI is the subset of the TimeZoneDB client the tools use.
type TimezoneDBAPI interface {
	ListTimeZones(ctx context.Context) ([]upstream.Zone, error)
	GetTimeZoneByZone(ctx context.Context, zone string) (*upstream.TimeZone, error)
	GetTimeZoneByPosition(ctx context.Context, lat, lng float64) (*upstream.TimeZone, error)
	ConvertTimeZone(ctx context.Context, from, to string, at int64) (*upstream.Conversion, error)
}

// Deps are the collaborators the tool handlers call into.
type Deps struct {
	WorldTime  WorldTimeAPI
	TimezoneDB TimezoneDBAPI
	// Calendar selects the day convert-timezone ranges are anchored to. Nil means time.Local.
	Calendar *time.Location
	Tracer   trace.Tracer
	Debug    *log.Logger
	Version  string
}

const convertSchema = `{
  "type": "object",
  "properties": {
    "dateToConvert": {
      "anyOf": [{"type": "string"}, {"type": "number"}],
      "description": "The date to convert, in UTC epoch time or a date string"
    },
    "timezone1": {
      "type": "string",
      "description": "The timezone to convert from (e.g. America/New_York or EDT)"
    },
    "timezone2": {
      "type": "string",
      "description": "The timezone to convert to (e.g. America/New_York or EDT)"
    }
  },
  "required": ["dateToConvert", "timezone1", "timezone2"]
}`

// NewServer builds an MCP server exposing every world clock tool.
func NewServer(d Deps) *server.MCPServer {
	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer(ServerName)
	}
	if d.Calendar == nil {
		d.Calendar = time.Local
	}
	version := d.Version
	if version == "" {
		version = "dev"
	}

	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	h := &handlers{deps: d}

	s.AddTool(mcp.NewTool("list-timezones",
		mcp.WithDescription("List out all available time zones supported by TimeZoneDB."),
	), h.wrap("list-timezones", h.listTimezones))

	s.AddTool(mcp.NewTool("get-time-by-ip",
		mcp.WithDescription("Get the current time and timezone for an IP address"),
		mcp.WithString("ip", mcp.Required(), mcp.Description("An IPv4 or IPv6 address")),
	), h.wrap("get-time-by-ip", h.timeByIP))

	s.AddTool(mcp.NewTool("get-timezone",
		mcp.WithDescription("Get local time, GMT offset, DST of a place by latitude & longitude, timezone name, abbreviation, city name, or IP address."),
		mcp.WithString("timezone", mcp.Required(), mcp.Description("Timezone name or abbreviation, e.g. Europe/London or EST")),
		mcp.WithNumber("latitude", mcp.Description("Latitude of the place, used together with longitude")),
		mcp.WithNumber("longitude", mcp.Description("Longitude of the place, used together with latitude")),
	), h.wrap("get-timezone", h.timezone))

	s.AddTool(mcp.NewToolWithRawSchema("convert-timezone",
		"Given a UTC time, find the time in a different timezone",
		json.RawMessage(convertSchema),
	), h.wrap("convert-timezone", h.convert))

	s.AddTool(mcp.NewTool("get-time-by-region",
		mcp.WithDescription("Get the current local time of a timezone given as area and location"),
		mcp.WithString("area", mcp.Required(), mcp.Description("The continent for the timezone we want to get the local time for")),
		mcp.WithString("location", mcp.Required(), mcp.Description("The location of the timezone to get the local time for")),
	), h.wrap("get-time-by-region", h.timeByRegion))

	return s
}
