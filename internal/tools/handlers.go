package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sabbour/worldtime-mcp-go/internal/telemetry"
	"github.com/sabbour/worldtime-mcp-go/internal/timefmt"
	"github.com/sabbour/worldtime-mcp-go/internal/upstream"
)

type handlers struct {
	deps Deps
}

func (h *handlers) debugf(format string, args ...any) {
	if h.deps.Debug != nil {
		h.deps.Debug.Printf("DEBUG: "+format, args...)
	}
}

// wrap gives every call an id, a span and a pair of debug lines.
func (h *handlers) wrap(name string, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callID := uuid.NewString()
		ctx, span := h.deps.Tracer.Start(ctx, "tool "+name,
			trace.WithAttributes(
				attribute.String("mcp.tool.name", name),
				attribute.String("mcp.tool.call_id", callID),
			),
		)

		started := time.Now()
		h.debugf("[%s] %s called with %v", callID, name, req.GetArguments())

		res, err := next(ctx, req)

		spanErr := err
		if spanErr == nil && res != nil && res.IsError {
			spanErr = errors.New(resultText(res))
		}
		telemetry.EndSpan(span, spanErr)

		if spanErr != nil {
			h.debugf("[%s] %s failed after %s: %v", callID, name, time.Since(started), spanErr)
		} else {
			h.debugf("[%s] %s succeeded after %s", callID, name, time.Since(started))
		}
		return res, err
	}
}

func (h *handlers) listTimezones(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	zones, err := h.deps.TimezoneDB.ListTimeZones(ctx)
	if err != nil {
		return fetchError("Error fetching time zones from TimezoneDB", err), nil
	}
	return mcp.NewToolResultText(formatZoneList(zones)), nil
}

func (h *handlers) timeByIP(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("ip")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ip, err := netip.ParseAddr(raw)
	if err != nil || ip.Zone() != "" {
		return mcp.NewToolResultError("Invalid IP address!"), nil
	}

	resp, err := h.deps.WorldTime.ByIP(ctx, ip)
	if err != nil {
		return fetchError("Error fetching time data by your IP address from WorldTimeAPI", err), nil
	}
	return mcp.NewToolResultText(formatIPTime(resp)), nil
}

func (h *handlers) timeByRegion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	area, err := req.RequireString("area")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	location, err := req.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := h.deps.WorldTime.ByRegion(ctx, area, location)
	if err != nil {
		return fetchError(fmt.Sprintf("Error fetching time data for %s/%s from WorldTimeAPI", area, location), err), nil
	}

	local, err := timefmt.FormatEpoch(resp.UnixTime, &timefmt.FormatOptions{
		TimeStyle: timefmt.StyleLong,
		TimeZone:  resp.Timezone,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot format the time of %s: %v", resp.Timezone, err)), nil
	}
	return mcp.NewToolResultText(formatRegionTime(resp, location, local)), nil
}

func (h *handlers) timezone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	zone, err := req.RequireString("timezone")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := req.GetArguments()
	lat, hasLat := number(args["latitude"])
	lng, hasLng := number(args["longitude"])

	var tz *upstream.TimeZone
	if hasLat && hasLng {
		tz, err = h.deps.TimezoneDB.GetTimeZoneByPosition(ctx, lat, lng)
	} else {
		tz, err = h.deps.TimezoneDB.GetTimeZoneByZone(ctx, zone)
	}
	if err != nil {
		return fetchError("Error fetching time data from TimezoneDB", err), nil
	}
	return mcp.NewToolResultText(formatTimeZone(tz)), nil
}

func (h *handlers) convert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("timezone1")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("timezone2")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	at, original, err := h.dateToConvert(req.GetArguments()["dateToConvert"])
	if err != nil {
		return mcp.NewToolResultError("Invalid date to convert: " + err.Error()), nil
	}

	conv, err := h.deps.TimezoneDB.ConvertTimeZone(ctx, from, to, at.Unix())
	if err != nil {
		return fetchError("Error fetching time data from TimezoneDB", err), nil
	}

	fromRange, err := h.localize(at, conv.FromZoneName, from)
	if err != nil {
		return mcp.NewToolResultError("Error localizing the date: " + err.Error()), nil
	}
	toRange, err := h.localize(at, conv.ToZoneName, to)
	if err != nil {
		return mcp.NewToolResultError("Error localizing the date: " + err.Error()), nil
	}

	return mcp.NewToolResultText(formatConversion(conversion{
		original:     original,
		fromName:     from,
		toName:       to,
		fromTime:     wallClock(conv.FromTimestamp),
		toTime:       wallClock(conv.ToTimestamp),
		fromRange:    fromRange,
		toRange:      toRange,
		upstreamConv: conv,
	})), nil
}

// dateToConvert accepts epochs as numbers or digit strings, and date strings.
func (h *handlers) dateToConvert(v any) (time.Time, string, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, "", errors.New("dateToConvert is required")
	case string:
		if t, err := timefmt.ParseEpoch(d); err == nil {
			return t, d, nil
		}
		t, err := timefmt.ParseDate(d, h.deps.Calendar)
		if err != nil {
			return time.Time{}, "", err
		}
		return t, d, nil
	default:
		t, err := timefmt.ParseEpoch(d)
		if err != nil {
			return time.Time{}, "", err
		}
		s, err := timefmt.Format(t, timefmt.DefaultFormatOptions)
		if err != nil {
			return time.Time{}, "", err
		}
		return t, s, nil
	}
}

// localize renders the day range of at in the upstream zone name, or the caller's when
// the upstream gave none.
func (h *handlers) localize(at time.Time, upstreamZone, callerZone string) (timefmt.Range, error) {
	zone := upstreamZone
	if zone == "" {
		zone = callerZone
	}
	r, err := timefmt.LocalizedRange(at, timefmt.RangeOptions{
		TimeZone:  zone,
		DateStyle: timefmt.StyleLong,
		TimeStyle: timefmt.StyleLong,
		Calendar:  h.deps.Calendar,
	})
	if err != nil {
		return timefmt.Range{}, fmt.Errorf("localize date in %s: %w", zone, err)
	}
	return r, nil
}

// wallClock renders a TimeZoneDB local timestamp, which already carries the zone offset.
func wallClock(ts int64) string {
	s, err := timefmt.Format(time.Unix(ts, 0), timefmt.FormatOptions{
		TimeZone:  "UTC",
		TimeStyle: timefmt.StyleShort,
	})
	if err != nil {
		return time.Unix(ts, 0).UTC().Format(time.Kitchen)
	}
	return s
}

func fetchError(msg string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", msg, err))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text
		case *mcp.TextContent:
			return tc.Text
		}
	}
	return "tool returned an error"
}
