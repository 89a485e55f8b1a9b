package tools

import (
	"fmt"
	"strings"

	"github.com/sabbour/worldtime-mcp-go/internal/timefmt"
	"github.com/sabbour/worldtime-mcp-go/internal/upstream"
)

func formatZoneList(zones []upstream.Zone) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TimeZoneDB supports %d time zones:\n", len(zones))
	for _, z := range zones {
		fmt.Fprintf(&b, "%s (%s, %s) %s\n", z.ZoneName, z.CountryCode, z.CountryName, timefmt.GMTOffset(z.GMTOffset))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatIPTime(r *upstream.WorldTimeResponse) string {
	return fmt.Sprintf("The local time in %s is %s. The UTC time is %s for your IP address %s.",
		r.Timezone, r.Datetime, r.UTCDatetime, r.ClientIP)
}

func formatRegionTime(r *upstream.WorldTimeResponse, location, localTime string) string {
	return fmt.Sprintf("The local time in %s is %s.\nUnix epoch time is %d.\nThe UTC time is %s for %s.\nUTC offset is %s.",
		r.Timezone, localTime, r.UnixTime, r.UTCDatetime, location, r.UTCOffset)
}

func formatTimeZone(z *upstream.TimeZone) string {
	place := strings.TrimSpace(strings.Join([]string{z.CountryName, z.ZoneName, z.Abbreviation}, " "))
	zone := strings.TrimSpace(z.ZoneName + " " + z.Abbreviation)

	dst := "no"
	if z.InDST() {
		dst = "yes"
	}
	return fmt.Sprintf("The local time in %s is %s in %s.\nThe timezone in %s is %s.\nDaylight saving time in effect: %s. GMT offset is %s.",
		place, z.Formatted, zone, place, zone, dst, timefmt.GMTOffset(z.GMTOffset))
}

type conversion struct {
	original     string
	fromName     string
	toName       string
	fromTime     string
	toTime       string
	fromRange    timefmt.Range
	toRange      timefmt.Range
	upstreamConv *upstream.Conversion
}

func formatConversion(c conversion) string {
	u := c.upstreamConv
	lines := []string{
		fmt.Sprintf("You tried to find what %s would be in %s when it is %s in %s.", c.original, c.toName, c.fromTime, c.fromName),
		fmt.Sprintf("The timezone in %s is %s %s and the timezone in %s is %s %s.",
			c.fromName, u.FromZoneName, u.FromAbbreviation, c.toName, u.ToZoneName, u.ToAbbreviation),
		fmt.Sprintf("It would be %s %s in %s.", c.toTime, u.ToAbbreviation, c.toName),
		"",
		fmt.Sprintf("At %s in %s the event starts at %s and ends at %s.", c.original, c.fromName, c.fromRange.Start, c.fromRange.End),
		fmt.Sprintf("At %s in %s the event starts at %s and ends at %s.", c.original, c.toName, c.toRange.Start, c.toRange.End),
	}
	return strings.Join(lines, "\n")
}
