package config

// Template is a commented TOML file listing every setting with its default.
func Template() string {
	return `# worldtime MCP server configuration
# This file uses TOML format: https://toml.io

# User-Agent sent to both upstream services
user_agent = "worldtime-app/1.0"

# Upper bound for each upstream request, e.g. "10s". 0 disables the limit.
request_timeout = "0s"

# Zone whose calendar picks the day of a localized range:
# "local" (host zone), "utc", or an IANA name such as "America/New_York"
range_calendar = "local"

[worldtime]
base_url = "https://worldtimeapi.org/api"

[timezonedb]
base_url = "http://api.timezonedb.com/v2.1"
# Usually supplied through TIMEZONE_DB_API_KEY instead
api_key = ""

[http]
# Serve streamable HTTP instead of stdio
enabled = false
host = "127.0.0.1"
port = 3000
# Key expected in X-API-Key or "Authorization: Bearer"; empty disables the check
api_key = ""
stateless = false

[telemetry]
# OTLP/HTTP endpoint, e.g. "http://localhost:4318". Empty disables tracing.
otlp_endpoint = ""
service_name = "worldtime"
`
}
