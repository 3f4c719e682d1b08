package config

import "slices"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	// LogLevelChanged is true when server.log_level changed. The new level
	// can be applied without a restart.
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired lists changed settings that only take effect after a
	// restart.
	RestartRequired []string
}

// Changed reports whether anything differs.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	restart := func(field string, changed bool) {
		if changed {
			d.RestartRequired = append(d.RestartRequired, field)
		}
	}
	restart("server.listen_addr", old.Server.ListenAddr != new.Server.ListenAddr)
	restart("server.cors_origins", !slices.Equal(old.Server.CORSOrigins, new.Server.CORSOrigins))
	restart("providers.llm", old.Providers.LLM != new.Providers.LLM)
	restart("providers.fallbacks", !slices.Equal(old.Providers.Fallbacks, new.Providers.Fallbacks))
	restart("flights", !flightsEqual(old.Flights, new.Flights))
	restart("conversation", old.Conversation != new.Conversation)
	restart("sessions", old.Sessions != new.Sessions)
	restart("telemetry", old.Telemetry != new.Telemetry)

	return d
}

func flightsEqual(a, b FlightsConfig) bool {
	resolve := func(p *bool) bool { return p == nil || *p }
	return a.BaseURL == b.BaseURL &&
		a.APIToken == b.APIToken &&
		a.Timeout == b.Timeout &&
		a.MaxAttempts == b.MaxAttempts &&
		a.Backoff == b.Backoff &&
		a.MaxBackoff == b.MaxBackoff &&
		resolve(a.ResolveLocations) == resolve(b.ResolveLocations)
}
