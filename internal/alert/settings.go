// Package alert evaluates per-user threshold rules against options-chain
// snapshots and delivers at most one burst of alerts per user per cooldown
// window. All mutable per-user state (settings and cooldown) lives behind the
// Registry, locked per user so unrelated users never serialize.
package alert

// Settings are one user's alert preferences. Thresholds are expressed in
// lots; the engine converts to contracts with the snapshot's lot size at
// evaluation time.
type Settings struct {
	Enabled             bool    `json:"enabled"`
	NegativeOIThreshold float64 `json:"negative_oi_threshold"` // lots, negative
	TotalOIThreshold    float64 `json:"total_oi_threshold"`    // lots
	VolumeMultiplier    float64 `json:"volume_multiplier"`
	CooldownSeconds     int     `json:"cooldown"`
	AlertOnCalls        bool    `json:"alert_calls"`
	AlertOnPuts         bool    `json:"alert_puts"`
}

// DefaultSettings returns the settings a user gets before saving any.
// Alerts start disabled; everything else mirrors the dashboard defaults.
func DefaultSettings() Settings {
	return Settings{
		Enabled:             false,
		NegativeOIThreshold: -100,
		TotalOIThreshold:    1500,
		VolumeMultiplier:    2,
		CooldownSeconds:     300,
		AlertOnCalls:        true,
		AlertOnPuts:         true,
	}
}

// normalize backstops zero values that would otherwise disable the cooldown
// or invert a threshold when a partial settings payload is saved.
func (s Settings) normalize() Settings {
	def := DefaultSettings()
	if s.CooldownSeconds <= 0 {
		s.CooldownSeconds = def.CooldownSeconds
	}
	if s.NegativeOIThreshold >= 0 {
		s.NegativeOIThreshold = def.NegativeOIThreshold
	}
	if s.TotalOIThreshold <= 0 {
		s.TotalOIThreshold = def.TotalOIThreshold
	}
	if s.VolumeMultiplier <= 0 {
		s.VolumeMultiplier = def.VolumeMultiplier
	}
	return s
}
