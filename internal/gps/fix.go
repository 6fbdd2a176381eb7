package gps

// Fix represents a single combined GPS fix suitable for JSON and MQTT.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56.0000"
	Date       string  `json:"date"`        // e.g. "06/12/25"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)

	// From GGA, when the receiver sends it.
	FixQuality string  `json:"fix_quality,omitempty"`
	Satellites int64   `json:"satellites,omitempty"`
	AltitudeM  float64 `json:"altitude_m,omitempty"`
}

// Valid reports whether the last RMC sentence marked the fix as usable.
func (f Fix) Valid() bool {
	return f.Validity == "A"
}
