package types

// Station is a distinct station that has at least one observation.
type Station struct {
	ID   string `json:"Station"`
	Name string `json:"Station Name"`
}

// Precipitation is one observation's rainfall. Value is nil where the
// dataset has no reading.
type Precipitation struct {
	Date  string   `json:"Date"`
	Value *float64 `json:"Precipitation"`
}

// TemperatureObservation is one temperature reading (tobs) at a station.
type TemperatureObservation struct {
	StationID   string  `json:"Station"`
	Date        string  `json:"Date"`
	Temperature float64 `json:"Tobs"`
}

// DateWindow is the trailing year ending at the dataset's most recent date.
// Start is inclusive.
type DateWindow struct {
	Start  string
	Latest string
}

// TemperatureSummary holds min, rounded average and max temperature.
// Each is nil when no observation matched.
type TemperatureSummary struct {
	Min *float64
	Avg *float64
	Max *float64
}
