package weather

import (
	"fmt"
	"strings"
	"time"
)

// Coord is a geographic coordinate pair.
type Coord struct {
	Lat float64
	Lon float64
}

// Record is a normalized current-conditions snapshot. All numeric fields are
// metric and converted exactly once, at construction: temperatures rounded
// °C, wind m/s→km/h rounded, visibility m→km with one decimal.
type Record struct {
	Location    string // "City, CC"
	Conditions  string
	Description string
	Temperature int
	FeelsLike   int
	Humidity    int
	WindSpeed   int
	WindGust    int
	Pressure    int
	Visibility  *float64 // km; nil when the provider omits it
	Sunrise     time.Time
	Sunset      time.Time
	Icon        string
	Coord       *Coord
}

// Sentence renders the record as the assistant's one-line summary.
func (r *Record) Sentence() string {
	s := fmt.Sprintf("The current weather in %s is %s. The temperature is %d°C but feels like %d°C due to the humidity of %d%%. Wind speed is %d km/h",
		r.Location, strings.ToLower(r.Conditions), r.Temperature, r.FeelsLike, r.Humidity, r.WindSpeed)
	if r.WindGust > r.WindSpeed {
		s += fmt.Sprintf(" with gusts up to %d km/h", r.WindGust)
	}
	return s + "."
}

// ForecastEntry is one day of the reduced forecast: the first provider
// sample seen for its calendar date.
type ForecastEntry struct {
	Date        time.Time
	Temp        int
	Conditions  string
	Icon        string
	Description string
}
