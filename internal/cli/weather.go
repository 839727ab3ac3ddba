package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skycast-app/skycast/internal/weather"
)

var atCoords string

var currentCmd = &cobra.Command{
	Use:   "current <city>",
	Short: "Show current conditions for a city",
	Long: `Show current conditions for a city.

Instead of a name, --at resolves a "lat,lon" coordinate pair to the nearest
city through reverse geocoding.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateWeather(); err != nil {
			return err
		}

		client := weather.NewClient(cfg.Weather)

		city := strings.Join(args, " ")
		if atCoords != "" {
			lat, lon, err := parseCoords(atCoords)
			if err != nil {
				return err
			}
			name, ok := client.ReverseGeocode(cmd.Context(), lat, lon)
			if !ok {
				return fmt.Errorf("could not resolve a city at %s", atCoords)
			}
			city = name
		}
		if city == "" {
			return fmt.Errorf("a city name (or --at lat,lon) is required")
		}
		rec, err := client.Current(cmd.Context(), city)
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s (%s)\n", rec.Location, rec.Conditions, rec.Description)
		fmt.Printf("  temperature  %d°C (feels like %d°C)\n", rec.Temperature, rec.FeelsLike)
		fmt.Printf("  humidity     %d%%\n", rec.Humidity)
		fmt.Printf("  wind         %d km/h (gusts %d km/h)\n", rec.WindSpeed, rec.WindGust)
		fmt.Printf("  pressure     %d hPa\n", rec.Pressure)
		if rec.Visibility != nil {
			fmt.Printf("  visibility   %.1f km\n", *rec.Visibility)
		}
		fmt.Printf("  sunrise      %s\n", rec.Sunrise.Local().Format("15:04"))
		fmt.Printf("  sunset       %s\n", rec.Sunset.Local().Format("15:04"))

		if rec.Coord != nil {
			if aqi, ok := client.AirQuality(cmd.Context(), rec.Coord.Lat, rec.Coord.Lon); ok {
				fmt.Printf("  air quality  %s (%d/5)\n", aqiLabel(aqi), aqi)
			}
		}

		if store := openStore(); store != nil {
			store.AddRecent(city)
			store.Close()
		}
		return nil
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast <city>",
	Short: "Show the 5-day forecast for a city",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateWeather(); err != nil {
			return err
		}
		city := strings.Join(args, " ")

		entries, err := weather.NewClient(cfg.Weather).Forecast(cmd.Context(), city)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Forecast is unavailable right now.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %3d°C  %-8s %s\n", e.Date.Format("Mon Jan 02"), e.Temp, e.Conditions, e.Description)
		}
		return nil
	},
}

func parseCoords(s string) (lat, lon float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinates %q: expected lat,lon", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", parts[1])
	}
	return lat, lon, nil
}

func aqiLabel(aqi int) string {
	switch aqi {
	case 1:
		return "good"
	case 2:
		return "fair"
	case 3:
		return "moderate"
	case 4:
		return "poor"
	case 5:
		return "very poor"
	default:
		return "unknown"
	}
}

func init() {
	currentCmd.Flags().StringVar(&atCoords, "at", "", "resolve a \"lat,lon\" coordinate pair instead of naming a city")
	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(forecastCmd)
}
