// Package weather is the OpenWeatherMap client. It maps provider JSON into
// normalized records and classifies failures into typed errors.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/logger"
)

const maxForecastDays = 5

// Client talks to the weather provider. A client-side rate limiter keeps the
// free tier happy regardless of how fast the user types.
type Client struct {
	cfg     config.WeatherConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg config.WeatherConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 3),
	}
}

// currentResponse mirrors the provider's current-conditions payload.
type currentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Gust  float64 `json:"gust"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
	Coord      *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
}

// Current fetches and normalizes current conditions for a city.
func (c *Client) Current(ctx context.Context, city string) (*Record, error) {
	u := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		c.cfg.BaseURL, url.QueryEscape(city), c.cfg.APIKey)

	var dto currentResponse
	if err := c.get(ctx, u, city, &dto); err != nil {
		return nil, err
	}

	rec := &Record{
		Location:    fmt.Sprintf("%s, %s", dto.Name, dto.Sys.Country),
		Temperature: roundInt(dto.Main.Temp),
		FeelsLike:   roundInt(dto.Main.FeelsLike),
		Humidity:    dto.Main.Humidity,
		WindSpeed:   roundInt(dto.Wind.Speed * 3.6),
		Pressure:    dto.Main.Pressure,
		Sunrise:     time.Unix(dto.Sys.Sunrise, 0),
		Sunset:      time.Unix(dto.Sys.Sunset, 0),
	}
	if dto.Wind.Gust > 0 {
		rec.WindGust = roundInt(dto.Wind.Gust * 3.6)
	} else {
		rec.WindGust = rec.WindSpeed
	}
	if len(dto.Weather) > 0 {
		rec.Conditions = dto.Weather[0].Main
		rec.Description = dto.Weather[0].Description
		rec.Icon = dto.Weather[0].Icon
	}
	if dto.Visibility > 0 {
		km := math.Round(float64(dto.Visibility)/1000*10) / 10
		rec.Visibility = &km
	}
	if dto.Coord != nil {
		rec.Coord = &Coord{Lat: dto.Coord.Lat, Lon: dto.Coord.Lon}
	}
	return rec, nil
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
}

// Forecast returns up to five daily entries, one per calendar date, using the
// first 3-hour sample seen for each date. The forecast is supplementary:
// every failure degrades to a nil slice instead of propagating.
func (c *Client) Forecast(ctx context.Context, city string) ([]ForecastEntry, error) {
	u := fmt.Sprintf("%s/forecast?q=%s&appid=%s&units=metric",
		c.cfg.BaseURL, url.QueryEscape(city), c.cfg.APIKey)

	var dto forecastResponse
	if err := c.get(ctx, u, city, &dto); err != nil {
		logger.L.Warn("forecast fetch failed", "city", city, "error", err)
		return nil, nil
	}

	// Calendar dates are taken in the forecast location's own zone so the
	// reduction does not depend on where this client runs.
	loc := time.FixedZone("", dto.City.Timezone)

	var entries []ForecastEntry
	seen := make(map[string]bool)
	for _, item := range dto.List {
		ts := time.Unix(item.Dt, 0).In(loc)
		day := ts.Format("2006-01-02")
		if seen[day] {
			continue
		}
		seen[day] = true
		e := ForecastEntry{
			Date: ts,
			Temp: roundInt(item.Main.Temp),
		}
		if len(item.Weather) > 0 {
			e.Conditions = item.Weather[0].Main
			e.Description = item.Weather[0].Description
			e.Icon = item.Weather[0].Icon
		}
		entries = append(entries, e)
		if len(entries) >= maxForecastDays {
			break
		}
	}
	return entries, nil
}

type airQualityResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

// AirQuality returns the AQI category (1 good … 5 very poor) for a
// coordinate. ok is false on any failure; air quality is never worth an
// error banner.
func (c *Client) AirQuality(ctx context.Context, lat, lon float64) (aqi int, ok bool) {
	u := fmt.Sprintf("%s/air_pollution?lat=%f&lon=%f&appid=%s",
		c.cfg.BaseURL, lat, lon, c.cfg.APIKey)

	var dto airQualityResponse
	if err := c.get(ctx, u, "", &dto); err != nil {
		logger.L.Warn("air quality fetch failed", "error", err)
		return 0, false
	}
	if len(dto.List) == 0 {
		return 0, false
	}
	return dto.List[0].Main.AQI, true
}

// ReverseGeocode resolves a coordinate to a city name. ok is false on any
// failure or when the provider knows no place there.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (city string, ok bool) {
	u := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&limit=1&appid=%s",
		c.cfg.GeoBaseURL, lat, lon, c.cfg.APIKey)

	var places []struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, u, "", &places); err != nil {
		logger.L.Warn("reverse geocoding failed", "error", err)
		return "", false
	}
	if len(places) == 0 {
		return "", false
	}
	return places[0].Name, true
}

// get performs a rate-limited GET and decodes the body into out, classifying
// non-200 responses into the typed error taxonomy.
func (c *Client) get(ctx context.Context, u, city string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp, city)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("undecodable response: %v", err)}
	}
	return nil
}

func classifyStatus(resp *http.Response, city string) error {
	var body struct {
		Message string `json:"message"`
	}
	// Best effort; the status alone is enough to classify.
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &NotFoundError{City: city}
	case http.StatusUnauthorized:
		return &UnauthorizedError{Message: body.Message}
	default:
		return &UpstreamError{StatusCode: resp.StatusCode, Message: body.Message}
	}
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
