package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skycast-app/skycast/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(config.WeatherConfig{
		BaseURL:           baseURL,
		GeoBaseURL:        baseURL,
		APIKey:            "test-key",
		RequestsPerSecond: 1000, // tests should not sit in the limiter
	})
}

const sampleCurrent = `{
	"name": "Pune",
	"sys": {"country": "IN", "sunrise": 1700000000, "sunset": 1700040000},
	"weather": [{"main": "Clear", "description": "clear sky", "icon": "01d"}],
	"main": {"temp": 20.4, "feels_like": 18.6, "humidity": 60, "pressure": 1012},
	"wind": {"speed": 5.4, "gust": 8.1},
	"visibility": 8000,
	"coord": {"lat": 18.52, "lon": 73.86}
}`

func TestCurrent_Normalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/weather", r.URL.Path)
		require.Equal(t, "Pune", r.URL.Query().Get("q"))
		require.Equal(t, "test-key", r.URL.Query().Get("appid"))
		require.Equal(t, "metric", r.URL.Query().Get("units"))
		fmt.Fprint(w, sampleCurrent)
	}))
	defer srv.Close()

	rec, err := testClient(srv.URL).Current(context.Background(), "Pune")
	require.NoError(t, err)

	require.Equal(t, "Pune, IN", rec.Location)
	require.Equal(t, "Clear", rec.Conditions)
	require.Equal(t, "clear sky", rec.Description)
	require.Equal(t, 20, rec.Temperature)
	require.Equal(t, 19, rec.FeelsLike)
	require.Equal(t, 60, rec.Humidity)
	require.Equal(t, 19, rec.WindSpeed) // 5.4 m/s * 3.6 = 19.44
	require.Equal(t, 29, rec.WindGust)  // 8.1 m/s * 3.6 = 29.16
	require.Equal(t, 1012, rec.Pressure)
	require.NotNil(t, rec.Visibility)
	require.Equal(t, 8.0, *rec.Visibility)
	require.Equal(t, time.Unix(1700000000, 0), rec.Sunrise)
	require.NotNil(t, rec.Coord)
	require.Equal(t, 18.52, rec.Coord.Lat)
}

func TestCurrent_GustFallsBackToWindSpeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Oslo","sys":{"country":"NO"},"weather":[{"main":"Clouds"}],"main":{"temp":3,"feels_like":1,"humidity":80},"wind":{"speed":2.0}}`)
	}))
	defer srv.Close()

	rec, err := testClient(srv.URL).Current(context.Background(), "Oslo")
	require.NoError(t, err)
	require.Equal(t, 7, rec.WindSpeed)
	require.Equal(t, 7, rec.WindGust)
	require.Nil(t, rec.Visibility)
}

func TestCurrent_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"cod":"404","message":"city not found"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), "Nonexistentville")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "Nonexistentville", nf.City)
	require.Contains(t, err.Error(), "Nonexistentville")
}

func TestCurrent_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"cod":401,"message":"Invalid API key"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), "Pune")
	var ua *UnauthorizedError
	require.ErrorAs(t, err, &ua)
	require.Contains(t, err.Error(), "Invalid API key")
	require.Contains(t, err.Error(), "api_keys")
}

func TestCurrent_Upstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"upstream exploded"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Current(context.Background(), "Pune")
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	require.Equal(t, http.StatusBadGateway, up.StatusCode)
	require.Contains(t, err.Error(), "upstream exploded")
}

func TestCurrent_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := testClient(srv.URL).Current(context.Background(), "Pune")
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	require.Error(t, errors.Unwrap(err))
}

// 40 three-hour samples spanning 5 calendar dates reduce to exactly 5
// entries, chronological, each from the first sample of its date.
func TestForecast_Reduction(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var items []string
	for i := 0; i < 40; i++ {
		ts := base.Add(time.Duration(i) * 3 * time.Hour)
		items = append(items, fmt.Sprintf(
			`{"dt":%d,"main":{"temp":%d.6},"weather":[{"main":"Clouds","description":"day %d sample %d","icon":"03d"}]}`,
			ts.Unix(), 10+i, i/8, i%8))
	}
	payload := fmt.Sprintf(`{"list":[%s],"city":{"timezone":0}}`, strings.Join(items, ","))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forecast", r.URL.Path)
		fmt.Fprint(w, payload)
	}))
	defer srv.Close()

	entries, err := testClient(srv.URL).Forecast(context.Background(), "Pune")
	require.NoError(t, err)
	require.Len(t, entries, 5)

	for i, e := range entries {
		// First sample of each date is the midnight one, 8 samples apart.
		require.Equal(t, base.AddDate(0, 0, i).Unix(), e.Date.Unix())
		require.Equal(t, 11+8*i, e.Temp) // 10+8i plus .6 rounds up
		require.Equal(t, fmt.Sprintf("day %d sample 0", i), e.Description)
		if i > 0 {
			require.True(t, e.Date.After(entries[i-1].Date))
		}
	}
}

// Forecast is supplementary: failures degrade to nil, not an error.
func TestForecast_DegradesOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	entries, err := testClient(srv.URL).Forecast(context.Background(), "Pune")
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestAirQuality(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/air_pollution", r.URL.Path)
		fmt.Fprint(w, `{"list":[{"main":{"aqi":3}}]}`)
	}))
	defer srv.Close()

	aqi, ok := testClient(srv.URL).AirQuality(context.Background(), 18.52, 73.86)
	require.True(t, ok)
	require.Equal(t, 3, aqi)
}

func TestAirQuality_FailureIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, ok := testClient(srv.URL).AirQuality(context.Background(), 0, 0)
	require.False(t, ok)
}

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reverse", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[{"name":"Pune"}]`)
	}))
	defer srv.Close()

	name, ok := testClient(srv.URL).ReverseGeocode(context.Background(), 18.52, 73.86)
	require.True(t, ok)
	require.Equal(t, "Pune", name)
}

func TestRecordSentence(t *testing.T) {
	r := &Record{
		Location: "Pune, IN", Conditions: "Clear",
		Temperature: 20, FeelsLike: 19, Humidity: 60,
		WindSpeed: 10, WindGust: 15,
	}
	s := r.Sentence()
	require.Contains(t, s, "The current weather in Pune, IN is clear.")
	require.Contains(t, s, "20°C")
	require.Contains(t, s, "feels like 19°C")
	require.Contains(t, s, "gusts up to 15 km/h")

	r.WindGust = 10
	require.NotContains(t, r.Sentence(), "gusts")
}
