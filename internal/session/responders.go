package session

import (
	"context"
	"fmt"
	"math"

	"github.com/skycast-app/skycast/internal/extract"
	"github.com/skycast-app/skycast/internal/stream"
	"github.com/skycast-app/skycast/internal/weather"
)

// NoCityText is the guiding prompt when nothing resembling a city could be
// extracted. An unextractable city is recovered locally, never a failure.
const NoCityText = `I couldn't spot a city in that. Try something like "What's the weather in Mumbai?"`

// AgentStreamer is the slice of the agent client a responder needs.
type AgentStreamer interface {
	Stream(ctx context.Context, text string, onChunk func(text string, result *stream.ToolResult)) (string, *stream.ToolResult, error)
}

// AgentResponder relays the raw utterance to the hosted agent. Every
// transport failure is wrapped as an aborted stream and absorbed by the
// session.
type AgentResponder struct {
	Agent AgentStreamer
}

func (r *AgentResponder) Respond(ctx context.Context, text string, onUpdate func(Update)) (Update, error) {
	final, result, err := r.Agent.Stream(ctx, text, func(t string, tr *stream.ToolResult) {
		onUpdate(Update{Text: t, Weather: recordFromToolResult(tr)})
	})
	if err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrAborted, err)
	}
	return Update{Text: final, Weather: recordFromToolResult(result)}, nil
}

// recordFromToolResult maps the stream's structured payload onto the
// normalized record used for card rendering. The agent already reports
// metric values, so only rounding happens here.
func recordFromToolResult(tr *stream.ToolResult) *weather.Record {
	if tr == nil {
		return nil
	}
	return &weather.Record{
		Location:    tr.Location,
		Conditions:  tr.Conditions,
		Temperature: int(math.Round(tr.Temperature)),
		FeelsLike:   int(math.Round(tr.FeelsLike)),
		Humidity:    int(math.Round(tr.Humidity)),
		WindSpeed:   int(math.Round(tr.WindSpeed)),
		WindGust:    int(math.Round(tr.WindGust)),
	}
}

// WeatherFetcher is the slice of the weather client the direct variant needs.
type WeatherFetcher interface {
	Current(ctx context.Context, city string) (*weather.Record, error)
}

// RecentsRecorder receives successfully resolved cities.
type RecentsRecorder interface {
	AddRecent(city string)
}

// DirectResponder answers without the hosted agent: extract a city from the
// utterance, fetch current conditions, render the summary sentence. Provider
// errors are surfaced, not absorbed.
type DirectResponder struct {
	Weather WeatherFetcher
	Recents RecentsRecorder // optional
}

func (r *DirectResponder) Respond(ctx context.Context, text string, onUpdate func(Update)) (Update, error) {
	city, ok := extract.City(text)
	if !ok {
		return Update{Text: NoCityText}, nil
	}

	rec, err := r.Weather.Current(ctx, city)
	if err != nil {
		return Update{}, err
	}

	if r.Recents != nil {
		r.Recents.AddRecent(city)
	}
	return Update{Text: rec.Sentence(), Weather: rec}, nil
}
