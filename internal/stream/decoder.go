// Package stream decodes the tagged line protocol spoken by the hosted
// weather agent. Each line is a single-character tag, a colon, and a JSON
// payload; chunk boundaries may fall anywhere, including inside a payload.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/skycast-app/skycast/internal/logger"
)

// Line tags emitted by the agent transport.
// 0: text token, f: frame metadata, 9: tool call, a: tool result,
// e: step end, d: done.
var tags = []string{"0:", "f:", "a:", "9:", "e:", "d:"}

// ToolResult is the weather-shaped payload embedded in an "a:" record.
type ToolResult struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	WindGust    float64 `json:"windGust"`
	Conditions  string  `json:"conditions"`
	Location    string  `json:"location"`
}

// Sentence renders the fixed transcript template for a tool result.
func (r *ToolResult) Sentence() string {
	return fmt.Sprintf("The current weather in %s is a %s. The temperature is %s°C but feels like %s°C due to the high humidity of %s%%. Wind speed is %s km/h with gusts up to %s km/h.",
		r.Location, strings.ToLower(r.Conditions),
		num(r.Temperature), num(r.FeelsLike), num(r.Humidity),
		num(r.WindSpeed), num(r.WindGust))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Decoder accumulates the agent's reply across chunks. Incomplete lines are
// buffered until their terminating newline arrives; only complete lines are
// ever handed to the JSON parser.
type Decoder struct {
	buf    bytes.Buffer
	text   strings.Builder
	result *ToolResult
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Write consumes the next chunk of the response body. It never fails:
// undecodable lines are skipped, not fatal.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf.Write(p)
	for {
		raw := d.buf.Bytes()
		i := bytes.IndexByte(raw, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSuffix(string(raw[:i]), "\r")
		d.buf.Next(i + 1)
		d.decodeLine(line)
	}
	return len(p), nil
}

// Close decodes whatever is still buffered. The transport closing is the only
// end-of-stream signal, so a final line without a newline is still valid.
func (d *Decoder) Close() error {
	if d.buf.Len() > 0 {
		line := strings.TrimSuffix(d.buf.String(), "\r")
		d.buf.Reset()
		d.decodeLine(line)
	}
	return nil
}

// Text returns the cumulative message text decoded so far.
func (d *Decoder) Text() string {
	return d.text.String()
}

// Result returns the structured weather payload seen in the stream, if any.
func (d *Decoder) Result() *ToolResult {
	return d.result
}

func (d *Decoder) decodeLine(line string) {
	payload, ok := parseLine(line)
	if !ok {
		if line != "" {
			logger.L.Debug("skipping undecodable stream line", "line", line)
		}
		return
	}
	if payload.Token != nil {
		d.text.WriteString(*payload.Token)
		return
	}
	if payload.Result != nil {
		d.text.WriteString(payload.Result.Sentence())
		d.result = payload.Result
	}
}

// linePayload is the decoded form of one stream record: either a plain text
// token or an envelope carrying a weather tool result. Records that are
// neither (frame metadata, step markers) decode to an empty payload.
type linePayload struct {
	Token  *string
	Result *ToolResult
}

// parseLine reports whether the line carries a decodable record. A false
// return means "skip": unknown tags and malformed JSON are expected and are
// never treated as errors.
func parseLine(line string) (linePayload, bool) {
	if len(line) < 2 {
		return linePayload{}, false
	}
	known := false
	for _, t := range tags {
		if strings.HasPrefix(line, t) {
			known = true
			break
		}
	}
	if !known {
		return linePayload{}, false
	}
	body := []byte(line[2:])

	var token string
	if err := json.Unmarshal(body, &token); err == nil {
		return linePayload{Token: &token}, true
	}

	var envelope struct {
		Result *ToolResult `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return linePayload{}, false
	}
	if envelope.Result != nil && envelope.Result.Conditions != "" {
		return linePayload{Result: envelope.Result}, true
	}
	// Valid JSON we have no use for (run metadata, usage counts).
	return linePayload{}, true
}
