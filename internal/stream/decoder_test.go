package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, d *Decoder, chunks ...string) {
	t.Helper()
	for _, c := range chunks {
		n, err := d.Write([]byte(c))
		require.NoError(t, err)
		require.Equal(t, len(c), n)
	}
}

// A JSON token split across a chunk boundary must survive intact.
func TestDecoder_TokenSplitAcrossChunks(t *testing.T) {
	d := NewDecoder()
	feed(t, d, `0:"Hel`, "lo\"\n")
	require.Equal(t, "Hello", d.Text())
}

func TestDecoder_SplitInsideEscape(t *testing.T) {
	d := NewDecoder()
	feed(t, d, `0:"a\`, `nb"`+"\n")
	require.Equal(t, "a\nb", d.Text())
}

func TestDecoder_AccumulatesTokens(t *testing.T) {
	d := NewDecoder()
	feed(t, d, "0:\"The \"\n0:\"weather \"\n", "0:\"is nice.\"\n")
	require.Equal(t, "The weather is nice.", d.Text())
}

func TestDecoder_ToolResult(t *testing.T) {
	d := NewDecoder()
	feed(t, d, `a:{"result":{"temperature":20,"feelsLike":19,"humidity":60,"windSpeed":10,"windGust":15,"conditions":"Clear","location":"Pune"}}`+"\n")

	text := d.Text()
	require.Contains(t, text, "Pune")
	require.Contains(t, text, "20°C")
	require.Contains(t, text, "feels like 19°C")
	require.Contains(t, text, "humidity of 60%")
	require.Contains(t, text, "10 km/h")
	require.Contains(t, text, "gusts up to 15 km/h")

	require.NotNil(t, d.Result())
	require.Equal(t, "Clear", d.Result().Conditions)
	require.Equal(t, 20.0, d.Result().Temperature)
}

// Malformed lines are skipped; later lines still decode.
func TestDecoder_SkipsMalformedLines(t *testing.T) {
	d := NewDecoder()
	feed(t, d, "0:{not json\n", "0:\"ok\"\n")
	require.Equal(t, "ok", d.Text())
}

// Lines without a known tag carry nothing for the transcript.
func TestDecoder_IgnoresUnknownTags(t *testing.T) {
	d := NewDecoder()
	feed(t, d, "x:\"hidden\"\n", "0:\"shown\"\n")
	require.Equal(t, "shown", d.Text())
}

// Frame metadata is valid JSON but contributes no text.
func TestDecoder_IgnoresMetadataRecords(t *testing.T) {
	d := NewDecoder()
	feed(t, d, `f:{"messageId":"m-1"}`+"\n", `e:{"finishReason":"stop","usage":{"promptTokens":10}}`+"\n", "0:\"hi\"\n", `d:{"finishReason":"stop"}`+"\n")
	require.Equal(t, "hi", d.Text())
	require.Nil(t, d.Result())
}

// The transport closing is the only terminator; a final line without a
// newline must still be decoded by Close.
func TestDecoder_CloseFlushesTrailingLine(t *testing.T) {
	d := NewDecoder()
	feed(t, d, "0:\"almost\"")
	require.Equal(t, "", d.Text())
	require.NoError(t, d.Close())
	require.Equal(t, "almost", d.Text())
}

func TestDecoder_CRLF(t *testing.T) {
	d := NewDecoder()
	feed(t, d, "0:\"one\"\r\n0:\" two\"\r\n")
	require.Equal(t, "one two", d.Text())
}
