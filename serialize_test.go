package fingerprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_RoundTrip(t *testing.T) {
	tmpl := sampleTemplate()
	tmpl.Minutiae[3].Reliability = 0.123456789

	data, err := tmpl.Serialize()
	require.NoError(t, err)

	got, err := DeserializeTemplate(data)
	require.NoError(t, err)
	assert.Equal(t, tmpl, got)

	again, err := got.Serialize()
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding is canonical")
}

func TestSerialize_Empty(t *testing.T) {
	tmpl := &Template{Width: 10, Height: 10, Minutiae: []Minutia{}}
	data, err := tmpl.Serialize()
	require.NoError(t, err)

	got, err := DeserializeTemplate(data)
	require.NoError(t, err)
	assert.Empty(t, got.Minutiae)
}

func TestDeserializeTemplate_Invalid(t *testing.T) {
	encode := func(w templateWire) []byte {
		data, err := encMode.Marshal(w)
		require.NoError(t, err)
		return data
	}
	valid := templateWire{Version: templateVersion, Width: 100, Height: 100, DPI: 500}
	with := func(ms ...Minutia) []byte {
		w := valid
		w.Minutiae = ms
		return encode(w)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte{0xff, 0x00}},
		{"wrong shape", func() []byte { b, _ := cbor.Marshal("template"); return b }()},
		{"version", encode(templateWire{Version: 9, Width: 1, Height: 1})},
		{"dimensions", encode(templateWire{Version: templateVersion, Width: 0, Height: 10})},
		{"outside", with(Minutia{X: 100, Y: 5})},
		{"angle", with(Minutia{X: 5, Y: 5, Theta: 360})},
		{"negative angle", with(Minutia{X: 5, Y: 5, Theta: -1})},
		{"type", with(Minutia{X: 5, Y: 5, Type: 7})},
		{"reliability", with(Minutia{X: 5, Y: 5, Reliability: 1.5})},
		{"duplicate position", with(Minutia{X: 5, Y: 5}, Minutia{X: 5, Y: 5, Theta: 90})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeserializeTemplate(tt.data)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}
}

func TestXYT(t *testing.T) {
	tmpl := sampleTemplate()
	var buf bytes.Buffer
	require.NoError(t, tmpl.WriteXYT(&buf))
	assert.Equal(t, len(tmpl.Minutiae), strings.Count(buf.String(), "\n"))

	got, err := ReadXYT(&buf, tmpl.Width, tmpl.Height)
	require.NoError(t, err)
	assert.Equal(t, tmpl.Minutiae, got.Minutiae)
	assert.Zero(t, got.DPI)

	_, err = ReadXYT(strings.NewReader("1 2 3\n"), 10, 10)
	assert.ErrorIs(t, err, ErrInvalidTemplate)
	_, err = ReadXYT(strings.NewReader("50 2 3 40\n"), 10, 10)
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}
