package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jtejido/go-wsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/high-horse/fingerprint"
	"github.com/high-horse/fingerprint/config"
)

func testService(t *testing.T) *service {
	t.Helper()
	s, err := newService(config.Default(), false)
	require.NoError(t, err)
	return s
}

func post(t *testing.T, s *service, path string, body any) (*http.Response, []byte) {
	t.Helper()
	app := newApp(s, io.Discard)
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func whorlPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := math.Hypot(float64(x)-cx, float64(y)-cy)
			img.SetGray(x, y, color.Gray{Y: uint8(128 + 100*math.Cos(2*math.Pi*r/8))})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func sampleTemplate(t *testing.T, dx int) string {
	t.Helper()
	pts := [][3]int{
		{40, 50, 30}, {80, 40, 120}, {120, 60, 200}, {160, 45, 310},
		{50, 100, 90}, {100, 95, 10}, {150, 110, 250}, {60, 150, 170},
		{110, 145, 60}, {155, 160, 340}, {30, 170, 280}, {90, 185, 135},
	}
	tmpl := &fingerprint.Template{Width: 220, Height: 200, DPI: 500}
	for _, p := range pts {
		tmpl.Minutiae = append(tmpl.Minutiae, fingerprint.Minutia{X: p[0] + dx, Y: p[1], Theta: p[2], Reliability: 0.9})
	}
	encoded, err := encodeTemplate(tmpl)
	require.NoError(t, err)
	return encoded
}

func TestHealth(t *testing.T) {
	app := newApp(testService(t), io.Discard)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestExtract(t *testing.T) {
	s := testService(t)

	resp, body := post(t, s, "/extract", ExtractRequest{Image: whorlPNG(t, 96, 80)})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out ExtractResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 96, out.Width)
	assert.Equal(t, 80, out.Height)

	data, err := base64.StdEncoding.DecodeString(out.Template)
	require.NoError(t, err)
	tmpl, err := fingerprint.DeserializeTemplate(data)
	require.NoError(t, err)
	assert.Len(t, tmpl.Minutiae, len(out.Minutiae))
}

func TestExtract_WSQ(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = uint8(128 + 100*math.Cos(2*math.Pi*float64(i/64)/8))
	}
	var buf bytes.Buffer
	require.NoError(t, wsq.Encode(&buf, img, nil))

	resp, body := post(t, testService(t), "/extract", ExtractRequest{
		Image: "data:image/wsq;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out ExtractResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 64, out.Width)
	assert.Equal(t, 64, out.Height)
}

func TestExtract_BadInput(t *testing.T) {
	s := testService(t)
	tests := []struct {
		name  string
		image string
		code  int
	}{
		{"missing", "", http.StatusBadRequest},
		{"not base64", "%%%", http.StatusBadRequest},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello")), http.StatusBadRequest},
		{"unsupported media", "data:text/plain;base64,aGVsbG8=", http.StatusUnsupportedMediaType},
		{"malformed data url", "data:image/png;base64", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, s, "/extract", ExtractRequest{Image: tt.image})
			assert.Equal(t, tt.code, resp.StatusCode)
			var out MatchResponse
			require.NoError(t, json.Unmarshal(body, &out))
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestMatchImages(t *testing.T) {
	s := testService(t)
	img := whorlPNG(t, 96, 96)

	resp, body := post(t, s, "/match", MatchRequest{ProbeImage: img, CandidateImage: img})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out MatchResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.GreaterOrEqual(t, out.Score, 0.0)
	assert.Equal(t, out.Score >= s.cfg.Matching.Threshold, out.IsMatch)

	resp, _ = post(t, s, "/match", MatchRequest{ProbeImage: img})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatchTemplates(t *testing.T) {
	s := testService(t)

	resp, body := post(t, s, "/match/templates", MatchTemplatesRequest{
		Probe:     sampleTemplate(t, 0),
		Candidate: sampleTemplate(t, 15),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out MatchResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 12.0, out.Score)
	assert.Equal(t, 12, out.Pairs)
	assert.True(t, out.IsMatch)

	resp, _ = post(t, s, "/match/templates", MatchTemplatesRequest{
		Probe:     sampleTemplate(t, 0),
		Candidate: base64.StdEncoding.EncodeToString([]byte{0xff}),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIdentify(t *testing.T) {
	s := testService(t)
	empty, err := encodeTemplate(&fingerprint.Template{Width: 220, Height: 200})
	require.NoError(t, err)

	resp, body := post(t, s, "/identify", IdentifyRequest{
		Probe:      sampleTemplate(t, 0),
		Candidates: []string{empty, sampleTemplate(t, 10)},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out IdentifyResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Results, 2)
	assert.Equal(t, 1, out.Results[0].Index)
	assert.True(t, out.Results[0].IsMatch)
	assert.Equal(t, 0, out.Results[1].Index)
	assert.False(t, out.Results[1].IsMatch)

	resp, _ = post(t, s, "/identify", IdentifyRequest{Probe: sampleTemplate(t, 0)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNewService_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Extraction.LineLength = 4

	_, err := newService(cfg, false)
	assert.ErrorContains(t, err, "line_length")
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--config", "server.toml", "-v"})
	require.NoError(t, err)
	assert.Equal(t, "server.toml", opts.configPath)
	assert.True(t, opts.version)
	assert.False(t, opts.trace)

	_, err = parseFlags([]string{"--bogus"})
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\naddr = \":8080\"\n"), 0o644))
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestSetupLogging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	defer log.SetOutput(os.Stderr)

	w, err := setupLogging(config.Log{Dir: dir, MaxAge: config.Default().Log.MaxAge, RotationTime: config.Default().Log.RotationTime})
	require.NoError(t, err)
	_, err = io.WriteString(w, "hello\n")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
