package fingerprint

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spakin/netpbm"

	"github.com/high-horse/fingerprint/internal/blockmap"
	"github.com/high-horse/fingerprint/internal/extract"
	"github.com/high-horse/fingerprint/internal/minutia"
	"github.com/high-horse/fingerprint/internal/raster"
	"github.com/high-horse/fingerprint/internal/xyt"
)

// MIME types of transparency payloads.
const (
	MimeCBOR = "application/cbor"
	MimePGM  = "image/x-portable-graymap"
)

// Transparency keys in addition to the extraction stage names.
const (
	KeyTemplate = "template"
	KeyMatch    = "match"
)

// TransparencyContents receives intermediate data. Accepts is asked first so
// payloads nobody wants are never encoded. Implementations shared by
// concurrent calls, such as Matcher.Identify, must be safe for concurrent use.
type TransparencyContents interface {
	Accepts(key string) bool
	Accept(key, mime string, data []byte) error
}

// TransparencyLogger feeds a TransparencyContents. A nil logger discards
// everything.
type TransparencyLogger struct {
	contents TransparencyContents
}

func NewTransparencyLogger(contents TransparencyContents) *TransparencyLogger {
	return &TransparencyLogger{contents: contents}
}

func (l *TransparencyLogger) accepts(key string) bool {
	return l != nil && l.contents != nil && l.contents.Accepts(key)
}

func (l *TransparencyLogger) logCBOR(key string, v any) error {
	if !l.accepts(key) {
		return nil
	}
	data, err := encMode.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return l.contents.Accept(key, MimeCBOR, data)
}

func (l *TransparencyLogger) logRaster(key string, elapsed time.Duration, b *raster.Binary) error {
	if !l.accepts(key) {
		return nil
	}
	var buf bytes.Buffer
	err := netpbm.Encode(&buf, b.Image(), &netpbm.EncodeOptions{
		Format:   netpbm.PGM,
		MaxValue: 255,
		Comments: []string{"elapsed " + elapsed.String()},
	})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return l.contents.Accept(key, MimePGM, buf.Bytes())
}

type blockPayload struct {
	Elapsed    time.Duration `cbor:"1,keyasint"`
	Tile       int           `cbor:"2,keyasint"`
	Cols       int           `cbor:"3,keyasint"`
	Rows       int           `cbor:"4,keyasint"`
	Foreground []bool        `cbor:"5,keyasint"`
	Directions []int         `cbor:"6,keyasint,omitempty"`
	Confidence []float64     `cbor:"7,keyasint,omitempty"`
	Reliable   []bool        `cbor:"8,keyasint,omitempty"`
}

type minutiaePayload struct {
	Elapsed  time.Duration `cbor:"1,keyasint"`
	Minutiae []Minutia     `cbor:"2,keyasint"`
}

// observer adapts the logger to the extraction stages of an image with the
// given height.
func (l *TransparencyLogger) observer(height, units int) extract.Observer {
	if l == nil || l.contents == nil {
		return nil
	}
	return extract.ObserverFunc(func(stage extract.Stage, elapsed time.Duration, data any) error {
		key := string(stage)
		if !l.accepts(key) {
			return nil
		}
		switch v := data.(type) {
		case *blockmap.Map:
			p := blockPayload{Elapsed: elapsed, Tile: v.Tile, Cols: v.Cols, Rows: v.Rows}
			for _, b := range v.Blocks {
				p.Foreground = append(p.Foreground, b.Foreground)
				if stage == extract.DirectionMap {
					p.Directions = append(p.Directions, b.Direction)
					p.Confidence = append(p.Confidence, b.Confidence)
					p.Reliable = append(p.Reliable, b.Reliable)
				}
			}
			return l.logCBOR(key, p)
		case *raster.Binary:
			return l.logRaster(key, elapsed, v)
		case []minutia.Minutia:
			return l.logCBOR(key, minutiaePayload{Elapsed: elapsed, Minutiae: xyt.Convert(v, height, units)})
		}
		return nil
	})
}
