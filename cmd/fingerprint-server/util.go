package main

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/high-horse/fingerprint"
)

// supported lists the data URL media types accepted for images.
var supported = []string{
	"image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff",
	"image/wsq", "image/x-wsq", "image/x-portable-graymap", "image/x-portable-anymap",
}

// decodePayload strips an optional data URL header and decodes the base64
// body.
func decodePayload(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid base64 image format")
		}
		meta := parts[0]
		payload = parts[1]

		known := false
		for _, mime := range supported {
			if strings.Contains(meta, mime) {
				known = true
				break
			}
		}
		if !known && !strings.Contains(meta, "application/cbor") {
			return nil, fiber.NewError(fiber.StatusUnsupportedMediaType, "Unsupported image type")
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Failed to decode base64: "+err.Error())
	}
	return decoded, nil
}

// decodeImage turns a base64 image payload into a fingerprint image.
func decodeImage(field, payload string, dpi float64) (*fingerprint.Image, error) {
	if payload == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, field+" is required")
	}
	data, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	img, err := fingerprint.DecodeImage(data)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, field+": "+err.Error())
	}
	img.DPI = dpi
	return img, nil
}

// decodeTemplate turns a base64 CBOR payload into a template.
func decodeTemplate(field, payload string) (*fingerprint.Template, error) {
	if payload == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, field+" is required")
	}
	data, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	t, err := fingerprint.DeserializeTemplate(data)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, field+": "+err.Error())
	}
	return t, nil
}

func encodeTemplate(t *fingerprint.Template) (string, error) {
	data, err := t.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
