package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/high-horse/fingerprint"
)

func (s *service) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now(),
	})
}

func (s *service) extract(c *fiber.Ctx) error {
	start := time.Now()

	var req ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	img, err := decodeImage("image", req.Image, req.DPI)
	if err != nil {
		return err
	}
	t, err := s.template(img)
	if err != nil {
		return err
	}
	encoded, err := encodeTemplate(t)
	if err != nil {
		return err
	}
	log.Printf("Extracted %d minutiae from %dx%d image", len(t.Minutiae), img.Width, img.Height)

	return c.JSON(ExtractResponse{
		Width:    t.Width,
		Height:   t.Height,
		DPI:      t.DPI,
		Minutiae: t.Minutiae,
		Template: encoded,
		Elapsed:  time.Since(start).String(),
	})
}

func (s *service) matchImages(c *fiber.Ctx) error {
	start := time.Now()

	var req MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.ProbeImage == "" || req.CandidateImage == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Both probe_image and candidate_image are required")
	}
	probe, err := decodeImage("probe_image", req.ProbeImage, 0)
	if err != nil {
		return err
	}
	candidate, err := decodeImage("candidate_image", req.CandidateImage, 0)
	if err != nil {
		return err
	}

	res, err := s.compareImages(c.UserContext(), probe, candidate)
	if err != nil {
		return err
	}
	return s.respond(c, res, start)
}

func (s *service) matchTemplates(c *fiber.Ctx) error {
	start := time.Now()

	var req MatchTemplatesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	probe, err := decodeTemplate("probe", req.Probe)
	if err != nil {
		return err
	}
	candidate, err := decodeTemplate("candidate", req.Candidate)
	if err != nil {
		return err
	}

	res, err := s.compareTemplates(c.UserContext(), probe, candidate)
	if err != nil {
		return err
	}
	return s.respond(c, res, start)
}

func (s *service) respond(c *fiber.Ctx, res fingerprint.MatchResult, start time.Time) error {
	response := MatchResponse{
		Score:   res.Score,
		Pairs:   res.Pairs,
		IsMatch: s.isMatch(res.Score),
		Elapsed: time.Since(start).String(),
	}
	log.Printf("Fingerprint comparison score: %.2f (%d pairs, match=%t)", res.Score, res.Pairs, response.IsMatch)
	return c.JSON(response)
}

func (s *service) identifyTemplates(c *fiber.Ctx) error {
	start := time.Now()

	var req IdentifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	probe, err := decodeTemplate("probe", req.Probe)
	if err != nil {
		return err
	}
	if len(req.Candidates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "candidates are required")
	}
	candidates := make([]*fingerprint.Template, len(req.Candidates))
	for i, payload := range req.Candidates {
		if candidates[i], err = decodeTemplate("candidates", payload); err != nil {
			return err
		}
	}

	ranked, err := s.identify(c.UserContext(), probe, candidates)
	if err != nil {
		return err
	}
	results := make([]IdentifyResult, len(ranked))
	for i, r := range ranked {
		results[i] = IdentifyResult{Index: r.Index, Score: r.Score, Pairs: r.Pairs, IsMatch: s.isMatch(r.Score)}
	}
	log.Printf("Identified probe against %d candidates", len(candidates))

	return c.JSON(IdentifyResponse{Results: results, Elapsed: time.Since(start).String()})
}
