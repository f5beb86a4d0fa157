package main

import (
	"context"
	"fmt"
	"log"

	"github.com/high-horse/fingerprint"
	"github.com/high-horse/fingerprint/config"
)

// logContents writes a line per transparency payload to the server log.
type logContents struct{}

func (logContents) Accepts(key string) bool {
	return true
}

func (logContents) Accept(key, mime string, data []byte) error {
	log.Printf("%d B  %s %s", len(data), mime, key)
	return nil
}

// service holds the extraction and matching state shared by all requests.
type service struct {
	cfg     *config.Config
	logger  *fingerprint.TransparencyLogger
	creator *fingerprint.TemplateCreator
}

func newService(cfg *config.Config, trace bool) (*service, error) {
	var l *fingerprint.TransparencyLogger
	if trace {
		l = fingerprint.NewTransparencyLogger(logContents{})
	}
	creator, err := fingerprint.NewTemplateCreator(cfg, l)
	if err != nil {
		return nil, err
	}
	return &service{
		cfg:     cfg,
		logger:  l,
		creator: creator,
	}, nil
}

func (s *service) template(img *fingerprint.Image) (*fingerprint.Template, error) {
	t, err := s.creator.Template(img)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return t, nil
}

func (s *service) compareTemplates(ctx context.Context, probe, candidate *fingerprint.Template) (fingerprint.MatchResult, error) {
	matcher, err := fingerprint.NewMatcher(s.cfg, s.logger, probe)
	if err != nil {
		return fingerprint.MatchResult{}, fmt.Errorf("failed to create matcher: %w", err)
	}
	return matcher.Match(ctx, candidate)
}

func (s *service) compareImages(ctx context.Context, probeImg, candidateImg *fingerprint.Image) (fingerprint.MatchResult, error) {
	probe, err := s.template(probeImg)
	if err != nil {
		return fingerprint.MatchResult{}, fmt.Errorf("probe: %w", err)
	}
	candidate, err := s.template(candidateImg)
	if err != nil {
		return fingerprint.MatchResult{}, fmt.Errorf("candidate: %w", err)
	}
	return s.compareTemplates(ctx, probe, candidate)
}

func (s *service) identify(ctx context.Context, probe *fingerprint.Template, candidates []*fingerprint.Template) ([]fingerprint.Candidate, error) {
	matcher, err := fingerprint.NewMatcher(s.cfg, s.logger, probe)
	if err != nil {
		return nil, fmt.Errorf("failed to create matcher: %w", err)
	}
	return matcher.Identify(ctx, candidates)
}

func (s *service) isMatch(score float64) bool {
	return score >= s.cfg.Matching.Threshold
}
