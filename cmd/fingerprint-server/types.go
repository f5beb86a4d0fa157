package main

import "github.com/high-horse/fingerprint"

type ExtractRequest struct {
	Image string `json:"image"`
	// DPI of the scan; zero assumes the configured resolution.
	DPI float64 `json:"dpi"`
}

type ExtractResponse struct {
	Width    int                   `json:"width"`
	Height   int                   `json:"height"`
	DPI      float64               `json:"dpi"`
	Minutiae []fingerprint.Minutia `json:"minutiae"`
	Template string                `json:"template"`
	Elapsed  string                `json:"elapsed"`
}

type MatchRequest struct {
	ProbeImage     string `json:"probe_image"`
	CandidateImage string `json:"candidate_image"`
}

type MatchTemplatesRequest struct {
	Probe     string `json:"probe"`
	Candidate string `json:"candidate"`
}

type MatchResponse struct {
	Score   float64 `json:"score"`
	Pairs   int     `json:"pairs"`
	IsMatch bool    `json:"is_match"`
	Elapsed string  `json:"elapsed,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type IdentifyRequest struct {
	Probe      string   `json:"probe"`
	Candidates []string `json:"candidates"`
}

type IdentifyResult struct {
	Index   int     `json:"index"`
	Score   float64 `json:"score"`
	Pairs   int     `json:"pairs"`
	IsMatch bool    `json:"is_match"`
}

type IdentifyResponse struct {
	Results []IdentifyResult `json:"results"`
	Elapsed string           `json:"elapsed"`
}
