// Package fingerprint extracts minutiae templates from fingerprint images and
// compares them.
//
// A TemplateCreator turns an Image into a Template: the ridge endings and
// bifurcations of the print in the canonical XYT convention (bottom-left
// origin, angles counter-clockwise from east). A Matcher compares a probe
// Template against candidates and returns a score that does not depend on
// where or at what angle each print was captured. Deciding whether a score is
// a match is left to the caller.
//
// Both types are safe for concurrent use. Configuration is passed explicitly;
// there is no package-level state.
package fingerprint
