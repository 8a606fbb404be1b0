// Package pipeline runs the fixed five-stage filter chain over an image buffer:
// grayscale, histogram equalization, Gaussian blur, Canny edges and adaptive
// threshold.
//
// The pipeline is a pure function of its inputs. It keeps no state, starts no
// goroutines and writes nothing; saving a stage is the caller's business.
//
// Per-image threshold pairs are passed explicitly, either directly to Process
// or through a Settings map keyed by item name.
package pipeline
