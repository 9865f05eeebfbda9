package ipsae

import (
	"math"
	"sort"
	"strconv"
)

// Design is a scored structure from the results tree.
type Design struct {
	// ID is the structure's file name without extension, eg rank01_design_3
	ID string

	// OriginalName is the ID without its rank prefix, eg design_3
	OriginalName string

	// Sequence is the chain sequence, or the designed sequence if there's none
	Sequence string

	// DesignedSequence is the designed_sequence from the metrics table
	DesignedSequence string

	// Score is the ipSAE, +Inf if it couldn't be calculated. Lower is better
	Score float64

	// Rank is the 1-based position after sorting by Score
	Rank int
}

// Rank sorts designs by ascending score and numbers them 1..N. Ties keep
// their input order.
func Rank(designs []*Design) {
	sort.SliceStable(designs, func(i, j int) bool {
		return less(designs[i].Score, designs[j].Score)
	})

	for i, d := range designs {
		d.Rank = i + 1
	}
}

// less orders scores ascending with NaN after everything, +Inf included.
func less(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

// formatScore writes a score with prec decimal places. Non-finite scores
// are written as "inf", "-inf" and "nan". A negative prec uses the fewest
// digits needed, keeping a trailing ".0" on whole numbers (2 -> "2.0").
func formatScore(score float64, prec int) string {
	switch {
	case math.IsInf(score, 1):
		return "inf"
	case math.IsInf(score, -1):
		return "-inf"
	case math.IsNaN(score):
		return "nan"
	}
	if prec < 0 {
		return pyFloat(score)
	}
	return strconv.FormatFloat(score, 'f', prec, 64)
}
