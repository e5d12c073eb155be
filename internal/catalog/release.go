// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package catalog

import "sort"

// Release is an OpenStack release codename. Releases are totally ordered;
// the order is fixed by releaseOrder below and never inferred from the
// string value itself.
type Release string

// The fixed, totally-ordered sequence of OpenStack releases this tool
// knows how to upgrade between. New releases are appended here and to
// the shipped CSVs, never inserted out of order.
const (
	Ussuri   Release = "ussuri"
	Victoria Release = "victoria"
	Wallaby  Release = "wallaby"
	Xena     Release = "xena"
	Yoga     Release = "yoga"
	Zed      Release = "zed"
	Antelope Release = "antelope"
	Bobcat   Release = "bobcat"
	Caracal  Release = "caracal"
)

var releaseOrder = []Release{
	Ussuri, Victoria, Wallaby, Xena, Yoga, Zed, Antelope, Bobcat, Caracal,
}

// seriesSupport lists, for each Ubuntu base series, the inclusive range of
// releases it supports. yoga appears in both focal and jammy, which is a
// valid overlap.
var seriesSupport = map[string][2]Release{
	"focal":  {Ussuri, Yoga},
	"jammy":  {Yoga, Caracal},
	"noble":  {Caracal, Caracal},
}

func indexOf(r Release) int {
	for i, v := range releaseOrder {
		if v == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is a known release.
func (r Release) Valid() bool {
	return indexOf(r) >= 0
}

// Less reports whether r sorts before other in the release order.
func (r Release) Less(other Release) bool {
	return indexOf(r) < indexOf(other)
}

// Compare returns -1, 0 or 1 as r is less than, equal to, or greater than
// other. Unknown releases compare as less than any known release, and
// equal to each other; callers should validate with Valid first.
func (r Release) Compare(other Release) int {
	ri, oi := indexOf(r), indexOf(other)
	switch {
	case ri < oi:
		return -1
	case ri > oi:
		return 1
	default:
		return 0
	}
}

// Next returns the release immediately after r in the sequence. The
// second return value is false if r is the last known release, or is not
// a known release at all.
func Next(r Release) (Release, bool) {
	i := indexOf(r)
	if i < 0 || i+1 >= len(releaseOrder) {
		return "", false
	}
	return releaseOrder[i+1], true
}

// Previous returns the release immediately before r in the sequence.
func Previous(r Release) (Release, bool) {
	i := indexOf(r)
	if i <= 0 {
		return "", false
	}
	return releaseOrder[i-1], true
}

// SupportedSeries returns the base series that support release r, sorted
// oldest first.
func SupportedSeries(r Release) []string {
	var out []string
	for series, span := range seriesSupport {
		if !r.Less(span[0]) && !span[1].Less(r) {
			out = append(out, series)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return seriesSupport[out[i]][0].Less(seriesSupport[out[j]][0])
	})
	return out
}

// SupportedUpgrade reports whether current and target are adjacent in the
// release sequence and share at least one supported base series.
func SupportedUpgrade(current, target Release) bool {
	next, ok := Next(current)
	if !ok || next != target {
		return false
	}
	for _, s := range SupportedSeries(current) {
		for _, t := range SupportedSeries(target) {
			if s == t {
				return true
			}
		}
	}
	return false
}
