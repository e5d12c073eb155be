// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package catalog is the release catalog (C1): static, frozen-at-load
// knowledge of charm workload-version ranges, channel tracks, ceph
// release mapping and charm classification. Nothing in this package
// mutates after Load returns.
package catalog

import (
	"embed"
	"encoding/csv"
	"io"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/version/v2"
)

//go:embed data/*.csv
var embeddedData embed.FS

// Catalog is the frozen release catalog. The zero value is not usable;
// construct one with Load or LoadDefault.
type Catalog struct {
	charms          map[string]Descriptor
	trackMap        map[TrackKey]string
	cephRanges      []cephVersionRange
	cephToOpenStack map[string]Release
}

type cephVersionRange struct {
	charm, lower, upper string
	cephRelease         string
}

// LoadDefault loads the catalog from the CSVs shipped inside the binary.
func LoadDefault() (*Catalog, error) {
	lookup, err := embeddedData.Open("data/openstack_lookup.csv")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer lookup.Close()

	tracks, err := embeddedData.Open("data/openstack_to_track_mapping.csv")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer tracks.Close()

	cephLookup, err := embeddedData.Open("data/ceph_lookup.csv")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer cephLookup.Close()

	cephToOS, err := embeddedData.Open("data/ceph_to_openstack.csv")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer cephToOS.Close()

	return Load(lookup, tracks, cephLookup, cephToOS)
}

// Load builds a Catalog from the four lookup tables. The
// charm→category classification and the long-idle-set are seeded with
// builtinClassification rather than a CSV, since only workload-version
// and track data is CSV-driven.
func Load(openstackLookup, trackMapping, cephLookup, cephToOpenStack io.Reader) (*Catalog, error) {
	c := &Catalog{
		charms:          map[string]Descriptor{},
		trackMap:        map[TrackKey]string{},
		cephToOpenStack: map[string]Release{},
	}
	for name, seed := range builtinClassification {
		c.charms[name] = seed
	}

	if err := c.readOpenStackLookup(openstackLookup); err != nil {
		return nil, errors.Annotate(err, "reading openstack_lookup.csv")
	}
	if err := c.readTrackMapping(trackMapping); err != nil {
		return nil, errors.Annotate(err, "reading openstack_to_track_mapping.csv")
	}
	if err := c.readCephLookup(cephLookup); err != nil {
		return nil, errors.Annotate(err, "reading ceph_lookup.csv")
	}
	if err := c.readCephToOpenStack(cephToOpenStack); err != nil {
		return nil, errors.Annotate(err, "reading ceph_to_openstack.csv")
	}
	return c, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty CSV")
	}
	return rows[1:], nil // drop header
}

func (c *Catalog) readOpenStackLookup(r io.Reader) error {
	rows, err := readCSV(r)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) != 4 {
			return errors.Errorf("malformed row %v", row)
		}
		name, lower, upper, release := row[0], row[1], row[2], Release(row[3])
		d := c.charms[name]
		d.Name = name
		if d.Category == CategoryUnknown {
			d.Category = ControlPlanePrincipal
		}
		d.VersionRanges = append(d.VersionRanges, VersionRange{Lower: lower, Upper: upper, Release: release})
		c.charms[name] = d
	}
	return nil
}

func (c *Catalog) readTrackMapping(r io.Reader) error {
	rows, err := readCSV(r)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) != 3 {
			return errors.Errorf("malformed row %v", row)
		}
		series, release, track := row[0], Release(row[1]), row[2]
		c.trackMap[TrackKey{Series: series, Release: release}] = track
	}
	return nil
}

func (c *Catalog) readCephLookup(r io.Reader) error {
	rows, err := readCSV(r)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) != 4 {
			return errors.Errorf("malformed row %v", row)
		}
		c.cephRanges = append(c.cephRanges, cephVersionRange{
			charm: row[0], lower: row[1], upper: row[2], cephRelease: row[3],
		})
	}
	return nil
}

func (c *Catalog) readCephToOpenStack(r io.Reader) error {
	rows, err := readCSV(r)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if len(row) != 2 {
			return errors.Errorf("malformed row %v", row)
		}
		c.cephToOpenStack[row[0]] = Release(row[1])
	}
	return nil
}

// Charm returns the descriptor for name. An unknown charm is a hard
// error: an unknown charm name aborts analysis unless explicitly
// skipped by configuration — the caller
// (the analyzer) decides whether to downgrade it to a warning.
func (c *Catalog) Charm(name string) (Descriptor, error) {
	d, ok := c.charms[name]
	if !ok {
		return Descriptor{}, errors.NotFoundf("charm %q in release catalog", name)
	}
	return d, nil
}

// ReleaseOf locates the release whose [Lower, Upper) range contains
// workloadVersion for charm, using semantic-version comparison of the
// numeric MAJOR.MINOR.PATCH components and ignoring trailing pre-release
// tags. An empty result is "unknown", not an error.
func ReleaseOf(d Descriptor, workloadVersion string) (Release, bool) {
	v, err := parseVersion(workloadVersion)
	if err != nil {
		return "", false
	}
	for i, rng := range d.VersionRanges {
		lower, err := parseVersion(rng.Lower)
		if err != nil {
			continue
		}
		if v.Compare(lower) < 0 {
			continue
		}
		upperStr := rng.Upper
		if upperStr == "" && i+1 < len(d.VersionRanges) {
			upperStr = d.VersionRanges[i+1].Lower
		}
		if upperStr != "" {
			upper, err := parseVersion(upperStr)
			if err == nil && v.Compare(upper) >= 0 {
				continue
			}
		}
		return rng.Release, true
	}
	return "", false
}

// CephReleaseOf resolves a ceph-family charm's workload-version to a ceph
// release codename, then maps it through to an OpenStack release
// (e.g. octopus → ussuri).
func (c *Catalog) CephReleaseOf(charmName, workloadVersion string) (Release, bool) {
	v, err := parseVersion(workloadVersion)
	if err != nil {
		return "", false
	}
	for _, rng := range c.cephRanges {
		if rng.charm != charmName {
			continue
		}
		lower, err := parseVersion(rng.lower)
		if err != nil {
			continue
		}
		if v.Compare(lower) < 0 {
			continue
		}
		if rng.upper != "" {
			upper, err := parseVersion(rng.upper)
			if err == nil && v.Compare(upper) >= 0 {
				continue
			}
		}
		osRelease, ok := c.cephToOpenStack[rng.cephRelease]
		return osRelease, ok
	}
	return "", false
}

// TargetChannel computes the (track, risk) pair a charm should be
// switched to for (series, target). Risk always defaults to
// "stable"; the Upgrader switches tracks, never risks.
func (c *Catalog) TargetChannel(d Descriptor, series string, target Release) (track, risk string, err error) {
	risk = "stable"
	if d.IsOpenStackPrincipal() {
		return string(target), risk, nil
	}
	if d.Category == CephFamily {
		cephRelease, ok := c.cephReleaseFor(target)
		if !ok {
			return "", "", errors.NotFoundf("ceph release for OpenStack release %q", target)
		}
		return cephRelease, risk, nil
	}
	if channel, ok := d.TrackMap[TrackKey{Series: series, Release: target}]; ok {
		// Descriptor TrackMap entries are written as "track/risk"
		// channels; only the track part is returned.
		t, _, _ := strings.Cut(channel, "/")
		return t, risk, nil
	}
	if track, ok := c.trackMap[TrackKey{Series: series, Release: target}]; ok {
		return track, risk, nil
	}
	return "", "", errors.NotFoundf("track for charm %q, series %q, release %q", d.Name, series, target)
}

// cephReleaseFor reverse-looks-up cephToOpenStack to find the ceph
// release codename that maps to an OpenStack release — the inverse of
// CephReleaseOf, used to compute a ceph channel track from the plan's
// OpenStack target.
func (c *Catalog) cephReleaseFor(osRelease Release) (string, bool) {
	for cephRelease, mapped := range c.cephToOpenStack {
		if mapped == osRelease {
			return cephRelease, true
		}
	}
	return "", false
}

// Classify returns the charm's category (control-plane-principal,
// data-plane-subordinate, ...).
func (c *Catalog) Classify(charmName string) (Category, error) {
	d, err := c.Charm(charmName)
	if err != nil {
		return CategoryUnknown, err
	}
	return d.Category, nil
}

func parseVersion(s string) (version.Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return version.Number{}, errors.New("empty version")
	}
	// workload-version strings may carry a trailing pre-release or build
	// tag (e.g. "21.0.0~rc1"); version.Parse rejects such a tag, so it is
	// cut off first and only MAJOR.MINOR.PATCH is parsed.
	if i := strings.IndexAny(s, "~-+"); i >= 0 {
		s = s[:i]
	}
	return version.Parse(s)
}
