// Package classify maps record source labels to configured assets.
package classify

import (
	"strings"

	"renewables-pnl/internal/model"
)

// Classifier matches labels against asset patterns in registration order.
//
// Providers report the same physical generation at several rollup levels (main, hedge,
// gen-only); only generation-level labels are counted, everything else is UNKNOWN.
type Classifier struct {
	assets   []*model.Asset
	patterns [][]string
	suffixes []string
	markers  []string
}

// New builds a classifier. suffixes and markers are compared against the label lower-cased
// with all whitespace removed, e.g. "Foo, LLC - Gen" -> "foo,llc-gen" matches suffix "-gen".
func New(assets []*model.Asset, suffixes, markers []string) *Classifier {
	c := &Classifier{
		assets:   assets,
		patterns: make([][]string, len(assets)),
		suffixes: compactAll(suffixes),
		markers:  compactAll(markers),
	}
	for i, a := range assets {
		for _, p := range a.Patterns {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				c.patterns[i] = append(c.patterns[i], p)
			}
		}
	}
	return c
}

// Classify returns the asset key for label, or model.UnknownAsset.
func (c *Classifier) Classify(label string) string {
	if !c.IsGenerationLevel(label) {
		return model.UnknownAsset
	}
	lower := strings.ToLower(label)
	for i, a := range c.assets {
		for _, p := range c.patterns[i] {
			if strings.Contains(lower, p) {
				return a.Key
			}
		}
	}
	return model.UnknownAsset
}

// IsGenerationLevel reports whether label carries a generation-level marker.
func (c *Classifier) IsGenerationLevel(label string) bool {
	compact := compact(label)
	for _, s := range c.suffixes {
		if strings.HasSuffix(compact, s) {
			return true
		}
	}
	for _, m := range c.markers {
		if strings.Contains(compact, m) {
			return true
		}
	}
	return false
}

// Tag classifies every record in place and returns per-asset record counts.
func (c *Classifier) Tag(recs []model.IntervalRecord) map[string]int {
	counts := map[string]int{}
	for i := range recs {
		key := c.Classify(recs[i].Label)
		recs[i].AssetKey = key
		counts[key]++
	}
	return counts
}

func compact(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

func compactAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = compact(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
