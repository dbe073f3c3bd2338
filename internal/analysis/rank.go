package analysis

import (
	"sort"

	"renewables-pnl/internal/model"
)

// RankByBasis computes a profile per asset and sorts them worst mean basis first.
func RankByBasis(byAsset map[string][]model.BasisPoint, t Thresholds) []BasisProfile {
	out := make([]BasisProfile, 0, len(byAsset))
	for asset, points := range byAsset {
		if asset == model.UnknownAsset {
			continue
		}
		out = append(out, ComputeProfile(asset, points, t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanBasis != out[j].MeanBasis {
			return out[i].MeanBasis < out[j].MeanBasis
		}
		return out[i].Asset < out[j].Asset
	})
	return out
}
