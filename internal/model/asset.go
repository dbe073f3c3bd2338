package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// UnknownAsset is the asset key assigned to records no configured asset claims.
const UnknownAsset = "UNKNOWN"

// AllAssets is the asset key of the combined (grand total) buckets.
const AllAssets = "ALL"

// SettlementMode selects the contractual formula used for an asset.
type SettlementMode string

const (
	// ModeNode settles the PPA at the asset's node: the PPA portion carries all basis.
	ModeNode SettlementMode = "node"
	// ModeHub settles the PPA at the hub: the PPA portion carries no basis.
	ModeHub SettlementMode = "hub"
	// ModeSplit shares the basis between buyer and seller.
	ModeSplit SettlementMode = "split"
	// ModeFixedForFloating is a financial swap: the counterparty pays a fixed price and the
	// asset pays the floating hub price back, on top of its own wholesale settlement.
	ModeFixedForFloating SettlementMode = "fixed_for_floating"
)

// Asset defines the static contractual parameters of one generating asset.
// Units:
// - percents: 0..100
// - PPAPrice: $/MWh
// - CapacityMW: MW (informational)
type Asset struct {
	Key             string
	Name            string
	Patterns        []string
	SettlementPoint string
	Hub             string
	Location        *time.Location

	MerchantPercent      float64
	PPAPercent           float64
	PPAPrice             float64
	BasisExposurePercent float64
	Mode                 SettlementMode

	CapacityMW float64
}

// NewAsset validates an asset definition. A nil location defaults to UTC.
func NewAsset(a Asset) (*Asset, error) {
	if a.Location == nil {
		a.Location = time.UTC
	}
	if a.Mode == "" {
		a.Mode = ModeNode
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *Asset) Validate() error {
	if strings.TrimSpace(a.Key) == "" {
		return errors.New("asset key is required")
	}
	if a.Key == UnknownAsset || a.Key == AllAssets {
		return fmt.Errorf("asset key %q is reserved", a.Key)
	}
	if len(a.Patterns) == 0 {
		return fmt.Errorf("asset %s: at least one label pattern is required", a.Key)
	}
	for _, p := range a.Patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("asset %s: empty label pattern", a.Key)
		}
	}
	if a.MerchantPercent < 0 || a.PPAPercent < 0 {
		return fmt.Errorf("asset %s: merchant_percent and ppa_percent must be >= 0", a.Key)
	}
	if math.Abs(a.MerchantPercent+a.PPAPercent-100) > 1e-9 {
		return fmt.Errorf("asset %s: merchant_percent + ppa_percent must equal 100 (got %.4f)",
			a.Key, a.MerchantPercent+a.PPAPercent)
	}
	if a.BasisExposurePercent < 0 || a.BasisExposurePercent > 100 {
		return fmt.Errorf("asset %s: basis_exposure_percent must be in [0, 100]", a.Key)
	}
	if a.CapacityMW < 0 {
		return fmt.Errorf("asset %s: capacity_mw must be >= 0", a.Key)
	}
	switch a.Mode {
	case ModeNode:
		if a.BasisExposurePercent != 100 {
			return fmt.Errorf("asset %s: node-settled PPA requires basis_exposure_percent=100", a.Key)
		}
	case ModeHub:
		if a.BasisExposurePercent != 0 {
			return fmt.Errorf("asset %s: hub-settled PPA requires basis_exposure_percent=0", a.Key)
		}
	case ModeSplit:
		if a.BasisExposurePercent <= 0 || a.BasisExposurePercent >= 100 {
			return fmt.Errorf("asset %s: split PPA requires 0 < basis_exposure_percent < 100", a.Key)
		}
	case ModeFixedForFloating:
		if a.PPAPercent == 0 {
			return fmt.Errorf("asset %s: fixed_for_floating requires ppa_percent > 0", a.Key)
		}
	default:
		return fmt.Errorf("asset %s: unknown settlement_mode %q", a.Key, a.Mode)
	}
	return nil
}

// DefaultBasisExposure returns the exposure implied by a mode when none is configured.
func DefaultBasisExposure(mode SettlementMode) float64 {
	switch mode {
	case ModeHub:
		return 0
	case ModeSplit:
		return 50
	default:
		return 100
	}
}

// Fractions returns merchant, PPA and basis-exposure shares as 0..1 fractions.
func (a *Asset) Fractions() (m, p, b float64) {
	return a.MerchantPercent / 100, a.PPAPercent / 100, a.BasisExposurePercent / 100
}

// LocalDate returns the asset-local calendar date of t as YYYY-MM-DD.
func (a *Asset) LocalDate(t time.Time) string {
	return t.In(a.loc()).Format(DayLayout)
}

func (a *Asset) loc() *time.Location {
	if a.Location == nil {
		return time.UTC
	}
	return a.Location
}

// In converts t into the asset's timezone.
func (a *Asset) In(t time.Time) time.Time {
	return t.In(a.loc())
}
