package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"renewables-pnl/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load asset definitions from a separate YAML (e.g. examples/assets.yaml).
	// Assets listed inline are appended after the file's assets, so the file wins on
	// ambiguous label matches.
	AssetsFile string        `yaml:"assets_file"`
	Assets     []AssetConfig `yaml:"assets"`

	Timezone        string   `yaml:"timezone"`
	BackfillStart   string   `yaml:"backfill_start"`
	RefreshInterval Duration `yaml:"refresh_interval"`
	FailureBackoff  Duration `yaml:"failure_backoff"`
	RequestTimeout  Duration `yaml:"request_timeout"`
	LookbackDays    int      `yaml:"lookback_days"`
	// UnknownHub is the hub UNKNOWN records settle against. Defaults to the first asset's hub.
	UnknownHub string `yaml:"unknown_hub"`

	Classifier ClassifierConfig `yaml:"classifier"`
	Pricing    PricingConfig    `yaml:"pricing"`
	WorstBasis WorstBasisConfig `yaml:"worst_basis"`
	Alerts     AlertConfig      `yaml:"alerts"`

	Sources    []SourceConfig     `yaml:"sources"`
	Historical []HistoricalImport `yaml:"historical"`
	Storage    StorageConfig      `yaml:"storage"`
	Server     ServerConfig       `yaml:"server"`
	LogLevel   string             `yaml:"log_level"`
}

type AssetConfig struct {
	Key                  string   `yaml:"key"`
	Name                 string   `yaml:"name"`
	Patterns             []string `yaml:"patterns"`
	SettlementPoint      string   `yaml:"settlement_point"`
	Hub                  string   `yaml:"hub"`
	Timezone             string   `yaml:"timezone"`
	MerchantPercent      float64  `yaml:"merchant_percent"`
	PPAPercent           float64  `yaml:"ppa_percent"`
	PPAPrice             float64  `yaml:"ppa_price"`
	BasisExposurePercent *float64 `yaml:"basis_exposure_percent"`
	SettlementMode       string   `yaml:"settlement_mode"`
	CapacityMW           float64  `yaml:"capacity_mw"`
}

type ClassifierConfig struct {
	GenSuffixes []string `yaml:"gen_suffixes"`
	GenMarkers  []string `yaml:"gen_markers"`
}

type PricingConfig struct {
	NearestTolerance Duration `yaml:"nearest_tolerance"`
	CacheTTL         Duration `yaml:"cache_ttl"`
	ResponseTTL      Duration `yaml:"response_ttl"`
}

type WorstBasisConfig struct {
	Asset      string `yaml:"asset"`
	TopK       int    `yaml:"top_k"`
	MaxEntries int    `yaml:"max_entries"`
}

type AlertConfig struct {
	CautionBelow float64 `yaml:"caution_below"`
	AlertBelow   float64 `yaml:"alert_below"`
	HistorySize  int     `yaml:"history_size"`
}

// SourceConfig describes one upstream record source and the independent hub feed used to
// reconcile its prices.
type SourceConfig struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"` // "timeseries" | "vendor"
	BaseURL  string   `yaml:"base_url"`
	TokenEnv string   `yaml:"token_env"`
	Market   string   `yaml:"market"` // reference timezone of the market, e.g. America/Chicago
	Interval Duration `yaml:"interval"`
	Backoff  Duration `yaml:"backoff"`

	// timeseries
	Elements []string `yaml:"elements"`
	Metrics  []string `yaml:"metrics"`

	// vendor
	Asset           string `yaml:"asset"`
	Label           string `yaml:"label"`
	SettlementPoint string `yaml:"settlement_point"`
	PreferHourly    bool   `yaml:"prefer_hourly"`

	HubFeed HubFeedConfig `yaml:"hub_feed"`
}

type HubFeedConfig struct {
	Kind     string `yaml:"kind"` // "gridstatus" | "gridoperator" | ""
	BaseURL  string `yaml:"base_url"`
	KeyEnv   string `yaml:"key_env"`
	Dataset  string `yaml:"dataset"`
	Location string `yaml:"location"`
	PnodeID  int64  `yaml:"pnode_id"`
}

type HistoricalImport struct {
	Asset    string  `yaml:"asset"`
	Path     string  `yaml:"path"`
	PPAPrice float64 `yaml:"ppa_price"`
}

type StorageConfig struct {
	Kind          string `yaml:"kind"` // "file" | "redis" | "postgres" | "memory"
	Dir           string `yaml:"dir"`
	Key           string `yaml:"key"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	PostgresDSN   string `yaml:"postgres_dsn"`

	ClickHouseAddr     string `yaml:"clickhouse_addr"`
	ClickHouseUsername string `yaml:"clickhouse_username"`
	ClickHousePassword string `yaml:"clickhouse_password"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Duration accepts Go duration strings ("2m", "90s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.AssetsFile != "" {
		assetsPath := c.AssetsFile
		if !filepath.IsAbs(assetsPath) {
			// Prefer interpreting relative paths as relative to the config file directory,
			// but fall back to the provided path (relative to cwd) if that doesn't exist.
			cand := filepath.Join(filepath.Dir(path), assetsPath)
			if _, err := os.Stat(cand); err == nil {
				assetsPath = cand
			}
		}
		loaded, err := loadAssetsFile(assetsPath)
		if err != nil {
			return nil, err
		}
		c.Assets = MergeAssets(loaded, c.Assets)
	}
	return &c, nil
}

// ApplyDefaults fills unset fields. The refresh cadence mirrors the poller this replaces:
// every two minutes, one minute after a failure.
func (c *Config) ApplyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "America/Chicago"
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = Duration(2 * time.Minute)
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = Duration(time.Minute)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = Duration(30 * time.Second)
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = 3
	}
	if c.UnknownHub == "" && len(c.Assets) > 0 {
		c.UnknownHub = c.Assets[0].Hub
	}
	if len(c.Classifier.GenSuffixes) == 0 {
		c.Classifier.GenSuffixes = []string{"-gen"}
	}
	if len(c.Classifier.GenMarkers) == 0 {
		c.Classifier.GenMarkers = []string{"-generation"}
	}
	if c.Pricing.NearestTolerance == 0 {
		c.Pricing.NearestTolerance = Duration(time.Minute)
	}
	if c.Pricing.CacheTTL == 0 {
		c.Pricing.CacheTTL = Duration(24 * time.Hour)
	}
	if c.Pricing.ResponseTTL == 0 {
		c.Pricing.ResponseTTL = Duration(5 * time.Minute)
	}
	if c.WorstBasis.TopK == 0 {
		c.WorstBasis.TopK = 10
	}
	if c.WorstBasis.MaxEntries == 0 {
		c.WorstBasis.MaxEntries = 96
	}
	if c.Alerts.CautionBelow == 0 && c.Alerts.AlertBelow == 0 {
		c.Alerts.AlertBelow = -100
	}
	if c.Alerts.HistorySize == 0 {
		c.Alerts.HistorySize = 100
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = "file"
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "./data"
	}
	if c.Storage.Key == "" {
		c.Storage.Key = "pnl_snapshot"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Interval == 0 {
			s.Interval = c.RefreshInterval
		}
		if s.Backoff == 0 {
			s.Backoff = c.FailureBackoff
		}
		if s.Market == "" {
			s.Market = c.Timezone
		}
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.Assets) == 0 {
		return errors.New("at least one asset is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.BackfillStart != "" {
		if _, err := time.Parse(model.DayLayout, c.BackfillStart); err != nil {
			return fmt.Errorf("backfill_start must be YYYY-MM-DD: %w", err)
		}
	}
	if c.LookbackDays < 2 {
		// The worst-basis tracker needs yesterday's complete day in every fresh window.
		return errors.New("lookback_days must be >= 2")
	}
	assets, err := c.ModelAssets()
	if err != nil {
		return err
	}
	keys := map[string]bool{}
	for _, a := range assets {
		keys[a.Key] = true
	}
	if c.WorstBasis.Asset != "" && !keys[c.WorstBasis.Asset] {
		return fmt.Errorf("worst_basis.asset %q is not a configured asset", c.WorstBasis.Asset)
	}
	if c.WorstBasis.MaxEntries < 1 || c.WorstBasis.TopK < 1 {
		return errors.New("worst_basis.top_k and max_entries must be >= 1")
	}
	names := map[string]bool{}
	for _, s := range c.Sources {
		if s.Name == "" {
			return errors.New("source name is required")
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true
		switch s.Kind {
		case "timeseries":
		case "vendor":
			if s.Asset == "" || !keys[s.Asset] {
				return fmt.Errorf("source %s: vendor sources need a configured asset", s.Name)
			}
		default:
			return fmt.Errorf("source %s: unsupported kind %q", s.Name, s.Kind)
		}
		switch s.HubFeed.Kind {
		case "", "gridstatus", "gridoperator":
		default:
			return fmt.Errorf("source %s: unsupported hub_feed kind %q", s.Name, s.HubFeed.Kind)
		}
		if _, err := time.LoadLocation(s.Market); err != nil {
			return fmt.Errorf("source %s: invalid market timezone: %w", s.Name, err)
		}
	}
	for _, h := range c.Historical {
		if !keys[h.Asset] {
			return fmt.Errorf("historical import for unknown asset %q", h.Asset)
		}
	}
	switch c.Storage.Kind {
	case "file", "redis", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported storage kind %q", c.Storage.Kind)
	}
	return nil
}

// ModelAssets converts and validates every asset, preserving configuration order.
func (c *Config) ModelAssets() ([]*model.Asset, error) {
	out := make([]*model.Asset, 0, len(c.Assets))
	seen := map[string]bool{}
	for _, ac := range c.Assets {
		a, err := ac.ToModel(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("asset config invalid: %w", err)
		}
		if seen[a.Key] {
			return nil, fmt.Errorf("duplicate asset key %q", a.Key)
		}
		seen[a.Key] = true
		out = append(out, a)
	}
	return out, nil
}

// ToModel builds a validated model.Asset. defaultTZ is used when the asset sets none.
func (a AssetConfig) ToModel(defaultTZ string) (*model.Asset, error) {
	tz := a.Timezone
	if tz == "" {
		tz = defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("asset %s: invalid timezone %q: %w", a.Key, tz, err)
	}
	mode := model.SettlementMode(a.SettlementMode)
	if mode == "" {
		mode = model.ModeNode
	}
	exposure := model.DefaultBasisExposure(mode)
	if a.BasisExposurePercent != nil {
		exposure = *a.BasisExposurePercent
	}
	return model.NewAsset(model.Asset{
		Key:                  a.Key,
		Name:                 a.Name,
		Patterns:             a.Patterns,
		SettlementPoint:      a.SettlementPoint,
		Hub:                  a.Hub,
		Location:             loc,
		MerchantPercent:      a.MerchantPercent,
		PPAPercent:           a.PPAPercent,
		PPAPrice:             a.PPAPrice,
		BasisExposurePercent: exposure,
		Mode:                 mode,
		CapacityMW:           a.CapacityMW,
	})
}

// BackfillStartTime returns the configured backfill start in loc, or the zero time.
func (c *Config) BackfillStartTime(loc *time.Location) time.Time {
	if c.BackfillStart == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(model.DayLayout, c.BackfillStart, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

type assetsFileWrapper struct {
	Assets []AssetConfig `yaml:"assets"`
}

func loadAssetsFile(path string) ([]AssetConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w assetsFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return w.Assets, nil
}

// MergeAssets overlays inline asset definitions onto the ones loaded from a file.
// An inline asset with the same key replaces the file's non-zero fields; new keys are appended.
func MergeAssets(base, override []AssetConfig) []AssetConfig {
	out := append([]AssetConfig(nil), base...)
	index := map[string]int{}
	for i, a := range out {
		index[a.Key] = i
	}
	for _, o := range override {
		i, ok := index[o.Key]
		if !ok {
			index[o.Key] = len(out)
			out = append(out, o)
			continue
		}
		out[i] = mergeAsset(out[i], o)
	}
	return out
}

func mergeAsset(base, override AssetConfig) AssetConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if len(override.Patterns) > 0 {
		out.Patterns = override.Patterns
	}
	if override.SettlementPoint != "" {
		out.SettlementPoint = override.SettlementPoint
	}
	if override.Hub != "" {
		out.Hub = override.Hub
	}
	if override.Timezone != "" {
		out.Timezone = override.Timezone
	}
	// Percent splits travel together; overriding one without the other breaks the 100% sum.
	if override.MerchantPercent != 0 || override.PPAPercent != 0 {
		out.MerchantPercent = override.MerchantPercent
		out.PPAPercent = override.PPAPercent
	}
	if override.PPAPrice != 0 {
		out.PPAPrice = override.PPAPrice
	}
	if override.BasisExposurePercent != nil {
		out.BasisExposurePercent = override.BasisExposurePercent
	}
	if override.SettlementMode != "" {
		out.SettlementMode = override.SettlementMode
	}
	if override.CapacityMW != 0 {
		out.CapacityMW = override.CapacityMW
	}
	return out
}
