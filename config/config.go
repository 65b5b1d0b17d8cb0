package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StrategyKind selects the buy-signal generator at deployment time.
type StrategyKind string

const (
	StrategyVolatility    StrategyKind = "volatility"
	StrategyTrendReversal StrategyKind = "trend_reversal"
	StrategyCombined      StrategyKind = "combined"
)

// CombineMode controls how the combined strategy merges its legs:
// AND narrows to higher-confidence entries, OR widens to more frequent ones.
type CombineMode string

const (
	CombineAnd CombineMode = "and"
	CombineOr  CombineMode = "or"
)

// AssetConfig holds the per-asset sell tiers. Percentages are expressed
// the way the exchange UI shows them (1.5 = +1.5%). Immutable once loaded.
type AssetConfig struct {
	Ticker             string  `yaml:"ticker"`
	MinUnit            float64 `yaml:"min_unit"`
	TakeProfitPct      float64 `yaml:"take_profit_pct"`
	ProfitSellFraction float64 `yaml:"profit_sell_fraction"`
	StopLossPct        float64 `yaml:"stop_loss_pct"`
	PartialStopPct     float64 `yaml:"partial_stop_pct"`
	PartialSellFrac    float64 `yaml:"partial_sell_fraction"`
}

// TradeSettings are the process-wide trading limits, read-only after load.
type TradeSettings struct {
	MaxDailyTrades       int     `yaml:"max_daily_trades"`
	TradeIntervalSeconds int     `yaml:"trade_interval_seconds"`
	MinCashBalance       float64 `yaml:"min_cash_balance"`
	MinProfitAbsolute    float64 `yaml:"min_profit_absolute"`
	MinLossAbsolute      float64 `yaml:"min_loss_absolute"`
}

// InvestmentPolicy bounds the notional of a single buy. The floor and
// ceiling are fractions of a fixed total-asset reference, so orders stay
// above exchange minimums and below concentration limits.
type InvestmentPolicy struct {
	TotalAssets      float64 `yaml:"total_assets"`
	PerTradeFraction float64 `yaml:"per_trade_fraction"`
	MinInvestRatio   float64 `yaml:"min_invest_ratio"`
	MaxInvestRatio   float64 `yaml:"max_invest_ratio"`
	FeeHaircut       float64 `yaml:"fee_haircut"`
}

// VolatilitySettings tune the breakout strategy.
type VolatilitySettings struct {
	IntervalMinutes int     `yaml:"interval_minutes"`
	K               float64 `yaml:"k"`
	DynamicK        bool    `yaml:"dynamic_k"`
	DynamicLookback int     `yaml:"dynamic_lookback"`
}

// TrendSettings tune the Heikin-Ashi reversal strategy.
type TrendSettings struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	Lookback        int `yaml:"lookback"`
}

// WindowSettings gate trading to fixed clock hours. Always=true switches
// to continuous trading.
type WindowSettings struct {
	Hours        []int `yaml:"hours"`
	GraceMinutes int   `yaml:"grace_minutes"`
	Always       bool  `yaml:"always"`
}

// Credentials come from the environment, never from the YAML file.
type Credentials struct {
	AccessKey string
	SecretKey string
}

type Config struct {
	Strategy    StrategyKind           `yaml:"strategy"`
	CombineMode CombineMode            `yaml:"combine_mode"`
	Window      WindowSettings         `yaml:"window"`
	Trade       TradeSettings          `yaml:"trade_settings"`
	Investment  InvestmentPolicy       `yaml:"investment"`
	Volatility  VolatilitySettings     `yaml:"volatility"`
	Trend       TrendSettings          `yaml:"trend"`
	Assets      map[string]AssetConfig `yaml:"assets"`

	Credentials Credentials `yaml:"-"`
}

// Load reads the YAML config at path and credentials from the environment.
// A .env file is honored when present but never overrides real env vars.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Credentials = Credentials{
		AccessKey: os.Getenv("UPBIT_ACCESS_KEY"),
		SecretKey: os.Getenv("UPBIT_SECRET_KEY"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config pre-filled with the baseline tuning; Load
// overlays the YAML file on top of it.
func Default() *Config {
	return &Config{
		Strategy:    StrategyCombined,
		CombineMode: CombineOr,
		Window: WindowSettings{
			Hours:        []int{0, 4, 8, 12, 16, 20},
			GraceMinutes: 5,
		},
		Trade: TradeSettings{
			MaxDailyTrades:       20,
			TradeIntervalSeconds: 60,
			MinCashBalance:       5_000,
			MinProfitAbsolute:    10_000,
			MinLossAbsolute:      5_000,
		},
		Investment: InvestmentPolicy{
			TotalAssets:      4_000_000,
			PerTradeFraction: 0.05,
			MinInvestRatio:   0.015,
			MaxInvestRatio:   0.05,
			FeeHaircut:       0.0005,
		},
		Volatility: VolatilitySettings{
			IntervalMinutes: 240,
			K:               0.5,
			DynamicLookback: 20,
		},
		Trend: TrendSettings{
			IntervalMinutes: 60,
			Lookback:        24,
		},
	}
}

// AssetCodes returns the asset keys in a stable deterministic order; the
// loop iterates assets in exactly this order every tick.
func (c *Config) AssetCodes() []string {
	codes := make([]string, 0, len(c.Assets))
	for code := range c.Assets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Validate checks the whole configuration and returns the first problem
// found. A config that fails validation must refuse to start the bot.
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyVolatility, StrategyTrendReversal, StrategyCombined:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	if c.Strategy == StrategyCombined {
		switch c.CombineMode {
		case CombineAnd, CombineOr:
		default:
			return fmt.Errorf("unknown combine_mode %q", c.CombineMode)
		}
	}
	if !c.Window.Always {
		if len(c.Window.Hours) == 0 {
			return errors.New("window.hours cannot be empty unless window.always is set")
		}
		for _, h := range c.Window.Hours {
			if h < 0 || h > 23 {
				return fmt.Errorf("window hour %d out of range", h)
			}
		}
		if c.Window.GraceMinutes <= 0 || c.Window.GraceMinutes > 60 {
			return fmt.Errorf("window.grace_minutes (%d) must be in (0,60]", c.Window.GraceMinutes)
		}
	}
	if c.Trade.MaxDailyTrades <= 0 {
		return errors.New("max_daily_trades must be positive")
	}
	if c.Trade.TradeIntervalSeconds <= 0 {
		return errors.New("trade_interval_seconds must be positive")
	}
	if c.Trade.MinCashBalance < 0 {
		return errors.New("min_cash_balance cannot be negative")
	}
	if c.Trade.MinProfitAbsolute < 0 || c.Trade.MinLossAbsolute < 0 {
		return errors.New("min_profit_absolute and min_loss_absolute cannot be negative")
	}
	if err := c.Investment.validate(); err != nil {
		return err
	}
	if c.Volatility.IntervalMinutes <= 0 || c.Trend.IntervalMinutes <= 0 {
		return errors.New("strategy interval_minutes must be positive")
	}
	if c.Volatility.K <= 0 || c.Volatility.K >= 1 {
		return fmt.Errorf("volatility.k (%f) must be in (0,1)", c.Volatility.K)
	}
	if c.Volatility.DynamicK && c.Volatility.DynamicLookback < 5 {
		return errors.New("volatility.dynamic_lookback must be at least 5")
	}
	if c.Trend.Lookback < 4 {
		return errors.New("trend.lookback must be at least 4")
	}
	if len(c.Assets) == 0 {
		return errors.New("no assets configured")
	}
	for code, a := range c.Assets {
		if err := a.validate(); err != nil {
			return fmt.Errorf("asset %s: %w", code, err)
		}
	}
	return nil
}

func (p InvestmentPolicy) validate() error {
	if p.TotalAssets <= 0 {
		return errors.New("investment.total_assets must be positive")
	}
	if p.PerTradeFraction <= 0 || p.PerTradeFraction > 1 {
		return fmt.Errorf("investment.per_trade_fraction (%f) must be in (0,1]", p.PerTradeFraction)
	}
	if p.MinInvestRatio <= 0 || p.MaxInvestRatio <= 0 || p.MinInvestRatio > p.MaxInvestRatio {
		return errors.New("investment ratios must be positive with min_invest_ratio <= max_invest_ratio")
	}
	if p.FeeHaircut < 0 || p.FeeHaircut >= 0.01 {
		return fmt.Errorf("investment.fee_haircut (%f) must be in [0,0.01)", p.FeeHaircut)
	}
	return nil
}

func (a AssetConfig) validate() error {
	if a.Ticker == "" {
		return errors.New("ticker is required")
	}
	if a.MinUnit <= 0 {
		return errors.New("min_unit must be positive")
	}
	if a.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct (%f) must be positive", a.TakeProfitPct)
	}
	if a.StopLossPct >= 0 {
		return fmt.Errorf("stop_loss_pct (%f) must be negative", a.StopLossPct)
	}
	// The partial stop sits strictly between the full stop and breakeven.
	if a.PartialStopPct <= a.StopLossPct || a.PartialStopPct >= 0 {
		return fmt.Errorf("partial_stop_pct (%f) must be strictly between stop_loss_pct (%f) and 0",
			a.PartialStopPct, a.StopLossPct)
	}
	if a.ProfitSellFraction <= 0 || a.ProfitSellFraction > 1 {
		return fmt.Errorf("profit_sell_fraction (%f) must be in (0,1]", a.ProfitSellFraction)
	}
	if a.PartialSellFrac <= 0 || a.PartialSellFrac > 1 {
		return fmt.Errorf("partial_sell_fraction (%f) must be in (0,1]", a.PartialSellFrac)
	}
	return nil
}

// RequireCredentials rejects missing API keys; call it only when running
// against the live exchange.
func (c *Config) RequireCredentials() error {
	if c.Credentials.AccessKey == "" || c.Credentials.SecretKey == "" {
		return errors.New("UPBIT_ACCESS_KEY and UPBIT_SECRET_KEY must be set")
	}
	return nil
}
