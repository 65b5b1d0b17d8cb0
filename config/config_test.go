package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validAsset() AssetConfig {
	return AssetConfig{
		Ticker:             "KRW-BTC",
		MinUnit:            0.00008,
		TakeProfitPct:      1.5,
		ProfitSellFraction: 0.6,
		StopLossPct:        -2.0,
		PartialStopPct:     -1.2,
		PartialSellFrac:    0.4,
	}
}

func validConfig() *Config {
	cfg := Default()
	cfg.Assets = map[string]AssetConfig{"BTC": validAsset()}
	return cfg
}

func TestValidateSuccess(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

/*
-----------------------------------------------------------------------
The partial stop must sit strictly between the full stop and breakeven:
equal to either bound, or outside, is rejected.
-----------------------------------------------------------------------
*/
func TestValidateRejectsBadPartialStop(t *testing.T) {
	for _, partial := range []float64{-2.0, 0, 0.5, -3.0} {
		cfg := validConfig()
		a := cfg.Assets["BTC"]
		a.PartialStopPct = partial
		cfg.Assets["BTC"] = a
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error for partial_stop_pct=%v", partial)
		}
	}
}

func TestValidateRejectsBadFractions(t *testing.T) {
	cfg := validConfig()
	a := cfg.Assets["BTC"]
	a.ProfitSellFraction = 0
	cfg.Assets["BTC"] = a
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero profit_sell_fraction")
	}

	cfg = validConfig()
	a = cfg.Assets["BTC"]
	a.PartialSellFrac = 1.1
	cfg.Assets["BTC"] = a
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for partial_sell_fraction > 1")
	}
}

func TestValidateRejectsNonPositiveMinUnit(t *testing.T) {
	cfg := validConfig()
	a := cfg.Assets["BTC"]
	a.MinUnit = 0
	cfg.Assets["BTC"] = a
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for min_unit=0")
	}
}

func TestValidateRejectsEmptyAssets(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty asset map")
	}
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := validConfig()
	cfg.Strategy = "martingale"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

// AssetCodes must return a stable deterministic order regardless of map
// iteration order.
func TestAssetCodesStableOrder(t *testing.T) {
	cfg := validConfig()
	cfg.Assets["ETH"] = validAsset()
	cfg.Assets["ETC"] = validAsset()
	codes := cfg.AssetCodes()
	want := []string{"BTC", "ETC", "ETH"}
	for i, w := range want {
		if codes[i] != w {
			t.Fatalf("unexpected order %v, want %v", codes, want)
		}
	}
}

func TestLoadOverlaysYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
strategy: trend_reversal
trade_settings:
  max_daily_trades: 5
assets:
  BTC:
    ticker: KRW-BTC
    min_unit: 0.00008
    take_profit_pct: 1.5
    profit_sell_fraction: 0.6
    stop_loss_pct: -2.0
    partial_stop_pct: -1.2
    partial_sell_fraction: 0.4
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UPBIT_ACCESS_KEY", "ak")
	t.Setenv("UPBIT_SECRET_KEY", "sk")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Strategy != StrategyTrendReversal {
		t.Fatalf("strategy not overlaid: %v", cfg.Strategy)
	}
	if cfg.Trade.MaxDailyTrades != 5 {
		t.Fatalf("max_daily_trades not overlaid: %d", cfg.Trade.MaxDailyTrades)
	}
	// Untouched fields keep their defaults.
	if cfg.Trade.TradeIntervalSeconds != 60 {
		t.Fatalf("default trade_interval lost: %d", cfg.Trade.TradeIntervalSeconds)
	}
	if cfg.Credentials.AccessKey != "ak" || cfg.Credentials.SecretKey != "sk" {
		t.Fatal("credentials not read from environment")
	}
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("credentials should be accepted: %v", err)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("assets: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for empty assets")
	}
}
