package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evdnx/upbot/bot"
	"github.com/evdnx/upbot/config"
	"github.com/evdnx/upbot/exchange"
	"github.com/evdnx/upbot/logger"
	"github.com/evdnx/upbot/risk"
	"github.com/evdnx/upbot/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	metricsAddr := flag.String("metrics", ":9480", "listen address for /metrics, empty to disable")
	dryRun := flag.Bool("dry-run", false, "paper-trade against live market data")
	startCash := flag.Float64("paper-cash", 4_000_000, "starting cash for dry runs")
	flag.Parse()

	log, err := logger.NewZapLogger()
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config_invalid", logger.Err(err))
		os.Exit(1)
	}

	upbit := exchange.NewUpbit(cfg.Credentials.AccessKey, cfg.Credentials.SecretKey)
	var ex exchange.Exchange = upbit
	if *dryRun {
		ex = exchange.NewPaper(upbit, *startCash)
		log.Info("dry_run_enabled", logger.Float64("paper_cash", *startCash))
	} else if err := cfg.RequireCredentials(); err != nil {
		log.Error("config_invalid", logger.Err(err))
		os.Exit(1)
	}

	strat, err := strategy.New(cfg, ex, log)
	if err != nil {
		log.Error("strategy_init_failed", logger.Err(err))
		os.Exit(1)
	}
	engine := risk.NewEngine(ex, cfg.Trade, cfg.Investment, log)

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics_server_failed", logger.Err(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.New(cfg, ex, engine, strat, log).Run(ctx); err != nil {
		log.Error("bot_exited", logger.Err(err))
		os.Exit(1)
	}
}
