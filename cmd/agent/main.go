package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/dgnsrekt/price_agent/internal/api"
	"github.com/dgnsrekt/price_agent/internal/browser"
	"github.com/dgnsrekt/price_agent/internal/cache"
	"github.com/dgnsrekt/price_agent/internal/cdp"
	"github.com/dgnsrekt/price_agent/internal/channel"
	"github.com/dgnsrekt/price_agent/internal/config"
	"github.com/dgnsrekt/price_agent/internal/netutil"
	"github.com/dgnsrekt/price_agent/internal/pageinfo"
	"github.com/dgnsrekt/price_agent/internal/tabsession"
	"github.com/dgnsrekt/price_agent/internal/types"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("agent config loaded",
		"bind_addr", cfg.BindAddr,
		"cdp_url", cfg.CDPURL(),
		"launch_browser", cfg.LaunchBrowser,
		"max_attempts", cfg.MaxAttempts,
		"tab_load_timeout", cfg.TabLoadTimeout,
		"message_timeout", cfg.MessageTimeout,
		"log_level", cfg.LogLevel,
	)

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			ProfileDir: cfg.ProfileDir,
			Headless:   cfg.Headless,
		})
		if err := launcher.Launch(context.Background()); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	cdpClient := cdp.NewClient(cfg.CDPURL())
	if err := cdpClient.Connect(context.Background()); err != nil {
		slog.Error("failed to connect CDP client", "cdp_url", cfg.CDPURL(), "error", err)
		os.Exit(1)
	}
	defer cdpClient.Close()

	provider := tabsession.NewChromeProvider()
	if err := provider.Connect(context.Background(), cfg.CDPURL()); err != nil {
		slog.Error("failed to connect tab provider", "cdp_url", cfg.CDPURL(), "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	transport := channel.NewCDPTransport(cdpClient)
	ch := channel.New(transport, cfg.MessageTimeout)

	ready := func(ctx context.Context, id target.ID) error {
		return ch.Ping(ctx, string(id))
	}
	tabs := tabsession.NewController(provider, ready)

	results := cache.NewStore[types.PageInfo]()
	results.StartSweeper(cfg.CacheSweepEvery)
	defer results.Stop()

	svc := pageinfo.NewService(tabs, ch, results, pageinfo.Config{
		TabLoadTimeout: cfg.TabLoadTimeout,
		MaxAttempts:    cfg.MaxAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		ResultTTL:      cfg.ResultCacheTTL,
		ThrottleWindow: cfg.ThrottleWindow,
	})
	svc.SetReleaser(transport.Release)

	srv := &http.Server{Addr: bindAddr, Handler: api.NewServer(svc)}

	go func() {
		slog.Info("agent listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("agent server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("agent shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
