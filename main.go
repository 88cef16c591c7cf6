package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/solquest/client"
	"github.com/cppla/solquest/config"
	"github.com/cppla/solquest/controllers"
	"github.com/cppla/solquest/engine"
	"github.com/cppla/solquest/routes"
	"github.com/cppla/solquest/utils"
	"github.com/cppla/solquest/wallet"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()
	log := utils.Sugar

	// Access log goes to its own rolling file so request noise stays out of
	// the application log.
	accessLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Logger.Fatal("access logger init failed", zap.Error(err))
	}

	backend := client.New(client.Options{
		BaseURL:       cfg.BackendBaseURL,
		Timeout:       time.Duration(cfg.BackendTimeoutSec) * time.Second,
		RatePerMinute: cfg.BackendRatePerMin,
		CacheTTL:      time.Duration(cfg.UserCacheTTLMin) * time.Minute,
		MirrorToRedis: cfg.RedisHost != "",
	}, log)

	provider := wallet.NewLocalProvider(cfg.WalletKeypairPath, cfg.WalletAutoConnect)
	session := engine.NewSession(cfg.InviterAddress)
	bus := engine.NewBus()
	notices := engine.NewNoticeLog(log, 50)

	bus.Subscribe(func(evt engine.UserDataEvent) {
		if evt.Record == nil {
			log.Infow("user data cleared", "at", evt.Timestamp)
			return
		}
		log.Infow("user data updated",
			"wallet", evt.Record.WalletAddress,
			"points", evt.Record.Points,
			"at", evt.Timestamp,
		)
	})

	orch := engine.NewOrchestrator(session, provider, backend, bus, notices, log, engine.Options{
		ConfirmDelay: time.Duration(cfg.ConfirmDelaySec) * time.Second,
		PlayPriceSOL: cfg.PlayPriceSOL,
		OpenURL: func(url string) {
			log.Infow("task target opened", "url", url)
		},
	})

	// Eager connect: silently restore a trusted wallet at boot, like the page
	// did on load. Any failure just leaves the session logged out.
	if cfg.WalletAutoConnect {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if address, err := provider.Connect(ctx, true); err == nil {
			session.Connect(address)
			session.SetFlags(engine.Flags{PresaleOnly: cfg.PresaleOnly})
			log.Infow("wallet auto-connected", "wallet", address)
		}
		cancel()
	}

	router := routes.SetupRouter(cfg, accessLogger, routes.Controllers{
		Auth:        controllers.NewAuthController(provider, backend, session, bus),
		Tasks:       controllers.NewTasksController(orch, backend),
		Leaderboard: controllers.NewLeaderboardController(backend),
		Play:        controllers.NewPlayController(orch, session, backend, notices),
	})

	addr := ":" + cfg.AppPort
	log.Infow("gateway starting", "addr", addr, "mode", cfg.GinMode)
	if err := utils.GraceServer(addr, router); err != nil {
		utils.Logger.Fatal("server exited", zap.Error(err))
	}
}
