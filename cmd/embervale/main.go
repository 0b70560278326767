package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/embervale/server/internal/config"
	"github.com/embervale/server/internal/core/event"
	coresys "github.com/embervale/server/internal/core/system"
	"github.com/embervale/server/internal/data"
	"github.com/embervale/server/internal/mailbox"
	gonet "github.com/embervale/server/internal/net"
	"github.com/embervale/server/internal/persist"
	"github.com/embervale/server/internal/resolver"
	"github.com/embervale/server/internal/scripting"
	"github.com/embervale/server/internal/store"
	"github.com/embervale/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Embervale  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     combat & loot resolution server       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("EMBERVALE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations (optional)
	var (
		db            *persist.DB
		accountRepo   *persist.AccountRepo
		inventoryRepo *persist.InventoryRepo
		creditWAL     *persist.CreditWAL
	)
	if cfg.Database.Enabled {
		printSection("database")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err = persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.Migrate(ctx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		cancel()
		printOK("migrations applied")
		fmt.Println()

		accountRepo = persist.NewAccountRepo(db)
		inventoryRepo = persist.NewInventoryRepo(db)
		creditWAL = persist.NewCreditWAL(db)
	}

	// 4. Load data tables
	printSection("data")

	enemyTable, err := data.LoadEnemyTable("data/yaml/enemy_list.yaml")
	if err != nil {
		return fmt.Errorf("load enemy table: %w", err)
	}
	printStat("enemy templates", enemyTable.Count())

	itemTable, err := data.LoadItemTable("data/yaml/item_list.yaml")
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("item templates", itemTable.Count())

	spawnList, err := data.LoadSpawnList("data/yaml/spawn_list.yaml")
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}

	// 5. Lua scripting engine
	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua scripts loaded")

	// 6. Entity store, event bus, resolver deps
	st := store.New()
	bus := event.NewBus()

	deps := &resolver.Deps{
		Store:         st,
		Items:         itemTable,
		Scripting:     luaEngine,
		Bus:           bus,
		Config:        cfg,
		Log:           log,
		InventoryRepo: inventoryRepo,
		CreditWAL:     creditWAL,
	}

	// The normalizer must watch the store before anything spawns.
	resolver.NewNormalizer(deps).Attach()

	spawned := world.SpawnAll(st, enemyTable, spawnList, log)
	printStat("enemies spawned", spawned)
	fmt.Println()

	// 7. Mailboxes and resolver workers
	damageBox := mailbox.New[resolver.DamageRequest, resolver.DamageResult](cfg.Game.MailboxSize)
	pickupBox := mailbox.New[resolver.PickupRequest, resolver.PickupResult](cfg.Game.MailboxSize)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	resolver.NewDamageResolver(deps, damageBox).Run(workerCtx, cfg.Game.ResolverWorkers)
	resolver.NewPickupResolver(deps, pickupBox).Run(workerCtx, cfg.Game.ResolverWorkers)

	// 8. Ticked systems
	runner := coresys.NewRunner()
	runner.Register(coresys.NewEventDispatch(bus))
	runner.Register(resolver.NewVisibilitySweep(deps))
	runner.Register(resolver.NewCreditReplay(deps))

	// 9. Gateway
	gateway := gonet.NewServer(cfg, log, accountRepo, damageBox, pickupBox)
	gateway.AttachBus(bus)
	gateway.Start()

	// 10. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			gateway.Stop(shutdownCtx)
			cancel()
			stopWorkers()

			if path, err := persist.WriteSnapshot("snapshots", st.Export()); err != nil {
				log.Error("snapshot failed", zap.Error(err))
			} else {
				log.Info("world snapshot written", zap.String("path", path))
			}
			log.Info("server stopped")
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
