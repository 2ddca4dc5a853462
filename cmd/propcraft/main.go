package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/propcraft/server/internal/action"
	"github.com/propcraft/server/internal/config"
	coreevent "github.com/propcraft/server/internal/core/event"
	coresys "github.com/propcraft/server/internal/core/system"
	"github.com/propcraft/server/internal/data"
	"github.com/propcraft/server/internal/handler"
	gonet "github.com/propcraft/server/internal/net"
	"github.com/propcraft/server/internal/net/packet"
	"github.com/propcraft/server/internal/persist"
	"github.com/propcraft/server/internal/pricing"
	"github.com/propcraft/server/internal/scripting"
	"github.com/propcraft/server/internal/system"
	"github.com/propcraft/server/internal/target"
	"github.com/propcraft/server/internal/vis"
	"github.com/propcraft/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
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
	fmt.Println("\033[36;1m  │\033[0m            PropCraft  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     collaborative building · Go server    \033[36;1m│\033[0m")
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
	if p := os.Getenv("PROPCRAFT_CONFIG"); p != "" {
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

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	// 4. Create repositories
	accountRepo := persist.NewAccountRepo(db)
	ledgerRepo := persist.NewLedgerRepo(db)
	placementRepo := persist.NewPlacementRepo(db)
	auditRepo := persist.NewAuditRepo(db, log)

	// 5. Load content and build world state
	printSection("content")

	catalog, err := data.LoadCatalog(cfg.Server.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	printStat("catalog templates", catalog.Count())

	structures, err := data.LoadStructures(cfg.Server.StructurePath, catalog)
	if err != nil {
		return fmt.Errorf("load structures: %w", err)
	}
	printStat("walls", len(structures.Walls))
	printStat("exhibits", len(structures.Exhibits))

	worldState := world.NewState(catalog)
	if err := worldState.LoadStructures(structures); err != nil {
		return fmt.Errorf("install structures: %w", err)
	}

	restored, err := restorePlacements(ctx, worldState, placementRepo, log)
	if err != nil {
		return fmt.Errorf("restore placements: %w", err)
	}
	printStat("placements restored", restored)

	luaEngine, err := scripting.NewEngine(cfg.Server.ScriptsDir, catalog, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua hooks loaded")
	fmt.Println()

	// 6. Build the interaction pipeline
	engine := pricing.NewEngine(cfg.Pricing.Multipliers)
	guard := action.NewGuard(cfg.Locks.TTL)
	limiter := action.NewLimiter(cfg.RateLimit.Enabled,
		action.LimitRule{Window: cfg.RateLimit.Default.Window, Max: cfg.RateLimit.Default.Count},
		limitRules(cfg.RateLimit.Actions))
	results := action.NewResultStore(5 * time.Minute)

	retainRadius := cfg.Interaction.MaxDistance * cfg.Interaction.RetainFactor
	validator := action.NewValidator(
		action.Config{MaxRange: retainRadius},
		worldState, ledgerRepo, engine, guard, limiter, results, log,
	)
	validator.SetHooks(luaEngine)
	validator.SetAuditor(auditRepo)

	checker := vis.NewChecker(vis.Config{
		RaysPerObject:     cfg.Visibility.RaysPerObject,
		MinClearFraction:  cfg.Visibility.MinClearFraction,
		MaxDistance:       retainRadius,
		CacheTTL:          cfg.Visibility.CacheTTL,
		TransparentBlocks: cfg.Visibility.TransparentSurfacesBlock,
	}, worldState, log)

	// 7. Packet registry and handlers
	bus := coreevent.NewBus()
	sessions := gonet.NewSessionStore()
	resultCh := make(chan action.Result, 256)

	deps := &handler.Deps{
		AccountRepo: accountRepo,
		Ledger:      ledgerRepo,
		Config:      cfg,
		Log:         log,
		World:       worldState,
		Sessions:    sessions,
		Validator:   validator,
		ResultCh:    resultCh,
	}
	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, deps)

	// 8. Create network server
	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		cfg.Network.PacketsPerSecond,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 9. Create systems and register with runner
	runner := coresys.NewRunner()
	targeting := system.NewTargetingSystem(
		target.Config{
			MaxDistance:  cfg.Interaction.MaxDistance,
			RetainFactor: cfg.Interaction.RetainFactor,
			SwitchMargin: cfg.Interaction.SwitchMargin,
		},
		worldState, checker, engine, sessions, bus, log,
	)
	deps.OnActionDispatched = targeting.OnActionDispatched

	persistence := system.NewPersistenceSystem(worldState, placementRepo, 10*time.Second, log)

	runner.Register(system.NewInputSystem(netServer, pktReg, sessions, worldState, bus, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(bus, resultCh, sessions, worldState, log))
	runner.Register(targeting)
	runner.Register(system.NewOutputSystem(sessions))
	runner.Register(persistence)
	runner.Register(system.NewCleanupSystem(checker, limiter, results, time.Minute))

	// 10. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			netServer.Shutdown()
			persistence.SaveNow()
			log.Info("server stopped")
			return nil
		}
	}
}

// restorePlacements rebuilds the in-memory placement set from the database.
func restorePlacements(ctx context.Context, ws *world.State, repo *persist.PlacementRepo, log *zap.Logger) (int, error) {
	rows, err := repo.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, row := range rows {
		if err := ws.Restore(row.Instance, row.TemplateID, row.Owner, row.Pos, row.Yaw, row.BaseValue); err != nil {
			log.Warn("skipping unrestorable placement",
				zap.Uint64("instance", uint64(row.Instance)),
				zap.String("template", row.TemplateID),
				zap.Error(err),
			)
			continue
		}
		restored++
	}
	return restored, nil
}

func limitRules(actions map[string]config.ActionRate) map[string]action.LimitRule {
	rules := make(map[string]action.LimitRule, len(actions))
	for name, r := range actions {
		rules[name] = action.LimitRule{Window: r.Window, Max: r.Count}
	}
	return rules
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
