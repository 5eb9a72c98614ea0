package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"sociograph/config"
	"sociograph/core/state"
	"sociograph/crypto"
	"sociograph/native/feecollect"
	"sociograph/native/hub"
	"sociograph/native/modules"
	"sociograph/observability"
	"sociograph/observability/logging"
	"sociograph/rpc"
	"sociograph/storage"
)

const envVar = "SOC_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	allowMigrateFlag := flag.Bool("allow-migrate", false, "Allow starting with a mismatched state schema (manual migrations only)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	env := strings.TrimSpace(os.Getenv(envVar))
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.Setup("sociographd", env, logging.RotationConfig{
		Path:       cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	if err := state.EnsureStateVersion(db, *allowMigrateFlag); err != nil {
		logger.Error("State schema check failed", slog.Any("error", err))
		os.Exit(1)
	}
	manager := state.NewManager(db)

	governance, err := config.Address(cfg.Governance)
	if err != nil {
		logger.Error("Invalid governance address", slog.Any("error", err))
		os.Exit(1)
	}
	emergencyAdmin, err := config.Address(cfg.EmergencyAdmin)
	if err != nil {
		logger.Error("Invalid emergency admin address", slog.Any("error", err))
		os.Exit(1)
	}
	feeAdmin, err := config.Address(cfg.FeeCollect.Admin)
	if err != nil {
		logger.Error("Invalid fee admin address", slog.Any("error", err))
		os.Exit(1)
	}
	treasury, err := config.Address(cfg.FeeCollect.Treasury)
	if err != nil {
		logger.Error("Invalid treasury address", slog.Any("error", err))
		os.Exit(1)
	}

	engine := hub.NewEngine()
	engine.SetState(manager, manager)
	engine.SetEmitter(observability.NewMeteredEmitter(nil))

	collectAddr := crypto.ModuleAccount("feecollect/module/v1")
	factoryAddr := crypto.ModuleAccount("feecollect/factory/v1")
	collector, err := feecollect.NewModule(feecollect.ModuleConfig{
		Address:             collectAddr,
		Admin:               feeAdmin,
		Treasury:            treasury,
		TreasuryFeeBps:      cfg.FeeCollect.TreasuryFeeBps,
		CollectRewardFeeBps: cfg.FeeCollect.CollectRewardFeeBps,
		ReferralFeeBps:      cfg.FeeCollect.ReferralFeeBps,
	})
	if err != nil {
		logger.Error("Invalid fee collect configuration", slog.Any("error", err))
		os.Exit(1)
	}
	collector.SetState(manager)
	collector.SetEmitter(observability.NewMeteredEmitter(nil))
	factory := feecollect.NewFactory(factoryAddr, manager)
	collector.SetFactory(factory)
	collector.SetWhitelist(engine)
	collector.SetOwners(engine)

	dispatcher := modules.NewDispatcher()
	dispatcher.BindCollect(collectAddr, collector)
	dispatcher.BindFinance(factoryAddr, factory)
	engine.SetModuleDispatcher(dispatcher)

	if !hub.IsZeroAddress(governance) {
		if err := engine.Initialize(governance); err != nil {
			logger.Error("Failed to initialize governance", slog.Any("error", err))
			os.Exit(1)
		}
		bootstrapWhitelists(logger, engine, governance, emergencyAdmin, collectAddr, factoryAddr)
	}

	logger.Info("Starting RPC server",
		slog.String("listen", cfg.ListenAddress),
		slog.String("collectModule", crypto.NewAddress(crypto.SocPrefix, collectAddr[:]).String()),
		slog.String("poolFactory", crypto.NewAddress(crypto.SocPrefix, factoryAddr[:]).String()),
	)
	server := rpc.NewServer(engine, collector, cfg.RPCAuthToken)
	if err := server.Start(cfg.ListenAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// bootstrapWhitelists seeds the built-in modules on first start. Re-running is
// harmless; whitelist writes are idempotent.
func bootstrapWhitelists(logger *slog.Logger, engine *hub.Engine, governance, emergencyAdmin, collectAddr, factoryAddr [20]byte) {
	if !hub.IsZeroAddress(emergencyAdmin) {
		if err := engine.SetEmergencyAdmin(governance, emergencyAdmin); err != nil {
			logger.Warn("Failed to set emergency admin", slog.Any("error", err))
		}
	}
	if err := engine.Whitelist(governance, modules.RoleCollect, collectAddr, true); err != nil {
		logger.Warn("Failed to whitelist collect module", slog.Any("error", err))
	}
	if err := engine.Whitelist(governance, modules.RoleFinance, factoryAddr, true); err != nil {
		logger.Warn("Failed to whitelist pool factory", slog.Any("error", err))
	}
}
