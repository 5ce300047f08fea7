// Command constitutiond runs the governance core as a daemon: it wires the
// verification, consensus, staking, voting, and orchestration subsystems,
// drives time-based phase transitions on a ticker, and anchors governance
// state to the substrate each interval.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/anchor"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/audit"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/config"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/consensus"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/execguard"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/observability"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/orchestrator"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/registry"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/router"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/staking"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/store"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/substrate"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/voting"
)

const (
	tickInterval   = 5 * time.Second
	anchorInterval = 10 * time.Minute
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := config.DefaultProfile()
	if cfg.ProfilePath != "" {
		loaded, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return err
		}
		profile = loaded
	}
	logger.Info("governance profile loaded", "name", profile.Name)

	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "constitutiond",
		ServiceVersion: "1.0.0",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		BatchTimeout:   5 * time.Second,
	})
	if err != nil {
		return err
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// The substrate adapter is wired at this boundary. Without one
	// configured the daemon runs against the in-memory substrate, which is
	// also the dry-run mode used in development.
	var ledgerSubstrate substrate.Ledger
	if cfg.DryRun {
		logger.Warn("running against in-memory substrate (dry run)")
		ledgerSubstrate = substrate.NewMemory(1)
	} else {
		logger.Warn("substrate adapter not wired in this build, falling back to dry run",
			"substrate_url", cfg.SubstrateURL)
		ledgerSubstrate = substrate.NewMemory(1)
	}

	reg := registry.New(logger).WithSetSize(profile.ActiveSetSize)
	stake := staking.NewLedger(reg, staking.Rates{
		NonRevealBp:  profile.SlashNonRevealBp,
		InactivityBp: profile.SlashInactivityBp,
		AutoEjectBp:  5000,
	}, logger)
	cons := consensus.NewEngine(profile.OracleWindow, logger)
	votes := voting.NewSystem(logger)
	route := router.New(logger)

	guard, err := execguard.New()
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Consensus:   cons,
		Registry:    reg,
		Staking:     stake,
		Voting:      votes,
		Router:      route,
		Substrate:   ledgerSubstrate,
		Guard:       guard,
		TotalSupply: profile.TotalSupply,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	orch.Subscribe(audit.NewLogger())
	orch.Subscribe(orchestrator.ObserverFunc(func(e orchestrator.Event) {
		switch e.Type {
		case orchestrator.EventSubmitted:
			obs.RecordSubmitted(ctx)
		case orchestrator.EventRejected:
			obs.RecordRejected(ctx, e.Phase)
		case orchestrator.EventExecuted:
			obs.RecordExecuted(ctx)
		}
	}))
	// Write-behind persistence of every envelope transition.
	orch.Subscribe(orchestrator.ObserverFunc(func(e orchestrator.Event) {
		gp, err := orch.Get(e.ProposalID)
		if err != nil {
			return
		}
		if err := db.SaveProposal(context.Background(), gp); err != nil {
			logger.Error("persist proposal", "proposal_id", e.ProposalID, "error", err)
		}
	}))

	logger.Info("constitutiond started",
		"tick_interval", tickInterval.String(),
		"anchor_interval", anchorInterval.String())

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	anchorTicker := time.NewTicker(anchorInterval)
	defer anchorTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case now := <-ticker.C:
			orch.CheckPhaseTransitions(ctx, now)
		case now := <-anchorTicker.C:
			submitAnchor(ctx, orch, reg, ledgerSubstrate, now, logger)
		}
	}
}

// submitAnchor publishes the STATE_ANCHOR memo for the current governance
// state. Substrate failure is absorbed; the next interval retries.
func submitAnchor(ctx context.Context, orch *orchestrator.Orchestrator, reg *registry.Registry, sub substrate.Ledger, now time.Time, logger *slog.Logger) {
	memo, err := anchor.Build(orch.List(), reg.Operators(), now)
	if err != nil {
		logger.Error("build state anchor", "error", err)
		return
	}
	payload, err := json.Marshal(memo)
	if err != nil {
		logger.Error("marshal state anchor", "error", err)
		return
	}
	result, err := sub.SubmitMemo(ctx, "", string(contracts.MemoStateAnchor), payload)
	if err != nil {
		logger.Warn("state anchor submission failed", "error", err)
		return
	}
	logger.Info("state anchored",
		"root", memo.Root, "tx_hash", result.TxHash, "proposals", memo.ProposalCount)
}
