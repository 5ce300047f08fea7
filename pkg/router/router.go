// Package router maps the verdict pair (Channel A, Channel B) and the
// target layer onto a governance route plus the friction parameters any
// subsequent voting runs under. The table evaluates top to bottom; the
// first matching rule wins.
package router

import (
	"log/slog"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

// Router selects routes and derives friction.
type Router struct {
	logger *slog.Logger
}

// New creates a router.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger.With("component", "router")}
}

// Route applies the routing table and friction formulas.
func (r *Router) Route(layer contracts.GovernanceLayer, a contracts.ChannelAVerdict, b contracts.ChannelBVerdict) contracts.RoutingDecision {
	// An AI interest conflict takes class IV friction whatever the class.
	class := b.DecidabilityClass
	if b.AIInterestConflict {
		class = contracts.ClassIV
	}
	friction := Friction(b.AlignmentScore, layer, class)

	decision := contracts.RoutingDecision{Friction: friction}
	switch {
	case layer == contracts.LayerL0Immutable:
		decision.Route = contracts.RouteRejected
		decision.Rule = "L0 layer is unmodifiable"
	case !a.Pass:
		decision.Route = contracts.RouteRejected
		decision.Rule = "Channel A verification failed"
	case b.AIInterestConflict || b.DecidabilityClass == contracts.ClassIV:
		decision.Route = contracts.RouteHumanMajorityJury
		decision.Rule = "AI recusal: interest conflict or class IV"
	case b.DecidabilityClass == contracts.ClassI:
		decision.Route = contracts.RouteFormalVerification
		decision.Rule = "class I routes to external formal verification"
	case b.DecidabilityClass == contracts.ClassIII:
		decision.Route = contracts.RouteConstitutionalJury
		decision.Rule = "class III routes to constitutional jury"
	default:
		decision.Route = contracts.RouteStandardVoting
		decision.Rule = "class II standard voting"
	}

	r.logger.Info("proposal routed",
		"layer", layer,
		"route", decision.Route,
		"rule", decision.Rule,
		"required_quorum", friction.RequiredQuorum,
		"timelock_s", friction.TimelockSeconds)
	return decision
}

// Friction derives quorum and timelock from the alignment score, then
// raises them to the layer floors and applies class IV overrides.
func Friction(score float64, layer contracts.GovernanceLayer, class contracts.DecidabilityClass) contracts.FrictionParams {
	s := clamp01(score)
	quorumMult := 1.0 + (1.0-s)*0.5
	timelockMult := 1.0 + (1.0-s)*2.0

	if class == contracts.ClassIV {
		quorumMult *= 1.5
		timelockMult *= 2.0
	}

	quorum := contracts.BaseQuorum * quorumMult
	timelock := uint64(float64(contracts.BaseTimelockSeconds) * timelockMult)

	// Layer floors.
	switch layer {
	case contracts.LayerL1Constitutional:
		quorum = max(quorum, 0.67)
		timelock = max(timelock, uint64(30*86_400))
	case contracts.LayerL3Execution:
		quorum = max(quorum, 0.05)
		timelock = max(timelock, uint64(12*3_600))
	}

	// Class IV overrides apply after the floors.
	if class == contracts.ClassIV {
		quorum = max(quorum, 0.5)
		timelock = max(timelock, uint64(7*86_400))
	}

	return contracts.FrictionParams{
		RequiredQuorum:     quorum,
		TimelockSeconds:    timelock,
		QuorumMultiplier:   quorumMult,
		TimelockMultiplier: timelockMult,
		AlignmentScore:     s,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
