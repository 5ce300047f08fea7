package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/assessor"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/jury"
)

// CheckPhaseTransitions drives every time-based transition due at now. The
// tick is idempotent: a transition fires once and re-ticking a settled
// proposal is a no-op.
func (o *Orchestrator) CheckPhaseTransitions(ctx context.Context, now time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, id := range o.order {
		gp := o.proposals[id]
		switch gp.Phase {
		case contracts.PhaseOracleReview:
			o.tickOracleReview(ctx, gp)
		case contracts.PhaseJuryReview, contracts.PhaseHumanMajorityJury:
			o.tickJury(gp, now)
		case contracts.PhaseTimelock:
			if now.UnixMilli() >= gp.TimelockExpiry {
				o.setPhase(gp, contracts.PhaseReadyToExecute)
				o.emit(EventTimelockExpired, gp, nil)
			}
		}
	}
}

// tickOracleReview advances the consensus round and, once complete, settles
// participation, slashing, and routing.
func (o *Orchestrator) tickOracleReview(ctx context.Context, gp *contracts.GovernanceProposal) {
	currentLedger, err := o.substrate.CurrentLedgerIndex(ctx)
	if err != nil {
		o.logger.Warn("ledger index unavailable, skipping tick",
			"proposal_id", gp.Proposal.ID, "error", err)
		return
	}

	agg, err := o.consensus.Tick(gp.Proposal.ID, currentLedger)
	if err != nil {
		o.logger.Error("consensus tick failed", "proposal_id", gp.Proposal.ID, "error", err)
		return
	}
	if agg == nil {
		return // round still open
	}

	o.settleParticipation(agg)

	gp.ChannelA = &agg.ChannelA
	o.emit(EventReviewComplete, gp, map[string]interface{}{
		"participation":  agg.Participation,
		"quorum_reached": agg.QuorumReached,
	})

	if !agg.QuorumReached {
		o.reject(gp, fmt.Sprintf("oracle quorum not reached: %d of %d required",
			agg.Participation, agg.QuorumRequired))
		return
	}

	o.setPhase(gp, contracts.PhaseRouting)

	// The external assessor is awaited before routing; the oracle-side
	// Channel B consensus stands in only when no assessor is wired.
	var channelB contracts.ChannelBVerdict
	if o.assessor != nil {
		channelB = assessor.SafeAnalyze(ctx, o.assessor, gp.Proposal, o.logger)
	} else if agg.Participation > 0 {
		channelB = agg.ChannelB
	} else {
		channelB = contracts.FallbackChannelBVerdict()
	}
	gp.ChannelB = &channelB

	decision := o.router.Route(gp.Proposal.Layer, agg.ChannelA, channelB)
	gp.Routing = &decision
	o.emit(EventRouted, gp, map[string]interface{}{
		"route": string(decision.Route),
		"rule":  decision.Rule,
	})

	o.applyRouting(ctx, gp, decision)
}

// settleParticipation records reveal metrics and slashes non-revealers.
// Channel B disagreement is never slashable; only the failure to open a
// commitment is.
func (o *Orchestrator) settleParticipation(agg *contracts.AggregatedVerdict) {
	for _, addr := range agg.NonRevealers {
		if err := o.registry.RecordParticipation(addr, false); err != nil {
			o.logger.Error("record participation", "address", addr, "error", err)
			continue
		}
		if _, err := o.staking.SlashNonReveal(addr, agg.ProposalID); err != nil {
			o.logger.Error("non-reveal slash failed", "address", addr, "error", err)
		}
	}
	for _, addr := range agg.Revealers {
		if err := o.registry.RecordParticipation(addr, true); err != nil {
			o.logger.Error("record participation", "address", addr, "error", err)
		}
	}
}

// applyRouting moves the proposal into the routed phase.
func (o *Orchestrator) applyRouting(ctx context.Context, gp *contracts.GovernanceProposal, decision contracts.RoutingDecision) {
	switch decision.Route {
	case contracts.RouteRejected:
		o.reject(gp, decision.Rule)

	case contracts.RouteStandardVoting:
		o.openVoting(gp)

	case contracts.RouteFormalVerification:
		o.setPhase(gp, contracts.PhaseFormalVerification)

	case contracts.RouteConstitutionalJury:
		o.conveneJury(ctx, gp, false)

	case contracts.RouteHumanMajorityJury:
		o.conveneJury(ctx, gp, true)

	default:
		o.reject(gp, fmt.Sprintf("unroutable decision %q", decision.Route))
	}
}

func (o *Orchestrator) openVoting(gp *contracts.GovernanceProposal) {
	friction := contracts.FrictionParams{RequiredQuorum: contracts.BaseQuorum, TimelockSeconds: contracts.BaseTimelockSeconds}
	if gp.Routing != nil {
		friction = gp.Routing.Friction
	}
	if err := o.voting.OpenPeriod(gp.Proposal.ID, friction); err != nil {
		o.reject(gp, fmt.Sprintf("cannot open voting period: %v", err))
		return
	}
	o.setPhase(gp, contracts.PhaseVoting)
	o.emit(EventVotingOpened, gp, map[string]interface{}{
		"required_quorum": friction.RequiredQuorum,
	})
}

func (o *Orchestrator) conveneJury(ctx context.Context, gp *contracts.GovernanceProposal, humanOnly bool) {
	if o.eligible == nil {
		o.reject(gp, "jury selection failed: no eligible-account source")
		return
	}
	eligible, err := o.eligible(ctx)
	if err != nil {
		o.reject(gp, fmt.Sprintf("jury selection failed: %v", err))
		return
	}

	currentLedger, err := o.substrate.CurrentLedgerIndex(ctx)
	if err != nil {
		o.reject(gp, fmt.Sprintf("jury selection failed: %v", err))
		return
	}
	ledgerHash, err := o.substrate.LedgerHash(ctx, currentLedger)
	if err != nil {
		o.reject(gp, fmt.Sprintf("jury selection failed: %v", err))
		return
	}

	now := o.clock()
	seed := jury.Seed(gp.Proposal.ID, ledgerHash[:])
	members, err := jury.Select(seed, eligible, now.UnixMilli(), humanOnly)
	if err != nil {
		o.reject(gp, fmt.Sprintf("jury selection failed: %v", err))
		return
	}

	panel, err := jury.NewPanel(gp.Proposal.ID, members, now, humanOnly, o.logger)
	if err != nil {
		o.reject(gp, fmt.Sprintf("jury selection failed: %v", err))
		return
	}
	o.panels[gp.Proposal.ID] = panel

	phase := contracts.PhaseJuryReview
	if humanOnly {
		phase = contracts.PhaseHumanMajorityJury
	}
	o.setPhase(gp, phase)
	o.emit(EventJurySelected, gp, map[string]interface{}{
		"members":        members,
		"human_majority": humanOnly,
	})
}

// CastVote records a token-weighted vote while the proposal is in Voting.
func (o *Orchestrator) CastVote(proposalID, voter string, vote contracts.Vote, ownPower uint64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	gp, ok := o.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}
	if gp.Phase != contracts.PhaseVoting {
		return fmt.Errorf("%w: proposal %s is in %s", contracts.ErrOutOfPhase, proposalID, gp.Phase)
	}

	power, err := o.voting.CastVote(proposalID, voter, vote, ownPower)
	if err != nil {
		return err
	}
	o.emit(EventVoteCast, gp, map[string]interface{}{
		"voter": voter, "vote": string(vote), "power": power,
	})
	return nil
}

// CloseVoting tallies the period: a passing tally starts the timelock,
// anything else is terminal rejection.
func (o *Orchestrator) CloseVoting(proposalID string) (*contracts.VotingTally, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	gp, ok := o.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}
	if gp.Phase != contracts.PhaseVoting {
		return nil, fmt.Errorf("%w: proposal %s is in %s", contracts.ErrOutOfPhase, proposalID, gp.Phase)
	}

	tally, err := o.voting.ClosePeriod(proposalID, o.totalSupply)
	if err != nil {
		return nil, err
	}
	gp.Tally = tally
	o.emit(EventVotingClosed, gp, map[string]interface{}{
		"yes": tally.Yes, "no": tally.No, "abstain": tally.Abstain,
		"quorum_reached": tally.QuorumReached, "passed": tally.Passed,
	})

	if !tally.Passed {
		reason := "vote defeated: no majority"
		if !tally.QuorumReached {
			reason = fmt.Sprintf("vote defeated: quorum %.4f not reached", tally.ParticipationRate)
		}
		o.reject(gp, reason)
		return tally, nil
	}

	o.emit(EventPassed, gp, nil)
	o.startTimelock(gp)
	return tally, nil
}

// JuryVote records one juror's ballot on a convened panel.
func (o *Orchestrator) JuryVote(proposalID, juror string, vote contracts.Vote) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	gp, ok := o.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}
	if gp.Phase != contracts.PhaseJuryReview && gp.Phase != contracts.PhaseHumanMajorityJury {
		return fmt.Errorf("%w: proposal %s is in %s", contracts.ErrOutOfPhase, proposalID, gp.Phase)
	}
	panel, ok := o.panels[proposalID]
	if !ok {
		return fmt.Errorf("%w: no panel for proposal %s", contracts.ErrInvariant, proposalID)
	}
	return panel.CastVote(juror, vote, o.clock())
}

// tickJury resolves a panel once its deadline passed or all jurors voted.
func (o *Orchestrator) tickJury(gp *contracts.GovernanceProposal, now time.Time) {
	panel, ok := o.panels[gp.Proposal.ID]
	if !ok {
		o.reject(gp, "jury panel lost")
		return
	}
	if !panel.Resolvable(now) {
		return
	}

	outcome, err := panel.Resolve(now)
	if err != nil {
		o.logger.Error("jury resolve failed", "proposal_id", gp.Proposal.ID, "error", err)
		return
	}
	gp.Jury = outcome
	o.emit(EventVerdictReached, gp, map[string]interface{}{
		"verdict": string(outcome.Verdict),
		"yes":     outcome.Yes, "no": outcome.No, "abstain": outcome.Abstain,
	})

	switch outcome.Verdict {
	case contracts.JuryApproved:
		// Constitutional-layer changes still face the token vote after the
		// jury; everything else goes straight to timelock.
		if gp.Proposal.Layer == contracts.LayerL1Constitutional {
			o.openVoting(gp)
		} else {
			o.startTimelock(gp)
		}
	case contracts.JuryRejected:
		o.reject(gp, "jury rejected")
	default:
		o.reject(gp, "jury reached no verdict")
	}
}

// RecordExternalApproval settles a FormalVerification phase from the
// external verifier's result: approval drops the proposal into the token
// vote, anything else is terminal.
func (o *Orchestrator) RecordExternalApproval(proposalID string, approved bool, detail string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	gp, ok := o.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}
	if gp.Phase != contracts.PhaseFormalVerification {
		return fmt.Errorf("%w: proposal %s is in %s", contracts.ErrOutOfPhase, proposalID, gp.Phase)
	}

	if !approved {
		o.reject(gp, fmt.Sprintf("formal verification failed: %s", detail))
		return nil
	}
	o.openVoting(gp)
	return nil
}

func (o *Orchestrator) startTimelock(gp *contracts.GovernanceProposal) {
	timelock := contracts.BaseTimelockSeconds
	if gp.Routing != nil {
		timelock = gp.Routing.Friction.TimelockSeconds
	}
	gp.TimelockExpiry = o.clock().UnixMilli() + int64(timelock)*1000
	o.setPhase(gp, contracts.PhaseTimelock)
	o.emit(EventTimelockStarted, gp, map[string]interface{}{
		"expires_at": gp.TimelockExpiry,
	})
}

// Execute finalizes a ReadyToExecute proposal: the execution guard runs for
// L3 proposals, then the execution record is anchored as a memo. A
// substrate failure is absorbed; the local transition stands.
func (o *Orchestrator) Execute(ctx context.Context, proposalID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	gp, ok := o.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: unknown proposal %s", contracts.ErrValidation, proposalID)
	}
	if gp.Phase != contracts.PhaseReadyToExecute {
		return fmt.Errorf("%w: proposal %s is in %s", contracts.ErrOutOfPhase, proposalID, gp.Phase)
	}

	if o.guard != nil && gp.Proposal.Layer == contracts.LayerL3Execution {
		if err := o.guard.Check(gp.Proposal); err != nil {
			o.reject(gp, fmt.Sprintf("execution guard denied: %v", err))
			return nil
		}
	}

	payload, err := json.Marshal(contracts.ProposalMemo{
		ID:       gp.Proposal.ID,
		LogicAST: gp.Proposal.LogicAST,
		Text:     gp.Proposal.Text,
		Layer:    string(gp.Proposal.Layer),
	})
	if err == nil {
		result, submitErr := o.substrate.SubmitMemo(ctx, gp.Proposal.Proposer, string(contracts.MemoProposal), payload)
		if submitErr != nil {
			o.logger.Warn("execution memo submission failed, continuing with local state",
				"proposal_id", proposalID, "error", submitErr)
		} else {
			gp.ExecutionTx = result.TxHash
		}
	}

	o.setPhase(gp, contracts.PhaseExecuted)
	o.emit(EventExecuted, gp, map[string]interface{}{"tx_hash": gp.ExecutionTx})
	return nil
}
