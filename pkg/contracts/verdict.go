package contracts

import "fmt"

// ChannelAVerdict is the deterministic verification result. Pass holds iff
// complexity_score <= MaxComplexity and neither flag is set; any conforming
// implementation must compute identical fields from identical canonical
// bytes, or fraud proofs against it are meaningless.
type ChannelAVerdict struct {
	Pass            bool   `json:"pass"`
	ComplexityScore uint64 `json:"complexity_score"`
	ParadoxFound    bool   `json:"paradox_found"`
	CycleFound      bool   `json:"cycle_found"`
}

// PassVerdict builds a passing Channel A verdict.
func PassVerdict(complexityScore uint64) ChannelAVerdict {
	return ChannelAVerdict{Pass: true, ComplexityScore: complexityScore}
}

// FailVerdict builds a failing Channel A verdict.
func FailVerdict(complexityScore uint64, paradoxFound, cycleFound bool) ChannelAVerdict {
	return ChannelAVerdict{
		ComplexityScore: complexityScore,
		ParadoxFound:    paradoxFound,
		CycleFound:      cycleFound,
	}
}

// DecidabilityClass is the routing tag assigned by the semantic assessor.
type DecidabilityClass int

const (
	ClassI   DecidabilityClass = 1 // formally verifiable, external verification
	ClassII  DecidabilityClass = 2 // standard deterministic gate + voting
	ClassIII DecidabilityClass = 3 // requires human judgment, jury
	ClassIV  DecidabilityClass = 4 // AI recuses, human-majority jury
)

func (c DecidabilityClass) String() string {
	switch c {
	case ClassI:
		return "I"
	case ClassII:
		return "II"
	case ClassIII:
		return "III"
	case ClassIV:
		return "IV"
	}
	return fmt.Sprintf("DecidabilityClass(%d)", int(c))
}

// ParseClass parses a roman-numeral class tag.
func ParseClass(s string) (DecidabilityClass, error) {
	switch s {
	case "I":
		return ClassI, nil
	case "II":
		return ClassII, nil
	case "III":
		return ClassIII, nil
	case "IV":
		return ClassIV, nil
	}
	return 0, fmt.Errorf("%w: unknown decidability class %q", ErrValidation, s)
}

// EpistemicFlag marks reduced confidence in an assessor output.
type EpistemicFlag string

// EpistemicUncertain is attached to the conservative fallback verdict used
// when the assessor is unreachable.
const EpistemicUncertain EpistemicFlag = "UNCERTAIN"

// ChannelBVerdict is the semantic assessor's output, consumed opaquely.
// The core never recomputes any of these fields and never slashes for
// disagreement over them.
type ChannelBVerdict struct {
	AlignmentScore     float64           `json:"alignment_score"`
	DecidabilityClass  DecidabilityClass `json:"decidability_class"`
	AIInterestConflict bool              `json:"ai_interest_conflict"`
	EpistemicFlag      EpistemicFlag     `json:"epistemic_flag,omitempty"`
	Reasoning          string            `json:"reasoning,omitempty"`
}

// NewChannelBVerdict clamps the score into [0,1].
func NewChannelBVerdict(score float64, class DecidabilityClass) ChannelBVerdict {
	return ChannelBVerdict{AlignmentScore: clamp01(score), DecidabilityClass: class}
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

// FallbackChannelBVerdict is the conservative verdict substituted when the
// assessor fails: mid score, class III, flagged UNCERTAIN.
func FallbackChannelBVerdict() ChannelBVerdict {
	return ChannelBVerdict{
		AlignmentScore:    0.5,
		DecidabilityClass: ClassIII,
		EpistemicFlag:     EpistemicUncertain,
	}
}

// OracleVerdict is what an oracle commits to and later reveals: its Channel A
// computation joined with the Channel B tuple it observed.
type OracleVerdict struct {
	ChannelA ChannelAVerdict `json:"channel_a"`
	ChannelB ChannelBVerdict `json:"channel_b"`
}
