package jury

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Quigles1337/AI-Constitutional-DAO/pkg/contracts"
)

var (
	testNow       = time.UnixMilli(1_700_000_000_000)
	testNowMillis = testNow.UnixMilli()
)

func eligiblePool(n int) []EligibleAccount {
	pool := make([]EligibleAccount, n)
	for i := range pool {
		pool[i] = EligibleAccount{
			Address:    fmt.Sprintf("rAccount%03d", i),
			Balance:    uint64((i + 1) * 1_000_000),
			LastActive: testNowMillis - 1000,
		}
	}
	return pool
}

func testSeed(tag string) [32]byte {
	return Seed("prop-"+tag, []byte("ledgerhash"))
}

func TestSelectReproducibleFromSeed(t *testing.T) {
	pool := eligiblePool(50)
	seed := testSeed("a")

	m1, err := Select(seed, pool, testNowMillis, false)
	require.NoError(t, err)
	m2, err := Select(seed, pool, testNowMillis, false)
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
	assert.Len(t, m1, contracts.JurySize)
}

func TestSelectDistinctMembers(t *testing.T) {
	members, err := Select(testSeed("a"), eligiblePool(30), testNowMillis, false)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, m := range members {
		assert.False(t, seen[m], "duplicate juror %s", m)
		seen[m] = true
	}
}

func TestSelectDifferentSeedsDiffer(t *testing.T) {
	pool := eligiblePool(100)

	m1, err := Select(testSeed("a"), pool, testNowMillis, false)
	require.NoError(t, err)
	m2, err := Select(testSeed("b"), pool, testNowMillis, false)
	require.NoError(t, err)

	assert.NotEqual(t, m1, m2)
}

func TestSelectFiltersInactiveAccounts(t *testing.T) {
	pool := eligiblePool(contracts.JurySize)
	// One account went dark 91 days ago.
	pool[0].LastActive = testNowMillis - 91*24*3600*1000

	_, err := Select(testSeed("a"), pool, testNowMillis, false)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestSelectTooFewEligible(t *testing.T) {
	_, err := Select(testSeed("a"), eligiblePool(contracts.JurySize-1), testNowMillis, false)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestSelectHumanOnlyExcludesAI(t *testing.T) {
	pool := eligiblePool(contracts.JurySize + 1)
	pool[3].IsAI = true

	members, err := Select(testSeed("a"), pool, testNowMillis, true)
	require.NoError(t, err)
	assert.NotContains(t, members, pool[3].Address)

	// With the AI excluded there are exactly JurySize humans left; one more
	// AI makes the pool too small.
	pool[4].IsAI = true
	_, err = Select(testSeed("a"), pool, testNowMillis, true)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func panelWith(t *testing.T, human bool) (*Panel, []string) {
	t.Helper()
	members := make([]string, contracts.JurySize)
	for i := range members {
		members[i] = fmt.Sprintf("rJuror%02d", i)
	}
	p, err := NewPanel("prop-1", members, testNow, human, nil)
	require.NoError(t, err)
	return p, members
}

func TestPanelSupermajorityApproves(t *testing.T) {
	p, members := panelWith(t, false)

	// 14 yes of 21 decisive (ceil(21*2/3) = 14).
	for i, m := range members {
		v := contracts.VoteYes
		if i >= 14 {
			v = contracts.VoteNo
		}
		require.NoError(t, p.CastVote(m, v, testNow.Add(time.Hour)))
	}

	outcome, err := p.Resolve(testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, contracts.JuryApproved, outcome.Verdict)
	assert.Equal(t, 14, outcome.Yes)
	assert.Equal(t, 7, outcome.No)
}

func TestPanelSupermajorityRejects(t *testing.T) {
	p, members := panelWith(t, false)
	for _, m := range members {
		require.NoError(t, p.CastVote(m, contracts.VoteNo, testNow.Add(time.Hour)))
	}

	outcome, err := p.Resolve(testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, contracts.JuryRejected, outcome.Verdict)
}

func TestPanelNoSupermajorityNoVerdict(t *testing.T) {
	p, members := panelWith(t, false)

	// 11 yes / 10 no: short of the 14-vote supermajority either way.
	for i, m := range members {
		v := contracts.VoteYes
		if i >= 11 {
			v = contracts.VoteNo
		}
		require.NoError(t, p.CastVote(m, v, testNow.Add(time.Hour)))
	}

	outcome, err := p.Resolve(testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, contracts.JuryNoVerdict, outcome.Verdict)
}

func TestPanelAllAbstainNoVerdict(t *testing.T) {
	p, members := panelWith(t, false)
	for _, m := range members {
		require.NoError(t, p.CastVote(m, contracts.VoteAbstain, testNow.Add(time.Hour)))
	}

	outcome, err := p.Resolve(testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, contracts.JuryNoVerdict, outcome.Verdict)
}

func TestPanelVoteValidation(t *testing.T) {
	p, members := panelWith(t, false)

	// Outsider.
	err := p.CastVote("rOutsider", contracts.VoteYes, testNow.Add(time.Hour))
	assert.ErrorIs(t, err, contracts.ErrValidation)

	// Double vote.
	require.NoError(t, p.CastVote(members[0], contracts.VoteYes, testNow.Add(time.Hour)))
	err = p.CastVote(members[0], contracts.VoteNo, testNow.Add(time.Hour))
	assert.ErrorIs(t, err, contracts.ErrValidation)

	// After the 72h deadline.
	err = p.CastVote(members[1], contracts.VoteYes, testNow.Add(73*time.Hour))
	assert.ErrorIs(t, err, contracts.ErrOutOfPhase)
}

func TestPanelResolveBeforeDeadlineNeedsAllVotes(t *testing.T) {
	p, members := panelWith(t, false)
	require.NoError(t, p.CastVote(members[0], contracts.VoteYes, testNow.Add(time.Hour)))

	_, err := p.Resolve(testNow.Add(2 * time.Hour))
	assert.ErrorIs(t, err, contracts.ErrOutOfPhase)

	// After the deadline the partial vote resolves.
	outcome, err := p.Resolve(testNow.Add(73 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, contracts.JuryApproved, outcome.Verdict) // 1 yes, 0 no

	// Idempotent.
	again, err := p.Resolve(testNow.Add(80 * time.Hour))
	require.NoError(t, err)
	assert.Same(t, outcome, again)
}

func TestPanelRequiresExactSize(t *testing.T) {
	_, err := NewPanel("prop-1", []string{"rA"}, testNow, false, nil)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}
