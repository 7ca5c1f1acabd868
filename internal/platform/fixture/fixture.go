// Package fixture is a deterministic in-process activity source used for
// local development and demos when no upstream API is configured. The same
// vault queried in the same minute always returns the same rows.
package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// universeSize is the number of synthetic rows generated per vault before
// filters and pagination are applied.
const universeSize = 5000

// reasonsByType are the phrases the generator cycles through per action
// type, matching the vocabulary the real strategy engine emits.
var reasonsByType = map[domain.ActionType][]string{
	domain.ActionAddLiquidity: {
		"Deploy idle balance",
		"Top up active range",
	},
	domain.ActionRemoveLiquidity: {
		"Stop-loss triggered; exit LP",
		"Exit to stablecoins due to drawdown",
		"Take profit from range",
	},
	domain.ActionSwap: {
		"Recenter range",
		"Restore target 65/35 mix",
		"Price deviation above threshold",
	},
	domain.ActionOpen: {
		"Open position in new range",
		"Range churn in narrow band",
	},
	domain.ActionClose: {
		"Close out-of-range position",
		"Range churn in narrow band",
	},
	domain.ActionClaimRewards: {
		"Claim accrued incentives",
	},
	domain.ActionAddProfitUpdateRate: {
		"Compound fees into position",
	},
}

var typeCycle = []domain.ActionType{
	domain.ActionAddLiquidity,
	domain.ActionSwap,
	domain.ActionOpen,
	domain.ActionSwap,
	domain.ActionClose,
	domain.ActionRemoveLiquidity,
	domain.ActionClaimRewards,
	domain.ActionSwap,
	domain.ActionAddProfitUpdateRate,
}

// Source generates synthetic activity pages. The zero value is not usable;
// construct with New.
type Source struct {
	now func() time.Time
}

// New creates a fixture source. now may be nil, in which case time.Now is
// used; tests pass a fixed clock to pin the seed.
func New(now func() time.Time) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{now: now}
}

var (
	_ domain.ActivitySource  = (*Source)(nil)
	_ domain.HoldingSource   = (*Source)(nil)
	_ domain.BreakdownSource = (*Source)(nil)
)

// FetchActivities generates, filters, and paginates the synthetic universe
// for one vault. The generator is reseeded per wall-clock minute so repeated
// polls within a minute are stable while the feed still visibly moves.
func (s *Source) FetchActivities(_ context.Context, q domain.ActivityQuery) (domain.ActivityPage, error) {
	now := s.now().UTC().Truncate(time.Minute)
	seed := uint32(now.Unix()) ^ uint32(len(q.VaultID))<<16
	rng := newMulberry32(seed)

	var cutoff time.Time
	if q.TimeRange != "" {
		cutoff = now.Add(-q.TimeRange.Duration())
	}

	var all []domain.Transaction
	for i := 0; i < universeSize; i++ {
		tx := generate(rng, q.VaultID, i, now)
		if q.ActionType != "" && tx.Type != q.ActionType {
			continue
		}
		if !cutoff.IsZero() && tx.Time.Before(cutoff) {
			continue
		}
		all = append(all, tx)
	}

	page := domain.ActivityPage{Total: len(all)}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	start := (q.Page - 1) * limit
	if q.Page <= 0 {
		start = 0
	}
	if start >= len(all) {
		return page, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	page.List = all[start:end]
	return page, nil
}

// FetchHolding generates a synthetic holding seeded from the vault and
// wallet so the same pair always sees the same position within a minute.
func (s *Source) FetchHolding(_ context.Context, vaultID, wallet string) (domain.HoldingStats, error) {
	now := s.now().UTC().Truncate(time.Minute)
	seed := uint32(now.Unix()) ^ uint32(len(vaultID))<<16 ^ uint32(len(wallet))<<8
	rng := newMulberry32(seed)

	deposits := 1_000 + rng.next()*9_000 // $1k..$10k lifetime deposits
	withdrawals := deposits * rng.next() * 0.4
	rewards := deposits * (0.01 + rng.next()*0.05)
	price := 0.95 + rng.next()*0.15
	balance := (deposits - withdrawals) * (0.9 + rng.next()*0.2) / price

	return domain.HoldingStats{
		VaultID:             vaultID,
		Wallet:              wallet,
		NDLPBalance:         balance,
		NDLPPriceUSD:        price,
		TotalDepositsUSD:    deposits,
		TotalWithdrawalsUSD: withdrawals,
		TotalRewardsUSD:     rewards,
		Rewards24hUSD:       rewards * 0.02,
		SharePercent:        rng.next() * 5,
		FetchedAt:           now,
	}, nil
}

// fixturePools are the LP allocations the breakdown generator draws from.
var fixturePools = []string{
	"USDC/SUI", "USDC/DEEP", "SUI/CETUS", "USDC/WAL", "SUI/NS",
	"USDC/BUCK", "SUI/TURBOS", "USDC/NAVX", "SUI/SCA", "USDC/HASUI",
}

// FetchBreakdown generates synthetic raw LP slices for one vault. Values are
// unranked and uncolored; aggregation happens downstream.
func (s *Source) FetchBreakdown(_ context.Context, vaultID string) ([]domain.BreakdownSlice, error) {
	now := s.now().UTC().Truncate(time.Minute)
	seed := uint32(now.Unix()) ^ uint32(len(vaultID))<<16 ^ 0x5a5a
	rng := newMulberry32(seed)

	raw := make([]float64, len(fixturePools))
	var total float64
	for i := range raw {
		raw[i] = rng.next() * 100_000
		total += raw[i]
	}

	out := make([]domain.BreakdownSlice, 0, len(fixturePools))
	for i, pool := range fixturePools {
		changed := now.Add(-time.Duration(int(rng.next()*72)) * time.Hour)
		out = append(out, domain.BreakdownSlice{
			Label:         pool,
			Percent:       raw[i] / total * 100,
			USD:           raw[i],
			LastChangedAt: &changed,
		})
	}
	return out, nil
}

// generate builds row i of the universe. Rows are spaced a few minutes apart
// walking backward from now, so low indices are the newest activity.
func generate(rng *mulberry32, vaultID string, i int, now time.Time) domain.Transaction {
	typ := typeCycle[i%len(typeCycle)]
	reasons := reasonsByType[typ]
	reason := reasons[int(rng.next()*float64(len(reasons)))%len(reasons)]

	ts := now.Add(-time.Duration(i*3+int(rng.next()*120)) * time.Minute)

	usdcUSD := 20 + rng.next()*480 // $20..$500
	suiUSD := 20 + rng.next()*480

	tx := domain.Transaction{
		ID:     fmt.Sprintf("%s-%06d", vaultID, i),
		Type:   typ,
		Time:   ts,
		Reason: reason,
		TxHash: fmt.Sprintf("0x%08x%08x", rng.nextUint32(), rng.nextUint32()),
		Tokens: []domain.TokenLeg{
			{
				TokenSymbol: "USDC",
				TokenName:   "USD Coin",
				Amount:      int64(usdcUSD * 1e6),
				Decimal:     6,
				Price:       "1.00",
			},
			{
				TokenSymbol: "SUI",
				TokenName:   "Sui",
				Amount:      int64(suiUSD / 4 * 1e9),
				Decimal:     9,
				Price:       "4.00",
			},
		},
	}
	tx.Value = fmt.Sprintf("%.2f", usdcUSD+suiUSD)
	return tx
}

// mulberry32 is a small deterministic PRNG. It is not crypto-grade and does
// not need to be; it only has to be stable across runs for a given seed.
type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

func (m *mulberry32) nextUint32() uint32 {
	m.state += 0x6D2B79F5
	z := m.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return z ^ (z >> 14)
}

// next returns a float in [0, 1).
func (m *mulberry32) next() float64 {
	return float64(m.nextUint32()) / 4294967296.0
}
