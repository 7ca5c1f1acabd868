package nodo

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// flexFloat unmarshals from a JSON number or a numeric string, since the
// data-management API sends balances as numbers on some endpoints and as
// strings on others.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// APITokenLeg is one token side of a position request as returned by the
// API. Amount is a raw integer string scaled by Decimal; Price is a decimal
// string that may be empty when the oracle had no quote.
type APITokenLeg struct {
	TokenSymbol string `json:"token_symbol"`
	TokenName   string `json:"token_name"`
	Amount      string `json:"amount"`
	Decimal     int    `json:"decimal"`
	Price       string `json:"price"`
}

// APIActivity is a vault position request (activity row) as returned by the
// data-management API.
type APIActivity struct {
	ID     string        `json:"id"`
	Type   string        `json:"type"`
	Time   string        `json:"time"`
	Value  string        `json:"value"`
	Tokens []APITokenLeg `json:"tokens"`
	Reason string        `json:"reason"`
	TxHash string        `json:"tx_hash"`
}

// ToDomain converts an APIActivity to a domain.Transaction. An amount that
// fails to parse becomes zero so one malformed row cannot sink a whole page.
func (a *APIActivity) ToDomain() domain.Transaction {
	tx := domain.Transaction{
		ID:     a.ID,
		Type:   domain.ActionType(a.Type),
		Value:  a.Value,
		Reason: a.Reason,
		TxHash: a.TxHash,
	}
	if t, err := time.Parse(time.RFC3339, a.Time); err == nil {
		tx.Time = t
	}
	for _, l := range a.Tokens {
		amt, _ := strconv.ParseInt(strings.TrimSpace(l.Amount), 10, 64)
		tx.Tokens = append(tx.Tokens, domain.TokenLeg{
			TokenSymbol: l.TokenSymbol,
			TokenName:   l.TokenName,
			Amount:      amt,
			Decimal:     l.Decimal,
			Price:       l.Price,
		})
	}
	return tx
}

// APIActivityPage is the envelope the position-requests endpoint wraps its
// rows in.
type APIActivityPage struct {
	Data struct {
		List  []APIActivity `json:"list"`
		Total int           `json:"total"`
	} `json:"data"`
}

// APIVaultStats is the per-wallet holding snapshot from the vault-stats
// endpoint.
type APIVaultStats struct {
	Data struct {
		Wallet              string    `json:"wallet"`
		NDLPBalance         flexFloat `json:"user_ndlp_balance"`
		NDLPPriceUSD        flexFloat `json:"ndlp_price_usd"`
		TotalDepositsUSD    flexFloat `json:"user_total_deposit"`
		TotalWithdrawalsUSD flexFloat `json:"user_total_withdraw"`
		TotalRewardsUSD     flexFloat `json:"user_total_rewards"`
		Rewards24hUSD       flexFloat `json:"user_rewards_24h"`
		SharePercent        flexFloat `json:"user_share_percent"`
	} `json:"data"`
}

// ToDomain converts vault stats to a domain.HoldingStats snapshot.
func (s *APIVaultStats) ToDomain(vaultID string, fetchedAt time.Time) domain.HoldingStats {
	d := s.Data
	return domain.HoldingStats{
		VaultID:             vaultID,
		Wallet:              d.Wallet,
		NDLPBalance:         float64(d.NDLPBalance),
		NDLPPriceUSD:        float64(d.NDLPPriceUSD),
		TotalDepositsUSD:    float64(d.TotalDepositsUSD),
		TotalWithdrawalsUSD: float64(d.TotalWithdrawalsUSD),
		TotalRewardsUSD:     float64(d.TotalRewardsUSD),
		Rewards24hUSD:       float64(d.Rewards24hUSD),
		SharePercent:        float64(d.SharePercent),
		FetchedAt:           fetchedAt,
	}
}

// APILPBreakdown is the pool allocation response from the lp-breakdown
// endpoint.
type APILPBreakdown struct {
	Data []struct {
		PoolName      string    `json:"pool_name"`
		Percent       flexFloat `json:"percent"`
		ValueUSD      flexFloat `json:"value_usd"`
		LastChangedAt string    `json:"last_changed_at"`
	} `json:"data"`
}

// ToDomain converts the breakdown rows to unranked domain slices. Ranking
// and coloring happen downstream.
func (b *APILPBreakdown) ToDomain() []domain.BreakdownSlice {
	out := make([]domain.BreakdownSlice, 0, len(b.Data))
	for _, row := range b.Data {
		s := domain.BreakdownSlice{
			Label:   row.PoolName,
			Percent: float64(row.Percent),
			USD:     float64(row.ValueUSD),
		}
		if t, err := time.Parse(time.RFC3339, row.LastChangedAt); err == nil {
			s.LastChangedAt = &t
		}
		out = append(out, s)
	}
	return out
}
