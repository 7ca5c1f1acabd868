package insights

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// palette colors assigned to slices by rank. With more than len(palette)
// named slices the colors cycle rather than run out.
var palette = []string{
	"#52BDE1", "#CC98FF", "#52E1A5", "#FFEC98",
	"#5254E1", "#B94E50", "#FFFFFF", "#98C3FF",
}

const (
	othersLabel = "Others"
	othersColor = "#6B7280"
	maxSlices   = 8
)

// AggregateBreakdown sorts slices by USD value descending, keeps the top
// eight with palette colors assigned by position, and merges the remainder
// into a single muted "Others" slice. The merged slice is only emitted when
// it carries weight; an all-zero tail disappears instead of rendering an
// empty wedge. Input slices are not mutated.
func AggregateBreakdown(in []domain.BreakdownSlice, asOf time.Time) domain.Breakdown {
	slices := make([]domain.BreakdownSlice, len(in))
	copy(slices, in)

	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].USD > slices[j].USD
	})

	out := domain.Breakdown{AsOf: asOf}

	top := slices
	if len(top) > maxSlices {
		top = top[:maxSlices]
	}
	for i, s := range top {
		s.Color = palette[i%len(palette)]
		out.Top = append(out.Top, s)
	}

	if len(slices) > maxSlices {
		var others domain.BreakdownSlice
		others.Label = othersLabel
		others.Color = othersColor
		for _, s := range slices[maxSlices:] {
			others.Percent += s.Percent
			others.USD += s.USD
			if s.LastChangedAt != nil && (others.LastChangedAt == nil || s.LastChangedAt.After(*others.LastChangedAt)) {
				t := *s.LastChangedAt
				others.LastChangedAt = &t
			}
		}
		if others.Percent > 0 || others.USD > 0 {
			out.Others = &others
		}
	}

	return out
}

// FormatPercent renders a percentage rounded to one decimal place, dropping
// a trailing ".0" so whole numbers read as "25%" rather than "25.0%".
func FormatPercent(p float64) string {
	s := strconv.FormatFloat(p, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + "%"
}
