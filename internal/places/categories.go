package places

import (
	"strings"

	"github.com/samber/lo"
)

// interestCategories maps common interest keywords to place category ids
var interestCategories = map[string][]string{
	"art":        {"10004", "10009"},
	"arts":       {"10004", "10009"},
	"museum":     {"10027"},
	"museums":    {"10027"},
	"history":    {"10027", "16020"},
	"historic":   {"16020"},
	"culture":    {"10000"},
	"music":      {"10039"},
	"nightlife":  {"10032", "13003"},
	"bars":       {"13003"},
	"food":       {"13000"},
	"restaurant": {"13065"},
	"dining":     {"13065"},
	"coffee":     {"13035"},
	"cafe":       {"13032", "13035"},
	"cafes":      {"13032", "13035"},
	"nature":     {"16000"},
	"outdoors":   {"16000"},
	"park":       {"16032"},
	"parks":      {"16032"},
	"beach":      {"16003"},
	"shopping":   {"17000"},
	"market":     {"17069"},
	"sports":     {"18000"},
}

// CategoryIDs returns the category ids for interest keywords plus any
// explicit ids, without duplicates. Unknown keywords are ignored.
func CategoryIDs(interests, explicit []string) []string {
	ids := lo.FlatMap(interests, func(interest string, _ int) []string {
		return interestCategories[strings.ToLower(strings.TrimSpace(interest))]
	})
	ids = append(ids, lo.Compact(lo.Map(explicit, func(id string, _ int) string {
		return strings.TrimSpace(id)
	}))...)
	return lo.Uniq(ids)
}
