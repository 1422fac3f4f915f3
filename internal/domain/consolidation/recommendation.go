package consolidation

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRecommendationLimit is the size of the suggestion shortlist
const DefaultRecommendationLimit = 3

// Recommendation scores
const (
	scoreAgeMatch     = 10
	scoreAdultDefault = 5
	scoreProximity    = 8
	scoreGeneral      = 2

	minAddressTokenLen = 4
)

// Recommendation reasons
const (
	ReasonAgeKids   = "age match (kids)"
	ReasonAgeYouth  = "age match (youth)"
	ReasonProximity = "proximity"
)

// Recommendation is a scored candidate destination group
type Recommendation struct {
	Group   Group
	Score   int
	Reasons []string
}

// Recommend ranks groups for c on today and returns at most limit
// candidates, best first. Ties keep the input order. A limit below one
// means DefaultRecommendationLimit. Zero-score groups remain eligible.
func Recommend(c *Contact, groups []Group, today time.Time, limit int) []Recommendation {
	if limit < 1 {
		limit = DefaultRecommendationLimit
	}

	age, hasAge := contactAge(c, today)
	tokens := addressTokens(c.Address)

	ranked := make([]Recommendation, 0, len(groups))
	for _, g := range groups {
		ranked = append(ranked, scoreGroup(g, age, hasAge, tokens))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func scoreGroup(g Group, age int, hasAge bool, tokens []string) Recommendation {
	rec := Recommendation{Group: g, Reasons: make([]string, 0, 2)}

	if hasAge {
		switch {
		case age <= 12 && g.AudienceCategory == AudienceKids:
			rec.Score += scoreAgeMatch
			rec.Reasons = append(rec.Reasons, ReasonAgeKids)
		case age >= 13 && age <= 25 && g.AudienceCategory == AudienceYouth:
			rec.Score += scoreAgeMatch
			rec.Reasons = append(rec.Reasons, ReasonAgeYouth)
		case age > 25 && g.AudienceCategory != AudienceKids && g.AudienceCategory != AudienceYouth:
			rec.Score += scoreAdultDefault
		}
	}

	if len(tokens) > 0 && g.Address != "" {
		groupAddr := lower(g.Address)
		for _, tok := range tokens {
			if strings.Contains(groupAddr, tok) {
				rec.Score += scoreProximity
				rec.Reasons = append(rec.Reasons, ReasonProximity)
				break
			}
		}
	}

	if g.AudienceCategory.IsGeneral() {
		rec.Score += scoreGeneral
	}

	return rec
}

// contactAge returns completed years on today. Contacts without a birth
// date, or with one after today, get no age.
func contactAge(c *Contact, today time.Time) (int, bool) {
	if c.BirthDate == nil {
		return 0, false
	}
	age := completedYears(*c.BirthDate, today)
	if age < 0 {
		return 0, false
	}
	return age, true
}

// addressTokens splits address into lower-cased words of at least four
// letters or digits.
func addressTokens(address string) []string {
	if strings.TrimSpace(address) == "" {
		return nil
	}
	words := strings.FieldsFunc(lower(address), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) >= minAddressTokenLen {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// lower builds a fresh Caser per call; Casers are not safe for concurrent use.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
