package locator

import (
	"fmt"

	"github.com/junqing258/crawler-assistant/dom"
)

// ValidatedThreshold is the overall score at which a Set is accepted
// without review.
const ValidatedThreshold = 0.8

// BroadCountLimit is the per-role match count above which a locator is
// flagged as too broad.
const BroadCountLimit = 100

// RoleResult is the validation outcome for one role.
type RoleResult struct {
	Valid bool   `json:"valid"`
	Count int    `json:"count"`
	Note  string `json:"note"`
}

// Validation is the acceptance report for a Set against one document.
type Validation struct {
	OverallScore float64             `json:"overall_score"`
	PerRole      map[Role]RoleResult `json:"per_role"`
	Suggestions  []string            `json:"suggestions"`
}

// Validate checks every locator in the Set against the document and
// produces the confidence report. OverallScore is the fraction of present
// roles whose locator matches at least one element.
func Validate(set *Set, doc dom.Document) *Validation {
	v := &Validation{PerRole: make(map[Role]RoleResult)}

	present := 0
	valid := 0

	for _, role := range Roles() {
		loc := set.Locator(role)
		if loc == "" {
			continue
		}
		present++

		res := RoleResult{}
		matches, err := doc.Select(loc)
		if err != nil {
			res.Note = "invalid selector syntax"
		} else {
			res.Count = len(matches)
			res.Valid = res.Count > 0
			if res.Valid {
				res.Note = fmt.Sprintf("matched %d elements", res.Count)
				valid++
			} else {
				res.Note = "no elements matched"
			}
		}
		v.PerRole[role] = res
	}

	if present > 0 {
		v.OverallScore = float64(valid) / float64(present)
	}

	// Suggestions follow canonical role order so repeated validations of
	// the same inputs produce identical reports.
	for _, role := range Roles() {
		res, ok := v.PerRole[role]
		if !ok {
			continue
		}
		switch {
		case res.Count == 0:
			v.Suggestions = append(v.Suggestions, fmt.Sprintf("%s: locator invalid", role))
		case res.Count > BroadCountLimit:
			v.Suggestions = append(v.Suggestions, fmt.Sprintf("%s: locator too broad", role))
		}
	}

	return v
}

// Apply stamps the validation outcome onto the Set: confidence and the
// validated / needs_review status.
func (v *Validation) Apply(set *Set) {
	set.Confidence = v.OverallScore
	if v.OverallScore >= ValidatedThreshold {
		set.Status = StatusValidated
	} else {
		set.Status = StatusNeedsReview
	}
}
