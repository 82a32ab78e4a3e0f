// Package scoring computes weighted risk scores over a form's answers.
package scoring

import (
	"math"

	"github.com/formscore/formscore/internal/schema"
)

// Level buckets a normalized score.
type Level string

const (
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"
)

// RiskScore is the computed result for one form. TotalScore and Percentage
// are rounded; Breakdown keeps the raw per-section sums.
type RiskScore struct {
	TotalScore int                     `json:"totalScore"`
	MaxScore   float64                 `json:"maxScore"`
	Percentage int                     `json:"percentage"`
	Level      Level                   `json:"level"`
	Breakdown  map[string]SectionScore `json:"breakdown"`
}

// SectionScore is the raw (non-normalized) per-section aggregate.
type SectionScore struct {
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"maxScore"`
	Percentage float64 `json:"percentage"`
}

// CalculateRiskScore walks every section, sums question scores against their
// risk weights, and normalizes the total onto the config's maxRiskScore
// scale.
//
// Level thresholds apply to the normalized score, so configs with
// maxRiskScore below 100 compress answers into the lower bands. That is the
// documented calibration: maxRiskScore rescales both the reported score and
// the severity bands together.
func CalculateRiskScore(cfg *schema.FormConfig, values schema.FormValues) *RiskScore {
	breakdown := make(map[string]SectionScore, len(cfg.Sections))

	var totalScore, totalMax float64
	for _, section := range cfg.Sections {
		var score, max float64
		for i := range section.Questions {
			q := &section.Questions[i]
			score += QuestionScore(q, values[q.ID])
			max += q.RiskWeight
		}
		breakdown[section.ID] = SectionScore{
			Score:      score,
			MaxScore:   max,
			Percentage: percentage(score, max),
		}
		totalScore += score
		totalMax += max
	}

	rawPct := percentage(totalScore, totalMax)
	maxRisk := cfg.EffectiveMaxRiskScore()
	normalized := math.Round(rawPct / 100 * maxRisk)

	return &RiskScore{
		TotalScore: int(normalized),
		MaxScore:   maxRisk,
		Percentage: int(math.Round(rawPct)),
		Level:      LevelFor(normalized),
		Breakdown:  breakdown,
	}
}

// QuestionScore computes one question's contribution.
//
// Unanswered questions (absent or empty-string answers) score zero. Select
// and checkbox questions whose options carry risk values score by option:
// single-select takes the matched option's value, checkbox averages the
// selected options' values, both falling back to the question's risk weight
// where an option has none. Every other answered question scores its full
// risk weight.
func QuestionScore(q *schema.Question, value schema.Value) float64 {
	if value.IsBlank() {
		return 0
	}

	if (q.Type == schema.TypeSelect || q.Type == schema.TypeCheckbox) && hasRiskValues(q) {
		switch value.Kind() {
		case schema.KindStringList:
			selected := value.List()
			if len(selected) == 0 {
				return q.RiskWeight
			}
			var sum float64
			for _, item := range selected {
				sum += optionScore(q, item)
			}
			return sum / float64(len(selected))
		default:
			return optionScore(q, value.AsString())
		}
	}

	return q.RiskWeight
}

func hasRiskValues(q *schema.Question) bool {
	for i := range q.Options {
		if q.Options[i].RiskValue != nil {
			return true
		}
	}
	return false
}

func optionScore(q *schema.Question, value string) float64 {
	if opt, ok := q.FindOption(value); ok && opt.RiskValue != nil {
		return *opt.RiskValue
	}
	return q.RiskWeight
}

// LevelFor buckets a normalized score into severity bands.
func LevelFor(score float64) Level {
	switch {
	case score >= 75:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 25:
		return LevelMedium
	default:
		return LevelLow
	}
}

func percentage(score, max float64) float64 {
	if max == 0 {
		return 0
	}
	return score / max * 100
}
