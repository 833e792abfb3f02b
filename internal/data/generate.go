package data

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

var (
	Departments       = []string{"Engineering", "Sales", "Marketing", "Finance", "Operations", "HR", "Customer Support"}
	OvertimeLevels    = []string{"0 hours", "1-10 hours", "11-20 hours", "20+ hours"}
	SatisfactionLevel = []string{"Very Dissatisfied", "Dissatisfied", "Neutral", "Satisfied", "Very Satisfied"}
	RiskLevels        = []string{"Very Low", "Low", "Medium", "High", "Very High"}
	YesNo             = []string{"Yes", "No"}
	SecurityLevels    = []string{"Very Unstable", "Unstable", "Medium", "Secure", "Very Secure"}
	DemandLevels      = []string{"Very Easy", "Easy", "Neutral", "Difficult"}
)

// SyntheticSurvey draws n plausible survey responses. Attrition is sampled
// from a logistic score that rises with overtime, promotion gap, automation
// risk, layoffs and market demand and falls with satisfaction and security.
func SyntheticSurvey(n int, seed int64) []SurveyResponse {
	rng := rand.New(rand.NewSource(seed))
	out := make([]SurveyResponse, n)
	for i := range out {
		ot := rng.Intn(len(OvertimeLevels))
		sat := rng.Intn(len(SatisfactionLevel))
		risk := rng.Intn(len(RiskLevels))
		layoffs := rng.Intn(2)
		sec := rng.Intn(len(SecurityLevels))
		dem := rng.Intn(len(DemandLevels))
		gap := math.Round(rng.ExpFloat64() * 2.5)
		if gap > 50 {
			gap = 50
		}

		score := -0.5
		score += 0.6 * float64(ot)
		score += 0.25 * math.Min(gap, 8)
		score -= 0.8 * float64(sat-2)
		score += 0.3 * float64(risk-2)
		if layoffs == 0 {
			score += 0.7
		}
		score -= 0.5 * float64(sec-2)
		score -= 0.4 * float64(dem-1)
		p := 1 / (1 + math.Exp(-score))

		r := SurveyResponse{
			Department:       Departments[rng.Intn(len(Departments))],
			Overtime:         OvertimeLevels[ot],
			PromotionGap:     gap,
			JobSatisfaction:  SatisfactionLevel[sat],
			AIAutomationRisk: RiskLevels[risk],
			RecentLayoffs:    YesNo[layoffs],
			JobSecurity:      SecurityLevels[sec],
			MarketDemand:     DemandLevels[dem],
		}
		if rng.Float64() < p {
			r.Attrition = 1
		}
		out[i] = r
	}
	return out
}

// GenerateSyntheticSurvey writes SyntheticSurvey(n, seed) to outPath using the
// question headers of the real survey export.
func GenerateSyntheticSurvey(n int, seed int64, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteSurveyCSV(f, SyntheticSurvey(n, seed))
}

// WriteSurveyCSV writes responses with the survey export's question headers.
func WriteSurveyCSV(out io.Writer, rs []SurveyResponse) error {
	w := csv.NewWriter(out)
	header := make([]string, len(SurveyQuestions))
	for i, q := range SurveyQuestions {
		header[i] = q.Question
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rs {
		attrition := "No"
		if r.Attrition == 1 {
			attrition = "Yes"
		}
		rec := []string{
			r.Department,
			r.Overtime,
			strconv.FormatFloat(r.PromotionGap, 'f', -1, 64),
			r.JobSatisfaction,
			r.AIAutomationRisk,
			r.RecentLayoffs,
			r.JobSecurity,
			r.MarketDemand,
			attrition,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
