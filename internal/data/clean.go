package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// DefaultCategory fills categorical answers left blank.
const DefaultCategory = "Neutral"

var dashReplacer = strings.NewReplacer("â€“", "-", "–", "-")

// NormalizeDashes rewrites en-dashes, and the mojibake a UTF-8 en-dash becomes
// after a Windows-1252 round trip, into ASCII hyphens.
func NormalizeDashes(s string) string { return dashReplacer.Replace(s) }

var missingTokens = map[string]bool{"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true}

func isMissing(s string) bool { return missingTokens[strings.ToLower(strings.TrimSpace(s))] }

// ReadSurveyCSV loads and cleans a survey export.
func ReadSurveyCSV(path string) ([]SurveyResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSurvey(f)
}

// ParseSurvey reads a survey CSV whose header holds either the long question
// texts or the short column names. Blank categorical answers become
// DefaultCategory, unparseable promotion gaps take the median of the parsed
// ones, and any attrition answer other than Yes counts as 0.
func ParseSurvey(r io.Reader) ([]SurveyResponse, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read survey csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("survey csv has no data rows")
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[h] = i
	}
	cols := make(map[string]int, len(SurveyQuestions))
	var missing error
	for _, q := range SurveyQuestions {
		if i, ok := header[q.Question]; ok {
			cols[q.Column] = i
		} else if i, ok := header[q.Column]; ok {
			cols[q.Column] = i
		} else {
			missing = multierr.Append(missing, fmt.Errorf("missing column %q", q.Question))
		}
	}
	if missing != nil {
		return nil, missing
	}

	cell := func(row []string, col string) string {
		i := cols[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	category := func(row []string, col string) string {
		v := cell(row, col)
		if isMissing(v) {
			return DefaultCategory
		}
		return v
	}

	out := make([]SurveyResponse, 0, len(rows)-1)
	var gaps []float64
	for _, row := range rows[1:] {
		gap := math.NaN()
		if v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, ColPromotionGap)), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			gap = v
			gaps = append(gaps, v)
		}
		attrition := 0
		if strings.TrimSpace(cell(row, ColAttrition)) == "Yes" {
			attrition = 1
		}
		out = append(out, SurveyResponse{
			Department:       category(row, ColDepartment),
			Overtime:         NormalizeDashes(category(row, ColOvertime)),
			PromotionGap:     gap,
			JobSatisfaction:  category(row, ColJobSatisfaction),
			AIAutomationRisk: category(row, ColAIAutomationRisk),
			RecentLayoffs:    category(row, ColRecentLayoffs),
			JobSecurity:      category(row, ColJobSecurity),
			MarketDemand:     category(row, ColMarketDemand),
			Attrition:        attrition,
		})
	}

	fill := median(gaps)
	for i := range out {
		if math.IsNaN(out[i].PromotionGap) {
			out[i].PromotionGap = fill
		}
	}
	return out, nil
}

func median(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	s := append([]float64(nil), vs...)
	sort.Float64s(s)
	m := len(s) / 2
	if len(s)%2 == 1 {
		return s[m]
	}
	return (s[m-1] + s[m]) / 2
}

// Labels extracts the attrition target.
func Labels(rs []SurveyResponse) []int {
	y := make([]int, len(rs))
	for i, r := range rs {
		y[i] = r.Attrition
	}
	return y
}
