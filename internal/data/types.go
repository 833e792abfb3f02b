package data

// SurveyResponse is one cleaned row of the workplace sentiment survey.
type SurveyResponse struct {
	Department       string  `json:"Department"`
	Overtime         string  `json:"Overtime"`
	PromotionGap     float64 `json:"Promotion_Gap"`
	JobSatisfaction  string  `json:"Job_Satisfaction"`
	AIAutomationRisk string  `json:"AI_Automation_Risk"`
	RecentLayoffs    string  `json:"Recent_Layoffs"`
	JobSecurity      string  `json:"Job_Security"`
	MarketDemand     string  `json:"Market_Demand"`
	Attrition        int     `json:"Attrition"`
}

// Feature column names, in the order the model is trained on.
const (
	ColDepartment       = "Department"
	ColOvertime         = "Overtime"
	ColPromotionGap     = "Promotion_Gap"
	ColJobSatisfaction  = "Job_Satisfaction"
	ColAIAutomationRisk = "AI_Automation_Risk"
	ColRecentLayoffs    = "Recent_Layoffs"
	ColJobSecurity      = "Job_Security"
	ColMarketDemand     = "Market_Demand"
	ColAttrition        = "Attrition"
)

var FeatureColumns = []string{
	ColDepartment,
	ColOvertime,
	ColPromotionGap,
	ColJobSatisfaction,
	ColAIAutomationRisk,
	ColRecentLayoffs,
	ColJobSecurity,
	ColMarketDemand,
}

var CategoricalColumns = []string{
	ColDepartment,
	ColOvertime,
	ColJobSatisfaction,
	ColAIAutomationRisk,
	ColRecentLayoffs,
	ColJobSecurity,
	ColMarketDemand,
}

// SurveyQuestions maps the survey export's question headers to column names.
var SurveyQuestions = []struct {
	Question string
	Column   string
}{
	{"Primary Department Question", ColDepartment},
	{"Average Monthly Overtime", ColOvertime},
	{"How many years has it been since your last job title change or promotion?", ColPromotionGap},
	{"Satisfaction", ColJobSatisfaction},
	{"Risk", ColAIAutomationRisk},
	{`Has your specific department experienced staff layoffs or "firing" in the last 12 months?`, ColRecentLayoffs},
	{"Security", ColJobSecurity},
	{"If you left today, how easy would it be to find a similar role elsewhere?", ColMarketDemand},
	{"Are you actively planning to leave your current company or looking for a new job within the next 6 months?", ColAttrition},
}

// Text returns the categorical value of col, or false for numeric and unknown columns.
func (r SurveyResponse) Text(col string) (string, bool) {
	switch col {
	case ColDepartment:
		return r.Department, true
	case ColOvertime:
		return r.Overtime, true
	case ColJobSatisfaction:
		return r.JobSatisfaction, true
	case ColAIAutomationRisk:
		return r.AIAutomationRisk, true
	case ColRecentLayoffs:
		return r.RecentLayoffs, true
	case ColJobSecurity:
		return r.JobSecurity, true
	case ColMarketDemand:
		return r.MarketDemand, true
	}
	return "", false
}
