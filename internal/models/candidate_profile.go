package models

// Sentinels for unresolved candidate details.
const (
	NotProvided  = "Not Provided"
	NotSpecified = "Not Specified"
)

// Flight risk levels.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// CandidateInfo carries the contact block of an analysed resume.
type CandidateInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// TechnicalDNA summarises stack depth and breadth.
type TechnicalDNA struct {
	PrimaryStack           []string       `json:"primary_stack"`
	YearsExperience        int            `json:"years_experience"`
	ProjectComplexityScore int            `json:"project_complexity_score"`
	ProficiencyLevels      map[string]int `json:"proficiency_levels"`
}

// GCCReadiness scores how ready the candidate is for a capability-center role.
type GCCReadiness struct {
	Score                  int    `json:"score"`
	ReasoningSummary       string `json:"reasoning_summary"`
	CulturalFitNotes       string `json:"cultural_fit_notes"`
	ScalabilityMindset     int    `json:"scalability_mindset"`
	CrossTeamCommunication int    `json:"cross_team_communication"`
	SystemDesign           int    `json:"system_design"`
}

// FlightRisk estimates the likelihood of early attrition.
type FlightRisk struct {
	RiskLevel string `json:"risk_level"`
	Reason    string `json:"reason"`
}

// CandidateProfile is the structured result of resume analysis.
type CandidateProfile struct {
	CandidateInfo   CandidateInfo `json:"candidate_info"`
	TechnicalDNA    TechnicalDNA  `json:"technical_dna"`
	GCCReadiness    GCCReadiness  `json:"gcc_readiness"`
	SkillsArray     []string      `json:"skills_array"`
	FlightRisk      FlightRisk    `json:"flight_risk"`
	Strengths       []string      `json:"strengths,omitempty"`
	Gaps            []string      `json:"gaps,omitempty"`
	RecommendedRole string        `json:"recommended_role,omitempty"`
}
