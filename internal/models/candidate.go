package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Candidate sources.
const (
	CandidateSourceLive = "live"
	CandidateSourceDemo = "demo"
)

// Candidate is a persisted CandidateProfile plus the resume it came from.
type Candidate struct {
	ID              string                            `gorm:"primaryKey;size:36" json:"id"`
	UserID          *string                           `gorm:"size:36;index" json:"user_id,omitempty"`
	FullName        string                            `gorm:"size:255" json:"full_name"`
	Email           string                            `gorm:"size:255;index" json:"email"`
	Phone           string                            `gorm:"size:64" json:"phone"`
	Location        string                            `gorm:"size:255" json:"location"`
	CandidateInfo   datatypes.JSONType[CandidateInfo] `json:"candidate_info"`
	TechnicalDNA    datatypes.JSONType[TechnicalDNA]  `json:"technical_dna"`
	GCCReadiness    datatypes.JSONType[GCCReadiness]  `json:"gcc_readiness"`
	ReadinessScore  int                               `gorm:"index" json:"readiness_score"`
	FlightRisk      datatypes.JSONType[FlightRisk]    `json:"flight_risk"`
	SkillsArray     datatypes.JSONSlice[string]       `json:"skills_array"`
	Strengths       datatypes.JSONSlice[string]       `json:"strengths"`
	Gaps            datatypes.JSONSlice[string]       `json:"gaps"`
	RecommendedRole string                            `gorm:"size:255" json:"recommended_role"`
	ResumeText      string                            `gorm:"type:text" json:"-"`
	ResumeURL       string                            `gorm:"size:1024" json:"resume_url,omitempty"`
	Source          string                            `gorm:"size:16;not null;default:live" json:"source"`
	CreatedAt       time.Time                         `json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key.
func (c *Candidate) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// NewCandidate flattens a profile into its persisted form.
func NewCandidate(profile CandidateProfile, resumeText, resumeURL, source string) Candidate {
	return Candidate{
		FullName:        profile.CandidateInfo.Name,
		Email:           profile.CandidateInfo.Email,
		Phone:           profile.CandidateInfo.Phone,
		Location:        profile.CandidateInfo.Location,
		CandidateInfo:   datatypes.NewJSONType(profile.CandidateInfo),
		TechnicalDNA:    datatypes.NewJSONType(profile.TechnicalDNA),
		GCCReadiness:    datatypes.NewJSONType(profile.GCCReadiness),
		ReadinessScore:  profile.GCCReadiness.Score,
		FlightRisk:      datatypes.NewJSONType(profile.FlightRisk),
		SkillsArray:     datatypes.JSONSlice[string](nonNil(profile.SkillsArray)),
		Strengths:       datatypes.JSONSlice[string](nonNil(profile.Strengths)),
		Gaps:            datatypes.JSONSlice[string](nonNil(profile.Gaps)),
		RecommendedRole: profile.RecommendedRole,
		ResumeText:      resumeText,
		ResumeURL:       resumeURL,
		Source:          source,
	}
}

// Profile rebuilds the analysis result from the stored columns.
func (c Candidate) Profile() CandidateProfile {
	return CandidateProfile{
		CandidateInfo:   c.CandidateInfo.Data(),
		TechnicalDNA:    c.TechnicalDNA.Data(),
		GCCReadiness:    c.GCCReadiness.Data(),
		SkillsArray:     []string(c.SkillsArray),
		FlightRisk:      c.FlightRisk.Data(),
		Strengths:       []string(c.Strengths),
		Gaps:            []string(c.Gaps),
		RecommendedRole: c.RecommendedRole,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
