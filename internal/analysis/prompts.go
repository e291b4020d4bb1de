package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

const resumeAnalysisPrompt = `You are an expert GCC (Global Capability Center) technical recruiter with 15+ years of experience. Analyse the resume below.

Instructions:
1. Read every detail of the resume.
2. Extract all technologies, skills and experience mentioned.
3. Base every score on evidence in the resume, never on defaults.
4. Strong resumes deserve high scores (80-95); weak resumes deserve honest low scores (40-60).

Return ONLY a JSON object with this structure (no markdown, no code fences):
{
  "candidate_info": {
    "name": "exact full name",
    "email": "email or 'Not Provided'",
    "phone": "phone with country code or 'Not Provided'",
    "location": "city and country or 'Not Specified'"
  },
  "technical_dna": {
    "primary_stack": ["4-6 main technologies"],
    "years_experience": <integer>,
    "project_complexity_score": <integer 1-10>,
    "proficiency_levels": {"Technology": <integer 0-100>}
  },
  "gcc_readiness": {
    "score": <integer 0-100>,
    "reasoning_summary": "2-3 sentences grounded in the resume",
    "cultural_fit_notes": "teamwork, communication and adaptability evidence",
    "scalability_mindset": <integer 0-100>,
    "cross_team_communication": <integer 0-100>,
    "system_design": <integer 0-100>
  },
  "skills_array": ["every technical skill found, at least 10"],
  "flight_risk": {"risk_level": "Low|Medium|High", "reason": "tenure pattern and career stability"},
  "strengths": ["3-5 strengths"],
  "gaps": ["2-4 gaps for GCC roles"],
  "recommended_role": "specific role title"
}

Scoring guidelines:
- GCC readiness: 85-95 exceptional (cloud, distributed systems, global teams), 70-84 strong with some gaps, 50-69 moderate potential, below 50 needs development.
- Scalability mindset: 80+ for AWS/Azure/GCP, microservices, distributed or high-traffic systems.
- Cross-team communication: 80+ for collaboration, documentation, presentations, cross-functional work.
- System design: 80+ for architecture ownership, design patterns, technical leadership, optimisation.

Flight risk:
- Low: 2+ years average tenure, clear growth, recent upskilling.
- Medium: 1-2 years average tenure or one job hop.
- High: under 1 year average tenure or outdated skills.`

func buildResumePrompt(text string) string {
	if strings.TrimSpace(text) == "" {
		return resumeAnalysisPrompt + "\n\nThe resume is attached as a document."
	}
	return resumeAnalysisPrompt + "\n\nRESUME:\n" + text
}

const questionPromptTemplate = `You are an expert technical interviewer. Generate 5 coding assessment questions for this candidate.

Candidate:
- Name: %s
- Skills: %s
- Technical DNA: %s
- Resume summary: %s

Requirements:
1. Exactly 5 questions.
2. Difficulty mix: 2 Easy, 2 Medium, 1 Hard.
3. Relevant to the candidate's skills and experience level.
4. Practical, real-world problem solving.
5. Include sample input and output.

Return ONLY a JSON object (no markdown) with this structure:
{"questions": [{"id": "q1", "title": "...", "description": "problem with constraints", "difficulty": "Easy|Medium|Hard", "expected_skills": ["..."], "sample_input": "...", "sample_output": "...", "hints": ["..."]}]}`

func buildQuestionPrompt(profile SkillProfile) string {
	dna, err := json.Marshal(profile.TechnicalDNA)
	if err != nil {
		dna = []byte("{}")
	}
	return fmt.Sprintf(questionPromptTemplate,
		profile.CandidateName,
		strings.Join(profile.Skills, ", "),
		string(dna),
		profile.ResumeExcerpt,
	)
}

const evaluationPromptTemplate = `You are an expert code reviewer. Evaluate these coding assessment answers.

Questions and answers:
%s

Judge each answer on correctness, code quality, efficiency and coding conventions. When an answer carries program output, compare it with the expected sample output.

Return ONLY a JSON object (no markdown):
{"overall_score": <integer 0-100>, "question_scores": [{"question_id": "q1", "score": <integer 0-100>, "feedback": "..."}], "strengths": ["..."], "weaknesses": ["..."], "recommendation": "Strong Hire|Hire|Maybe|No Hire"}`

func buildEvaluationPrompt(questions []models.Question, answers []models.Answer) string {
	payload, err := json.MarshalIndent(map[string]interface{}{
		"questions": questions,
		"answers":   answers,
	}, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	return fmt.Sprintf(evaluationPromptTemplate, string(payload))
}
