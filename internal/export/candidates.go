// Package export renders recruiting data into spreadsheet reports.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

const (
	// SummarySheet is the name of the overview sheet.
	SummarySheet = "Summary"
	// CandidatesSheet is the name of the ranked candidate sheet.
	CandidatesSheet = "Candidates"
)

// CandidateReport describes what went into an export.
type CandidateReport struct {
	Filters     map[string]string
	GeneratedAt time.Time
	Candidates  []models.Candidate
}

var candidateColumns = []struct {
	title string
	width float64
}{
	{"Rank", 8},
	{"Name", 28},
	{"Email", 30},
	{"Location", 20},
	{"Readiness", 12},
	{"Flight Risk", 12},
	{"Experience (yrs)", 16},
	{"Primary Stack", 30},
	{"Skills", 40},
	{"Recommended Role", 28},
	{"Source", 10},
}

// CandidatesWorkbook renders the candidate report as an XLSX document.
func CandidatesWorkbook(report CandidateReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(CandidatesSheet); err != nil {
		return nil, err
	}

	if err := writeSummary(f, report); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeCandidates(f, report.Candidates); err != nil {
		return nil, fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, report CandidateReport) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 48); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	heading := func(text string) error {
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(SummarySheet, cell, text); err != nil {
			return err
		}
		if err := f.MergeCell(SummarySheet, cell, fmt.Sprintf("B%d", row)); err != nil {
			return err
		}
		row++
		return f.SetCellStyle(SummarySheet, cell, fmt.Sprintf("B%d", row-1), headerStyle)
	}
	pair := func(label string, value interface{}) error {
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(SummarySheet, cell, label); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, cell, cell, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), value); err != nil {
			return err
		}
		row++
		return nil
	}

	if err := heading("GCC-Pulse Candidate Report"); err != nil {
		return err
	}
	row++
	if err := pair("Generated:", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST")); err != nil {
		return err
	}
	if err := pair("Filters:", describeFilters(report.Filters)); err != nil {
		return err
	}
	if err := pair("Total Candidates:", len(report.Candidates)); err != nil {
		return err
	}
	row++

	if len(report.Candidates) == 0 {
		return nil
	}

	stats := summarize(report.Candidates)
	if err := heading("Readiness"); err != nil {
		return err
	}
	for _, entry := range []struct {
		label string
		value interface{}
	}{
		{"Average Score:", fmt.Sprintf("%.1f", stats.average)},
		{"Highest Score:", stats.highest},
		{"Lowest Score:", stats.lowest},
		{"Ready (80-100):", stats.ready},
		{"Developing (60-79):", stats.developing},
		{"Early (<60):", stats.early},
	} {
		if err := pair(entry.label, entry.value); err != nil {
			return err
		}
	}
	row++

	if err := heading("Flight Risk"); err != nil {
		return err
	}
	for _, level := range []string{models.RiskLow, models.RiskMedium, models.RiskHigh} {
		if err := pair(level+":", stats.risk[level]); err != nil {
			return err
		}
	}
	return nil
}

func writeCandidates(f *excelize.File, candidates []models.Candidate) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	bands := map[string]int{}
	for band, color := range map[string]string{"ready": "C6EFCE", "developing": "FFEB9C", "early": "FFC7CE"} {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		bands[band] = style
	}

	for i, column := range candidateColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(CandidatesSheet, name, name, column.width); err != nil {
			return err
		}
		if err := f.SetCellValue(CandidatesSheet, name+"1", column.title); err != nil {
			return err
		}
	}
	lastColumn, err := excelize.ColumnNumberToName(len(candidateColumns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(CandidatesSheet, "A1", lastColumn+"1", headerStyle); err != nil {
		return err
	}

	for i, candidate := range candidates {
		row := i + 2
		dna := candidate.TechnicalDNA.Data()
		values := []interface{}{
			i + 1,
			candidate.FullName,
			candidate.Email,
			candidate.Location,
			candidate.ReadinessScore,
			candidate.FlightRisk.Data().RiskLevel,
			dna.YearsExperience,
			strings.Join(dna.PrimaryStack, ", "),
			strings.Join([]string(candidate.SkillsArray), ", "),
			candidate.RecommendedRole,
			candidate.Source,
		}

		start, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(CandidatesSheet, start, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(CandidatesSheet, start, fmt.Sprintf("%s%d", lastColumn, row), bands[readinessBand(candidate.ReadinessScore)]); err != nil {
			return err
		}
	}

	return f.SetPanes(CandidatesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

type readinessStats struct {
	average    float64
	highest    int
	lowest     int
	ready      int
	developing int
	early      int
	risk       map[string]int
}

func summarize(candidates []models.Candidate) readinessStats {
	stats := readinessStats{
		highest: candidates[0].ReadinessScore,
		lowest:  candidates[0].ReadinessScore,
		risk:    map[string]int{},
	}

	total := 0
	for _, candidate := range candidates {
		score := candidate.ReadinessScore
		total += score
		if score > stats.highest {
			stats.highest = score
		}
		if score < stats.lowest {
			stats.lowest = score
		}
		switch readinessBand(score) {
		case "ready":
			stats.ready++
		case "developing":
			stats.developing++
		default:
			stats.early++
		}
		stats.risk[candidate.FlightRisk.Data().RiskLevel]++
	}
	stats.average = float64(total) / float64(len(candidates))
	return stats
}

func readinessBand(score int) string {
	switch {
	case score >= 80:
		return "ready"
	case score >= 60:
		return "developing"
	default:
		return "early"
	}
}

func describeFilters(filters map[string]string) string {
	parts := make([]string, 0, len(filters))
	for _, key := range []string{"min_score", "skill", "search"} {
		if value := filters[key]; value != "" {
			parts = append(parts, key+"="+value)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
