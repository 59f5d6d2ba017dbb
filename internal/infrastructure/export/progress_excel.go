// Package export writes progress reports to Excel workbooks.
package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/pkg/timeutil"
)

// Sheet names.
const (
	SheetSummary     = "Resumo"
	SheetTimeline    = "Evolução"
	SheetEvaluations = "Avaliações"
)

// ProgressSheet describes what goes into a progress workbook.
type ProgressSheet struct {
	// Title names the student or class, e.g. "Ana Souza" or "5º Ano A".
	Title string

	Report      evaluation.ProgressReport
	Evaluations []evaluation.Evaluation

	// StudentNames resolves student ids on the evaluations sheet. Optional.
	StudentNames map[string]string

	GeneratedAt time.Time
}

// NewProgressWorkbook builds a workbook with a summary sheet, a timeline
// sheet and, when evaluations are given, one row per evaluation.
func NewProgressWorkbook(p ProgressSheet) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeSummary(f, p); err != nil {
		return nil, err
	}
	if err := writeTimeline(f, p.Report); err != nil {
		return nil, err
	}
	if len(p.Evaluations) > 0 {
		if err := writeEvaluations(f, p); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// SaveProgressWorkbook builds the workbook and writes it to path.
func SaveProgressWorkbook(path string, p ProgressSheet) error {
	f, err := NewProgressWorkbook(p)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, p ProgressSheet) error {
	header := []any{"Critério", "Média", "Última", "Mínima", "Máxima", "Avaliações", "Tendência"}

	generated := p.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	intro := [][]any{
		{"Relatório de evolução", p.Title},
		{"Gerado em", timeutil.FormatDate(generated)},
		{"Avaliações", p.Report.Evaluations},
	}
	if p.Report.Scope == evaluation.ScopeClass {
		intro = append(intro, []any{"Alunos", p.Report.Students})
	}
	row := 1
	for _, r := range intro {
		if err := setRow(f, SheetSummary, row, r); err != nil {
			return err
		}
		row++
	}
	row++

	headerRow := row
	if err := setRow(f, SheetSummary, row, header); err != nil {
		return err
	}
	row++
	if !p.Report.HasData() {
		if err := setRow(f, SheetSummary, row, []any{"Sem avaliações registradas"}); err != nil {
			return err
		}
		return styleHeader(f, SheetSummary, headerRow, len(header))
	}
	for _, s := range p.Report.Criteria {
		values := []any{s.Criterion.Label(), s.RoundedAverage(), s.Latest, s.Min, s.Max, s.Count, s.Trend()}
		if err := setRow(f, SheetSummary, row, values); err != nil {
			return err
		}
		row++
	}
	if avg, ok := p.Report.OverallAverage(); ok {
		row++
		if err := setRow(f, SheetSummary, row, []any{"Média geral", shared.Round2(avg)}); err != nil {
			return err
		}
	}
	return styleHeader(f, SheetSummary, headerRow, len(header))
}

func writeTimeline(f *excelize.File, report evaluation.ProgressReport) error {
	if _, err := f.NewSheet(SheetTimeline); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	criteria := evaluation.Criteria()
	header := make([]any, 0, len(criteria)+1)
	header = append(header, "Data")
	for _, c := range criteria {
		header = append(header, c.Label())
	}
	if err := setRow(f, SheetTimeline, 1, header); err != nil {
		return err
	}
	for i, r := range report.ChartSeries() {
		values := make([]any, 0, len(header))
		values = append(values, timeutil.FormatDate(r.Date))
		for _, c := range criteria {
			if v, ok := r.Values[c]; ok {
				values = append(values, shared.Round2(v))
			} else {
				values = append(values, "")
			}
		}
		if err := setRow(f, SheetTimeline, i+2, values); err != nil {
			return err
		}
	}
	return styleHeader(f, SheetTimeline, 1, len(header))
}

func writeEvaluations(f *excelize.File, p ProgressSheet) error {
	if _, err := f.NewSheet(SheetEvaluations); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	criteria := evaluation.Criteria()
	header := []any{"Data", "Aluno"}
	for _, c := range criteria {
		header = append(header, c.Label())
	}
	header = append(header, "Pontos fortes", "Pontos a desenvolver")
	if err := setRow(f, SheetEvaluations, 1, header); err != nil {
		return err
	}

	for i, e := range evaluation.SortByDate(p.Evaluations) {
		name := p.StudentNames[e.StudentID]
		if name == "" {
			name = e.StudentID
		}
		values := []any{timeutil.FormatDate(e.Date), name}
		for _, c := range criteria {
			if v, ok := e.Scores.Get(c); ok {
				values = append(values, v)
			} else {
				values = append(values, "")
			}
		}
		values = append(values, e.Strengths, e.PointsToDevelop)
		if err := setRow(f, SheetEvaluations, i+2, values); err != nil {
			return err
		}
	}
	return styleHeader(f, SheetEvaluations, 1, len(header))
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set row %s!%d: %w", sheet, row, err)
	}
	return nil
}

// styleHeader makes the header row bold, adds a filter and sizes the columns.
func styleHeader(f *excelize.File, sheet string, row, cols int) error {
	if cols == 0 {
		return nil
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(cols, row)
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, first, last, style)
	}
	_ = f.AutoFilter(sheet, first+":"+last, nil)

	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	for c := 0; c < cols; c++ {
		width := 10.0
		for _, r := range rows {
			if c < len(r) {
				if w := float64(len([]rune(r[c])))*1.1 + 1.5; w > width {
					width = w
				}
			}
		}
		if width > 60 {
			width = 60
		}
		name, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, name, name, width)
	}
	return nil
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

// ReportFilename builds a file name such as
// "Evolução - Ana Souza - 15-10-2026.xlsx".
func ReportFilename(title string, at time.Time) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		title = "relatorio"
	}
	name := fmt.Sprintf("Evolução - %s - %s.xlsx", title, timeutil.ToLocal(at).Format("02-01-2006"))
	return invalidFileRe.ReplaceAllString(name, "_")
}
