package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/edfisica/pe-assessment-hub/config"
	"github.com/edfisica/pe-assessment-hub/internal/application/command"
	"github.com/edfisica/pe-assessment-hub/internal/application/query"
	"github.com/edfisica/pe-assessment-hub/internal/application/validation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/internal/infrastructure/export"
)

// scoreFlag collects repeated -score criterion=value flags.
// Criteria may be given by key (speed) or label (Velocidade).
type scoreFlag map[string]float64

func (s scoreFlag) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.FormatFloat(s[k], 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (s scoreFlag) Set(v string) error {
	key, raw, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("use criterio=nota, recebido %q", v)
	}
	c, err := evaluation.ParseCriterion(key)
	if err != nil {
		return fmt.Errorf("critério desconhecido: %s", key)
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil {
		return fmt.Errorf("nota inválida para %s: %s", key, raw)
	}
	s[string(c)] = n
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) evaluate(ctx context.Context, args []string) error {
	fs := a.newFlagSet("evaluate")
	studentID := fs.String("student", "", "aluno avaliado")
	classID := fs.String("class", "", "turma; sem -student avalia todos os alunos da turma")
	only := fs.String("only", "", "com -class: IDs separados por vírgula")
	strengths := fs.String("strengths", "", "pontos fortes")
	develop := fs.String("develop", "", "pontos a desenvolver")
	scores := scoreFlag{}
	fs.Var(scores, "score", "criterio=nota (repetível); critérios omitidos ficam com a nota padrão")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	fill := func(studentID, classID string) validation.EvaluationForm {
		form := validation.NewEvaluationForm(studentID, classID)
		for k, v := range scores {
			form.Scores[k] = v
		}
		form.Strengths = *strengths
		form.PointsToDevelop = *develop
		return form
	}

	switch {
	case *studentID != "":
		return a.evaluateStudent(ctx, fill(*studentID, *classID))
	case *classID != "":
		if err := a.requireFeature(config.FeatureBatchEvaluation); err != nil {
			return err
		}
		return a.evaluateClass(ctx, *classID, *only, fill)
	}
	return usageError(a.deps.Stderr, "uso: peassess evaluate -student ID | -class ID [-score criterio=nota ...]")
}

func (a *App) evaluateStudent(ctx context.Context, form validation.EvaluationForm) error {
	r, err := a.evaluations.Evaluate(ctx, form)
	if err != nil {
		return err
	}
	name := form.StudentID
	if s, err := a.deps.Students.GetByID(ctx, form.StudentID); err == nil {
		name = s.Name
	}
	a.out.EvaluationSaved(name, r)
	return nil
}

func (a *App) evaluateClass(ctx context.Context, classID, only string, fill func(string, string) validation.EvaluationForm) error {
	forms := map[string]validation.EvaluationForm{}
	if only != "" {
		for _, id := range strings.Split(only, ",") {
			if id = shared.NormalizeID(id); id != "" {
				forms[id] = fill(id, classID)
			}
		}
	} else {
		r, err := a.view.Current(ctx)
		if err != nil {
			return err
		}
		for _, s := range r.Members(classID) {
			id := shared.NormalizeID(s.ID)
			forms[id] = fill(id, classID)
		}
	}

	result, err := a.evaluations.EvaluateClass(ctx, command.EvaluateClassCommand{
		ClassID:     classID,
		Forms:       forms,
		Concurrency: a.deps.Concurrency.Batch,
	})
	if err != nil {
		return err
	}
	if a.deps.Metrics != nil {
		a.deps.Metrics.ObserveBatch("evaluate_class", result.Created, result.Failed, result.Skipped)
	}
	a.out.Batch(result)
	if result.HasFailures() {
		return errBatchIncomplete{failed: result.Failed}
	}
	return nil
}

// errBatchIncomplete makes a partially failed batch exit non-zero.
// The per-student alerts were already printed with the batch table.
type errBatchIncomplete struct{ failed int }

func (e errBatchIncomplete) Error() string {
	return fmt.Sprintf("%d avaliação(ões) não registrada(s)", e.failed)
}

func (e errBatchIncomplete) UserMessage() string {
	return e.Error() + ". Tente novamente para os alunos com falha."
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) statusCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("status")
	classID := fs.String("class", "", "apenas alunos desta turma")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if err := a.requireFeature(config.FeatureEvaluationStatus); err != nil {
		return err
	}
	d, err := a.status.Handle(ctx, query.EvaluationStatusQuery{ClassID: *classID, Concurrency: a.deps.Concurrency.Status})
	if err != nil {
		return err
	}
	a.out.Status(d)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

func (a *App) progressCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("progress")
	studentID := fs.String("student", "", "evolução de um aluno")
	classID := fs.String("class", "", "evolução de uma turma")
	server := fs.Bool("server", a.enabled(config.FeatureServerProgress), "usar as estatísticas calculadas pelo servidor")
	xlsx := fs.String("xlsx", "", "grava a planilha neste arquivo")
	exportDir := fs.Bool("export", false, "grava a planilha no diretório de exportação")
	if err := parse(fs, args, 0); err != nil {
		return err
	}
	if (*studentID == "") == (*classID == "") {
		return usageError(a.deps.Stderr, "uso: peassess progress -student ID | -class ID [-server] [-xlsx ARQUIVO | -export]")
	}

	q := query.GetProgressQuery{StudentID: *studentID, ClassID: *classID, FromServer: *server}
	d, err := a.progress.Handle(ctx, q)
	if err != nil {
		return err
	}

	title, names, err := a.progressTitle(ctx, q)
	if err != nil {
		return err
	}
	a.out.Progress(title, d)

	path := *xlsx
	if path == "" && *exportDir {
		path = filepath.Join(a.deps.ExportDir, export.ReportFilename(title, a.deps.Now()))
	}
	if path == "" {
		return nil
	}
	if err := a.requireFeature(config.FeatureSpreadsheetExport); err != nil {
		return err
	}
	if err := export.SaveProgressWorkbook(path, export.ProgressSheet{
		Title:        title,
		Report:       d.Report,
		Evaluations:  d.Evaluations,
		StudentNames: names,
		GeneratedAt:  a.deps.Now(),
	}); err != nil {
		return err
	}
	a.out.Success("Planilha gravada em %s", path)
	return nil
}

// progressTitle resolves the student or class name and the student names
// used by the spreadsheet. Lookup failures fall back to the id, except an
// expired session.
func (a *App) progressTitle(ctx context.Context, q query.GetProgressQuery) (string, map[string]string, error) {
	id := q.StudentID
	if id == "" {
		id = q.ClassID
	}
	r, err := a.view.Current(ctx)
	if err != nil {
		if shared.IsSessionExpired(err) {
			return "", nil, err
		}
		return id, nil, nil
	}

	names := make(map[string]string, len(r.Students()))
	for _, s := range r.Students() {
		names[shared.NormalizeID(s.ID)] = s.Name
	}
	if q.StudentID != "" {
		if s, err := r.Student(q.StudentID); err == nil {
			return s.Name, names, nil
		}
		return id, names, nil
	}
	if c, err := r.Class(q.ClassID); err == nil {
		return c.Name, names, nil
	}
	return id, names, nil
}
