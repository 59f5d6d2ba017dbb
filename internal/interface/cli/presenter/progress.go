package presenter

import (
	"fmt"
	"strconv"

	"github.com/edfisica/pe-assessment-hub/internal/application/command"
	"github.com/edfisica/pe-assessment-hub/internal/application/query"
	"github.com/edfisica/pe-assessment-hub/internal/domain/evaluation"
	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
	"github.com/edfisica/pe-assessment-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVOLUÇÃO
// ══════════════════════════════════════════════════════════════════════════════

func score(v float64) string {
	return strconv.FormatFloat(shared.Round2(v), 'f', -1, 64)
}

func trend(v float64) string {
	switch {
	case v > 0:
		return "↑ " + score(v)
	case v < 0:
		return "↓ " + score(-v)
	default:
		return "="
	}
}

// Progress mostra o relatório de evolução de um aluno ou turma.
func (p *Presenter) Progress(title string, d *query.ProgressDTO) {
	p.title("Evolução - " + title)
	if d.Degraded {
		p.println(MsgDegraded)
	}
	r := d.Report
	if !r.HasData() {
		p.println("Sem avaliações registradas.")
		return
	}
	if !r.First.IsZero() {
		p.printf("Período: %s a %s\n", timeutil.FormatDate(r.First), timeutil.FormatDate(r.Last))
	}
	if r.Evaluations > 0 {
		p.printf("Avaliações: %d", r.Evaluations)
		if r.Scope == evaluation.ScopeClass && r.Students > 0 {
			p.printf(" (%d aluno(s))", r.Students)
		}
		p.println("")
	}
	p.println("")

	rows := make([][]string, 0, len(r.Criteria))
	for _, s := range r.Criteria {
		rows = append(rows, []string{
			s.Criterion.Label(), score(s.Average), score(s.Latest),
			score(s.Min), score(s.Max), fmt.Sprint(s.Count), trend(s.Trend()),
		})
	}
	p.table([]string{"Critério", "Média", "Última", "Mín", "Máx", "N", "Tendência"}, rows)

	p.println("")
	if best, ok := r.Best(); ok {
		p.printf("Destaque: %s (%s)\n", best.Criterion.Label(), score(best.Average))
	}
	if worst, ok := r.Worst(); ok {
		p.printf("A desenvolver: %s (%s)\n", worst.Criterion.Label(), score(worst.Average))
	}
	if avg, ok := r.OverallAverage(); ok {
		p.printf("Média geral: %s\n", score(avg))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AVALIAÇÕES
// ══════════════════════════════════════════════════════════════════════════════

// EvaluationSaved confirma a avaliação de um aluno.
func (p *Presenter) EvaluationSaved(studentName string, r *command.EvaluationResult) {
	p.Success("Avaliação de %s registrada em %s.", studentName, timeutil.FormatDate(r.Evaluation.Date))
	if mean, ok := r.Evaluation.Scores.Mean(); ok {
		p.printf("Média da avaliação: %s\n", score(mean))
	}
	if r.ReloadErr == nil {
		p.printf("%s tem %d avaliação(ões) no histórico.\n", studentName, len(r.History))
	}
	p.reloadWarning(r.ReloadErr)
}

// Batch mostra o desfecho de cada aluno na avaliação de turma.
func (p *Presenter) Batch(r *command.BatchResult) {
	rows := make([][]string, 0, len(r.Items))
	for _, it := range r.Items {
		var outcome string
		switch {
		case it.Skipped:
			outcome = "ignorado"
		case it.Err != nil:
			outcome = "falhou: " + ErrorText(it.Err)
		default:
			outcome = "registrada"
		}
		rows = append(rows, []string{it.Student.Name, outcome})
	}
	p.table([]string{"Aluno", "Avaliação"}, rows)
	p.printf("\n%d registrada(s), %d com falha, %d ignorada(s).\n", r.Created, r.Failed, r.Skipped)
}

// Status mostra quem já foi avaliado e quem está pendente.
func (p *Presenter) Status(d *query.EvaluationStatusDTO) {
	if d.Degraded {
		p.println(MsgDegraded)
		return
	}
	rows := make([][]string, 0, len(d.Rows))
	for _, s := range d.Rows {
		var state, last string
		switch {
		case s.Err != nil:
			state = "erro"
			last = ErrorText(s.Err)
		case s.Evaluated:
			state = "avaliado"
			last = timeutil.FormatDate(s.Latest)
		default:
			state = "pendente"
			last = "-"
		}
		rows = append(rows, []string{s.Student.Name, s.ClassName, state, fmt.Sprint(s.Count), last})
	}
	p.table([]string{"Aluno", "Turma", "Situação", "Avaliações", "Última"}, rows)
	p.printf("\n%d avaliado(s), %d pendente(s)", d.Evaluated, d.Pending)
	if d.Failed > 0 {
		p.printf(", %d sem resposta", d.Failed)
	}
	p.println(".")
}
