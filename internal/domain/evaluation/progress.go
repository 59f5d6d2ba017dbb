package evaluation

import (
	"math"
	"sort"
	"time"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPORT
// Agregação do histórico de avaliações por critério: média, último valor,
// mínimo, máximo e a série datada usada nos gráficos.
// ══════════════════════════════════════════════════════════════════════════════

// Scope indica se o relatório é de um aluno ou de uma turma inteira.
type Scope string

const (
	ScopeStudent Scope = "student"
	ScopeClass   Scope = "class"
)

// Point é uma nota em uma data.
type Point struct {
	Date  time.Time
	Value float64
}

// CriterionStats são as estatísticas de um critério.
type CriterionStats struct {
	Criterion Criterion
	Average   float64
	Latest    float64
	Min       float64
	Max       float64
	Count     int

	// Series - notas em ordem cronológica.
	Series []Point
}

// RoundedAverage devolve a média arredondada para exibição.
func (s CriterionStats) RoundedAverage() float64 {
	return shared.Round2(s.Average)
}

// Trend devolve a diferença entre a última e a primeira nota da série.
func (s CriterionStats) Trend() float64 {
	if len(s.Series) < 2 {
		return 0
	}
	return s.Series[len(s.Series)-1].Value - s.Series[0].Value
}

// ProgressReport é o resultado da agregação.
// Um relatório sem critérios significa "sem dados", não erro.
type ProgressReport struct {
	Scope Scope

	// Criteria - apenas critérios com pelo menos um valor, na ordem de declaração.
	Criteria []CriterionStats

	// Evaluations - quantas avaliações entraram na agregação.
	Evaluations int

	// Students - quantos alunos distintos aparecem nas avaliações.
	Students int

	// First e Last delimitam o período coberto.
	First time.Time
	Last  time.Time

	sorted []Evaluation
}

// HasData retorna false para o relatório vazio.
func (r ProgressReport) HasData() bool {
	return len(r.Criteria) > 0
}

// Stats devolve as estatísticas de um critério, se presente.
func (r ProgressReport) Stats(c Criterion) (CriterionStats, bool) {
	for _, s := range r.Criteria {
		if s.Criterion == c {
			return s, true
		}
	}
	return CriterionStats{}, false
}

// Ranking ordena os critérios por média decrescente.
// Empates ficam na ordem de declaração dos critérios.
func (r ProgressReport) Ranking() []CriterionStats {
	out := make([]CriterionStats, len(r.Criteria))
	copy(out, r.Criteria)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].Criterion.Order() < out[j].Criterion.Order()
	})
	return out
}

// Best devolve o critério de maior média.
func (r ProgressReport) Best() (CriterionStats, bool) {
	ranking := r.Ranking()
	if len(ranking) == 0 {
		return CriterionStats{}, false
	}
	return ranking[0], true
}

// Worst devolve o critério de menor média.
func (r ProgressReport) Worst() (CriterionStats, bool) {
	ranking := r.Ranking()
	if len(ranking) == 0 {
		return CriterionStats{}, false
	}
	return ranking[len(ranking)-1], true
}

// OverallAverage devolve a média das médias dos critérios.
func (r ProgressReport) OverallAverage() (float64, bool) {
	if !r.HasData() {
		return 0, false
	}
	sum := 0.0
	for _, s := range r.Criteria {
		sum += s.Average
	}
	return sum / float64(len(r.Criteria)), true
}

// ChartRow é uma linha do gráfico: uma data e as notas daquele instante.
type ChartRow struct {
	Date   time.Time
	Values map[Criterion]float64
}

// ChartSeries devolve uma linha por data em ordem cronológica.
// Quando várias avaliações têm a mesma data (turma), os valores são a média delas.
func (r ProgressReport) ChartSeries() []ChartRow {
	if len(r.sorted) == 0 {
		return r.chartFromSeries()
	}

	type acc struct {
		sum   map[Criterion]float64
		count map[Criterion]int
	}
	var (
		rows  []ChartRow
		accum []acc
	)
	for _, e := range r.sorted {
		if len(rows) == 0 || !rows[len(rows)-1].Date.Equal(e.Date) {
			rows = append(rows, ChartRow{Date: e.Date, Values: map[Criterion]float64{}})
			accum = append(accum, acc{sum: map[Criterion]float64{}, count: map[Criterion]int{}})
		}
		a := accum[len(accum)-1]
		for _, c := range allCriteria {
			if v, ok := e.Scores[c]; ok {
				a.sum[c] += v
				a.count[c]++
			}
		}
	}
	for i := range rows {
		for c, sum := range accum[i].sum {
			rows[i].Values[c] = sum / float64(accum[i].count[c])
		}
	}
	return rows
}

// chartFromSeries monta o gráfico de um relatório vindo do servidor,
// que só traz as séries por critério.
func (r ProgressReport) chartFromSeries() []ChartRow {
	byDate := map[int64]*ChartRow{}
	var order []int64
	for _, s := range r.Criteria {
		for _, p := range s.Series {
			key := p.Date.UnixNano()
			row, ok := byDate[key]
			if !ok {
				row = &ChartRow{Date: p.Date, Values: map[Criterion]float64{}}
				byDate[key] = row
				order = append(order, key)
			}
			row.Values[s.Criterion] = p.Value
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	rows := make([]ChartRow, 0, len(order))
	for _, k := range order {
		rows = append(rows, *byDate[k])
	}
	return rows
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// AggregateByStudent agrega o histórico de um aluno.
// A entrada pode vir em qualquer ordem; a série sai em ordem cronológica e
// Latest é a nota da avaliação de maior data.
func AggregateByStudent(evals []Evaluation) ProgressReport {
	return aggregate(ScopeStudent, evals)
}

// AggregateByClass agrega as avaliações de todos os alunos de uma turma
// como um único conjunto. Min e Max são calculados sobre o conjunto inteiro.
func AggregateByClass(evals []Evaluation) ProgressReport {
	return aggregate(ScopeClass, evals)
}

func aggregate(scope Scope, evals []Evaluation) ProgressReport {
	report := ProgressReport{Scope: scope}
	if len(evals) == 0 {
		return report
	}

	sorted := SortByDate(evals)
	report.sorted = sorted
	report.Evaluations = len(sorted)
	report.First = sorted[0].Date
	report.Last = sorted[len(sorted)-1].Date

	students := map[string]struct{}{}
	for _, e := range sorted {
		if id := shared.NormalizeID(e.StudentID); id != "" {
			students[id] = struct{}{}
		}
	}
	report.Students = len(students)

	for _, c := range allCriteria {
		stats := CriterionStats{
			Criterion: c,
			Min:       math.Inf(1),
			Max:       math.Inf(-1),
		}
		sum := 0.0
		for _, e := range sorted {
			v, ok := e.Scores[c]
			if !ok {
				continue
			}
			sum += v
			stats.Count++
			stats.Latest = v
			stats.Min = math.Min(stats.Min, v)
			stats.Max = math.Max(stats.Max, v)
			stats.Series = append(stats.Series, Point{Date: e.Date, Value: v})
		}
		if stats.Count == 0 {
			continue
		}
		stats.Average = sum / float64(stats.Count)
		report.Criteria = append(report.Criteria, stats)
	}

	return report
}

// NewReport monta um relatório a partir de estatísticas já calculadas,
// como as devolvidas pelo servidor. Critérios desconhecidos ou vazios são
// descartados e o restante fica na ordem de declaração.
func NewReport(scope Scope, stats []CriterionStats) ProgressReport {
	report := ProgressReport{Scope: scope}
	for _, s := range stats {
		if !s.Criterion.IsValid() {
			continue
		}
		if s.Count == 0 {
			s.Count = len(s.Series)
		}
		if s.Count == 0 && s.Average == 0 {
			continue
		}
		sort.SliceStable(s.Series, func(i, j int) bool { return s.Series[i].Date.Before(s.Series[j].Date) })
		report.Criteria = append(report.Criteria, s)
		for _, p := range s.Series {
			if report.First.IsZero() || p.Date.Before(report.First) {
				report.First = p.Date
			}
			if p.Date.After(report.Last) {
				report.Last = p.Date
			}
		}
		if len(s.Series) > report.Evaluations {
			report.Evaluations = len(s.Series)
		}
	}
	sort.SliceStable(report.Criteria, func(i, j int) bool {
		return report.Criteria[i].Criterion.Order() < report.Criteria[j].Criterion.Order()
	})
	return report
}
