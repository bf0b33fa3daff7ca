package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	transcript "github.com/iKozay/TrackMyDegree-sub000"
)

// Evaluator runs datasets against a transcript engine.
type Evaluator struct {
	engine transcript.Engine
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(engine transcript.Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

// Report holds the results of an evaluation run.
type Report struct {
	Dataset         string            `json:"dataset"`
	TotalTests      int               `json:"total_tests"`
	Passed          int               `json:"passed"`
	Failed          int               `json:"failed"`
	Errors          int               `json:"errors"`
	Metrics         Scores            `json:"metrics"`
	CategoryMetrics map[string]Scores `json:"category_metrics,omitempty"`
	Results         []TestResult      `json:"results"`
	RunTime         time.Duration     `json:"run_time"`
}

// TestResult holds the outcome of a single case.
type TestResult struct {
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Scores    Scores `json:"scores"`
	Passed    bool   `json:"passed"`
	Diff      string `json:"diff,omitempty"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Run parses every case in the dataset and scores the result. A case passes
// when the parsed transcript matches the expected one exactly.
func (e *Evaluator) Run(ctx context.Context, dataset Dataset) (*Report, error) {
	start := time.Now()
	report := &Report{
		Dataset:         dataset.Name,
		TotalTests:      len(dataset.Cases),
		CategoryMetrics: make(map[string]Scores),
	}

	catCounts := make(map[string]int)
	scored := 0

	for i, c := range dataset.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := e.runCase(ctx, dataset, c)
		report.Results = append(report.Results, result)

		status := "PASS"
		switch {
		case result.Error != "":
			status = "ERROR"
		case !result.Passed:
			status = "FAIL"
		}
		slog.Info("eval: case complete",
			"progress", fmt.Sprintf("%d/%d", i+1, len(dataset.Cases)),
			"status", status,
			"course_recall", fmt.Sprintf("%.2f", result.Scores.CourseRecall),
			"elapsed_ms", result.ElapsedMs,
			"case", c.Name)

		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		// Errored cases carry no scores.
		if result.Error != "" {
			report.Errors++
			continue
		}

		scored++
		report.Metrics = add(report.Metrics, result.Scores)
		if c.Category != "" {
			catCounts[c.Category]++
			report.CategoryMetrics[c.Category] = add(report.CategoryMetrics[c.Category], result.Scores)
		}
	}

	report.Metrics = scale(report.Metrics, scored)
	for cat, n := range catCounts {
		report.CategoryMetrics[cat] = scale(report.CategoryMetrics[cat], n)
	}

	report.RunTime = time.Since(start)
	return report, nil
}

func (e *Evaluator) runCase(ctx context.Context, ds Dataset, c Case) TestResult {
	start := time.Now()
	result := TestResult{Name: c.Name, Category: c.Category}

	var (
		res *transcript.Result
		err error
	)
	if c.Text != "" {
		res, err = e.engine.ParseReader(ctx, c.Name+".txt", strings.NewReader(c.Text), transcript.WithForceReparse())
	} else {
		res, err = e.engine.Parse(ctx, ds.resolve(c.File), transcript.WithForceReparse())
	}
	result.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	got := *res.Transcript
	result.Scores = Score(c.Expected, got)
	result.Diff = Diff(c.Expected, got)
	result.Passed = result.Diff == ""
	return result
}

func add(a, b Scores) Scores {
	return Scores{
		SemesterRecall:  a.SemesterRecall + b.SemesterRecall,
		CourseRecall:    a.CourseRecall + b.CourseRecall,
		CoursePrecision: a.CoursePrecision + b.CoursePrecision,
		GradeAccuracy:   a.GradeAccuracy + b.GradeAccuracy,
		CreditRecall:    a.CreditRecall + b.CreditRecall,
		ProgramInfo:     a.ProgramInfo + b.ProgramInfo,
	}
}

func scale(s Scores, n int) Scores {
	if n == 0 {
		return Scores{}
	}
	d := float64(n)
	return Scores{
		SemesterRecall:  s.SemesterRecall / d,
		CourseRecall:    s.CourseRecall / d,
		CoursePrecision: s.CoursePrecision / d,
		GradeAccuracy:   s.GradeAccuracy / d,
		CreditRecall:    s.CreditRecall / d,
		ProgramInfo:     s.ProgramInfo / d,
	}
}

// FormatReport renders a human-readable summary.
func FormatReport(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Evaluation Report: %s ===\n", r.Dataset)
	fmt.Fprintf(&b, "Total: %d | Passed: %d (%.1f%%) | Failed: %d | Errors: %d\n",
		r.TotalTests, r.Passed, passRate(r.Passed, r.TotalTests), r.Failed, r.Errors)
	fmt.Fprintf(&b, "Run time: %s\n\n", r.RunTime.Round(time.Millisecond))

	fmt.Fprintf(&b, "Aggregate Metrics:\n")
	writeScores(&b, "  ", r.Metrics)
	fmt.Fprintln(&b)

	if len(r.CategoryMetrics) > 0 {
		cats := make([]string, 0, len(r.CategoryMetrics))
		for cat := range r.CategoryMetrics {
			cats = append(cats, cat)
		}
		sort.Strings(cats)

		fmt.Fprintf(&b, "Per-Category Metrics:\n")
		for _, cat := range cats {
			m := r.CategoryMetrics[cat]
			fmt.Fprintf(&b, "  [%s] Sem=%.2f CrsR=%.2f CrsP=%.2f Grade=%.2f Credit=%.2f Prog=%.2f\n",
				cat, m.SemesterRecall, m.CourseRecall, m.CoursePrecision, m.GradeAccuracy, m.CreditRecall, m.ProgramInfo)
		}
		fmt.Fprintln(&b)
	}

	for i, res := range r.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %d. %s\n", status, i+1, res.Name)
		if res.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", res.Error)
			continue
		}
		if res.Diff != "" {
			fmt.Fprintf(&b, "  Diff (-want +got):\n%s", indent(res.Diff, "    "))
		}
	}
	return b.String()
}

func writeScores(b *strings.Builder, prefix string, s Scores) {
	fmt.Fprintf(b, "%sSemester Recall:   %.2f\n", prefix, s.SemesterRecall)
	fmt.Fprintf(b, "%sCourse Recall:     %.2f\n", prefix, s.CourseRecall)
	fmt.Fprintf(b, "%sCourse Precision:  %.2f\n", prefix, s.CoursePrecision)
	fmt.Fprintf(b, "%sGrade Accuracy:    %.2f\n", prefix, s.GradeAccuracy)
	fmt.Fprintf(b, "%sCredit Recall:     %.2f\n", prefix, s.CreditRecall)
	fmt.Fprintf(b, "%sProgram Info:      %.2f\n", prefix, s.ProgramInfo)
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "")
}

func passRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}
