// Package report writes the artifact bundle every CLI invocation that
// produces output leaves behind: an assignment table, a scoring summary,
// per-student and per-class breakdowns, a configuration snapshot, and a
// short operation summary (spec.md §6.5). The core itself never touches a
// filesystem; this package is the caller-side concern that does.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/scorer"
	"github.com/noah-isme/classplacer/internal/table"
	pkgconfig "github.com/noah-isme/classplacer/pkg/config"
	"github.com/noah-isme/classplacer/pkg/export"
)

// Info carries the operation metadata written to operation_info.txt.
type Info struct {
	Operation            string
	InputPath            string
	Algorithm            string
	InitialScore         float64
	FinalScore           float64
	Duration             time.Duration
	Iterations           int
	ConstraintsSatisfied bool
}

// newRunID generates the identifier of a run's artifact bundle. It is
// written to operation_info.txt only; the CSV/PDF exports do not carry it.
func newRunID() string {
	return uuid.NewString()
}

// DirName builds the run directory name spec.md §6.5 specifies:
// {operation}_{input_stem}_{algorithm_or_strategy}_{timestamp}.
func DirName(operation, inputPath, algorithm string, ts time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	safeAlgo := strings.ReplaceAll(algorithm, " ", "_")
	return fmt.Sprintf("%s_%s_%s_%s", operation, stem, safeAlgo, ts.Format("20060102T150405"))
}

// Writer produces a run directory's artifact bundle under Root.
type Writer struct {
	Root string
}

// New builds a Writer rooted at dir.
func New(dir string) *Writer {
	return &Writer{Root: dir}
}

// WriteRun creates the run directory and every artifact it holds, and
// returns the directory's path.
func (w *Writer) WriteRun(info Info, snap *model.Snapshot, score *scorer.ScoreResult, cfg *pkgconfig.Config, ts time.Time) (string, error) {
	dir := filepath.Join(w.Root, DirName(info.Operation, info.InputPath, info.Algorithm, ts))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}

	if err := writeAssignment(dir, snap); err != nil {
		return "", err
	}
	if err := writeScoringSummary(dir, score); err != nil {
		return "", err
	}
	if err := writeStudentBreakdown(dir, snap, score); err != nil {
		return "", err
	}
	if err := writeClassBreakdown(dir, snap, score); err != nil {
		return "", err
	}
	if err := pkgconfig.Save(filepath.Join(dir, "config_snapshot.yaml"), cfg); err != nil {
		return "", fmt.Errorf("write config snapshot: %w", err)
	}
	runID := newRunID()
	if err := writeOperationInfo(dir, runID, info); err != nil {
		return "", err
	}

	return dir, nil
}

func writeAssignment(dir string, snap *model.Snapshot) error {
	raw := table.FromSnapshot(snap)
	return table.WriteCSV(filepath.Join(dir, "assignment.csv"), raw)
}

func writeScoringSummary(dir string, score *scorer.ScoreResult) error {
	rows := []map[string]string{
		{"metric": "final_score", "value": formatFloat(score.Final)},
		{"metric": "student_layer", "value": formatFloat(score.StudentLayer)},
		{"metric": "class_layer", "value": formatFloat(score.ClassLayer)},
		{"metric": "school_layer", "value": formatFloat(score.SchoolLayer)},
		{"metric": "school_academic", "value": formatFloat(score.School.Academic)},
		{"metric": "school_behavior", "value": formatFloat(score.School.Behavior)},
		{"metric": "school_studentiality", "value": formatFloat(score.School.Studentiality)},
		{"metric": "school_size", "value": formatFloat(score.School.Size)},
		{"metric": "school_assistance", "value": formatFloat(score.School.Assistance)},
		{"metric": "school_origin", "value": formatFloat(score.School.SchoolOrigin)},
	}
	dataset := export.Dataset{Headers: []string{"metric", "value"}, Rows: rows}

	csvBytes, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return fmt.Errorf("render scoring summary csv: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scoring_summary.csv"), csvBytes, 0o644); err != nil {
		return err
	}

	pdfBytes, err := export.NewPDFExporter().Render(dataset, "Scoring Summary")
	if err != nil {
		return fmt.Errorf("render scoring summary pdf: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "scoring_summary.pdf"), pdfBytes, 0o644)
}

func writeStudentBreakdown(dir string, snap *model.Snapshot, score *scorer.ScoreResult) error {
	headers := []string{"student_id", "first_name", "last_name", "class", "friend_satisfaction", "conflict_avoidance", "student_score"}
	students := append([]model.Student(nil), snap.Students()...)
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })

	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		b := score.PerStudent[st.ID]
		rows = append(rows, map[string]string{
			"student_id":          string(st.ID),
			"first_name":          st.FirstName,
			"last_name":           st.LastName,
			"class":               string(snap.ClassOf(st.ID)),
			"friend_satisfaction": formatFloat(b.FriendSatisfaction),
			"conflict_avoidance":  formatFloat(b.ConflictAvoidance),
			"student_score":       formatFloat(b.StudentScore),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}
	data, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return fmt.Errorf("render student breakdown: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "student_breakdown.csv"), data, 0o644)
}

func writeClassBreakdown(dir string, snap *model.Snapshot, score *scorer.ScoreResult) error {
	headers := []string{"class_id", "size", "gender_balance", "class_score", "mean_academic", "mean_behavior", "mean_studentiality", "assistance_count"}
	classIDs := snap.SortedClassIDs()

	rows := make([]map[string]string, 0, len(classIDs))
	for _, cid := range classIDs {
		b := score.PerClass[cid]
		meanAcademic, _ := snap.ClassMeanAcademic(cid)
		meanBehavior, _ := snap.ClassMeanBehavior(cid)
		meanStudentiality, _ := snap.ClassMeanStudentiality(cid)
		rows = append(rows, map[string]string{
			"class_id":           string(cid),
			"size":               strconv.Itoa(b.Size),
			"gender_balance":     formatFloat(b.GenderBalance),
			"class_score":        formatFloat(b.ClassScore),
			"mean_academic":      formatFloat(meanAcademic),
			"mean_behavior":      formatFloat(meanBehavior),
			"mean_studentiality": formatFloat(meanStudentiality),
			"assistance_count":   strconv.Itoa(snap.ClassAssistanceCount(cid)),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}
	data, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return fmt.Errorf("render class breakdown: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "class_breakdown.csv"), data, 0o644)
}

func writeOperationInfo(dir, runID string, info Info) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run_id: %s\n", runID)
	fmt.Fprintf(&b, "operation: %s\n", info.Operation)
	fmt.Fprintf(&b, "input_path: %s\n", info.InputPath)
	fmt.Fprintf(&b, "algorithm: %s\n", info.Algorithm)
	fmt.Fprintf(&b, "initial_score: %s\n", formatFloat(info.InitialScore))
	fmt.Fprintf(&b, "final_score: %s\n", formatFloat(info.FinalScore))
	fmt.Fprintf(&b, "duration: %s\n", info.Duration)
	fmt.Fprintf(&b, "iterations: %d\n", info.Iterations)
	fmt.Fprintf(&b, "constraints_satisfied: %t\n", info.ConstraintsSatisfied)
	return os.WriteFile(filepath.Join(dir, "operation_info.txt"), []byte(b.String()), 0o644)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
