package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/scorer"
	pkgconfig "github.com/noah-isme/classplacer/pkg/config"
)

func seedSnapshot() *model.Snapshot {
	students := []model.Student{
		{ID: "100000001", FirstName: "Ada", LastName: "Lovelace", Gender: model.GenderFemale, AcademicScore: 90},
		{ID: "100000002", FirstName: "Alan", LastName: "Turing", Gender: model.GenderMale, AcademicScore: 85},
	}
	snap := model.NewSnapshot(students, []model.ClassID{"1"}, []string{"student_id", "first_name", "last_name", "gender", "academic_score", "behavior_rank", "studentiality_rank", "assistance_package"})
	snap.PlaceStudent("100000001", "1")
	snap.PlaceStudent("100000002", "1")
	return snap
}

func TestDirNameFollowsNamingConvention(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	name := DirName("optimize", "/tmp/roster.csv", "simulated_annealing", ts)
	assert.Equal(t, "optimize_roster_simulated_annealing_20260102T030405", name)
}

func TestWriteRunProducesEveryArtifact(t *testing.T) {
	root := t.TempDir()
	snap := seedSnapshot()
	cfg := coreconfig.Default()
	score := scorer.Score(snap, &cfg)

	w := New(root)
	info := Info{
		Operation:            "optimize",
		InputPath:            "roster.csv",
		Algorithm:            "local_search",
		InitialScore:         50,
		FinalScore:           score.Final,
		Duration:             time.Second,
		Iterations:           10,
		ConstraintsSatisfied: true,
	}
	dir, err := w.WriteRun(info, snap, score, pkgconfig.Default(), time.Now())
	require.NoError(t, err)

	for _, name := range []string{
		"assignment.csv", "scoring_summary.csv", "scoring_summary.pdf",
		"student_breakdown.csv", "class_breakdown.csv", "config_snapshot.yaml",
		"operation_info.txt",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected %s to exist", name)
	}
}
