package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classplacer/internal/core/model"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validCSV = "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package,class,preferred_friend_1,disliked_peer_1,force_friend\n" +
	"100000001,Ada,Lovelace,F,95,A,A,false,1,100000002,,100000002\n" +
	"100000002,Alan,Turing,M,90,A,B,false,1,100000001,,100000001\n" +
	"100000003,Grace,Hopper,F,85,B,A,true,2,,,\n"

func TestReadCSVRoundTripsToSnapshot(t *testing.T) {
	path := writeTempCSV(t, validCSV)
	raw, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, raw.Rows, 3)

	snap, errs, err := ToSnapshot(raw, false)
	require.NoError(t, err)
	require.Empty(t, errs)
	require.NotNil(t, snap)

	assert.Equal(t, model.ClassID("1"), snap.ClassOf("100000001"))
	assert.Equal(t, model.ClassID("2"), snap.ClassOf("100000003"))

	st, ok := snap.StudentByID("100000001")
	require.True(t, ok)
	assert.Equal(t, "group_1", st.ForceGroup)
	other, ok := snap.StudentByID("100000002")
	require.True(t, ok)
	assert.Equal(t, "group_1", other.ForceGroup)
}

func TestReadCSVRejectsInvalidCellsWithoutSkipValidation(t *testing.T) {
	bad := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n" +
		"abc,Ada,Lovelace,X,150,Z,A,maybe\n"
	path := writeTempCSV(t, bad)
	raw, err := ReadCSV(path)
	require.NoError(t, err)

	snap, errs, err := ToSnapshot(raw, false)
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.NotEmpty(t, errs)
}

func TestReadCSVNormalizesInvalidCellsWithSkipValidation(t *testing.T) {
	bad := "student_id,first_name,last_name,gender,academic_score,behavior_rank,studentiality_rank,assistance_package\n" +
		",,,X,150,Z,A,maybe\n"
	path := writeTempCSV(t, bad)
	raw, err := ReadCSV(path)
	require.NoError(t, err)

	snap, _, err := ToSnapshot(raw, true)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Students(), 1)
	st := snap.Students()[0]
	assert.Equal(t, "Unknown", st.FirstName)
	assert.Equal(t, "Student", st.LastName)
	assert.Equal(t, model.GenderMale, st.Gender)
	assert.Equal(t, 50.0, st.AcademicScore)
	assert.Equal(t, model.RankA, st.BehaviorRank)
	assert.False(t, st.AssistancePackage)
	assert.Len(t, string(st.ID), 9)
}

func TestFromSnapshotPreservesColumnOrderAndClass(t *testing.T) {
	path := writeTempCSV(t, validCSV)
	raw, err := ReadCSV(path)
	require.NoError(t, err)
	snap, _, err := ToSnapshot(raw, false)
	require.NoError(t, err)

	out := FromSnapshot(snap)
	assert.Equal(t, raw.Headers, out.Headers[:len(raw.Headers)])
	require.Len(t, out.Rows, 3)
	assert.Equal(t, "1", out.Rows[0][ColClass])
}

func TestWriteCSVPrefixesByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	tbl := &RawTable{Headers: []string{"a", "b"}, Rows: []map[string]string{{"a": "1", "b": "2"}}}
	require.NoError(t, WriteCSV(path, tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, utf8BOM, data[:3])
}

func TestToSnapshotRejectsMissingRequiredColumn(t *testing.T) {
	raw := &RawTable{Headers: []string{"student_id"}}
	_, _, err := ToSnapshot(raw, false)
	assert.Error(t, err)
}
