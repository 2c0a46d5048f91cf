// Package scorer implements the three-layer weighted scoring function:
// student satisfaction, class-level balance, and school-wide equity. Score
// is a pure function of a snapshot and a configuration — deterministic and
// permutation-invariant in student and class ordering (spec.md P5, P6).
package scorer

import (
	"math"
	"sort"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/model"
)

// StudentBreakdown is one student's layer-1 contribution.
type StudentBreakdown struct {
	FriendSatisfaction float64
	ConflictAvoidance  float64
	StudentScore       float64
}

// ClassBreakdown is one class's layer-2 contribution plus descriptive stats
// useful for reporting.
type ClassBreakdown struct {
	Size          int
	GenderBalance float64
	ClassScore    float64
}

// SchoolBreakdown is the layer-3 contribution, one score per balance metric.
type SchoolBreakdown struct {
	Academic      float64
	Behavior      float64
	Studentiality float64
	Size          float64
	Assistance    float64
	SchoolOrigin  float64
}

// ScoreResult is the full, decomposed output of Score.
type ScoreResult struct {
	Final         float64
	StudentLayer  float64
	ClassLayer    float64
	SchoolLayer   float64
	PerStudent    map[model.StudentID]StudentBreakdown
	PerClass      map[model.ClassID]ClassBreakdown
	School        SchoolBreakdown
}

// weighted is one term of a weight-normalized mean; a Weight <= 0 removes it
// from both numerator and denominator, which is how spec.md's "weight of 0
// disables the metric" and B1 ("all-zero sub-weights collapse without
// division by zero") are both satisfied by one helper.
type weighted struct {
	Weight float64
	Value  float64
}

func combine(terms ...weighted) float64 {
	var wsum, vsum float64
	for _, t := range terms {
		if t.Weight <= 0 {
			continue
		}
		wsum += t.Weight
		vsum += t.Weight * t.Value
	}
	if wsum == 0 {
		return 0
	}
	return vsum / wsum
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Score evaluates a complete snapshot under cfg.
func Score(snap *model.Snapshot, cfg *config.Config) *ScoreResult {
	perStudent, studentLayer := scoreStudents(snap, cfg)
	perClass, classLayer := scoreClasses(snap, cfg)
	school, schoolLayer := scoreSchool(snap, cfg)

	final := combine(
		weighted{cfg.Weights.Layers.Student, studentLayer},
		weighted{cfg.Weights.Layers.Class, classLayer},
		weighted{cfg.Weights.Layers.School, schoolLayer},
	)

	return &ScoreResult{
		Final:        clamp100(final),
		StudentLayer: clamp100(studentLayer),
		ClassLayer:   clamp100(classLayer),
		SchoolLayer:  clamp100(schoolLayer),
		PerStudent:   perStudent,
		PerClass:     perClass,
		School:       school,
	}
}

func scoreStudents(snap *model.Snapshot, cfg *config.Config) (map[model.StudentID]StudentBreakdown, float64) {
	students := snap.Students()
	out := make(map[model.StudentID]StudentBreakdown, len(students))
	if len(students) == 0 {
		return out, 100
	}

	var sum float64
	for _, st := range students {
		friendSat := 100.0
		if len(st.PreferredFriends) > 0 {
			placed := 0
			class := snap.ClassOf(st.ID)
			for _, f := range st.PreferredFriends {
				if class != "" && snap.ClassOf(f) == class {
					placed++
				}
			}
			friendSat = 100 * float64(placed) / float64(len(st.PreferredFriends))
		}

		conflictAvoid := 100.0
		if len(st.DislikedPeers) > 0 {
			avoided := 0
			class := snap.ClassOf(st.ID)
			for _, d := range st.DislikedPeers {
				if class == "" || snap.ClassOf(d) != class {
					avoided++
				}
			}
			conflictAvoid = 100 * float64(avoided) / float64(len(st.DislikedPeers))
		}

		studentScore := combine(
			weighted{cfg.Weights.StudentLayer.Friends, friendSat},
			weighted{cfg.Weights.StudentLayer.Dislikes, conflictAvoid},
		)

		out[st.ID] = StudentBreakdown{
			FriendSatisfaction: clamp100(friendSat),
			ConflictAvoidance:  clamp100(conflictAvoid),
			StudentScore:       clamp100(studentScore),
		}
		sum += studentScore
	}
	return out, sum / float64(len(students))
}

func scoreClasses(snap *model.Snapshot, cfg *config.Config) (map[model.ClassID]ClassBreakdown, float64) {
	classIDs := snap.SortedClassIDs()
	out := make(map[model.ClassID]ClassBreakdown, len(classIDs))
	if len(classIDs) == 0 {
		return out, 100
	}

	var sum float64
	for _, cid := range classIDs {
		size := snap.ClassSize(cid)
		var genderBalance float64 = 100
		if size > 0 {
			male, female := snap.ClassGenderCounts(cid)
			mRatio := float64(male) / float64(size)
			fRatio := float64(female) / float64(size)
			genderBalance = 100 - 100*math.Abs(mRatio-fRatio)
		}

		classScore := combine(weighted{cfg.Weights.ClassLayer.GenderBalance, genderBalance})

		out[cid] = ClassBreakdown{
			Size:          size,
			GenderBalance: clamp100(genderBalance),
			ClassScore:    clamp100(classScore),
		}
		sum += classScore
	}
	return out, sum / float64(len(classIDs))
}

// stdDev returns the population standard deviation of v.
func stdDev(v []float64) float64 {
	if len(v) <= 1 {
		return 0
	}
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	var sq float64
	for _, x := range v {
		sq += (x - mean) * (x - mean)
	}
	return math.Sqrt(sq / float64(len(v)))
}

// spreadScore turns a per-class vector into a 0..100 balance score: perfect
// (100) when the vector has at most one value, otherwise penalized by its
// population standard deviation.
func spreadScore(v []float64, factor float64) float64 {
	if len(v) <= 1 {
		return 100
	}
	return clamp100(100 - stdDev(v)*factor)
}

func scoreSchool(snap *model.Snapshot, cfg *config.Config) (SchoolBreakdown, float64) {
	classIDs := snap.SortedClassIDs()

	var academic, behavior, studentiality, size, assistance []float64
	for _, cid := range classIDs {
		if mean, ok := snap.ClassMeanAcademic(cid); ok {
			academic = append(academic, mean)
		}
		if mean, ok := snap.ClassMeanBehavior(cid); ok {
			behavior = append(behavior, mean)
		}
		if mean, ok := snap.ClassMeanStudentiality(cid); ok {
			studentiality = append(studentiality, mean)
		}
		size = append(size, float64(snap.ClassSize(cid)))
		assistance = append(assistance, float64(snap.ClassAssistanceCount(cid)))
	}

	breakdown := SchoolBreakdown{
		Academic:      spreadScore(academic, cfg.Normalization.AcademicScore),
		Behavior:      spreadScore(behavior, cfg.Normalization.BehaviorRank),
		Studentiality: spreadScore(studentiality, cfg.Normalization.StudentialityRank),
		Size:          spreadScore(size, cfg.Normalization.ClassSize),
		Assistance:    spreadScore(assistance, cfg.Normalization.AssistanceCount),
		SchoolOrigin:  schoolOriginBalance(snap, classIDs),
	}

	layer := combine(
		weighted{cfg.Weights.SchoolLayer.Academic, breakdown.Academic},
		weighted{cfg.Weights.SchoolLayer.Behavior, breakdown.Behavior},
		weighted{cfg.Weights.SchoolLayer.Studentiality, breakdown.Studentiality},
		weighted{cfg.Weights.SchoolLayer.Size, breakdown.Size},
		weighted{cfg.Weights.SchoolLayer.Assistance, breakdown.Assistance},
		weighted{cfg.Weights.SchoolLayer.SchoolOrigin, breakdown.SchoolOrigin},
	)
	return breakdown, layer
}

// schoolOriginBalance combines representation (are origins present across
// enough classes) and non-dominance (no single class is swamped by one
// origin), 0.7/0.3 weighted, per spec.md §4.2. Unlike the other school
// metrics this one is not sigma-normalized; normalization.school_origin_factor
// is accepted for configuration-document compatibility but not consulted
// here, matching the fixed 0.7/0.3 formula spec.md defines.
func schoolOriginBalance(snap *model.Snapshot, classIDs []model.ClassID) float64 {
	k := len(classIDs)
	if k == 0 {
		return 100
	}

	totals := snap.OriginCounts()
	if len(totals) == 0 {
		return 100
	}

	presentInClass := make(map[string]map[model.ClassID]bool, len(totals))
	for origin := range totals {
		presentInClass[origin] = map[model.ClassID]bool{}
	}
	for _, cid := range classIDs {
		for origin := range snap.ClassOriginCounts(cid) {
			presentInClass[origin][cid] = true
		}
	}

	origins := make([]string, 0, len(totals))
	for origin := range totals {
		origins = append(origins, origin)
	}
	sort.Strings(origins)

	var repSum float64
	for _, origin := range origins {
		n := totals[origin]
		target := 0.4
		switch {
		case n > 40:
			target = 0.8
		case n >= 20:
			target = 0.6
		}
		observed := float64(len(presentInClass[origin])) / float64(k)
		rep := 100 * math.Min(1, observed/target)
		repSum += rep
	}
	representation := repSum / float64(len(origins))

	var nonDomSum float64
	nonEmptyClasses := 0
	for _, cid := range classIDs {
		size := snap.ClassSize(cid)
		if size == 0 {
			continue
		}
		nonEmptyClasses++
		counts := snap.ClassOriginCounts(cid)
		var dominance float64
		for _, count := range counts {
			ratio := float64(count) / float64(size)
			if ratio > dominance {
				dominance = ratio
			}
		}
		nonDom := (0.6 - dominance) / 0.6
		if nonDom < 0 {
			nonDom = 0
		}
		if nonDom > 1 {
			nonDom = 1
		}
		nonDomSum += 100 * nonDom
	}
	nonDominance := 100.0
	if nonEmptyClasses > 0 {
		nonDominance = nonDomSum / float64(nonEmptyClasses)
	}

	return clamp100(0.7*representation + 0.3*nonDominance)
}
