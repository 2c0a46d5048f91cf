package algorithm

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/noah-isme/classplacer/internal/core/config"
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/model"
	"github.com/noah-isme/classplacer/internal/core/neighborhood"
	"github.com/noah-isme/classplacer/internal/core/progress"
)

// Evolutionary maintains a population of snapshots, breeding new candidates
// by drawing each student's class independently from one of two parents,
// repairing whatever locks or capacity limits the crossover broke, then
// mutating survivors with a handful of random legal swaps.
type Evolutionary struct{}

func (a *Evolutionary) Name() string { return config.AlgoEvolution }

type individual struct {
	snapshot *model.Snapshot
	score    float64
}

func (a *Evolutionary) seedPopulation(base *model.Snapshot, size int, checker *constraints.Checker, rng *rand.Rand, cfg *config.Config) []individual {
	pop := make([]individual, 0, size)
	pop = append(pop, individual{snapshot: base, score: score(base, cfg)})
	classIDs := base.SortedClassIDs()
	for len(pop) < size {
		candidate := base.DeepCopy()
		if len(classIDs) >= 2 {
			shuffles := 1 + rng.Intn(5)
			for i := 0; i < shuffles; i++ {
				ids := candidate.StudentIDs()
				if len(ids) == 0 {
					break
				}
				id := ids[rng.Intn(len(ids))]
				target := classIDs[rng.Intn(len(classIDs))]
				res := neighborhood.Move(candidate, checker, id, target)
				if !res.Rejected {
					candidate = res.Snapshot
				}
			}
		}
		pop = append(pop, individual{snapshot: candidate, score: score(candidate, cfg)})
	}
	return pop
}

// crossover builds a child by, for every student, independently drawing
// their class from one of the two parents with equal probability, then
// repairs the result: force locks are reinstated first, and any class left
// over max_class_size has its overflow students relocated one at a time to
// whichever legal class costs the assignment the least score. A child that
// still breaks a hard constraint once the locks are reinstated is discarded
// and p1 is returned in its place, so an invalid child is never scored.
func (a *Evolutionary) crossover(p1, p2 *model.Snapshot, checker *constraints.Checker, cfg *config.Config, rng *rand.Rand) *model.Snapshot {
	child := p1.DeepCopy()
	ids := p1.StudentIDs()
	for _, id := range ids {
		st, ok := child.StudentByID(id)
		if !ok || st.ForceClass != "" || st.ForceGroup != "" {
			continue
		}
		if rng.Float64() < 0.5 {
			continue
		}
		fromParent := p2.ClassOf(id)
		if fromParent == "" || fromParent == child.ClassOf(id) {
			continue
		}
		child.PlaceStudent(id, fromParent)
	}

	for _, id := range ids {
		st, ok := child.StudentByID(id)
		if !ok || st.ForceClass == "" {
			continue
		}
		if child.ClassOf(id) != st.ForceClass {
			child.PlaceStudent(id, st.ForceClass)
		}
	}
	reinstateGroups(child)
	if len(checker.Validate(child)) > 0 {
		return p1
	}

	repairOverflow(child, checker, cfg)
	return child
}

// reinstateGroups moves every force-group's members onto the class of its
// first member, so crossover can never leave a group split across classes.
func reinstateGroups(snap *model.Snapshot) {
	seen := map[string]bool{}
	for _, id := range snap.StudentIDs() {
		st, ok := snap.StudentByID(id)
		if !ok || st.ForceGroup == "" || seen[st.ForceGroup] {
			continue
		}
		seen[st.ForceGroup] = true
		members := snap.GroupMembers(st.ForceGroup)
		if len(members) == 0 {
			continue
		}
		target := snap.ClassOf(members[0])
		for _, m := range members[1:] {
			if snap.ClassOf(m) != target {
				snap.PlaceStudent(m, target)
			}
		}
	}
}

// repairOverflow relocates students out of any class exceeding
// max_class_size, one at a time, each to the legal class that leaves the
// assignment's score highest.
func repairOverflow(snap *model.Snapshot, checker *constraints.Checker, cfg *config.Config) {
	maxSize := cfg.ClassConfig.MaxClassSize
	if maxSize <= 0 {
		return
	}
	for {
		var overflowClass model.ClassID
		for _, cid := range snap.SortedClassIDs() {
			if snap.ClassSize(cid) > maxSize {
				overflowClass = cid
				break
			}
		}
		if overflowClass == "" {
			return
		}
		var mover model.StudentID
		for _, id := range snap.Members(overflowClass) {
			st, ok := snap.StudentByID(id)
			if ok && st.ForceClass == "" && st.ForceGroup == "" {
				mover = id
				break
			}
		}
		if mover == "" {
			return
		}
		targets := legalTargets(snap, checker, mover)
		if len(targets) == 0 {
			return
		}
		var bestTarget model.ClassID
		bestScore := -1.0
		for _, target := range targets {
			trial := snap.DeepCopy()
			trial.PlaceStudent(mover, target)
			s := score(trial, cfg)
			if s > bestScore {
				bestScore = s
				bestTarget = target
			}
		}
		snap.PlaceStudent(mover, bestTarget)
	}
}

func (a *Evolutionary) mutate(snap *model.Snapshot, checker *constraints.Checker, rng *rand.Rand, rate float64) *model.Snapshot {
	if rng.Float64() > rate {
		return snap
	}
	swaps := 1 + rng.Intn(3)
	current := snap
	for i := 0; i < swaps; i++ {
		classIDs := current.SortedClassIDs()
		if len(classIDs) < 2 {
			break
		}
		ca := classIDs[rng.Intn(len(classIDs))]
		cb := classIDs[rng.Intn(len(classIDs))]
		if ca == cb {
			continue
		}
		studentsA := eligibleStudents(current, ca)
		studentsB := eligibleStudents(current, cb)
		if len(studentsA) == 0 || len(studentsB) == 0 {
			continue
		}
		sa := studentsA[rng.Intn(len(studentsA))]
		sb := studentsB[rng.Intn(len(studentsB))]
		res := neighborhood.Swap(current, checker, sa, sb)
		if !res.Rejected {
			current = res.Snapshot
		}
	}
	return current
}

func tournamentSelect(pop []individual, size int, rng *rand.Rand) individual {
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < size; i++ {
		challenger := pop[rng.Intn(len(pop))]
		if challenger.score > best.score || (challenger.score == best.score && rng.Intn(2) == 0) {
			best = challenger
		}
	}
	return best
}

func (a *Evolutionary) Run(ctx context.Context, snap *model.Snapshot, rng *rand.Rand, cfg *config.Config, checker *constraints.Checker, cb progress.Callback) (*RunResult, error) {
	start := time.Now()
	params := cfg.Algorithm(config.AlgoEvolution)

	populationSize := params.PopulationSize
	if populationSize <= 0 {
		populationSize = 30
	}
	generations := params.Generations
	if generations <= 0 {
		generations = 100
	}
	eliteSize := params.EliteSize
	if eliteSize < 0 || eliteSize > populationSize {
		eliteSize = 0
	}
	tournamentSize := params.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	mutationRate := params.MutationRate
	stagnationLimit := params.StagnationLimit

	initial := score(snap, cfg)
	sink := progress.NewSink(cb, progress.LevelNormal, generations)
	sink.Start(initial)

	result := &RunResult{Algorithm: a.Name(), InitialScore: initial, BestScore: initial, BestSnapshot: snap}

	if cfg.Optimization.MaxIterations <= 0 {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	pop := a.seedPopulation(snap, populationSize, checker, rng, cfg)
	sort.Slice(pop, func(i, j int) bool { return pop[i].score > pop[j].score })

	best := pop[0].snapshot
	bestScore := pop[0].score
	stagnation := 0
	generation := 0

	for generation < generations {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			break
		}
		if stagnationLimit > 0 && stagnation >= stagnationLimit {
			result.EarlyStopped = true
			break
		}

		next := make([]individual, 0, populationSize)
		for i := 0; i < eliteSize && i < len(pop); i++ {
			next = append(next, pop[i])
		}
		for len(next) < populationSize {
			p1 := tournamentSelect(pop, tournamentSize, rng)
			p2 := tournamentSelect(pop, tournamentSize, rng)
			var child *model.Snapshot
			if rng.Float64() < params.CrossoverRate {
				child = a.crossover(p1.snapshot, p2.snapshot, checker, cfg, rng)
			} else {
				child = p1.snapshot
			}
			child = a.mutate(child, checker, rng, mutationRate)
			next = append(next, individual{snapshot: child, score: score(child, cfg)})
		}

		pop = next
		sort.Slice(pop, func(i, j int) bool { return pop[i].score > pop[j].score })
		generation++

		if pop[0].score > bestScore {
			best = pop[0].snapshot
			bestScore = pop[0].score
			stagnation = 0
		} else {
			stagnation++
		}
		sink.Accepted(generation, pop[0].score, bestScore, map[string]float64{"population_best": pop[0].score})
	}

	result.IterationsUsed = generation
	result.BestScore = bestScore
	result.BestSnapshot = best
	result.ConstraintViolationsAtEnd = len(checker.Validate(best))
	result.Elapsed = time.Since(start)
	sink.End(generation, bestScore, bestScore)
	return result, nil
}
