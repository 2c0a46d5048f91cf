package cli

import (
	"github.com/noah-isme/classplacer/internal/core/constraints"
	"github.com/noah-isme/classplacer/internal/core/initializer"
	"github.com/noah-isme/classplacer/internal/core/model"
	clierrors "github.com/noah-isme/classplacer/pkg/errors"
)

// startingSnapshot returns the snapshot every algorithm run starts from. A
// fully assigned input roster is used as-is, honoring whatever assignment
// the file already carries; anything else is handed to the configured
// initialization strategy, which only respects force_class/force_group
// locks and otherwise builds a fresh distribution.
func (a *App) startingSnapshot(snap *model.Snapshot, checker *constraints.Checker) (*model.Snapshot, error) {
	if constraints.Classify(snap) == constraints.FullyAssigned {
		return snap, nil
	}

	k := a.Config.Engine.TargetClasses(len(snap.Students()))
	classIDs := initializer.ClassIDs(k)
	strategy := initializer.New(a.Config.Engine.InitStrategy)

	out, err := strategy.Initialize(snap.Students(), classIDs, snap.Columns, a.rng(), &a.Config.Engine, checker)
	if err != nil {
		var infeasible *initializer.InfeasibleError
		if isInfeasible(err, &infeasible) {
			return nil, clierrors.Wrap(err, clierrors.ErrInfeasibleInit.Code, clierrors.ErrInfeasibleInit.Status, infeasible.Error())
		}
		return nil, clierrors.Wrap(err, clierrors.ErrUnexpected.Code, clierrors.ErrUnexpected.Status, "initialization failed")
	}
	return out, nil
}

func isInfeasible(err error, target **initializer.InfeasibleError) bool {
	infeasible, ok := err.(*initializer.InfeasibleError)
	if !ok {
		return false
	}
	*target = infeasible
	return true
}
