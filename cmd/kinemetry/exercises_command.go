package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/exercise"
)

func newExercisesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "exercises",
		Short:       "List the built-in exercise templates",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, ex := range exercise.Catalog(anatomy.SideLeft) {
				fmt.Fprintf(out, "%-20s %s (%s, primary joint %s, %d reps x %d sets)\n",
					ex.ID, ex.Name, ex.Category, ex.PrimaryJoint, ex.TargetReps, ex.TargetSets)
			}
			return nil
		},
	}
}
