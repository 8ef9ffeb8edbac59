package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/kennel/internal/provider"
	"github.com/hyperengineering/kennel/internal/types"
)

func newHealthCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show health history",
	}
	cmd.AddCommand(newHealthListCmd(g))
	return cmd
}

func newHealthListCmd(g *globals) *cobra.Command {
	var dogID, puppyID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List health records, vaccinations, medications and conditions for one dog or puppy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var subject types.Subject
			switch {
			case dogID != 0 && puppyID != 0:
				return errors.New("--dog and --puppy are mutually exclusive")
			case dogID != 0:
				subject = types.ForDog(dogID)
			case puppyID != 0:
				subject = types.ForPuppy(puppyID)
			default:
				return errors.New("one of --dog or --puppy is required")
			}

			s, err := openSession(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.tree.Open(cmd.Context(), provider.NameHealth); err != nil {
				return err
			}
			hist, err := s.tree.Health.ForSubject(cmd.Context(), subject)
			if err != nil {
				return err
			}

			if g.json {
				return printJSON(cmd.OutOrStdout(), hist)
			}
			return printHistory(cmd.OutOrStdout(), hist)
		},
	}
	cmd.Flags().Int64Var(&dogID, "dog", 0, "Dog ID")
	cmd.Flags().Int64Var(&puppyID, "puppy", 0, "Puppy ID")
	return cmd
}

func printHistory(out io.Writer, h provider.History) error {
	w := newTabWriter(out)

	fmt.Fprintf(w, "RECORDS (%d)\n", len(h.Records))
	for _, r := range h.Records {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", r.ID, r.RecordDate, r.RecordType, orDash(r.Title))
	}
	fmt.Fprintf(w, "VACCINATIONS (%d)\n", len(h.Vaccinations))
	for _, v := range h.Vaccinations {
		fmt.Fprintf(w, "  %d\t%s\t%s\tnext due %s\n", v.ID, v.AdministeredOn, v.VaccineName, dateOrDash(v.NextDueDate))
	}
	fmt.Fprintf(w, "MEDICATIONS (%d)\n", len(h.Medications))
	for _, m := range h.Medications {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", m.ID, m.StartDate, m.MedicationName, orDash(m.Dosage))
	}
	fmt.Fprintf(w, "CONDITIONS (%d)\n", len(h.Conditions))
	for _, c := range h.Conditions {
		state := "active"
		if c.Resolved {
			state = "resolved"
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", c.ID, c.DiagnosisDate, c.ConditionName, state)
	}
	return w.Flush()
}
