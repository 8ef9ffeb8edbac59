package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/kennel/internal/provider"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
)

var litters = resource[types.Litter]{
	name:     "litters",
	singular: "litter",
	short:    "Manage litters and their puppies",
	get:      true,
	header:   "ID\tNAME\tSTATUS\tDAM\tSIRE\tPUPPIES\tPRICE",
	row: func(l types.Litter) string {
		return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%d\t%s",
			l.ID, l.LitterName, l.Status, orDash(l.DamName), orDash(l.SireName), l.NumPuppies, l.Price.StringFixed(2))
	},
	pick: func(t *provider.Tree) store.Collection[types.Litter] { return t.Litters },
}

func newLittersCmd(g *globals) *cobra.Command {
	cmd := litters.command(g, nil)
	cmd.AddCommand(newLitterPuppiesCmd(g))
	return cmd
}

func newLitterPuppiesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "puppies <litter-id>",
		Short: "List the puppies of a litter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, _, err := litters.open(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			puppies, err := s.tree.Litters.Puppies(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.json {
				return printJSON(out, map[string]any{
					"litter_id": id,
					"puppies":   puppies,
					"total":     len(puppies),
				})
			}
			if len(puppies) == 0 {
				fmt.Fprintln(out, "No puppies found.")
				return nil
			}

			w := newTabWriter(out)
			fmt.Fprintln(w, "ID\tNAME\tGENDER\tCOLOR\tSTATUS\tPRICE")
			for _, p := range puppies {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Name, p.Gender, orDash(p.Color), orDash(p.Status), p.Price.StringFixed(2))
			}
			return w.Flush()
		},
	}
}
