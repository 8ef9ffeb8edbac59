package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/kennel/internal/provider"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
)

var dogs = resource[types.Dog]{
	name:     "dogs",
	singular: "dog",
	short:    "Manage dogs",
	get:      true,
	header:   "ID\tREGISTERED NAME\tCALL NAME\tGENDER\tBORN\tSTATUS",
	row: func(d types.Dog) string {
		return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s",
			d.ID, d.RegisteredName, orDash(d.CallName), d.Gender, dateOrDash(d.DateOfBirth), orDash(d.Status))
	},
	pick: func(t *provider.Tree) store.Collection[types.Dog] { return t.Dogs },
}

func newDogsCmd(g *globals) *cobra.Command {
	var females, males bool

	list := dogs.listCmd(g, func(t *provider.Tree) []types.Dog {
		switch {
		case females:
			return t.Dogs.Females()
		case males:
			return t.Dogs.Males()
		}
		return t.Dogs.Items()
	})
	list.Flags().BoolVar(&females, "females", false, "Only dogs eligible as dams")
	list.Flags().BoolVar(&males, "males", false, "Only dogs eligible as sires")
	list.PreRunE = func(cmd *cobra.Command, args []string) error {
		if females && males {
			return errors.New("--females and --males are mutually exclusive")
		}
		return nil
	}

	return dogs.command(g, list)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dateOrDash(d *types.Date) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.String()
}
