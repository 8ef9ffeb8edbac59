package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/kennel/internal/provider"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
)

var heats = resource[types.Heat]{
	name:     "heats",
	singular: "heat",
	short:    "Manage heat cycles",
	header:   "ID\tDOG\tSTART\tEND\tMATING\tSIRE\tEXPECTED WHELP",
	row: func(h types.Heat) string {
		dog := h.DogName
		if dog == "" {
			dog = fmt.Sprintf("#%d", h.DogID)
		}
		return fmt.Sprintf("%d\t%s\t%s\t%s\t%s\t%s\t%s",
			h.ID, dog, h.StartDate, dateOrDash(h.EndDate), dateOrDash(h.MatingDate),
			orDash(h.SireName), dateOrDash(h.ExpectedWhelpDate))
	},
	pick: func(t *provider.Tree) store.Collection[types.Heat] { return t.Heats },
}

func newHeatsCmd(g *globals) *cobra.Command {
	return heats.command(g, nil)
}
