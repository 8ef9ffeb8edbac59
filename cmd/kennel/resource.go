package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/kennel/internal/provider"
	"github.com/hyperengineering/kennel/internal/store"
)

// resource describes a CRUD command group backed by one provider collection.
type resource[T store.Entity] struct {
	name     string // command name and navigation path, e.g. "dogs"
	singular string
	short    string
	get      bool // expose a get subcommand
	header   string
	row      func(T) string
	pick     func(*provider.Tree) store.Collection[T]
}

func (r resource[T]) command(g *globals, list *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   r.name,
		Short: r.short,
	}
	if list == nil {
		list = r.listCmd(g, nil)
	}
	cmd.AddCommand(list, r.createCmd(g), r.updateCmd(g), r.deleteCmd(g))
	if r.get {
		cmd.AddCommand(r.getCmd(g))
	}
	return cmd
}

// open starts a session and navigates to the resource page, which mounts
// the provider and loads its list.
func (r resource[T]) open(cmd *cobra.Command, g *globals) (*session, store.Collection[T], error) {
	s, err := openSession(cmd, g)
	if err != nil {
		return nil, nil, err
	}
	if err := s.tree.Navigate(cmd.Context(), "/"+r.name); err != nil {
		s.close()
		return nil, nil, err
	}
	return s, r.pick(s.tree), nil
}

// listCmd lists the collection. filter, when set, narrows the loaded items.
func (r resource[T]) listCmd(g *globals, filter func(*provider.Tree) []T) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List " + r.name,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, coll, err := r.open(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			if err := coll.Err(); err != nil {
				return err
			}
			items := coll.Items()
			if filter != nil {
				items = filter(s.tree)
			}
			return r.printList(cmd.OutOrStdout(), g, items)
		},
	}
}

func (r resource[T]) getCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + r.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, coll, err := r.open(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			item, ok := coll.FetchOne(cmd.Context(), id)
			if !ok {
				return failure(coll, fmt.Sprintf("%s %d not found", r.singular, id))
			}
			return r.printOne(cmd.OutOrStdout(), g, item)
		},
	}
}

func (r resource[T]) createCmd(g *globals) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + r.singular + " from JSON (--data or stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd.InOrStdin(), data)
			if err != nil {
				return err
			}
			var payload T
			if err := decodeStrict(raw, &payload); err != nil {
				return err
			}

			s, coll, err := r.open(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			created, ok := coll.Create(cmd.Context(), payload)
			if !ok {
				return failure(coll, "create "+r.singular+" failed")
			}
			if created.EntityID() == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Created %s (list reloaded)\n", r.singular)
				return nil
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %d\n", r.singular, created.EntityID())
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "JSON payload (reads stdin when empty)")
	return cmd
}

// updateCmd overlays the given JSON onto the current entity and sends the
// result, so only the fields being changed need to be supplied.
func (r resource[T]) updateCmd(g *globals) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a " + r.singular + " from partial JSON (--data or stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			raw, err := readPayload(cmd.InOrStdin(), data)
			if err != nil {
				return err
			}

			s, coll, err := r.open(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			current, ok := coll.FetchOne(cmd.Context(), id)
			if !ok {
				return failure(coll, fmt.Sprintf("%s %d not found", r.singular, id))
			}
			payload, err := overlay(current, raw, id)
			if err != nil {
				return err
			}

			updated, ok := coll.Update(cmd.Context(), payload)
			if !ok {
				return failure(coll, "update "+r.singular+" failed")
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %d\n", r.singular, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "JSON payload (reads stdin when empty)")
	return cmd
}

func (r resource[T]) deleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + r.singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, coll, err := r.open(cmd, g)
			if err != nil {
				return err
			}
			defer s.close()

			if !coll.Delete(cmd.Context(), id) {
				return failure(coll, "delete "+r.singular+" failed")
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"id":      id,
					"deleted": true,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", r.singular, id)
			return nil
		},
	}
}

func (r resource[T]) printList(w io.Writer, g *globals, items []T) error {
	if g.json {
		return printJSON(w, map[string]any{
			r.name:  items,
			"total": len(items),
		})
	}
	if len(items) == 0 {
		fmt.Fprintf(w, "No %s found.\n", r.name)
		return nil
	}

	tw := newTabWriter(w)
	fmt.Fprintln(tw, r.header)
	for _, item := range items {
		fmt.Fprintln(tw, r.row(item))
	}
	return tw.Flush()
}

func (r resource[T]) printOne(w io.Writer, g *globals, item T) error {
	if g.json {
		return printJSON(w, item)
	}
	tw := newTabWriter(w)
	fmt.Fprintln(tw, r.header)
	fmt.Fprintln(tw, r.row(item))
	return tw.Flush()
}

// failure returns the collection's error state, or a generic error when the
// operation failed without one.
func failure(c interface{ Err() error }, msg string) error {
	if err := c.Err(); err != nil {
		return err
	}
	return errors.New(msg)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// readPayload returns data, or all of stdin when data is empty.
func readPayload(stdin io.Reader, data string) ([]byte, error) {
	raw := []byte(data)
	if data == "" {
		var err error
		if raw, err = io.ReadAll(stdin); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("no JSON payload: pass --data or pipe it on stdin")
	}
	return raw, nil
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

// overlay applies the fields present in raw to a copy of current and pins
// the id. current is round-tripped through JSON so no pointer is shared with
// the cached entity.
func overlay[T store.Entity](current T, raw []byte, id int64) (T, error) {
	var out T
	base, err := json.Marshal(current)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(base, &out); err != nil {
		return out, err
	}
	if err := decodeStrict(raw, &out); err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(`{"id":`+strconv.FormatInt(id, 10)+`}`), &out); err != nil {
		return out, err
	}
	return out, nil
}
