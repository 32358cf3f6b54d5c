package cli

import (
	"errors"

	"github.com/pelissiertools-cpu/focus/internal/mutate"

	"github.com/spf13/cobra"
)

func newItemsMoveCmd(app *App) *cobra.Command {
	var onto string

	cmd := &cobra.Command{
		Use:   "move <item-id>",
		Short: "Move an item onto another's position among its siblings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if onto == "" {
				return writeErr(cmd, errors.New("--onto is required"))
			}
			id := args[0]
			it, ok := db.FindItem(id)
			if !ok {
				return writeErr(cmd, mutate.NotFoundError{Kind: "item", ID: id})
			}
			target, ok := db.FindItem(onto)
			if !ok {
				return writeErr(cmd, mutate.NotFoundError{Kind: "item", ID: onto})
			}
			if !sameParent(it.ParentID, target.ParentID) {
				return writeErr(cmd, errors.New("items must share a parent to reorder"))
			}
			if it.IsCompleted || target.IsCompleted {
				return writeErr(cmd, errors.New("completed items cannot be reordered"))
			}

			parentID := ""
			if it.ParentID != nil {
				parentID = *it.ParentID
			}
			ch, err := mutate.Reorder(db, parentID, id, onto)
			if err != nil {
				return writeErr(cmd, err)
			}
			a := newApplier(s)
			a.Apply("item.move", ch)
			if err := a.Wait(); err != nil {
				return writeErr(cmd, err)
			}

			moved, _ := db.FindItem(id)
			return writeOut(cmd, app, map[string]any{"data": moved})
		},
	}
	cmd.Flags().StringVar(&onto, "onto", "", "Sibling whose position the item takes")
	return cmd
}

func sameParent(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a != nil && b != nil:
		return *a == *b
	default:
		return false
	}
}
