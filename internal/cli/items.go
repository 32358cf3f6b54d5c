package cli

import (
	"context"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/flatten"
	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/mutate"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Create, list and modify items",
	}
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsEditCmd(app))
	cmd.AddCommand(newItemsToggleCmd(app))
	cmd.AddCommand(newItemsSetCategoryCmd(app))
	cmd.AddCommand(newItemsRmCmd(app))
	cmd.AddCommand(newItemsMoveCmd(app))
	return cmd
}

func newItemsAddCmd(app *App) *cobra.Command {
	var parent, kind, notes, category string
	var priority bool

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an item at the top of its list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, ch, err := mutate.Create(db, mutate.CreateInput{
				Title:      args[0],
				ParentID:   parent,
				Kind:       model.Kind(kind),
				Notes:      notes,
				Priority:   priority,
				CategoryID: category,
			}, time.Now().UTC())
			if err != nil {
				return writeErr(cmd, err)
			}
			a := newApplier(s)
			a.Apply("item.add", ch)
			if err := a.Wait(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent item id (children are always tasks)")
	cmd.Flags().StringVar(&kind, "kind", "task", "Item kind (task|project|list)")
	cmd.Flags().StringVar(&notes, "notes", "", "Markdown notes")
	cmd.Flags().BoolVar(&priority, "priority", false, "Flag as priority")
	cmd.Flags().StringVar(&category, "category", "", "Category id")
	return cmd
}

func newItemsListCmd(app *App) *cobra.Command {
	var all bool
	var parent, category, committed, search, sortKey string
	var desc bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items in display order",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			if parent != "" {
				if _, ok := db.FindItem(parent); !ok {
					return writeErr(cmd, mutate.NotFoundError{Kind: "item", ID: parent})
				}
				children, err := s.FetchChildren(context.Background(), parent)
				if err != nil {
					return writeErr(cmd, err)
				}
				var out []model.Item
				for _, ch := range children {
					if ch.IsCompleted && !all {
						continue
					}
					out = append(out, ch)
				}
				return writeOut(cmd, app, map[string]any{"data": out})
			}

			parents := db.SiblingScope("", false)
			if all {
				parents = append(parents, db.SiblingScope("", true)...)
			}
			childrenByParent := map[string][]*model.Item{}
			for _, p := range parents {
				childrenByParent[p.ID] = db.ChildrenOf(p.ID)
			}
			expanded := map[string]bool{}
			for _, p := range parents {
				expanded[p.ID] = true
			}

			f := flatten.Filters{CategoryID: category, Search: search}
			switch committed {
			case "yes":
				yes := true
				f.Committed = &yes
			case "no":
				no := false
				f.Committed = &no
			}
			rows := flatten.Project(parents, childrenByParent, expanded, db.CommittedSet(), f, flatten.Sort{
				Key:  flatten.SortKey(sortKey),
				Desc: desc,
			})

			var out []model.Item
			for _, r := range rows {
				switch r.Type {
				case flatten.RowParent, flatten.RowChild:
					out = append(out, *r.Item)
				case flatten.RowDoneMarker:
					if !all {
						continue
					}
					for _, ch := range db.SiblingScope(r.ParentID, true) {
						out = append(out, *ch)
					}
				}
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include completed items")
	cmd.Flags().StringVar(&parent, "parent", "", "List only the children of this item")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category id")
	cmd.Flags().StringVar(&committed, "committed", "", "Filter by commitment (yes|no)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive title substring")
	cmd.Flags().StringVar(&sortKey, "sort", "manual", "Sort key (manual|created|priority)")
	cmd.Flags().BoolVar(&desc, "desc", false, "Reverse the sort")
	return cmd
}

func newItemsShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show one item with its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			it, ok := db.FindItem(args[0])
			if !ok {
				return writeErr(cmd, mutate.NotFoundError{Kind: "item", ID: args[0]})
			}

			var children []model.Item
			for _, completed := range []bool{false, true} {
				for _, ch := range db.SiblingScope(it.ID, completed) {
					children = append(children, *ch)
				}
			}
			var commitments []model.Commitment
			for _, c := range db.Commitments {
				if c.ItemID == it.ID {
					commitments = append(commitments, c)
				}
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"item":        it,
				"children":    children,
				"commitments": commitments,
			}})
		},
	}
	return cmd
}

func newItemsEditCmd(app *App) *cobra.Command {
	var title, notes string
	var priority bool

	cmd := &cobra.Command{
		Use:   "edit <item-id>",
		Short: "Edit an item's title, notes or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}

			var in mutate.EditInput
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("notes") {
				in.Notes = &notes
			}
			if cmd.Flags().Changed("priority") {
				in.Priority = &priority
			}
			ch, err := mutate.Edit(db, args[0], in, time.Now().UTC())
			if err != nil {
				return writeErr(cmd, err)
			}
			a := newApplier(s)
			a.Apply("item.edit", ch)
			if err := a.Wait(); err != nil {
				return writeErr(cmd, err)
			}
			it, _ := db.FindItem(args[0])
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&notes, "notes", "", "New markdown notes")
	cmd.Flags().BoolVar(&priority, "priority", false, "Priority flag")
	return cmd
}

func newItemsToggleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <item-id>",
		Short: "Toggle completion, cascading to parent and children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ch, err := mutate.Toggle(db, args[0], time.Now().UTC())
			if err != nil {
				return writeErr(cmd, err)
			}
			a := newApplier(s)
			a.Apply("item.toggle", ch)
			if err := a.Wait(); err != nil {
				return writeErr(cmd, err)
			}

			changed := make([]model.Item, 0, len(ch.Completions))
			for _, c := range ch.Completions {
				changed = append(changed, c.Item)
			}
			return writeOut(cmd, app, map[string]any{"data": changed})
		},
	}
	return cmd
}

func newItemsSetCategoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-category <item-id> [category-id]",
		Short: "Assign an item to a category (omit category-id to clear)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			categoryID := ""
			if len(args) == 2 {
				categoryID = args[1]
			}
			ch, err := mutate.SetCategory(db, args[0], categoryID, time.Now().UTC())
			if err != nil {
				return writeErr(cmd, err)
			}
			a := newApplier(s)
			a.Apply("item.set-category", ch)
			if err := a.Wait(); err != nil {
				return writeErr(cmd, err)
			}
			it, _ := db.FindItem(args[0])
			return writeOut(cmd, app, map[string]any{"data": it})
		},
	}
	return cmd
}

func newItemsRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Delete an item and all its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ch, err := mutate.Delete(db, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			a := newApplier(s)
			a.Apply("item.delete", ch)
			if err := a.Wait(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"deleted": ch.DeletedItemIDs,
			}})
		},
	}
	return cmd
}
