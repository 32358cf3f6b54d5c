package cli

import (
	"context"
	"strings"
	"time"

	"github.com/pelissiertools-cpu/focus/internal/model"
	"github.com/pelissiertools-cpu/focus/internal/mutate"
	"github.com/pelissiertools-cpu/focus/internal/store"

	"github.com/spf13/cobra"
)

// Category commands write through the store synchronously: they are rare,
// tiny, and the delete's reassignment has to be transactional.
func newCategoriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
	}
	cmd.AddCommand(newCategoriesAddCmd(app))
	cmd.AddCommand(newCategoriesListCmd(app))
	cmd.AddCommand(newCategoriesRenameCmd(app))
	cmd.AddCommand(newCategoriesRmCmd(app))
	return cmd
}

func newCategoriesAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return writeErr(cmd, mutate.ValidationError{Reason: "category name must not be empty"})
			}
			id, err := store.NewCategoryID()
			if err != nil {
				return writeErr(cmd, err)
			}
			c := model.Category{ID: id, Name: name, CreatedAt: time.Now().UTC()}
			ctx := context.Background()
			if err := s.CreateCategory(ctx, c); err != nil {
				return writeErr(cmd, err)
			}
			_ = s.AppendEvent(ctx, "category.add", c.ID, c)
			return writeOut(cmd, app, map[string]any{"data": c})
		},
	}
	return cmd
}

func newCategoriesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": db.Categories})
		},
	}
	return cmd
}

func newCategoriesRenameCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <category-id> <name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, ok := db.FindCategory(args[0])
			if !ok {
				return writeErr(cmd, mutate.NotFoundError{Kind: "category", ID: args[0]})
			}
			name := strings.TrimSpace(args[1])
			if name == "" {
				return writeErr(cmd, mutate.ValidationError{Reason: "category name must not be empty"})
			}
			ctx := context.Background()
			if err := s.RenameCategory(ctx, c.ID, name); err != nil {
				return writeErr(cmd, err)
			}
			c.Name = name
			_ = s.AppendEvent(ctx, "category.rename", c.ID, c)
			return writeOut(cmd, app, map[string]any{"data": c})
		},
	}
	return cmd
}

func newCategoriesRmCmd(app *App) *cobra.Command {
	var reassign string

	cmd := &cobra.Command{
		Use:   "rm <category-id>",
		Short: "Delete a category, optionally reassigning its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, ok := db.FindCategory(args[0]); !ok {
				return writeErr(cmd, mutate.NotFoundError{Kind: "category", ID: args[0]})
			}
			if reassign != "" {
				if _, ok := db.FindCategory(reassign); !ok {
					return writeErr(cmd, mutate.NotFoundError{Kind: "category", ID: reassign})
				}
			}
			ctx := context.Background()
			if err := s.DeleteCategory(ctx, args[0], reassign); err != nil {
				return writeErr(cmd, err)
			}
			_ = s.AppendEvent(ctx, "category.delete", args[0], map[string]any{"reassignTo": reassign})
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"deleted":    args[0],
				"reassignTo": reassign,
			}})
		},
	}
	cmd.Flags().StringVar(&reassign, "reassign", "", "Category id to move the deleted category's items to (default: uncategorized)")
	return cmd
}
