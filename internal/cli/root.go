package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pelissiertools-cpu/focus/internal/format"
	"github.com/pelissiertools-cpu/focus/internal/reconcile"
	"github.com/pelissiertools-cpu/focus/internal/store"
	"github.com/pelissiertools-cpu/focus/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "focus",
		Short:        "Focus (local-first) task outliner CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  focus

  # Scriptable commands
  focus items list

  # Add a project and a child task
  focus items add "Ship release" --kind project
  focus items add "Write changelog" --parent <project-id>
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("FOCUS_DIR", ""), "Path to the .focus store dir (default: walk up from cwd)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FOCUS_FORMAT", "json"), "Output format (json)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newCategoriesCmd(app))
	cmd.AddCommand(newCommitCmd(app))
	cmd.AddCommand(newUncommitCmd(app))
	cmd.AddCommand(newEventsCmd(app))

	return cmd
}

func runTUI(app *App) error {
	db, s, err := loadDB(app)
	if err != nil {
		return err
	}
	return tui.Run(s, db)
}

func loadDB(app *App) (*store.DB, store.Store, error) {
	dir := app.Dir
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			return nil, store.Store{}, err
		}
		dir = d
	}
	s := store.Store{Dir: dir}
	db, err := s.Load(context.Background())
	if err != nil {
		return nil, store.Store{}, err
	}
	return db, s, nil
}

// newApplier builds the persistence applier for one-shot CLI commands. The
// CLI has no other view open, so no notify bus is wired.
func newApplier(s store.Store) *reconcile.Applier {
	return &reconcile.Applier{Store: s, Origin: "cli"}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
