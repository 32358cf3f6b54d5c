package cli

import (
	"time"

	"github.com/pelissiertools-cpu/focus/internal/mutate"

	"github.com/spf13/cobra"
)

func newCommitCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "commit <item-id>",
		Short: "Commit to an item for a day (default: today)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now().UTC()
			d := date
			if d == "" {
				d = now.Format("2006-01-02")
			}
			ch, err := mutate.Commit(db, args[0], d, now)
			if err != nil {
				return writeErr(cmd, err)
			}
			a := newApplier(s)
			a.Apply("commitment.add", ch)
			if err := a.Wait(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ch.CreatedCommitments})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Commitment day (YYYY-MM-DD)")
	return cmd
}

func newUncommitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uncommit <item-id>",
		Short: "Drop every commitment for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ch, err := mutate.Uncommit(db, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			a := newApplier(s)
			a.Apply("commitment.remove", ch)
			if err := a.Wait(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"itemId":  args[0],
				"removed": !ch.Empty(),
			}})
		},
	}
	return cmd
}
