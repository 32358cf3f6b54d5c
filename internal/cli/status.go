package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show local store status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, s, err := loadDB(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			evs, err := s.ReadEvents(context.Background(), "", 0)
			if err != nil {
				return writeErr(cmd, err)
			}

			completed := 0
			for _, it := range db.Items {
				if it.IsCompleted {
					completed++
				}
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":         s.Dir,
					"items":       len(db.Items),
					"topLevel":    len(db.TopLevel()),
					"completed":   completed,
					"categories":  len(db.Categories),
					"commitments": len(db.Commitments),
					"events":      len(evs),
				},
			})
		},
	}
	return cmd
}
