package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"guardian/internal/incident"
	"guardian/pkg/requestcontext"
)

func (a *app) newPruneCommand() *cobra.Command {
	var retention time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete incidents older than the retention period.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if retention <= 0 {
				return errors.New("--retention must be positive")
			}
			now := time.Now().UTC()
			ctx := requestcontext.WithTime(cmd.Context(), now)

			db, err := a.openDB(ctx, true)
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("the memory store has nothing to prune; use --store sqlite or --store postgres")
			}
			defer db.Close()

			svc, err := incident.New(a.stores(db).incidents,
				incident.WithLogger(a.logger(cmd.ErrOrStderr())),
				incident.WithRetention(retention),
			)
			if err != nil {
				return err
			}
			n, err := svc.Prune(ctx, now)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d incidents older than %s\n", n, now.Add(-retention).Format(time.RFC3339))
			return err
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", incident.DefaultRetention, "Keep incidents newer than this")
	return cmd
}
