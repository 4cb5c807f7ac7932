package app

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Onboard360/Onboard360/internal/daemon"
)

func init() { //nolint: gochecknoinits
	syncCmd.Flags().StringSliceVar(&syncOUs, "ou", nil, "OU distinguished name to sync, repeatable (default: the profile search base)")

	rootCmd.AddCommand(syncCmd)
}

var (
	syncOUs []string

	syncCmd = &cobra.Command{
		Use:   "sync <profile-id>",
		Short: "Synchronize directory users of one profile into the database",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid profile id %q", args[0])
			}

			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err
			}

			deps, err := daemon.NewServices(&cfg, db)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := deps.Sync.Sync(ctx, uint(id), syncOUs)
			if res != nil {
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "entries: %d inserted: %d updated: %d decode errors: %d storage errors: %d took: %s\n",
					len(res.Entries), res.Inserted, res.Updated, len(res.DecodeErrors), len(res.StorageErrors), res.Duration)

				ous := make([]string, 0, len(res.OUErrors))
				for ou := range res.OUErrors {
					ous = append(ous, ou)
				}

				sort.Strings(ous)

				for _, ou := range ous {
					fmt.Fprintf(out, "failed OU %s: %v\n", ou, res.OUErrors[ou])
				}
			}

			return err
		},
	}
)
