package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	robfig "github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"storefront.GO/config"
	"storefront.GO/cron"
)

var (
	jobName       string
	listJobs      bool
	watchSchedule string
)

var cronStartCmd = &cobra.Command{
	Use:   "cron:start",
	Short: "Start the cron scheduler or run a single job by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jobName != "" {
			fmt.Printf("Running cron job: %s\n", jobName)
			return cron.Run(jobName, args...)
		}
		if listJobs {
			for _, j := range cron.Jobs() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-14s %s\n", j.Name, j.Schedule, j.Usage)
			}
			return nil
		}
		fmt.Println("Starting cron scheduler...")
		c, err := cron.StartCron()
		if err != nil {
			return err
		}
		defer c.Stop()
		fmt.Println("Cron scheduler started. Press Ctrl+C to exit.")
		waitForSignal()
		return nil
	},
}

// cartWatchCmd keeps a cart page open and resyncs it on a schedule, like a
// cart tab that notices edits made elsewhere.
var cartWatchCmd = &cobra.Command{
	Use:   "cart:watch",
	Short: "Resync the cart on CART_REFRESH_SCHEDULE and print it when it changes",
	RunE: func(c *cobra.Command, args []string) error {
		schedule := watchSchedule
		if schedule == "" {
			schedule = config.App().CartRefreshSchedule
		}
		cp, _ := newCartPage(c, nil, false)
		defer cp.Teardown()
		ctx := c.Context()
		if err := cp.Load(ctx); err != nil {
			return err
		}

		sched := robfig.New()
		if _, err := sched.AddFunc(schedule, func() {
			replaced, err := cp.Reconciler().Resync(ctx)
			if err != nil {
				log.Printf("[CART] action=watch msg=%v", err)
				return
			}
			if !replaced {
				log.Printf("[CART] action=watch msg=skipped, mutation in flight")
			}
		}); err != nil {
			return fmt.Errorf("schedule %q: %w", schedule, err)
		}
		sched.Start()
		defer sched.Stop()
		fmt.Printf("Watching cart on %s. Press Ctrl+C to exit.\n", schedule)
		waitForSignal()
		return nil
	},
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run a single cron job by name and exit")
	cronStartCmd.Flags().BoolVarP(&listJobs, "list", "l", false, "List registered jobs and exit")
	cartWatchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron spec, default CART_REFRESH_SCHEDULE")
	rootCmd.AddCommand(cronStartCmd, cartWatchCmd)
}
