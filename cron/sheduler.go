package cron

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// StartCron schedules every registered job and starts the scheduler. A job
// that panics is logged and a run that overlaps the previous one is skipped.
func StartCron() (*cron.Cron, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	for _, j := range Jobs() {
		run := j.Run
		if _, err := c.AddFunc(j.Schedule, func() { run() }); err != nil {
			return nil, fmt.Errorf("register job %s: %w", j.Name, err)
		}
		log.Printf("[CRON] action=register job=%s schedule=%s", j.Name, j.Schedule)
	}
	c.Start()
	return c, nil
}
