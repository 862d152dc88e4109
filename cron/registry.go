// Package cron holds the background jobs of the storefront (catalog cache
// warming, cart resync) and runs them on robfig/cron schedules.
package cron

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"storefront.GO/core/registry"
)

// Job is a named background task. Names are lower-case.
type Job struct {
	Name     string
	Schedule string
	Usage    string
	Run      func(...string)
}

var mu sync.Mutex

// Register adds a job. Call from init() in extension packages. Panics if the
// registry is locked, the name is taken or the schedule does not parse.
func Register(name, schedule, usage string, run func(...string)) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryCron) {
		panic("cron/registry: locked (register only during init before StartCron)")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		panic("cron/registry: job " + name + ": " + err.Error())
	}
	name = strings.ToLower(name)
	list := registered()
	i := sort.Search(len(list), func(i int) bool { return list[i].Name >= name })
	if i < len(list) && list[i].Name == name {
		panic("cron/registry: duplicate job " + name)
	}
	list = append(list, Job{})
	copy(list[i+1:], list[i:])
	list[i] = Job{Name: name, Schedule: schedule, Usage: usage, Run: run}
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryCron, list)
}

// Unregister removes a job and reopens the registry. Tests only.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryCron)
	name = strings.ToLower(name)
	var kept []Job
	for _, j := range registered() {
		if j.Name != name {
			kept = append(kept, j)
		}
	}
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryCron, kept)
}

func registered() []Job {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryCron); ok && v != nil {
		return append([]Job(nil), v.([]Job)...)
	}
	return nil
}

// Jobs returns the registered jobs sorted by name and locks the registry.
func Jobs() []Job {
	mu.Lock()
	defer mu.Unlock()
	if !registry.GlobalRegistry.IsLocked(registry.KeyRegistryCron) {
		registry.GlobalRegistry.Lock(registry.KeyRegistryCron)
	}
	return registered()
}

// Lookup finds a job by name, case-insensitively.
func Lookup(name string) (Job, bool) {
	name = strings.ToLower(name)
	for _, j := range Jobs() {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

// Run executes one job immediately.
func Run(name string, args ...string) error {
	j, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	j.Run(args...)
	return nil
}
