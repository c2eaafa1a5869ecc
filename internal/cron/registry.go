package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is one unit of scheduled work. Jobs are keyed by Name within a registry.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs a cron cycle runs, in registration order.
type Registry struct {
	jobs  []Job
	index map[string]int
}

// NewRegistry builds a registry from jobs. Nil jobs are skipped and a later
// job with the same name replaces the earlier one in place.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{index: map[string]int{}}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register adds job, replacing any job already registered under its name.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if r.index == nil {
		r.index = map[string]int{}
	}
	if pos, ok := r.index[job.Name()]; ok {
		r.jobs[pos] = job
		return
	}
	r.index[job.Name()] = len(r.jobs)
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}

// Names lists the registered job names in run order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for _, job := range r.jobs {
		names = append(names, job.Name())
	}
	return names
}

// Only returns a registry restricted to the named jobs. An empty selection
// returns r unchanged; an unknown name is an error.
func (r *Registry) Only(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	selected := NewRegistry()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		pos, ok := r.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown cron job %q (registered: %s)", name, strings.Join(r.Names(), ", "))
		}
		selected.Register(r.jobs[pos])
	}
	return selected, nil
}
