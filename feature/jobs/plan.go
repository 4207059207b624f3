package jobs

import (
	"fmt"
)

// Plan groups the steps of a job into levels that can run concurrently.
// A step runs after every step it looks up, and two steps writing the same
// table never share a level. Levels keep the declaration order of their steps.
func Plan(job *Job) ([][]*Step, error) {
	level := make(map[string]int, len(job.Steps))
	byName := make(map[string]*Step, len(job.Steps))
	for i := range job.Steps {
		byName[job.Steps[i].Name] = &job.Steps[i]
	}

	for len(level) < len(job.Steps) {
		progressed := false

		for i := range job.Steps {
			s := &job.Steps[i]
			if _, done := level[s.Name]; done {
				continue
			}

			lvl, ready := 0, true
			for _, dep := range s.Lookups() {
				if _, ok := byName[dep]; !ok {
					return nil, fmt.Errorf("step %q: %w %q", s.Name, ErrUnknownStep, dep)
				}
				depLevel, done := level[dep]
				if !done {
					ready = false
					break
				}
				lvl = max(lvl, depLevel+1)
			}
			if !ready {
				continue
			}

			// earlier assigned steps on the same table keep precedence
			for name, other := range level {
				if name != s.Name && byName[name].Table == s.Table {
					lvl = max(lvl, other+1)
				}
			}

			level[s.Name] = lvl
			progressed = true
		}

		if !progressed {
			return nil, fmt.Errorf("steps have a circular lookup")
		}
	}

	// every level above 0 holds a step pushed there by one on the level below,
	// so no level is empty
	depth := 0
	for _, l := range level {
		depth = max(depth, l+1)
	}
	levels := make([][]*Step, depth)
	for i := range job.Steps {
		s := &job.Steps[i]
		levels[level[s.Name]] = append(levels[level[s.Name]], s)
	}
	return levels, nil
}
