package ghsecrets

import (
	"fmt"

	"github.com/mscno/ghsecrets/pkg/config"
)

// Outcome is the result of provisioning one secret.
type Outcome struct {
	// Environment is empty for repository secrets.
	Environment string
	Name        string
	// Err is nil when the secret was written, or sealed in a dry run.
	Err error
}

// Target returns "name" for repository secrets and "environment/name" for
// environment secrets.
func (o Outcome) Target() string {
	if o.Environment == "" {
		return o.Name
	}
	return o.Environment + "/" + o.Name
}

// Result describes a completed run. Outcomes are in configuration order,
// repository secrets first.
type Result struct {
	Repository config.RepositoryRef
	KeyID      string
	DryRun     bool
	Outcomes   []Outcome
}

func (r *Result) Total() int {
	return len(r.Outcomes)
}

func (r *Result) Succeeded() int {
	return r.Total() - len(r.Failures())
}

// Failures returns the outcomes that carry an error.
func (r *Result) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// OK reports whether every secret succeeded.
func (r *Result) OK() bool {
	return len(r.Failures()) == 0
}

// Summary returns a one line description of the run.
func (r *Result) Summary() string {
	noun := "secrets"
	if r.Total() == 1 {
		noun = "secret"
	}
	verb := "succeeded"
	if r.DryRun {
		verb = "sealed (dry run)"
	}
	if r.OK() {
		return fmt.Sprintf("all %d %s %s", r.Total(), noun, verb)
	}
	return fmt.Sprintf("%d of %d %s %s", r.Succeeded(), r.Total(), noun, verb)
}

// Err returns a StageError wrapping ErrPartialFailure when any secret failed.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return stageErr(StageUpsert, fmt.Errorf("%w: %s", ErrPartialFailure, r.Summary()))
}
