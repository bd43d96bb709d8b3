package importer

// Outcome tags a unit of work after processing.
type Outcome int

const (
	Succeeded Outcome = iota
	Partial
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Partial:
		return "partial"
	default:
		return "failed"
	}
}

// LabelReport tallies one mbox file's messages. Messages below the resume
// offset are not counted at all.
type LabelReport struct {
	LabelPath string
	Succeeded int
	Failed    int
	// Aborted means label resolution or the file open failed and no message
	// was attempted.
	Aborted bool
}

// Outcome applies the label-level tally rule: zero failures means the label
// fully succeeded, a mix means partial, zero successes with at least one
// attempt means failed.
func (r LabelReport) Outcome() Outcome {
	switch {
	case r.Aborted:
		return Failed
	case r.Failed == 0:
		return Succeeded
	case r.Succeeded > 0:
		return Partial
	default:
		return Failed
	}
}

// UserReport tallies one user's labels.
type UserReport struct {
	User   string
	Labels []LabelReport
	// Aborted means credentials, label listing, or the directory walk
	// failed and the user was skipped entirely.
	Aborted bool
}

// Outcome mirrors the label rule: no failed labels and no failed messages
// means the user fully succeeded; anything succeeding at all means partial;
// otherwise failed.
func (r UserReport) Outcome() Outcome {
	if r.Aborted {
		return Failed
	}
	var failedLabels, failedMsgs, okLabels, okMsgs int
	for _, l := range r.Labels {
		if l.Outcome() == Failed {
			failedLabels++
		} else {
			okLabels++
		}
		failedMsgs += l.Failed
		okMsgs += l.Succeeded
	}
	switch {
	case failedLabels == 0 && failedMsgs == 0:
		return Succeeded
	case okLabels > 0 || okMsgs > 0:
		return Partial
	default:
		return Failed
	}
}

// Report aggregates a whole run. Read-only once the run completes.
type Report struct {
	Users []UserReport
}

// Counts buckets outcomes for the final summary.
type Counts struct {
	Succeeded int
	Partial   int
	Failed    int
}

func (c *Counts) add(o Outcome) {
	switch o {
	case Succeeded:
		c.Succeeded++
	case Partial:
		c.Partial++
	default:
		c.Failed++
	}
}

// Summary is the run-wide roll-up reported at the end of a run.
type Summary struct {
	Users             Counts
	Labels            Counts
	MessagesSucceeded int
	MessagesFailed    int
}

// Summary rolls every user and label tally up into run-wide counters.
func (r Report) Summary() Summary {
	var s Summary
	for _, u := range r.Users {
		s.Users.add(u.Outcome())
		for _, l := range u.Labels {
			s.Labels.add(l.Outcome())
			s.MessagesSucceeded += l.Succeeded
			s.MessagesFailed += l.Failed
		}
	}
	return s
}
