package models

import "time"

// Outcome is the result of one download attempt.
type Outcome int

const (
	// OutcomeFailed covers transport errors, unexpected statuses, bad JSON and write errors.
	OutcomeFailed Outcome = iota
	// OutcomeSaved means the image was written to disk.
	OutcomeSaved
	// OutcomeConfirmedAbsent means the server answered 404 for the image.
	OutcomeConfirmedAbsent
	// OutcomeSkipped means the files were already present and no request was made.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSaved:
		return "saved"
	case OutcomeConfirmedAbsent:
		return "absent"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Succeeded reports whether network work completed for the attempt.
// A confirmed 404 counts, so callers keep pacing after it.
func (o Outcome) Succeeded() bool {
	return o == OutcomeSaved || o == OutcomeConfirmedAbsent
}

// Mode names a batch run mode.
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeOffsets Mode = "offsets"
	ModeRange   Mode = "range"
)

// Record is one line of the run report.
type Record struct {
	RunID     string        `csv:"run_id" json:"run_id"`
	Mode      Mode          `csv:"mode" json:"mode"`
	Source    string        `csv:"source" json:"source"`
	Date      string        `csv:"date" json:"date"`
	Outcome   string        `csv:"outcome" json:"outcome"`
	URL       string        `csv:"url" json:"url"`
	ImagePath string        `csv:"image_path" json:"image_path"`
	JSONPath  string        `csv:"json_path" json:"json_path,omitempty"`
	Duration  time.Duration `csv:"duration" json:"duration"`
}

// RunResult holds the overall result of one batch run.
type RunResult struct {
	RunID     string
	Mode      Mode
	StartTime time.Time
	EndTime   time.Time
	Attempts  int
	Saved     int
	Absent    int
	Failed    int
	Skipped   int
	Days      int
}

// Add counts one attempt outcome.
func (r *RunResult) Add(o Outcome) {
	r.Attempts++
	switch o {
	case OutcomeSaved:
		r.Saved++
	case OutcomeConfirmedAbsent:
		r.Absent++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}
