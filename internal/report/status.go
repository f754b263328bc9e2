package report

// Status is the outcome recorded for a step entry or log line.
type Status int

const (
	Passed Status = iota
	Failed
	Skipped
	Pending
	Other
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "Passed"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	case Pending:
		return "Pending"
	default:
		return "Other"
	}
}

// Label is the badge text shown in the report.
func (s Status) Label() string {
	switch s {
	case Passed:
		return "Pass"
	case Failed:
		return "Fail"
	case Skipped:
		return "Skip"
	case Pending:
		return "Warning"
	default:
		return "Info"
	}
}

// BadgeClass is the CSS class of the status badge. The dashboard cleaner
// counts these literally.
func (s Status) BadgeClass() string {
	switch s {
	case Passed:
		return "pass-bg"
	case Failed:
		return "fail-bg"
	case Skipped:
		return "skip-bg"
	case Pending:
		return "warning-bg"
	default:
		return "info-bg"
	}
}

// severity orders statuses when rolling entries up into a node status.
func (s Status) severity() int {
	switch s {
	case Failed:
		return 4
	case Pending:
		return 3
	case Skipped:
		return 2
	case Passed:
		return 1
	default:
		return 0
	}
}

// worse returns whichever of a and b should represent their parent.
func worse(a, b Status) Status {
	if b.severity() > a.severity() {
		return b
	}
	return a
}
