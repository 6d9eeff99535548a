package issue

// Result is what a validator reports: its verdict, its findings split by
// level, and an optional validator-specific payload (quality tables,
// redundancy ratios) for the report.
type Result struct {
	IsValid      bool         `json:"isValid"`
	Errors       []Issue      `json:"errors"`
	Warnings     []Issue      `json:"warnings"`
	CountsByKind map[Kind]int `json:"countsByKind,omitempty"`
	Details      any          `json:"details,omitempty"`
}

// NewResult sorts and splits the findings. The result is valid iff there
// are no error-level issues; warnings never flip validity.
func NewResult(issues []Issue) Result {
	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	Sort(sorted)

	res := Result{
		Errors:       []Issue{},
		Warnings:     []Issue{},
		CountsByKind: CountByKind(sorted),
	}
	for _, i := range sorted {
		if i.IsError() {
			res.Errors = append(res.Errors, i)
		} else {
			res.Warnings = append(res.Warnings, i)
		}
	}
	res.IsValid = len(res.Errors) == 0
	return res
}

// Messages returns the message of every issue, in order.
func Messages(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Message)
	}
	return out
}
