package models

// OutcomeKind classifies a parsed search page.
type OutcomeKind int

const (
	// Unrecognized means the page was neither a result list nor a no-results page.
	Unrecognized OutcomeKind = iota
	// NoResults means the site explicitly reported an empty search.
	NoResults
	// ResultsFound means the page is a result list.
	ResultsFound
)

func (k OutcomeKind) String() string {
	switch k {
	case NoResults:
		return "no_results"
	case ResultsFound:
		return "results_found"
	default:
		return "unrecognized"
	}
}

// Outcome is the result of parsing one search page. Count is the figure the
// page's summary reports and may differ from len(Records).
type Outcome struct {
	Kind    OutcomeKind
	Count   int
	Records []Record
}

// Success reports whether the outcome ends the current run.
func (o Outcome) Success() bool {
	return o.Kind == ResultsFound
}
