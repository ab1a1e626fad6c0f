package remote

// jobStatus is one status response from the job location URI.
type jobStatus struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult"`
	Error         *jobError      `json:"error"`
}

type jobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pollPhase int

const (
	phasePending pollPhase = iota
	phaseSucceeded
	phaseFailed
	phaseUnknown
)

// pollState tracks one analysis job through the poll loop.
type pollState struct {
	Attempts       int
	Phase          pollPhase
	Text           string
	FailureCode    string
	FailureMessage string
}

// terminal reports whether the job reached a final state.
func (s pollState) terminal() bool {
	return s.Phase == phaseSucceeded || s.Phase == phaseFailed
}

// advance folds the latest status response into the state. A terminal state
// never transitions out; advance is pure so the decision logic can be tested
// without a clock or network.
func (s pollState) advance(resp jobStatus) pollState {
	if s.terminal() {
		return s
	}

	next := s
	next.Attempts++

	switch resp.Status {
	case "notStarted", "running":
		next.Phase = phasePending
	case "succeeded":
		next.Phase = phaseSucceeded
		next.Text = extractText(resp.AnalyzeResult)
	case "failed":
		next.Phase = phaseFailed
		if resp.Error != nil {
			next.FailureCode = resp.Error.Code
			next.FailureMessage = resp.Error.Message
		}
		if next.FailureMessage == "" {
			next.FailureMessage = "no error detail provided"
		}
	default:
		next.Phase = phaseUnknown
	}
	return next
}
