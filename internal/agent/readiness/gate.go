// Package readiness decides whether a session may produce its final report.
package readiness

import (
	"strings"

	"github.com/carbon-assistant/server/internal/agent/model"
)

// State is the furthest step a session has reached. Check reports
// OptimizationDone until the user confirms and ReportReady after, so
// UserConfirmed is only reported by ProcessUserResponse at the moment of
// confirmation.
type State int

const (
	NoData State = iota
	DataUploaded
	PredictionMade
	OptimizationDone
	UserConfirmed
	ReportReady
)

var stateNames = [...]string{
	NoData:           "no_data",
	DataUploaded:     "data_uploaded",
	PredictionMade:   "prediction_made",
	OptimizationDone: "optimization_done",
	UserConfirmed:    "user_confirmed",
	ReportReady:      "report_ready",
}

func (s State) String() string {
	if s < NoData || s > ReportReady {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText renders the state by name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	MsgUploadFirst   = "Please upload your CSV data first."
	MsgPredictFirst  = "We haven't calculated your emissions yet. Shall we proceed to prediction?"
	MsgOptimizeFirst = "We have optimization suggestions available. Would you like to view them before generating the report?"
	MsgConfirmFirst  = "Are you ready to generate the final sustainability report?"
	MsgReady         = "Generating report..."

	MsgConfirmed   = "Confirmed. Proceeding to report generation."
	MsgNotYetReady = "Okay, let me know when you are ready."
)

var confirmWords = map[string]struct{}{
	"yes":      {},
	"y":        {},
	"confirm":  {},
	"generate": {},
}

// Status is the gate verdict for a session.
type Status struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message"`
	State   State  `json:"state"`
}

// Response is the outcome of a confirmation attempt.
type Response struct {
	Confirmed bool   `json:"confirmed"`
	Message   string `json:"message"`
	State     State  `json:"state"`
}

// Check returns the first unmet precondition, in pipeline order.
func Check(s *model.Session) Status {
	switch {
	case s == nil || !s.DataUploaded:
		return Status{Message: MsgUploadFirst, State: NoData}
	case !s.PredictionMade:
		return Status{Message: MsgPredictFirst, State: DataUploaded}
	case !s.OptimizationDone:
		return Status{Message: MsgOptimizeFirst, State: PredictionMade}
	case !s.UserConfirmedReport:
		return Status{Message: MsgConfirmFirst, State: OptimizationDone}
	}
	return Status{Ready: true, Message: MsgReady, State: ReportReady}
}

// IsConfirmation reports whether text is one of the accepted confirmation words.
func IsConfirmation(text string) bool {
	_, ok := confirmWords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// ProcessUserResponse sets the confirmation flag on s when text confirms.
// Any other input leaves s untouched. There is no way to withdraw a
// confirmation.
func ProcessUserResponse(s *model.Session, text string) Response {
	if !IsConfirmation(text) {
		return Response{Message: MsgNotYetReady, State: Check(s).State}
	}
	if s != nil {
		s.UserConfirmedReport = true
	}
	return Response{Confirmed: true, Message: MsgConfirmed, State: UserConfirmed}
}
