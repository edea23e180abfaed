// Package interview drives a candidate through the interview flow: invite
// acceptance, microphone check, then one recorded answer per question.
package interview

import (
	"errors"
	"fmt"
)

// Step identifies where in the flow a session currently is.
type Step string

const (
	StepInvite      Step = "invite"
	StepIntro       Step = "intro"
	StepMicTest     Step = "mic_test"
	StepMicTestDone Step = "mic_test_done"
	StepQuestion    Step = "question"
	StepFinal       Step = "final"
)

// MicTestResult records the outcome of the microphone check.
type MicTestResult string

const (
	MicTestPending MicTestResult = "pending"
	MicTestPassed  MicTestResult = "passed"
	MicTestFailed  MicTestResult = "failed"
)

// EventKind names the inputs the flow reacts to.
type EventKind string

const (
	EventAcceptInvite    EventKind = "accept_invite"
	EventStartMicTest    EventKind = "start_mic_test"
	EventMicTestFinished EventKind = "mic_test_finished"
	EventRetryMicTest    EventKind = "retry_mic_test"
	EventProceed         EventKind = "proceed"
	EventAnswerRecorded  EventKind = "answer_recorded"
)

// Event is one flow input. Passed is only meaningful for
// EventMicTestFinished.
type Event struct {
	Kind   EventKind
	Passed bool
}

// FlowState is the complete, serializable flow position. Transition is the
// only place it changes.
type FlowState struct {
	Step           Step          `json:"step"`
	QuestionIndex  int           `json:"questionIndex"`
	QuestionCount  int           `json:"questionCount"`
	MicTestResult  MicTestResult `json:"micTestResult"`
	MicTestRetries int           `json:"micTestRetries"`
}

// NewFlowState returns the initial state for an interview with the given
// number of questions.
func NewFlowState(questionCount int) FlowState {
	return FlowState{
		Step:          StepInvite,
		QuestionCount: questionCount,
		MicTestResult: MicTestPending,
	}
}

// ErrInvalidTransition reports an event arriving in a step that does not
// accept it.
var ErrInvalidTransition = errors.New("invalid flow transition")

// Transition applies one event to a state and returns the next state. It is
// pure: no I/O, no clock, no side effects, so every path is table-testable.
func Transition(s FlowState, e Event) (FlowState, error) {
	invalid := func() (FlowState, error) {
		return s, fmt.Errorf("%w: %s in step %s", ErrInvalidTransition, e.Kind, s.Step)
	}

	switch e.Kind {
	case EventAcceptInvite:
		if s.Step != StepInvite {
			return invalid()
		}
		s.Step = StepIntro

	case EventStartMicTest:
		if s.Step != StepIntro {
			return invalid()
		}
		s.Step = StepMicTest
		s.MicTestResult = MicTestPending

	case EventMicTestFinished:
		if s.Step != StepMicTest {
			return invalid()
		}
		s.Step = StepMicTestDone
		if e.Passed {
			s.MicTestResult = MicTestPassed
		} else {
			s.MicTestResult = MicTestFailed
		}

	case EventRetryMicTest:
		if s.Step != StepMicTestDone || s.MicTestResult != MicTestFailed {
			return invalid()
		}
		s.Step = StepMicTest
		s.MicTestResult = MicTestPending
		s.MicTestRetries++

	case EventProceed:
		if s.Step != StepMicTestDone || s.MicTestResult != MicTestPassed {
			return invalid()
		}
		if s.QuestionCount == 0 {
			s.Step = StepFinal
		} else {
			s.Step = StepQuestion
			s.QuestionIndex = 0
		}

	case EventAnswerRecorded:
		if s.Step != StepQuestion {
			return invalid()
		}
		if s.QuestionIndex >= s.QuestionCount-1 {
			s.Step = StepFinal
		} else {
			s.QuestionIndex++
		}

	default:
		return invalid()
	}
	return s, nil
}
