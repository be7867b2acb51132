package pattern

import "fmt"

// Step is one named stage of a sequence gesture.
type Step struct {
	Name     string
	Detector Detector
}

// Resetter is implemented by detectors that carry progress between strokes.
type Resetter interface {
	Reset()
}

// DefaultMaxTimeBetween is the default window between sequence steps, in ms.
const DefaultMaxTimeBetween = 1000

// Sequence matches an ordered list of steps, one stroke per step. Each step
// must complete within maxTimeBetween of the previous one.
//
// Progress is an explicit cursor {stepIndex, stepDeadline}. It is reset to
// zero on timeout or on a mismatching stroke; the mismatching stroke is then
// tried once against the first step so a new attempt can begin immediately.
// A Sequence is not safe for concurrent use.
type Sequence struct {
	steps          []Step
	maxTimeBetween int64

	stepIndex    int
	stepDeadline int64
}

// NewSequence creates a sequence detector. maxTimeBetween <= 0 selects
// DefaultMaxTimeBetween.
func NewSequence(maxTimeBetween int64, steps ...Step) *Sequence {
	if maxTimeBetween <= 0 {
		maxTimeBetween = DefaultMaxTimeBetween
	}
	return &Sequence{
		steps:          steps,
		maxTimeBetween: maxTimeBetween,
	}
}

// Reset rewinds the cursor to the first step.
func (s *Sequence) Reset() {
	s.stepIndex = 0
	s.stepDeadline = 0
}

// Progress returns the index of the next expected step and its deadline.
func (s *Sequence) Progress() (stepIndex int, stepDeadline int64) {
	return s.stepIndex, s.stepDeadline
}

// Steps returns the step names in order.
func (s *Sequence) Steps() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name
	}
	return names
}

// Detect advances the cursor with the given stroke. The result is detected
// only when the final step completes.
func (s *Sequence) Detect(in Input) (Result, error) {
	if len(s.steps) == 0 {
		return NoMatch, nil
	}

	if s.stepIndex > 0 && in.Now > s.stepDeadline {
		s.Reset()
	}

	res, err := s.try(in)
	if err != nil {
		s.Reset()
		return NoMatch, err
	}

	if !res.Detected && s.stepIndex > 0 {
		s.Reset()
		if res, err = s.try(in); err != nil {
			s.Reset()
			return NoMatch, err
		}
	}

	if !res.Detected {
		return Result{Step: s.stepIndex, Steps: len(s.steps)}, nil
	}

	s.stepIndex++
	s.stepDeadline = in.Now + s.maxTimeBetween

	if s.stepIndex < len(s.steps) {
		return Result{Step: s.stepIndex, Steps: len(s.steps)}, nil
	}

	s.Reset()
	res.Step = len(s.steps)
	res.Steps = len(s.steps)
	return res, nil
}

func (s *Sequence) try(in Input) (Result, error) {
	step := s.steps[s.stepIndex]
	if step.Detector == nil {
		return NoMatch, fmt.Errorf("sequence step %q has no detector", step.Name)
	}
	return step.Detector.Detect(in)
}
