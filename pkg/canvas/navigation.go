package canvas

// Keyboard node navigation. Focus moves through the playbook's steps in list
// order, wrapping at both ends; navigation never fails on an empty node set.

// FocusNext moves keyboard focus to the next step. With no focus yet it lands
// on the first step. Returns the focused step ID and whether any step holds
// focus.
func (s *Session) FocusNext() (string, bool) {
	steps := s.playbook.Steps
	if len(steps) == 0 {
		s.focus = ""

		return "", false
	}

	index := s.focusIndex()
	if index < 0 {
		s.focus = steps[0].StepID

		return s.focus, true
	}

	s.focus = steps[(index+1)%len(steps)].StepID

	return s.focus, true
}

// FocusPrev moves keyboard focus to the previous step, landing on the last
// step when nothing holds focus.
func (s *Session) FocusPrev() (string, bool) {
	steps := s.playbook.Steps
	if len(steps) == 0 {
		s.focus = ""

		return "", false
	}

	index := s.focusIndex()
	if index < 0 {
		s.focus = steps[len(steps)-1].StepID

		return s.focus, true
	}

	s.focus = steps[(index-1+len(steps))%len(steps)].StepID

	return s.focus, true
}

// Focused returns the step currently holding keyboard focus.
func (s *Session) Focused() (string, bool) {
	if s.focus == "" || !s.playbook.HasStep(s.focus) {
		return "", false
	}

	return s.focus, true
}

// ActivateFocused selects the focused step (Enter/Space). A no-op without
// focus.
func (s *Session) ActivateFocused() bool {
	if s.focus == "" || !s.playbook.HasStep(s.focus) {
		return false
	}

	s.selection = s.focus

	return true
}

func (s *Session) focusIndex() int {
	if s.focus == "" {
		return -1
	}

	for i, step := range s.playbook.Steps {
		if step.StepID == s.focus {
			return i
		}
	}

	return -1
}
