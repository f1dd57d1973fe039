package models

// Clone returns a deep copy of the playbook. Command-history snapshots and
// autosave payloads must never alias the live editor instance, so every
// reference field is copied.
func (p *Playbook) Clone() *Playbook {
	if p == nil {
		return nil
	}

	clone := *p

	if p.Steps != nil {
		clone.Steps = make([]*Step, 0, len(p.Steps))
		for _, step := range p.Steps {
			clone.Steps = append(clone.Steps, step.Clone())
		}
	}

	if p.TriggerConditions != nil {
		conditions := *p.TriggerConditions

		if p.TriggerConditions.Threshold != nil {
			threshold := *p.TriggerConditions.Threshold
			conditions.Threshold = &threshold
		}

		if p.TriggerConditions.CustomerIDs != nil {
			conditions.CustomerIDs = append([]string(nil), p.TriggerConditions.CustomerIDs...)
		}

		clone.TriggerConditions = &conditions
	}

	return &clone
}

// Clone returns a deep copy of the step.
func (s *Step) Clone() *Step {
	if s == nil {
		return nil
	}

	clone := *s

	if s.NextStep != nil {
		next := *s.NextStep
		clone.NextStep = &next
	}

	clone.ActionConfig = cloneActionConfig(s.ActionConfig)

	return &clone
}

// cloneActionConfig copies a config variant. All variants are value types, so
// only ConditionConfig needs attention for its branch slice and default
// pointer.
func cloneActionConfig(config ActionConfig) ActionConfig {
	condition, ok := config.(ConditionConfig)
	if !ok {
		return config
	}

	clone := condition

	if condition.Branches != nil {
		clone.Branches = append([]Branch(nil), condition.Branches...)
	}

	if condition.Default != nil {
		def := *condition.Default
		clone.Default = &def
	}

	return clone
}
