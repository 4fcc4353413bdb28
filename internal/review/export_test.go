package review

func (m *Model) ObserverCount() int { return len(m.observers) }
