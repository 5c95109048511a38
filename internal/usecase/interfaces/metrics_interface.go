package interfaces

// IDonationMetrics records reconciliation outcomes.
type IDonationMetrics interface {
	ObserveTransition(writer, status string)
	ObserveWebhookEvent(event, outcome string)
	ObserveSweepItem(outcome string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveTransition(string, string)   {}
func (NopMetrics) ObserveWebhookEvent(string, string) {}
func (NopMetrics) ObserveSweepItem(string)            {}
