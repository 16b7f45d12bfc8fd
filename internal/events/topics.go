package events

// Topic constants for domain events emitted by the quoting service.
const (
	TopicQuoteCalculated = "quote.calculated"
	TopicQuoteSelected   = "quote.selected"
	TopicQuoteFinalized  = "quote.finalized"
)

// DefaultTopics returns the canonical list of topics.
func DefaultTopics() []string {
	return []string{
		TopicQuoteCalculated,
		TopicQuoteSelected,
		TopicQuoteFinalized,
	}
}
