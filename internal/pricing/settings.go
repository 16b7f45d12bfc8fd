package pricing

// Settings are the pricing knobs applied in one calculation pass.
type Settings struct {
	Markup       MarkupSettings     `json:"markup" yaml:"markup"`
	Distribution DistributionMethod `json:"distribution" yaml:"distribution"`
	ChildShare   float64            `json:"childShare,omitempty" yaml:"childShare,omitempty"`
}

// DefaultSettings returns zero markup with even distribution.
func DefaultSettings() Settings {
	return Settings{
		Markup:       MarkupSettings{Type: MarkupPercentage},
		Distribution: DistributionEven,
		ChildShare:   1,
	}
}

// ProposalSettings are the per-proposal overrides of the global settings.
type ProposalSettings struct {
	InheritFromGlobal bool     `json:"inheritFromGlobal" yaml:"inheritFromGlobal"`
	Custom            Settings `json:"custom" yaml:"custom"`
}

// ResolveSettings picks the settings for a calculation pass: the global defaults when the
// proposal inherits them, otherwise the proposal's own.
func ResolveSettings(global Settings, proposal ProposalSettings) Settings {
	if proposal.InheritFromGlobal {
		return global
	}
	return proposal.Custom
}
