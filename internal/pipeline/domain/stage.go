package domain

import "fmt"

// Stage is a prospect's furthest pipeline position. Values are ordered.
type Stage int

const (
	StageProspect Stage = iota
	StageLead
	StageSampleOrder
	StageAgreement
	StageCustomer
)

var stageNames = [...]string{
	StageProspect:    "Prospect",
	StageLead:        "Lead",
	StageSampleOrder: "Sample Order",
	StageAgreement:   "Agreement",
	StageCustomer:    "Customer",
}

func (s Stage) String() string {
	if s < StageProspect || s > StageCustomer {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText renders the display name.
func (s Stage) MarshalText() ([]byte, error) {
	if s < StageProspect || s > StageCustomer {
		return nil, fmt.Errorf("unknown stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

// UnmarshalText parses a display name.
func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if name == string(text) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(text))
}

// Classify derives the prospect's current stage from the descendant records
// that exist. Only signed and agreement_sent agreements reach the agreement
// tiers; any other agreement status leaves the prospect at SampleOrder.
func Classify(_ Prospect, lead *Lead, order *SampleOrder, agreement *Agreement) Stage {
	if agreement != nil {
		switch agreement.Status {
		case AgreementSigned:
			return StageCustomer
		case AgreementSent:
			return StageAgreement
		}
	}
	if order != nil {
		return StageSampleOrder
	}
	if agreement != nil {
		// An agreement always has an order; treat a missing order row the same.
		return StageSampleOrder
	}
	if lead != nil {
		return StageLead
	}
	return StageProspect
}
