package audit

import (
	"time"

	id "bidrag/pkg/domain"
)

// Action names what happened to a case's grounds.
type Action string

const (
	ActionBuild    Action = "GRUNNLAG_BYGGET"
	ActionValidate Action = "PERIODER_VALIDERT"
	ActionDiff     Action = "GENERASJONER_SAMMENLIGNET"
	ActionActivate Action = "GENERASJON_AKTIVERT"
)

// Event is emitted from domain logic to capture key actions on a case. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	CaseID    id.CaseID
	BuildID   id.BuildID
	Actor     string
	Action    Action
	// NodeCount and ChangeCount summarize the outcome; the stored generation
	// itself is the full record.
	NodeCount   int
	ChangeCount int
	Detail      string
}
