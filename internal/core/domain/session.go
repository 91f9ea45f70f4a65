package domain

import "time"

type Step string

const (
	StepIdle           Step = "idle"
	StepAddName        Step = "add_name"
	StepAddQuantity    Step = "add_quantity"
	StepIssueSelect    Step = "issue_select"
	StepIssueQuantity  Step = "issue_quantity"
	StepIssueRecipient Step = "issue_recipient"
)

// Session is the per-chat state of a multi-step flow. Exactly one
// session exists per chat; fields collected so far accumulate here and
// are applied to the store only at the final step of a flow.
//
// PartQuantity is the quantity observed when the part was selected. It
// is advisory only: other chats may issue against the same part while
// this flow is still collecting input, so the authoritative check is
// repeated inside the issue transaction.
type Session struct {
	ChatID        int64     `json:"chat_id"`
	Step          Step      `json:"step"`
	PartName      string    `json:"part_name,omitempty"`
	PartID        int64     `json:"part_id,omitempty"`
	PartQuantity  int       `json:"part_quantity,omitempty"`
	IssueQuantity int       `json:"issue_quantity,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Idle reports whether no flow is in progress.
func (s *Session) Idle() bool {
	return s == nil || s.Step == "" || s.Step == StepIdle
}
