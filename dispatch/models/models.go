package models

import "time"

// Dispute status values. The status field is an open enum: these are the
// values the system itself assigns or recommends, but operator tooling may
// record others.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusResolved  = "resolved"
	StatusEscalated = "escalated"
	StatusDeleted   = "deleted"
)

// Address is a US mailing address in the mail provider's field layout.
type Address struct {
	Name  string `json:"name"`
	Line1 string `json:"address_line1"`
	Line2 string `json:"address_line2,omitempty"`
	City  string `json:"address_city"`
	State string `json:"address_state"`
	Zip   string `json:"address_zip"`
}

// Sender is the client on whose behalf a dispute letter is sent. The identity
// fields beyond the address appear in the letter header only.
type Sender struct {
	Address
	SSNLast4 string `json:"ssn_last4,omitempty"`
	DOB      string `json:"dob,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// DisputeItem describes one account or trade line being disputed.
type DisputeItem struct {
	AccountName        string `json:"account_name"`
	AccountNumberLast4 string `json:"account_number_last4"`
	Reason             string `json:"reason"`
	Details            string `json:"details"`
}

// DisputeRecord is one durable entry tracking a single sent letter and its
// lifecycle. ResponseDeadline and EscalationDate are fixed at creation and
// never recomputed; time-remaining views are derived fresh at query time.
type DisputeRecord struct {
	LetterID         string        `json:"letter_id"`
	TrackingNumber   string        `json:"tracking_number,omitempty"`
	Carrier          string        `json:"carrier,omitempty"`
	ExpectedDelivery string        `json:"expected_delivery,omitempty"`
	LetterType       string        `json:"letter_type"`
	LetterName       string        `json:"letter_name"`
	LegalBasis       string        `json:"legal_basis"`
	Target           string        `json:"target"`
	RecipientName    string        `json:"recipient_name"`
	SentAt           time.Time     `json:"sent_date"`
	ResponseDeadline time.Time     `json:"response_deadline"`
	EscalationDate   time.Time     `json:"escalation_date"`
	Status           string        `json:"status"`
	ItemsDisputed    []DisputeItem `json:"items_disputed"`
	Notes            string        `json:"notes,omitempty"`
	UpdatedAt        *time.Time    `json:"updated_at,omitempty"`
	PreviewURL       string        `json:"lob_url,omitempty"`
	CostCents        int           `json:"cost_cents,omitempty"`
	IsTest           bool          `json:"is_test"`
}

// PendingDispute is a DisputeRecord annotated with time-remaining data
// computed at query time. The annotations are never persisted.
type PendingDispute struct {
	DisputeRecord
	DaysRemaining int  `json:"days_remaining"`
	Overdue       bool `json:"overdue"`
}

// SendResult is the provider metadata returned from a confirmed letter
// dispatch. TrackingNumber and Carrier may be empty in sandbox mode.
type SendResult struct {
	ProviderID           string `json:"id"`
	TrackingNumber       string `json:"tracking_number"`
	Carrier              string `json:"carrier"`
	ExpectedDeliveryDate string `json:"expected_delivery_date"`
	CostCents            int    `json:"cost_cents"`
	PreviewURL           string `json:"url"`
	IsTest               bool   `json:"is_test"`
}

// TrackingEvent is one provider-observed scan event for a mailed letter.
type TrackingEvent struct {
	Name     string     `json:"name"`
	Location string     `json:"location,omitempty"`
	Time     *time.Time `json:"time,omitempty"`
}

// DeliveryStatus is the provider's current view of a sent letter. Absence of
// tracking data (e.g. sandbox credentials) is a valid, non-error state.
type DeliveryStatus struct {
	ID               string          `json:"id"`
	TrackingNumber   string          `json:"tracking_number,omitempty"`
	Carrier          string          `json:"carrier,omitempty"`
	ExpectedDelivery string          `json:"expected_delivery,omitempty"`
	SendDate         string          `json:"send_date,omitempty"`
	MailType         string          `json:"mail_type,omitempty"`
	ExtraService     string          `json:"extra_service,omitempty"`
	TrackingEvents   []TrackingEvent `json:"tracking_events"`
}

// VerificationResult is the advisory outcome of a US address verification.
type VerificationResult struct {
	ID             string `json:"id"`
	Deliverability string `json:"deliverability"`
	PrimaryLine    string `json:"primary_line,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Zip            string `json:"zip_code,omitempty"`
}

// Deliverable reports whether the provider considers the address mailable.
func (v VerificationResult) Deliverable() bool {
	switch v.Deliverability {
	case "deliverable", "deliverable_unnecessary_unit", "deliverable_incorrect_unit", "deliverable_missing_unit":
		return true
	}
	return false
}
