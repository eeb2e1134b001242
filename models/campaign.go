package models

import "time"

// Contact is one intended recipient of a campaign.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// Credentials carries the sender identity for one campaign. It is held only
// for the duration of the request and never persisted or logged.
type Credentials struct {
	SenderEmail string `json:"sender_email"`
	AppPassword string `json:"-"`
	Host        string `json:"smtp_host,omitempty"`
	Port        int    `json:"smtp_port,omitempty"`
}

// Template holds the subject/body text with placeholders plus the campaign
// pacing. Loaded once per request and immutable afterwards.
type Template struct {
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	SenderName   string `json:"sender_name"`
	DelaySeconds int    `json:"delay_seconds"`
}

// Outcome status constants.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// SendOutcome records the result of a single delivery attempt.
type SendOutcome struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CampaignResult is the aggregate outcome of one campaign. Success+Fail always
// equals Total and Outcomes preserves input contact order.
type CampaignResult struct {
	ID               string        `json:"campaign_id"`
	Total            int           `json:"total"`
	Success          int           `json:"success"`
	Fail             int           `json:"fail"`
	FailedRecipients []string      `json:"failed_recipients"`
	Outcomes         []SendOutcome `json:"results"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at"`
}
