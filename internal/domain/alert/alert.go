package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	}
	return false
}

// Well-known alert types fired by the threshold evaluator. AlertType is a
// free-form key, so new types can be introduced without touching this
// package.
const (
	TypeHighErrorRate = "high_error_rate"
	TypeHighLatency   = "high_latency"
)

// Alert is a durable record of a threshold breach. It is immutable once
// created except for the SentToSlack delivery flag; this subsystem never
// deletes alerts.
type Alert struct {
	ID             uuid.UUID `json:"id"`
	Severity       Severity  `json:"severity"`
	AlertType      string    `json:"alert_type"`
	Message        string    `json:"message"`
	MetricValue    *float64  `json:"metric_value,omitempty"`
	ThresholdValue *float64  `json:"threshold_value,omitempty"`
	SentToSlack    bool      `json:"sent_to_slack"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewAlert creates an alert in the undelivered state.
func NewAlert(severity Severity, alertType, message string, metricValue, thresholdValue *float64) (*Alert, error) {
	if !severity.Valid() {
		return nil, fmt.Errorf("invalid severity %q", severity)
	}

	if alertType == "" {
		return nil, fmt.Errorf("alert type cannot be empty")
	}

	if message == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	return &Alert{
		ID:             uuid.New(),
		Severity:       severity,
		AlertType:      alertType,
		Message:        message,
		MetricValue:    metricValue,
		ThresholdValue: thresholdValue,
		SentToSlack:    false,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
