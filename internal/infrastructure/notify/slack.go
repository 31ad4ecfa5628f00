package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
)

var severityColors = map[alert.Severity]string{
	alert.SeverityInfo:     "#36a64f",
	alert.SeverityWarning:  "#ff9900",
	alert.SeverityError:    "#ff0000",
	alert.SeverityCritical: "#990000",
}

// SlackNotifier delivers alerts to a Slack incoming webhook. When no
// webhook URL is configured the notifier is disabled and every send
// reports failure without an HTTP call.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

func NewSlackNotifier(webhookURL string, timeout time.Duration, logger *slog.Logger) *SlackNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SlackNotifier{
		webhookURL: strings.TrimSpace(webhookURL),
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (s *SlackNotifier) Enabled() bool {
	return s.webhookURL != ""
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Fallback string       `json:"fallback"`
	Color    string       `json:"color"`
	Title    string       `json:"title"`
	Text     string       `json:"text"`
	Fields   []slackField `json:"fields"`
	Footer   string       `json:"footer"`
	Ts       int64        `json:"ts"`
}

type slackPayload struct {
	Attachments []slackAttachment `json:"attachments"`
}

// SendAlert posts a formatted alert to the webhook and reports whether
// delivery succeeded. Failures are logged, never returned as errors:
// the caller only needs the boolean for the sent_to_slack flag.
func (s *SlackNotifier) SendAlert(ctx context.Context, severity alert.Severity, alertType, message string, metricValue, threshold *float64) bool {
	if !s.Enabled() {
		s.logger.WarnContext(ctx, "slack alerts disabled",
			"alert_type", alertType, "message", message)
		return false
	}

	fields := []slackField{
		{Title: "Severity", Value: string(severity), Short: true},
		{Title: "Alert Type", Value: alertType, Short: true},
	}

	if metricValue != nil {
		fields = append(fields, slackField{
			Title: "Current Value",
			Value: fmt.Sprintf("%.2f", *metricValue),
			Short: true,
		})
	}

	if threshold != nil {
		fields = append(fields, slackField{
			Title: "Threshold",
			Value: fmt.Sprintf("%.2f", *threshold),
			Short: true,
		})
	}

	color, ok := severityColors[severity]
	if !ok {
		color = "#cccccc"
	}

	payload := slackPayload{
		Attachments: []slackAttachment{{
			Fallback: fmt.Sprintf("%s: %s", severity, message),
			Color:    color,
			Title:    fmt.Sprintf("🚨 Task Manager Alert - %s", severity),
			Text:     message,
			Fields:   fields,
			Footer:   "Task Manager Monitoring",
			Ts:       time.Now().UTC().Unix(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "slack payload marshal failed", "error", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		s.logger.ErrorContext(ctx, "slack request creation failed", "error", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.ErrorContext(ctx, "slack alert delivery failed",
			"alert_type", alertType, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.ErrorContext(ctx, "slack alert rejected",
			"alert_type", alertType, "status", resp.StatusCode)
		return false
	}

	s.logger.InfoContext(ctx, "slack alert sent", "alert_type", alertType)
	return true
}
