// Package notify delivers budget alerts to people.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	"github.com/slack-go/slack"
)

var severityColors = map[domain.AlertSeverity]string{
	domain.SeverityLow:      "#9ca3af",
	domain.SeverityMedium:   "#eab308",
	domain.SeverityHigh:     "#f97316",
	domain.SeverityCritical: "#dc2626",
}

// SlackNotifier posts alerts to an incoming webhook.
type SlackNotifier struct {
	webhookURL string
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, post: slack.PostWebhookContext}
}

var _ clients.AlertNotifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) NotifyAlert(ctx context.Context, alert domain.BudgetAlert) error {
	if err := n.post(ctx, n.webhookURL, AlertMessage(alert)); err != nil {
		return fmt.Errorf("failed to post alert %s to slack: %w", alert.AlertID, err)
	}
	return nil
}

// AlertMessage renders an alert as a Slack webhook message.
func AlertMessage(alert domain.BudgetAlert) *slack.WebhookMessage {
	title := fmt.Sprintf("%s: %s / %s", alert.AlertType, alert.BudgetName, alert.AccountName)
	return &slack.WebhookMessage{
		Text: fmt.Sprintf("Budget alert for %s is at %s%% of plan", alert.AccountName, alert.UtilizationPercent.StringFixed(2)),
		Attachments: []slack.Attachment{{
			Color: severityColors[alert.Severity],
			Title: title,
			Fields: []slack.AttachmentField{
				{Title: "Severity", Value: string(alert.Severity), Short: true},
				{Title: "Utilization", Value: alert.UtilizationPercent.StringFixed(2) + "%", Short: true},
				{Title: "Spent", Value: alert.CurrentSpent.StringFixed(2), Short: true},
				{Title: "Planned", Value: alert.BudgetAmount.StringFixed(2), Short: true},
			},
			Footer: "budget " + alert.BudgetID,
			Ts:     json.Number(strconv.FormatInt(alert.CreatedAt.Unix(), 10)),
		}},
	}
}
