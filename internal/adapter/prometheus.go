package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/service"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// Alertmanager webhook shape, version 4.
type prometheusPayload struct {
	Status string `json:"status"`
	Alerts []struct {
		Status      string            `json:"status"`
		Labels      map[string]string `json:"labels"`
		Annotations map[string]string `json:"annotations"`
		Fingerprint string            `json:"fingerprint"`
		StartsAt    string            `json:"startsAt"`
	} `json:"alerts"`
}

// PrometheusAdapter converts firing Alertmanager alerts into ticket inputs.
type PrometheusAdapter struct{}

func NewPrometheusAdapter() *PrometheusAdapter {
	return &PrometheusAdapter{}
}

func (a *PrometheusAdapter) Name() string { return "prometheus" }

// Parse decodes the webhook body into one ticket input per firing alert.
// Resolved alerts are skipped.
func (a *PrometheusAdapter) Parse(body []byte) ([]service.TicketCreateInput, error) {
	var payload prometheusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewValidationError("invalid alertmanager payload", nil)
	}
	inputs := make([]service.TicketCreateInput, 0, len(payload.Alerts))
	for _, alert := range payload.Alerts {
		if alert.Status != "firing" {
			continue
		}
		alertName := alert.Labels["alertname"]
		if alertName == "" {
			alertName = "unknown alert"
		}
		title := alertName
		if instance := alert.Labels["instance"]; instance != "" {
			title = fmt.Sprintf("%s on %s", alertName, instance)
		}
		description := alert.Annotations["description"]
		if description == "" {
			description = alert.Annotations["summary"]
		}
		eventID := fmt.Sprintf("prometheus:%s:%s", alert.Fingerprint, alert.StartsAt)
		inputs = append(inputs, service.TicketCreateInput{
			Title:         title,
			Description:   description,
			Source:        domain.TicketSourcePrometheus,
			SourceEventID: &eventID,
			Priority:      severityToPriority(alert.Labels["severity"]),
		})
	}
	return inputs, nil
}

func severityToPriority(severity string) domain.TicketPriority {
	switch strings.ToLower(severity) {
	case "critical":
		return domain.TicketPriorityCritical
	case "warning", "high":
		return domain.TicketPriorityHigh
	case "low", "info":
		return domain.TicketPriorityLow
	default:
		return domain.TicketPriorityMedium
	}
}
