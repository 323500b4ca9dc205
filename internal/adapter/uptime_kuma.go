package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/service"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// Uptime Kuma webhook shape. Heartbeat status 0 means down, 1 means up.
type uptimeKumaPayload struct {
	Heartbeat *struct {
		Status    int    `json:"status"`
		Msg       string `json:"msg"`
		Time      string `json:"time"`
		MonitorID int    `json:"monitorID"`
	} `json:"heartbeat"`
	Monitor *struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"monitor"`
	Msg string `json:"msg"`
}

// UptimeKumaAdapter converts Uptime Kuma down alerts into ticket inputs.
type UptimeKumaAdapter struct{}

func NewUptimeKumaAdapter() *UptimeKumaAdapter {
	return &UptimeKumaAdapter{}
}

func (a *UptimeKumaAdapter) Name() string { return "uptime-kuma" }

// Parse decodes the webhook body. Recovery heartbeats yield no inputs.
func (a *UptimeKumaAdapter) Parse(body []byte) ([]service.TicketCreateInput, error) {
	var payload uptimeKumaPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewValidationError("invalid uptime-kuma payload", nil)
	}
	if payload.Heartbeat == nil || payload.Monitor == nil {
		return nil, apperrors.NewValidationError("heartbeat and monitor required", nil)
	}
	if payload.Heartbeat.Status != 0 {
		return nil, nil
	}
	monitorName := payload.Monitor.Name
	if strings.TrimSpace(monitorName) == "" {
		monitorName = fmt.Sprintf("monitor-%d", payload.Monitor.ID)
	}
	description := payload.Heartbeat.Msg
	if description == "" {
		description = payload.Msg
	}
	eventID := fmt.Sprintf("uptime-kuma:%d:%s", payload.Monitor.ID, payload.Heartbeat.Time)
	return []service.TicketCreateInput{{
		Title:         fmt.Sprintf("[DOWN] %s", monitorName),
		Description:   description,
		Source:        domain.TicketSourceUptimeKuma,
		SourceEventID: &eventID,
		Priority:      domain.TicketPriorityCritical,
	}}, nil
}
