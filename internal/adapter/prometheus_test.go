package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ops-kit/opsconsole/internal/domain"
)

func TestPrometheusParseFiringAlerts(t *testing.T) {
	body := []byte(`{
		"status": "firing",
		"alerts": [
			{
				"status": "firing",
				"labels": {"alertname": "HighCPU", "instance": "db-1", "severity": "critical"},
				"annotations": {"description": "CPU above 95% for 10m"},
				"fingerprint": "abc123",
				"startsAt": "2026-08-31T10:00:00Z"
			},
			{
				"status": "resolved",
				"labels": {"alertname": "HighCPU", "instance": "db-2", "severity": "critical"},
				"fingerprint": "def456",
				"startsAt": "2026-08-31T09:00:00Z"
			},
			{
				"status": "firing",
				"labels": {"alertname": "DiskFilling", "severity": "warning"},
				"annotations": {"summary": "disk 80% full"},
				"fingerprint": "ghi789",
				"startsAt": "2026-08-31T10:01:00Z"
			}
		]
	}`)

	inputs, err := NewPrometheusAdapter().Parse(body)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	require.Equal(t, "HighCPU on db-1", inputs[0].Title)
	require.Equal(t, "CPU above 95% for 10m", inputs[0].Description)
	require.Equal(t, domain.TicketSourcePrometheus, inputs[0].Source)
	require.Equal(t, domain.TicketPriorityCritical, inputs[0].Priority)
	require.Equal(t, "prometheus:abc123:2026-08-31T10:00:00Z", *inputs[0].SourceEventID)

	require.Equal(t, "DiskFilling", inputs[1].Title)
	require.Equal(t, "disk 80% full", inputs[1].Description)
	require.Equal(t, domain.TicketPriorityHigh, inputs[1].Priority)
}

func TestPrometheusParseInvalid(t *testing.T) {
	_, err := NewPrometheusAdapter().Parse([]byte(`{`))
	require.Error(t, err)
}

func TestSeverityToPriority(t *testing.T) {
	cases := map[string]domain.TicketPriority{
		"critical": domain.TicketPriorityCritical,
		"CRITICAL": domain.TicketPriorityCritical,
		"warning":  domain.TicketPriorityHigh,
		"info":     domain.TicketPriorityLow,
		"":         domain.TicketPriorityMedium,
		"page":     domain.TicketPriorityMedium,
	}
	for severity, want := range cases {
		require.Equal(t, want, severityToPriority(severity), severity)
	}
}
