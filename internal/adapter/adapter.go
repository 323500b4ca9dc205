package adapter

import "github.com/ops-kit/opsconsole/internal/service"

// ToolAdapter converts one monitoring tool's webhook payload into ticket
// create inputs. An empty slice with a nil error means the event does not
// warrant a ticket (recoveries, resolved alerts).
type ToolAdapter interface {
	Name() string
	Parse(body []byte) ([]service.TicketCreateInput, error)
}
