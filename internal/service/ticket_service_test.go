package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/ops-kit/opsconsole/internal/domain"
	"github.com/ops-kit/opsconsole/internal/events"
	"github.com/ops-kit/opsconsole/internal/repository"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

// fakeStore is an in-memory stand-in for the ticket, activity and host
// repositories, mirroring the version guard of the real ApplyChange.
type fakeStore struct {
	mu         sync.Mutex
	tickets    map[string]domain.Ticket
	activities []domain.Activity
	hosts      map[string]domain.Host
	seq        int64

	conflictOnce bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tickets: make(map[string]domain.Ticket),
		hosts:   make(map[string]domain.Host),
	}
}

func (f *fakeStore) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.Version = 1
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeStore) Update(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	f.tickets[ticket.ID] = *ticket
	return nil
}

func (f *fakeStore) ApplyChange(_ context.Context, ticket *domain.Ticket, activity *domain.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if f.conflictOnce {
		f.conflictOnce = false
		return repository.ErrVersionConflict
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	f.tickets[ticket.ID] = *ticket
	f.appendActivityLocked(activity)
	return nil
}

func (f *fakeStore) AddActivity(_ context.Context, activity *domain.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendActivityLocked(activity)
	return nil
}

func (f *fakeStore) appendActivityLocked(activity *domain.Activity) {
	f.seq++
	activity.ID = uuid.NewString()
	activity.Seq = f.seq
	activity.CreatedAt = time.Now()
	f.activities = append(f.activities, *activity)
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (f *fakeStore) GetBySourceEventID(_ context.Context, sourceEventID string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.SourceEventID != nil && *ticket.SourceEventID == sourceEventID {
			t := ticket
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeStore) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range f.tickets {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		out = append(out, ticket)
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) Stats(_ context.Context) (*repository.TicketStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repository.TicketStats{
		ByStatus:   make(map[domain.TicketStatus]int64),
		ByPriority: make(map[domain.TicketPriority]int64),
	}
	for _, ticket := range f.tickets {
		stats.Total++
		stats.ByStatus[ticket.Status]++
		stats.ByPriority[ticket.Priority]++
	}
	return stats, nil
}

func (f *fakeStore) ListByTicket(_ context.Context, ticketID string) ([]domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Activity
	for _, activity := range f.activities {
		if activity.TicketID == ticketID {
			out = append(out, activity)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateHost(host *domain.Host) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if host.ID == "" {
		host.ID = uuid.NewString()
	}
	f.hosts[host.ID] = *host
}

type fakeHostRepo struct{ store *fakeStore }

func (r fakeHostRepo) Create(_ context.Context, host *domain.Host) error {
	r.store.CreateHost(host)
	return nil
}

func (r fakeHostRepo) Update(_ context.Context, host *domain.Host) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.hosts[host.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.store.hosts[host.ID] = *host
	return nil
}

func (r fakeHostRepo) GetByID(_ context.Context, id string) (*domain.Host, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	host, ok := r.store.hosts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &host, nil
}

func (r fakeHostRepo) ListWithFilter(_ context.Context, _ repository.HostFilter) ([]domain.Host, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.Host
	for _, host := range r.store.hosts {
		out = append(out, host)
	}
	return out, int64(len(out)), nil
}

func (r fakeHostRepo) Stats(_ context.Context) (*repository.HostStats, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stats := &repository.HostStats{}
	for _, host := range r.store.hosts {
		stats.Total++
		switch host.Status {
		case domain.HostStatusActive:
			stats.Active++
		case domain.HostStatusInactive:
			stats.Inactive++
		case domain.HostStatusMaintenance:
			stats.Maintenance++
		}
	}
	return stats, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func newTestTicketService() (*TicketService, *fakeStore) {
	store := newFakeStore()
	svc := NewTicketService(TicketDependencies{
		TicketRepo:   store,
		ActivityRepo: store,
		HostRepo:     fakeHostRepo{store: store},
		Dispatcher:   events.NewInMemoryDispatcher(),
	})
	return svc, store
}

func TestCreateTicketDefaults(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "  disk full  "})
	require.NoError(t, err)
	require.Equal(t, "disk full", ticket.Title)
	require.Equal(t, domain.TicketStatusNew, ticket.Status)
	require.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	require.Equal(t, domain.TicketSourceManual, ticket.Source)
	require.Equal(t, int64(1), ticket.Version)
	require.Nil(t, ticket.ResolvedAt)
}

func TestCreateTicketRequiresTitle(t *testing.T) {
	svc, _ := newTestTicketService()
	_, err := svc.Create(context.Background(), TicketCreateInput{Title: "   "})
	require.True(t, apperrors.IsCode(err, "VALIDATION_ERROR"))
}

func TestCreateTicketRejectsUnknownPriority(t *testing.T) {
	svc, _ := newTestTicketService()
	_, err := svc.Create(context.Background(), TicketCreateInput{Title: "x", Priority: "URGENT"})
	require.True(t, apperrors.IsCode(err, "VALIDATION_ERROR"))
}

func TestCreateTicketDeduplicatesSourceEvent(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()
	eventID := "uptime-kuma:7:2026-08-31T10:00:00Z"

	first, err := svc.Create(ctx, TicketCreateInput{
		Title:         "host down",
		Source:        domain.TicketSourceUptimeKuma,
		SourceEventID: &eventID,
	})
	require.NoError(t, err)

	second, err := svc.Create(ctx, TicketCreateInput{
		Title:         "host down again",
		Source:        domain.TicketSourceUptimeKuma,
		SourceEventID: &eventID,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestCreateTicketUnknownHost(t *testing.T) {
	svc, _ := newTestTicketService()
	hostID := "missing-host"
	_, err := svc.Create(context.Background(), TicketCreateInput{Title: "x", HostID: &hostID})
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestFullLifecycle(t *testing.T) {
	svc, store := newTestTicketService()
	ctx := context.Background()
	actor := "operator-1"

	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "api latency spike", Priority: domain.TicketPriorityHigh})
	require.NoError(t, err)

	ticket, err = svc.Receive(ctx, ticket.ID, &actor)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusReceived, ticket.Status)

	ticket, err = svc.Assign(ctx, ticket.ID, "engineer-9", &actor)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusAssigned, ticket.Status)
	require.Equal(t, "engineer-9", *ticket.AssigneeID)

	ticket, err = svc.Transition(ctx, ticket.ID, domain.TicketStatusInProgress, "picked up", &actor)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, ticket.Status)

	ticket, err = svc.Resolve(ctx, ticket.ID, "restarted the API pods", &actor)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusResolved, ticket.Status)
	require.NotNil(t, ticket.ResolvedAt)
	require.Equal(t, "restarted the API pods", *ticket.ResolutionSummary)

	activities, err := store.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, activities, 4)
	require.Equal(t, domain.ActivityStatusChange, activities[0].Type)
	require.Equal(t, domain.ActivityAssignment, activities[1].Type)
	require.True(t, strings.HasPrefix(activities[3].Content, "resolved:"))
}

func TestReopenCycle(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "flaky backup"})
	require.NoError(t, err)
	for _, step := range []func() (*domain.Ticket, error){
		func() (*domain.Ticket, error) { return svc.Receive(ctx, ticket.ID, nil) },
		func() (*domain.Ticket, error) { return svc.Assign(ctx, ticket.ID, "eng", nil) },
		func() (*domain.Ticket, error) {
			return svc.Transition(ctx, ticket.ID, domain.TicketStatusInProgress, "", nil)
		},
		func() (*domain.Ticket, error) { return svc.Resolve(ctx, ticket.ID, "fixed", nil) },
		func() (*domain.Ticket, error) {
			return svc.Transition(ctx, ticket.ID, domain.TicketStatusCompleted, "", nil)
		},
		func() (*domain.Ticket, error) {
			return svc.Transition(ctx, ticket.ID, domain.TicketStatusClosed, "", nil)
		},
		func() (*domain.Ticket, error) {
			return svc.Transition(ctx, ticket.ID, domain.TicketStatusReopened, "came back", nil)
		},
	} {
		var err error
		ticket, err = step()
		require.NoError(t, err)
	}
	require.Equal(t, domain.TicketStatusReopened, ticket.Status)

	// Resolution evidence from the earlier resolve survives the reopen.
	require.NotNil(t, ticket.ResolvedAt)
	require.NotNil(t, ticket.ResolutionSummary)
	require.Equal(t, "fixed", *ticket.ResolutionSummary)

	ticket, err = svc.Transition(ctx, ticket.ID, domain.TicketStatusInProgress, "", nil)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	require.NotNil(t, ticket.ResolvedAt)
	require.Equal(t, "fixed", *ticket.ResolutionSummary)
}

func TestIllegalTransitions(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, ticket.ID, domain.TicketStatusClosed, "", nil)
	require.True(t, apperrors.IsCode(err, "ILLEGAL_TRANSITION"))

	_, err = svc.Assign(ctx, ticket.ID, "eng", nil)
	require.True(t, apperrors.IsCode(err, "ILLEGAL_TRANSITION"))

	// ASSIGNED and RESOLVED are not reachable through the generic transition.
	_, err = svc.Transition(ctx, ticket.ID, domain.TicketStatusAssigned, "", nil)
	require.True(t, apperrors.IsCode(err, "VALIDATION_ERROR"))
	_, err = svc.Transition(ctx, ticket.ID, domain.TicketStatusResolved, "", nil)
	require.True(t, apperrors.IsCode(err, "VALIDATION_ERROR"))
}

func TestResolveRequiresSummary(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, ticket.ID, "   ", nil)
	require.True(t, apperrors.IsCode(err, "VALIDATION_ERROR"))
}

func TestReassignWhileAssigned(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "x"})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, ticket.ID, nil)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, ticket.ID, "eng-1", nil)
	require.NoError(t, err)

	ticket, err = svc.Assign(ctx, ticket.ID, "eng-2", nil)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusAssigned, ticket.Status)
	require.Equal(t, "eng-2", *ticket.AssigneeID)
}

func TestConcurrentChangeConflict(t *testing.T) {
	svc, store := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	store.conflictOnce = true
	_, err = svc.Receive(ctx, ticket.ID, nil)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))

	// Retry after the conflict succeeds.
	_, err = svc.Receive(ctx, ticket.ID, nil)
	require.NoError(t, err)
}

func TestAddCommentTwice(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "x"})
	require.NoError(t, err)

	detail, err := svc.AddComment(ctx, ticket.ID, "checking disk usage", nil)
	require.NoError(t, err)
	require.Len(t, detail.Activities, 1)

	detail, err = svc.AddComment(ctx, ticket.ID, "checking disk usage", nil)
	require.NoError(t, err)
	require.Len(t, detail.Activities, 2)
	require.NotEqual(t, detail.Activities[0].ID, detail.Activities[1].ID)
}

func TestAddCommentUnknownTicket(t *testing.T) {
	svc, _ := newTestTicketService()
	_, err := svc.AddComment(context.Background(), "missing", "hello", nil)
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestStats(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	_, err := svc.Create(ctx, TicketCreateInput{Title: "a", Priority: domain.TicketPriorityCritical})
	require.NoError(t, err)
	_, err = svc.Create(ctx, TicketCreateInput{Title: "b", Priority: domain.TicketPriorityHigh})
	require.NoError(t, err)
	ticket, err := svc.Create(ctx, TicketCreateInput{Title: "c"})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, ticket.ID, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(2), stats.New)
	require.Equal(t, int64(1), stats.Critical)
	require.Equal(t, int64(1), stats.High)
}

func TestListOpenExcludesResolved(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	open, err := svc.Create(ctx, TicketCreateInput{Title: "open one"})
	require.NoError(t, err)

	done, err := svc.Create(ctx, TicketCreateInput{Title: "done one"})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, done.ID, nil)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, done.ID, "eng", nil)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, done.ID, domain.TicketStatusInProgress, "", nil)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, done.ID, "done", nil)
	require.NoError(t, err)

	tickets, total, err := svc.ListOpen(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, tickets, 1)
	require.Equal(t, open.ID, tickets[0].ID)
}
