package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ops-kit/opsconsole/internal/domain"
	apperrors "github.com/ops-kit/opsconsole/pkg/util"
)

func newTestHostService() *HostService {
	return NewHostService(fakeHostRepo{store: newFakeStore()})
}

func TestHostCreateDefaults(t *testing.T) {
	svc := newTestHostService()
	host, err := svc.Create(context.Background(), HostInput{Name: "  db-primary  "})
	require.NoError(t, err)
	require.Equal(t, "db-primary", host.Name)
	require.Equal(t, domain.HostStatusActive, host.Status)
	require.NotNil(t, host.Tags)
	require.NotEmpty(t, host.ID)
}

func TestHostCreateRequiresName(t *testing.T) {
	svc := newTestHostService()
	_, err := svc.Create(context.Background(), HostInput{Name: " "})
	require.True(t, apperrors.IsCode(err, "VALIDATION_ERROR"))
}

func TestHostChangeStatus(t *testing.T) {
	svc := newTestHostService()
	ctx := context.Background()

	host, err := svc.Create(ctx, HostInput{Name: "db-primary"})
	require.NoError(t, err)

	host, err = svc.ChangeStatus(ctx, host.ID, domain.HostStatusMaintenance)
	require.NoError(t, err)
	require.Equal(t, domain.HostStatusMaintenance, host.Status)

	_, err = svc.ChangeStatus(ctx, host.ID, domain.HostStatus("BROKEN"))
	require.True(t, apperrors.IsCode(err, "VALIDATION_ERROR"))
}

func TestHostGetUnknown(t *testing.T) {
	svc := newTestHostService()
	_, err := svc.Get(context.Background(), "missing")
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestHostStats(t *testing.T) {
	svc := newTestHostService()
	ctx := context.Background()

	a, err := svc.Create(ctx, HostInput{Name: "a"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, HostInput{Name: "b"})
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, a.ID, domain.HostStatusInactive)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, int64(1), stats.Active)
	require.Equal(t, int64(1), stats.Inactive)
}
