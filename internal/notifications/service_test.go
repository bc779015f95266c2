package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	rows map[uuid.UUID]common.Notification
}

func newMemStore() *memStore {
	return &memStore{rows: map[uuid.UUID]common.Notification{}}
}

func (m *memStore) Create(_ context.Context, n *common.Notification) error {
	m.rows[n.UUID] = *n
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]common.Notification, error) {
	var out []common.Notification
	for _, n := range m.rows {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*common.Notification, error) {
	n, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &n, nil
}

func (m *memStore) MarkRead(_ context.Context, id uuid.UUID) error {
	n := m.rows[id]
	n.IsRead = true
	m.rows[id] = n
	return nil
}

func (m *memStore) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for id, n := range m.rows {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			m.rows[id] = n
			count++
		}
	}
	return count, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

type capturePublisher struct {
	got []common.Notification
	err error
}

func (c *capturePublisher) Publish(_ context.Context, n common.Notification) error {
	c.got = append(c.got, n)
	return c.err
}

func TestNotify_FansOutAfterSave(t *testing.T) {
	store := newMemStore()
	failing := &capturePublisher{err: errors.New("telegram down")}
	ok := &capturePublisher{}
	svc := NewService(store, zap.NewNop(), failing)
	svc.AddPublisher(ok)
	user := uuid.New()

	err := svc.Notify(context.Background(), common.Notification{UserID: user, Kind: "booking_created", Title: "New booking"})
	require.NoError(t, err)

	require.Len(t, store.rows, 1)
	require.Len(t, ok.got, 1)
	assert.Len(t, failing.got, 1)
	assert.NotEqual(t, uuid.Nil, ok.got[0].UUID)
	assert.False(t, ok.got[0].CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now(), ok.got[0].CreatedAt, time.Minute)
}

func TestOwnership(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()
	owner := common.CurrentUser{ID: uuid.New(), Role: common.RoleClient}
	other := common.CurrentUser{ID: uuid.New(), Role: common.RoleClient}

	require.NoError(t, svc.Notify(ctx, common.Notification{UserID: owner.ID, Title: "a"}))
	require.NoError(t, svc.Notify(ctx, common.Notification{UserID: owner.ID, Title: "b"}))

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	id := list[0].UUID

	assert.ErrorIs(t, svc.MarkRead(ctx, other, id), common.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, other, id), common.ErrForbidden)
	assert.ErrorIs(t, svc.MarkRead(ctx, owner, uuid.New()), common.ErrNotFound)

	require.NoError(t, svc.MarkRead(ctx, owner, id))
	n, err := svc.MarkAllRead(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, svc.Delete(ctx, owner, id))
	assert.Len(t, store.rows, 1)
}

func TestChannelAndDecode(t *testing.T) {
	id := uuid.MustParse("8a1d2c3e-0000-4000-8000-000000000001")
	assert.Equal(t, "notifications:8a1d2c3e-0000-4000-8000-000000000001", Channel(id))

	n, err := decode(`{"user_id":"8a1d2c3e-0000-4000-8000-000000000001","title":"Hi","is_read":false}`)
	require.NoError(t, err)
	assert.Equal(t, id, n.UserID)
	assert.Equal(t, "Hi", n.Title)

	_, err = decode("not json")
	assert.Error(t, err)
}
