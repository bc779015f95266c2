package categories

import (
	"context"
	"testing"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	rows  map[uuid.UUID]common.Category
	usage map[uuid.UUID]int64
}

func newMemStore() *memStore {
	return &memStore{rows: map[uuid.UUID]common.Category{}, usage: map[uuid.UUID]int64{}}
}

func (m *memStore) nameTaken(c *common.Category) bool {
	for id, row := range m.rows {
		if id != c.UUID && row.Name == c.Name {
			return true
		}
	}
	return false
}

func (m *memStore) Create(_ context.Context, c *common.Category) error {
	if m.nameTaken(c) {
		return &pgconn.PgError{Code: "23505"}
	}
	m.rows[c.UUID] = *c
	return nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*common.Category, error) {
	c, ok := m.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (m *memStore) Update(_ context.Context, c *common.Category) error {
	if m.nameTaken(c) {
		return &pgconn.PgError{Code: "23505"}
	}
	m.rows[c.UUID] = *c
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *memStore) List(context.Context) ([]common.Category, error) {
	var out []common.Category
	for _, c := range m.rows {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) ServiceCount(_ context.Context, id uuid.UUID) (int64, error) {
	return m.usage[id], nil
}

var admin = common.CurrentUser{ID: uuid.New(), Role: common.RoleAdmin}

func TestCategoryLifecycle(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, zap.NewNop())
	ctx := context.Background()

	c, err := svc.Create(ctx, admin, Input{Name: " Beard ", Description: "Trims and shaping", IconURL: "https://cdn.example.com/beard.svg"})
	require.NoError(t, err)
	assert.Equal(t, "Beard", c.Name)

	ok, err := svc.Exists(ctx, c.UUID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Create(ctx, admin, Input{Name: "Beard"})
	assert.ErrorIs(t, err, ErrCategoryExists)

	other, err := svc.Create(ctx, admin, Input{Name: "Haircut"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, admin, other.UUID, Input{Name: "Beard"})
	assert.ErrorIs(t, err, ErrCategoryExists)

	updated, err := svc.Update(ctx, admin, c.UUID, Input{Name: "Beard care"})
	require.NoError(t, err)
	assert.Equal(t, "Beard care", updated.Name)
	assert.Empty(t, updated.IconURL)

	store.usage[c.UUID] = 2
	assert.ErrorIs(t, svc.Delete(ctx, admin, c.UUID), ErrCategoryInUse)

	store.usage[c.UUID] = 0
	require.NoError(t, svc.Delete(ctx, admin, c.UUID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, c.UUID), common.ErrNotFound)

	ok, err = svc.Exists(ctx, c.UUID)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCategory_AdminOnly(t *testing.T) {
	svc := NewService(newMemStore(), zap.NewNop())
	ctx := context.Background()

	for _, role := range []common.Role{common.RoleBarber, common.RoleClient} {
		user := common.CurrentUser{ID: uuid.New(), Role: role}
		_, err := svc.Create(ctx, user, Input{Name: "Coloring"})
		assert.ErrorIs(t, err, common.ErrForbidden)
		_, err = svc.Update(ctx, user, uuid.New(), Input{Name: "Coloring"})
		assert.ErrorIs(t, err, common.ErrForbidden)
		assert.ErrorIs(t, svc.Delete(ctx, user, uuid.New()), common.ErrForbidden)
	}
}

func TestCategory_Validation(t *testing.T) {
	svc := NewService(newMemStore(), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		in   Input
	}{
		{"blank name", Input{Name: "   "}},
		{"relative icon", Input{Name: "Kids", IconURL: "/icons/kids.svg"}},
		{"non-http icon", Input{Name: "Kids", IconURL: "ftp://cdn.example.com/kids.svg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, admin, tt.in)
			var verr *common.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}
