package repo

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lead-crm/internal/core/config"
	"lead-crm/internal/domain"
)

func TestMemoryUserRepo(t *testing.T) { runUserRepoSuite(t, NewMemoryUserRepo()) }

func TestMemoryLeadRepo(t *testing.T) { runLeadRepoSuite(t, NewMemoryLeadRepo()) }

func TestMemoryLeadRepo_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLeadRepo()
	a := "staff-1"
	l := &domain.Lead{Name: "x", Email: "x@example.com", Phone: "1", Status: domain.StatusNew, AssignedTo: &a, CreatedBy: "admin"}
	require.NoError(t, r.Create(ctx, l))

	a = "someone-else"
	got, err := r.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", got.AssignedToID())

	got.Notes = append(got.Notes, domain.Note{Text: "sneaky"})
	again, err := r.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Notes)
}

func TestMemoryLeadRepo_NewestFirstTieBreak(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLeadRepo()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	for _, n := range []string{"first", "second", "third"} {
		require.NoError(t, r.Create(ctx, &domain.Lead{Name: n, Status: domain.StatusNew, CreatedBy: "a"}))
	}
	rows, total, err := r.List(ctx, domain.LeadQuery{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"third", "second", "first"}, []string{rows[0].Name, rows[1].Name, rows[2].Name})
}

func TestWindow(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, window(rows, 2, 2))
	assert.Equal(t, []int{5}, window(rows, 4, 10))
	assert.Nil(t, window(rows, 5, 10))
	assert.Equal(t, rows, window(rows, 0, 0))
	assert.Equal(t, []int{4, 5}, window(rows, 3, math.MaxInt))
	assert.Nil(t, window(rows, -2, 2))
}

func TestMemoryRepos_HugeLimit(t *testing.T) {
	ctx := context.Background()
	leads, users := NewMemoryLeadRepo(), NewMemoryUserRepo()
	require.NoError(t, leads.Create(ctx, &domain.Lead{Name: "a", Status: domain.StatusNew, CreatedBy: "x"}))
	require.NoError(t, users.Create(ctx, &domain.User{Name: "a", Email: "a@example.com", Role: domain.RoleStaff}))

	rows, total, err := leads.List(ctx, domain.LeadQuery{Limit: 1 << 40})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, rows, 1)

	us, _, err := users.List(ctx, domain.UserQuery{Limit: 1 << 40})
	require.NoError(t, err)
	assert.Len(t, us, 1)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), config.DB{Driver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryUserRepo{}, s.Users)
	assert.IsType(t, &MemoryLeadRepo{}, s.Leads)
	assert.NoError(t, s.Close(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DB{Driver: "cassandra"}, zap.NewNop())
	assert.Error(t, err)
}
