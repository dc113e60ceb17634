package repo

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lead-crm/internal/domain"
)

// Backend-agnostic behaviour shared by the memory and Mongo repositories.
// Ids handed in are ObjectID hex strings so every backend accepts them.

func oid() string { return primitive.NewObjectID().Hex() }

func runUserRepoSuite(t *testing.T, users domain.UserRepository) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		u := &domain.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "h", Role: domain.RoleStaff}
		require.NoError(t, users.Create(ctx, u))
		require.NotEmpty(t, u.ID)
		assert.False(t, u.CreatedAt.IsZero())

		got, err := users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", got.Email)
		assert.Equal(t, "h", got.PasswordHash)

		got, err = users.FindByEmail(ctx, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := users.Create(ctx, &domain.User{Name: "Ann 2", Email: "ann@example.com", PasswordHash: "h", Role: domain.RoleStaff})
		assert.ErrorIs(t, err, domain.ErrDuplicate)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := users.FindByID(ctx, oid())
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = users.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = users.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, users.Delete(ctx, oid()), domain.ErrNotFound)
	})

	t.Run("list filters by role and literal search", func(t *testing.T) {
		require.NoError(t, users.Create(ctx, &domain.User{Name: "Boss", Email: "boss@example.com", PasswordHash: "h", Role: domain.RoleAdmin}))
		require.NoError(t, users.Create(ctx, &domain.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "h", Role: domain.RoleStaff}))

		staff, total, err := users.List(ctx, domain.UserQuery{Role: domain.RoleStaff, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, u := range staff {
			assert.Equal(t, domain.RoleStaff, u.Role)
		}
		assert.Equal(t, "Bob", staff[0].Name, "newest first")

		hits, total, err := users.List(ctx, domain.UserQuery{Search: "BO", Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, hits, 2)

		_, total, err = users.List(ctx, domain.UserQuery{Search: "b.b", Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
	})

	t.Run("update and delete", func(t *testing.T) {
		u, err := users.FindByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		u.Name = "Robert"
		require.NoError(t, users.Update(ctx, u))
		got, err := users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.Name)

		u.Email = "ann@example.com"
		assert.ErrorIs(t, users.Update(ctx, u), domain.ErrDuplicate)

		require.NoError(t, users.Delete(ctx, u.ID))
		_, err = users.FindByID(ctx, u.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func runLeadRepoSuite(t *testing.T, leads domain.LeadRepository) {
	ctx := context.Background()
	admin, staffA, staffB := oid(), oid(), oid()

	newLead := func(name string, assignee *string) *domain.Lead {
		l := &domain.Lead{Name: name, Email: name + "@example.com", Phone: "555", Status: domain.StatusNew, AssignedTo: assignee, CreatedBy: admin}
		require.NoError(t, leads.Create(ctx, l))
		return l
	}

	t.Run("unassigned lead reads back null", func(t *testing.T) {
		l := newLead("solo", nil)
		got, err := leads.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Nil(t, got.AssignedTo)
		assert.NotNil(t, got.Notes)
		assert.Empty(t, got.Notes)
		assert.Equal(t, admin, got.CreatedBy)
	})

	t.Run("assignee scope and paging", func(t *testing.T) {
		for i := 0; i < 12; i++ {
			newLead(fmt.Sprintf("a%02d", i), &staffA)
		}
		newLead("b00", &staffB)

		page2, total, err := leads.List(ctx, domain.LeadQuery{AssignedTo: &staffA, Offset: 10, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 12, total)
		require.Len(t, page2, 2)
		assert.Equal(t, "a01", page2[0].Name)
		assert.Equal(t, "a00", page2[1].Name)

		onlyB, total, err := leads.List(ctx, domain.LeadQuery{AssignedTo: &staffB, Search: "a0", Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
		assert.Empty(t, onlyB)
	})

	t.Run("update keeps notes and createdBy", func(t *testing.T) {
		l := newLead("upd", nil)
		_, err := leads.AppendNote(ctx, l.ID, domain.Note{Text: "first", CreatedBy: admin})
		require.NoError(t, err)

		l.Status = domain.StatusQualified
		l.AssignedTo = &staffB
		l.Notes = nil
		require.NoError(t, leads.Update(ctx, l))

		got, err := leads.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusQualified, got.Status)
		assert.Equal(t, staffB, got.AssignedToID())
		require.Len(t, got.Notes, 1)
		assert.Equal(t, "first", got.Notes[0].Text)
	})

	t.Run("concurrent notes all land", func(t *testing.T) {
		l := newLead("notes", &staffA)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := leads.AppendNote(ctx, l.ID, domain.Note{Text: fmt.Sprint(i), CreatedBy: staffA})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()
		got, err := leads.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Len(t, got.Notes, 20)
	})

	t.Run("missing lead", func(t *testing.T) {
		_, err := leads.FindByID(ctx, oid())
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = leads.AppendNote(ctx, oid(), domain.Note{Text: "x", CreatedBy: admin})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, leads.Update(ctx, &domain.Lead{ID: oid(), Status: domain.StatusNew}), domain.ErrNotFound)
		assert.ErrorIs(t, leads.Delete(ctx, oid()), domain.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		l := newLead("gone", nil)
		require.NoError(t, leads.Delete(ctx, l.ID))
		_, err := leads.FindByID(ctx, l.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
