package service

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lead-crm/internal/core/auth"
	"lead-crm/internal/domain"
	"lead-crm/internal/repo"
)

type fixture struct {
	users *repo.MemoryUserRepo
	leads *repo.MemoryLeadRepo
	lead  *LeadService
	staff *StaffService
	auth  *AuthService
	admin domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{users: repo.NewMemoryUserRepo(), leads: repo.NewMemoryLeadRepo()}
	l := zap.NewNop()
	f.lead = NewLeadService(f.leads, f.users, l)
	f.staff = NewStaffService(f.users, l)
	f.auth = NewAuthService(f.users, &auth.JWTer{Secret: []byte("k"), Issuer: "leadcrm", TTL: time.Hour}, nil, l)

	admin, created, err := f.auth.BootstrapAdmin(context.Background(), "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	require.True(t, created)
	f.admin = domain.Principal{ID: admin.ID, Role: domain.RoleAdmin}
	return f
}

func (f *fixture) newStaff(t *testing.T, name string) domain.Principal {
	t.Helper()
	u, err := f.staff.CreateStaff(context.Background(), StaffInput{Name: name, Email: name + "@example.com", Password: "secret1"})
	require.NoError(t, err)
	return domain.Principal{ID: u.ID, Role: u.Role}
}

func (f *fixture) newLead(t *testing.T, name string, assignee *domain.Principal) *domain.Lead {
	t.Helper()
	in := LeadInput{Name: name, Email: name + "@example.com", Phone: "555-0100"}
	if assignee != nil {
		id := assignee.ID
		in.AssignedTo = &id
	}
	l, err := f.lead.CreateLead(context.Background(), f.admin, in)
	require.NoError(t, err)
	return l
}

func kindOf(t *testing.T, err error) domain.Kind {
	t.Helper()
	require.Error(t, err)
	return domain.KindOf(err)
}

func TestCanAccessLead(t *testing.T) {
	s1 := "s1"
	mine := &domain.Lead{AssignedTo: &s1}
	other := &domain.Lead{}
	admin := domain.Principal{ID: "a", Role: domain.RoleAdmin}
	staff := domain.Principal{ID: "s1", Role: domain.RoleStaff}

	for _, a := range []Action{ActionRead, ActionUpdate, ActionDelete, ActionNote, ActionAssign, ActionCreate} {
		assert.Equal(t, Allow, CanAccessLead(admin, other, a), a)
		assert.Equal(t, Deny, CanAccessLead(staff, other, a), a)
	}
	for _, a := range []Action{ActionRead, ActionUpdate, ActionDelete, ActionNote} {
		assert.Equal(t, Allow, CanAccessLead(staff, mine, a), a)
	}
	assert.Equal(t, Deny, CanAccessLead(staff, mine, ActionAssign))
	assert.Equal(t, Deny, CanAccessLead(staff, nil, ActionCreate))
	assert.Equal(t, Deny, CanAccessLead(domain.Principal{ID: "s1", Role: "guest"}, mine, ActionRead))
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("", "")
	require.NoError(t, err)
	assert.Equal(t, domain.Page{Page: 1, Limit: 10}, p)

	p, err = ParsePage("3", "25")
	require.NoError(t, err)
	assert.Equal(t, domain.Page{Page: 3, Limit: 25}, p)

	p, err = ParsePage("1", strconv.Itoa(1 << 40))
	require.NoError(t, err, "limit has no upper bound")
	assert.Equal(t, 1 << 40, p.Limit)

	for _, bad := range [][2]string{{"0", ""}, {"", "-1"}, {"abc", ""}, {"", "1.5"}, {"9223372036854775807", "2"}} {
		_, err := ParsePage(bad[0], bad[1])
		assert.Equal(t, domain.KindValidation, kindOf(t, err), bad)
	}
}

func TestListLeads_StaffOnlySeesOwn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, other := f.newStaff(t, "sam"), f.newStaff(t, "tom")
	f.newLead(t, "alpha", &s)
	f.newLead(t, "alpine", &other)
	f.newLead(t, "beta", nil)

	for _, search := range []string{"", "alp", "example", "tom"} {
		res, err := f.lead.ListLeads(ctx, s, ListQuery{Search: search})
		require.NoError(t, err)
		for _, l := range res.Items {
			assert.Equal(t, s.ID, l.AssignedToID(), "search %q", search)
		}
	}

	all, err := f.lead.ListLeads(ctx, f.admin, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)
}

func TestListLeads_Paging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 12; i++ {
		f.newLead(t, fmt.Sprintf("lead%02d", i), nil)
	}
	res, err := f.lead.ListLeads(ctx, f.admin, ListQuery{Page: "2", Limit: "10"})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 2, res.TotalPages)
	assert.EqualValues(t, 12, res.Total)

	_, err = f.lead.ListLeads(ctx, f.admin, ListQuery{Page: "zero"})
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	res, err = f.lead.ListLeads(ctx, f.admin, ListQuery{Limit: strconv.Itoa(1 << 40)})
	require.NoError(t, err)
	assert.Len(t, res.Items, 12)
	assert.Equal(t, 1, res.TotalPages)

	_, err = f.lead.ListLeads(ctx, f.admin, ListQuery{Page: "9223372036854775807", Limit: "2"})
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	staff, err := f.staff.ListStaff(ctx, ListQuery{Limit: strconv.Itoa(1 << 40)})
	require.NoError(t, err)
	assert.EqualValues(t, 0, staff.Total)
}

func TestListLeads_SearchIsLiteral(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.newLead(t, "abc", nil)
	res, err := f.lead.ListLeads(ctx, f.admin, ListQuery{Search: "a.c"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestGetLead_ExistenceBeforePermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, other := f.newStaff(t, "sam"), f.newStaff(t, "tom")
	l := f.newLead(t, "alpha", &other)

	_, err := f.lead.GetLead(ctx, s, l.ID)
	assert.Equal(t, domain.KindForbidden, kindOf(t, err))

	_, err = f.lead.GetLead(ctx, s, "does-not-exist")
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	got, err := f.lead.GetLead(ctx, other, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
}

func TestCreateLead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.newStaff(t, "sam")

	l := f.newLead(t, "fresh", nil)
	got, err := f.lead.GetLead(ctx, f.admin, l.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTo)
	assert.Equal(t, domain.StatusNew, got.Status)
	assert.Equal(t, f.admin.ID, got.CreatedBy)

	_, err = f.lead.CreateLead(ctx, s, LeadInput{Name: "x", Email: "x@example.com", Phone: "1"})
	assert.Equal(t, domain.KindForbidden, kindOf(t, err))

	_, err = f.lead.CreateLead(ctx, f.admin, LeadInput{Name: " ", Email: "nope", Phone: "1", Status: "Won"})
	require.Equal(t, domain.KindValidation, kindOf(t, err))
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	fields := map[string]bool{}
	for _, fe := range derr.Fields {
		fields[fe.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["status"])

	ghost := "ghost"
	_, err = f.lead.CreateLead(ctx, f.admin, LeadInput{Name: "x", Email: "x@example.com", Phone: "1", AssignedTo: &ghost})
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	adminID := f.admin.ID
	_, err = f.lead.CreateLead(ctx, f.admin, LeadInput{Name: "x", Email: "x@example.com", Phone: "1", AssignedTo: &adminID})
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))
}

func TestAssignLead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.newStaff(t, "sam")
	l := f.newLead(t, "alpha", nil)

	_, err := f.lead.AssignLead(ctx, f.admin, l.ID, f.admin.ID)
	assert.Equal(t, domain.KindNotFound, kindOf(t, err), "admins are not assignable")

	_, err = f.lead.AssignLead(ctx, s, l.ID, s.ID)
	assert.Equal(t, domain.KindForbidden, kindOf(t, err))

	_, err = f.lead.AssignLead(ctx, f.admin, "missing", s.ID)
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	got, err := f.lead.AssignLead(ctx, f.admin, l.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.AssignedToID())

	mine, err := f.lead.GetLead(ctx, s, l.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, mine.AssignedToID())
}

func TestUpdateLead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.newStaff(t, "sam")
	l := f.newLead(t, "alpha", &s)

	bad := domain.LeadStatus("Won")
	_, err := f.lead.UpdateLead(ctx, s, l.ID, LeadPatch{Status: &bad})
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	empty := "  "
	_, err = f.lead.UpdateLead(ctx, s, l.ID, LeadPatch{Name: &empty})
	assert.Equal(t, domain.KindValidation, kindOf(t, err))

	_, err = f.lead.UpdateLead(ctx, s, "missing", LeadPatch{})
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	phone := "555-0199"
	got, err := f.lead.UpdateLead(ctx, s, l.ID, LeadPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", got.Phone)
	assert.Equal(t, "alpha", got.Name)
	assert.Equal(t, s.ID, got.AssignedToID())
}

func TestDeleteLead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, other := f.newStaff(t, "sam"), f.newStaff(t, "tom")
	l := f.newLead(t, "alpha", &s)

	assert.Equal(t, domain.KindForbidden, kindOf(t, f.lead.DeleteLead(ctx, other, l.ID)))
	require.NoError(t, f.lead.DeleteLead(ctx, s, l.ID))
	assert.Equal(t, domain.KindNotFound, kindOf(t, f.lead.DeleteLead(ctx, f.admin, l.ID)))
}

func TestAddNote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, other := f.newStaff(t, "sam"), f.newStaff(t, "tom")
	l := f.newLead(t, "alpha", &s)

	_, err := f.lead.AddNote(ctx, s, l.ID, "   \n\t ")
	assert.Equal(t, domain.KindValidation, kindOf(t, err))
	got, err := f.lead.GetLead(ctx, s, l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Notes)

	_, err = f.lead.AddNote(ctx, other, l.ID, "hi")
	assert.Equal(t, domain.KindForbidden, kindOf(t, err))
	_, err = f.lead.AddNote(ctx, s, "missing", "hi")
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	notes, err := f.lead.AddNote(ctx, s, l.ID, "  x<y \n")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "x<y", notes[0].Text)
	assert.Equal(t, s.ID, notes[0].CreatedBy)
	assert.False(t, notes[0].CreatedAt.IsZero())

	notes, err = f.lead.AddNote(ctx, f.admin, l.ID, "follow up re: <contract> & pricing")
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Equal(t, "follow up re: <contract> & pricing", notes[1].Text)

	got, err = f.lead.GetLead(ctx, f.admin, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "x<y", got.Notes[0].Text)
}

func TestStaff_CRUD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := StaffInput{Name: "Sam", Email: "Sam@Example.com", Password: "secret1"}
	u, err := f.staff.CreateStaff(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, u.Role)
	assert.Equal(t, "sam@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = f.staff.CreateStaff(ctx, in)
	assert.Equal(t, domain.KindConflict, kindOf(t, err))
	_, err = f.staff.CreateStaff(ctx, StaffInput{Name: "x", Email: "root@example.com", Password: "secret1"})
	assert.Equal(t, domain.KindConflict, kindOf(t, err), "collides with the admin")

	_, err = f.staff.GetStaff(ctx, f.admin.ID)
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	name := "Samuel"
	empty := ""
	upd, err := f.staff.UpdateStaff(ctx, u.ID, StaffPatch{Name: &name, Password: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Samuel", upd.Name)
	assert.Equal(t, u.PasswordHash, upd.PasswordHash, "empty password keeps the hash")

	blank := "  "
	upd, err = f.staff.UpdateStaff(ctx, u.ID, StaffPatch{Name: &empty, Email: &blank})
	require.NoError(t, err, "blank fields keep the stored values")
	assert.Equal(t, "Samuel", upd.Name)
	assert.Equal(t, "sam@example.com", upd.Email)

	taken := "root@example.com"
	_, err = f.staff.UpdateStaff(ctx, u.ID, StaffPatch{Email: &taken})
	assert.Equal(t, domain.KindConflict, kindOf(t, err))

	pw := "another1"
	_, err = f.staff.UpdateStaff(ctx, u.ID, StaffPatch{Password: &pw})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, LoginInput{Email: "sam@example.com", Password: "another1"})
	require.NoError(t, err)

	_, err = f.staff.UpdateStaff(ctx, f.admin.ID, StaffPatch{Name: &name})
	assert.Equal(t, domain.KindNotFound, kindOf(t, err))

	list, err := f.staff.ListStaff(ctx, ListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)

	assert.Equal(t, domain.KindNotFound, kindOf(t, f.staff.DeleteStaff(ctx, f.admin.ID)))
	require.NoError(t, f.staff.DeleteStaff(ctx, u.ID))
	assert.Equal(t, domain.KindNotFound, kindOf(t, f.staff.DeleteStaff(ctx, u.ID)))
}

func TestScenario_AssignThenStaffUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, other := f.newStaff(t, "sam"), f.newStaff(t, "tom")
	l := f.newLead(t, "deal", nil)

	_, err := f.lead.AssignLead(ctx, f.admin, l.ID, s.ID)
	require.NoError(t, err)

	q := domain.StatusQualified
	got, err := f.lead.UpdateLead(ctx, s, l.ID, LeadPatch{Status: &q})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQualified, got.Status)

	_, err = f.lead.UpdateLead(ctx, other, l.ID, LeadPatch{Status: &q})
	assert.Equal(t, domain.KindForbidden, kindOf(t, err))
}
