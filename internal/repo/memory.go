package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lead-crm/internal/domain"
	"lead-crm/pkg/utils"
)

// Memory repositories back tests and `db.driver: memory`. Records are copied
// on the way in and out so callers never share state with the store.

type memUser struct {
	u   domain.User
	seq int64
}

type MemoryUserRepo struct {
	mu   sync.RWMutex
	rows map[string]*memUser
	seq  int64
	now  func() time.Time
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{rows: map[string]*memUser{}, now: time.Now}
}

func (r *MemoryUserRepo) emailTaken(email, exceptID string) bool {
	for id, row := range r.rows {
		if id != exceptID && row.u.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return domain.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = utils.NewID()
	}
	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.seq++
	r.rows[u.ID] = &memUser{u: *u, seq: r.seq}
	return nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := row.u
	return &u, nil
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.rows {
		if row.u.Email == email {
			u := row.u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryUserRepo) List(_ context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var hits []*memUser
	for _, row := range r.rows {
		if q.Role != "" && row.u.Role != q.Role {
			continue
		}
		if !matchesSearch(q.Search, row.u.Name, row.u.Email) {
			continue
		}
		hits = append(hits, row)
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].u.CreatedAt.Equal(hits[j].u.CreatedAt) {
			return hits[i].u.CreatedAt.After(hits[j].u.CreatedAt)
		}
		return hits[i].seq > hits[j].seq
	})
	page := window(hits, q.Offset, q.Limit)
	out := make([]domain.User, 0, len(page))
	for _, row := range page {
		out = append(out, row.u)
	}
	return out, int64(len(hits)), nil
}

func (r *MemoryUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return domain.ErrDuplicate
	}
	u.CreatedAt = row.u.CreatedAt
	u.UpdatedAt = r.now().UTC()
	row.u = *u
	return nil
}

func (r *MemoryUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type memLead struct {
	l   domain.Lead
	seq int64
}

type MemoryLeadRepo struct {
	mu   sync.RWMutex
	rows map[string]*memLead
	seq  int64
	now  func() time.Time
}

func NewMemoryLeadRepo() *MemoryLeadRepo {
	return &MemoryLeadRepo{rows: map[string]*memLead{}, now: time.Now}
}

func copyLead(l domain.Lead) domain.Lead {
	if l.AssignedTo != nil {
		a := *l.AssignedTo
		l.AssignedTo = &a
	}
	l.Notes = append([]domain.Note{}, l.Notes...)
	return l
}

func (r *MemoryLeadRepo) Create(_ context.Context, l *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = utils.NewID()
	}
	now := r.now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now
	if l.Notes == nil {
		l.Notes = []domain.Note{}
	}
	r.seq++
	r.rows[l.ID] = &memLead{l: copyLead(*l), seq: r.seq}
	return nil
}

func (r *MemoryLeadRepo) FindByID(_ context.Context, id string) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	l := copyLead(row.l)
	return &l, nil
}

func (r *MemoryLeadRepo) List(_ context.Context, q domain.LeadQuery) ([]domain.Lead, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var hits []*memLead
	for _, row := range r.rows {
		if q.AssignedTo != nil && row.l.AssignedToID() != *q.AssignedTo {
			continue
		}
		if !matchesSearch(q.Search, row.l.Name, row.l.Email) {
			continue
		}
		hits = append(hits, row)
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].l.CreatedAt.Equal(hits[j].l.CreatedAt) {
			return hits[i].l.CreatedAt.After(hits[j].l.CreatedAt)
		}
		return hits[i].seq > hits[j].seq
	})
	page := window(hits, q.Offset, q.Limit)
	out := make([]domain.Lead, 0, len(page))
	for _, row := range page {
		out = append(out, copyLead(row.l))
	}
	return out, int64(len(hits)), nil
}

func (r *MemoryLeadRepo) Update(_ context.Context, l *domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[l.ID]
	if !ok {
		return domain.ErrNotFound
	}
	next := copyLead(*l)
	next.CreatedBy = row.l.CreatedBy
	next.CreatedAt = row.l.CreatedAt
	next.Notes = row.l.Notes
	next.UpdatedAt = r.now().UTC()
	row.l = next
	l.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *MemoryLeadRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *MemoryLeadRepo) AppendNote(_ context.Context, leadID string, n domain.Note) ([]domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[leadID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	row.l.Notes = append(row.l.Notes, n)
	row.l.UpdatedAt = r.now().UTC()
	return append([]domain.Note{}, row.l.Notes...), nil
}

func matchesSearch(search string, fields ...string) bool {
	s := strings.ToLower(strings.TrimSpace(search))
	if s == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), s) {
			return true
		}
	}
	return false
}

func window[T any](rows []T, offset, limit int) []T {
	if offset < 0 || offset >= len(rows) {
		return nil
	}
	end := len(rows)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return rows[offset:end]
}
