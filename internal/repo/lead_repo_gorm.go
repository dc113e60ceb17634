package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lead-crm/internal/domain"
	"lead-crm/pkg/utils"
)

type LeadRepo struct{ db *gorm.DB }

func NewLeadRepo(db *gorm.DB) *LeadRepo { return &LeadRepo{db: db} }

func notesOldestFirst(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }

func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	m := LeadModel{
		ID:         utils.NewID(),
		Name:       l.Name,
		Email:      l.Email,
		Phone:      l.Phone,
		Status:     string(l.Status),
		AssignedTo: l.AssignedTo,
		CreatedBy:  l.CreatedBy,
	}
	if err := r.db.WithContext(ctx).Omit("Notes").Create(&m).Error; err != nil {
		return err
	}
	l.ID, l.CreatedAt, l.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	if l.Notes == nil {
		l.Notes = []domain.Note{}
	}
	return nil
}

func (r *LeadRepo) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	var m LeadModel
	err := r.db.WithContext(ctx).Preload("Notes", notesOldestFirst).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l := m.toDomain()
	return &l, nil
}

func (r *LeadRepo) List(ctx context.Context, q domain.LeadQuery) ([]domain.Lead, int64, error) {
	tx := r.db.WithContext(ctx).Model(&LeadModel{})
	if q.AssignedTo != nil {
		tx = tx.Where("assigned_to = ?", *q.AssignedTo)
	}
	tx = whereSearch(tx, q.Search)
	base := tx.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []LeadModel
	if err := paged(base, q.Offset, q.Limit).Preload("Notes", notesOldestFirst).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, total, nil
}

func (r *LeadRepo) Update(ctx context.Context, l *domain.Lead) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&LeadModel{ID: l.ID}).Updates(map[string]any{
		"name":        l.Name,
		"email":       l.Email,
		"phone":       l.Phone,
		"status":      string(l.Status),
		"assigned_to": l.AssignedTo,
		"updated_at":  now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&LeadModel{}).Where("id = ?", l.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNotFound
		}
	}
	l.UpdatedAt = now
	return nil
}

func (r *LeadRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&NoteModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&LeadModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *LeadRepo) AppendNote(ctx context.Context, leadID string, n domain.Note) ([]domain.Note, error) {
	var out []domain.Note
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&LeadModel{}).Where("id = ?", leadID).Update("updated_at", time.Now().UTC())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		row := NoteModel{LeadID: leadID, Text: n.Text, CreatedBy: n.CreatedBy, CreatedAt: n.CreatedAt}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		var rows []NoteModel
		if err := notesOldestFirst(tx.Where("lead_id = ?", leadID)).Find(&rows).Error; err != nil {
			return err
		}
		out = make([]domain.Note, 0, len(rows))
		for _, m := range rows {
			out = append(out, m.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
