package repo

import (
	"time"

	"lead-crm/internal/domain"
)

type UserModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(32)"`
	Email        string    `gorm:"uniqueIndex;size:191;not null"`
	Name         string    `gorm:"size:128;not null"`
	PasswordHash string    `gorm:"size:100;not null"`
	Role         string    `gorm:"size:16;not null;default:staff;index:idx_users_role_created,priority:1"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_users_role_created,priority:2"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m UserModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type LeadModel struct {
	ID         string      `gorm:"primaryKey;type:varchar(32)"`
	Name       string      `gorm:"size:128;not null"`
	Email      string      `gorm:"size:191;not null"`
	Phone      string      `gorm:"size:64;not null"`
	Status     string      `gorm:"size:16;not null;default:New"`
	AssignedTo *string     `gorm:"type:varchar(32);index:idx_leads_assignee_created,priority:1"`
	CreatedBy  string      `gorm:"type:varchar(32);not null"`
	Notes      []NoteModel `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time   `gorm:"autoCreateTime;index;index:idx_leads_assignee_created,priority:2"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime"`
}

func (LeadModel) TableName() string { return "leads" }

func (m LeadModel) toDomain() domain.Lead {
	notes := make([]domain.Note, 0, len(m.Notes))
	for _, n := range m.Notes {
		notes = append(notes, n.toDomain())
	}
	return domain.Lead{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Status:     domain.LeadStatus(m.Status),
		AssignedTo: m.AssignedTo,
		CreatedBy:  m.CreatedBy,
		Notes:      notes,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type NoteModel struct {
	ID        uint      `gorm:"primaryKey"`
	LeadID    string    `gorm:"type:varchar(32);not null;index"`
	Text      string    `gorm:"type:text;not null"`
	CreatedBy string    `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (NoteModel) TableName() string { return "lead_notes" }

func (n NoteModel) toDomain() domain.Note {
	return domain.Note{Text: n.Text, CreatedBy: n.CreatedBy, CreatedAt: n.CreatedAt}
}

// GormModels is the AutoMigrate set.
func GormModels() []any { return []any{&UserModel{}, &LeadModel{}, &NoteModel{}} }
