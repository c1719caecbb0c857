package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

// meetingRepository implements the MeetingRepository interface
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// Create stores a new meeting
func (r *meetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	return translateError(r.db.WithContext(ctx).Create(meeting).Error)
}

// FindByID retrieves a meeting by its ID
func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&meeting).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &meeting, nil
}

// FindLatest retrieves the meeting with the most recent start time
func (r *meetingRepository) FindLatest(ctx context.Context) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Order("start_time DESC, created_at DESC, id DESC").
		First(&meeting).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &meeting, nil
}

// ListIDs returns the ID of every known meeting
func (r *meetingRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, translateError(err)
}

// Update applies fn to the locked meeting row and persists the result
func (r *meetingRepository) Update(ctx context.Context, id uuid.UUID, fn func(*entities.Meeting) error) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&meeting).Error; err != nil {
			return err
		}
		if err := fn(&meeting); err != nil {
			return err
		}
		meeting.ID = id
		return tx.Save(&meeting).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &meeting, nil
}
