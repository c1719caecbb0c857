package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/assembly-floor/internal/domain/entities"
	"github.com/johnquangdev/assembly-floor/internal/domain/repositories"
)

// attendeeRepository implements the AttendeeRepository interface
type attendeeRepository struct {
	db *gorm.DB
}

// NewAttendeeRepository creates a new attendee repository
func NewAttendeeRepository(db *gorm.DB) repositories.AttendeeRepository {
	return &attendeeRepository{db: db}
}

// Create stores a new attendee
func (r *attendeeRepository) Create(ctx context.Context, attendee *entities.Attendee) error {
	return translateError(r.db.WithContext(ctx).Create(attendee).Error)
}

// FindByID retrieves an attendee by ID
func (r *attendeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Attendee, error) {
	var attendee entities.Attendee
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&attendee).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &attendee, nil
}

// FindByMeetingID retrieves every attendee of a meeting ordered by seat
func (r *attendeeRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	var attendees []*entities.Attendee
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("seat_number ASC").
		Find(&attendees).Error
	return attendees, translateError(err)
}

// FindPending returns the speaking queue in serving order
func (r *attendeeRepository) FindPending(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	var attendees []*entities.Attendee
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND requested_to_speak AND floor_state <> ?", meetingID, entities.FloorStateSpeaking).
		Order("intervention_accept_deadline ASC NULLS FIRST").
		Order("requested_at ASC NULLS LAST").
		Order("created_at ASC").
		Order("id ASC").
		Find(&attendees).Error
	return attendees, translateError(err)
}

// FindSpeakers returns attendees holding the floor, earliest start first
func (r *attendeeRepository) FindSpeakers(ctx context.Context, meetingID uuid.UUID) ([]*entities.Attendee, error) {
	var attendees []*entities.Attendee
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND floor_state = ?", meetingID, entities.FloorStateSpeaking).
		Order("intervention_start_time ASC").
		Find(&attendees).Error
	return attendees, translateError(err)
}

// Update locks the attendee row, applies fn and saves the result in one transaction
func (r *attendeeRepository) Update(ctx context.Context, id uuid.UUID, fn func(*entities.Attendee) error) (*entities.Attendee, error) {
	var attendee entities.Attendee
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&attendee).Error; err != nil {
			return err
		}

		meetingID := attendee.MeetingID
		if err := fn(&attendee); err != nil {
			return err
		}
		attendee.ID = id
		attendee.MeetingID = meetingID
		if err := attendee.CheckFloorState(); err != nil {
			return err
		}
		return tx.Save(&attendee).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &attendee, nil
}

// EvictExpiredOffers clears every lapsed offer of a meeting with a single UPDATE ... RETURNING
func (r *attendeeRepository) EvictExpiredOffers(ctx context.Context, meetingID uuid.UUID, now time.Time) ([]*entities.Attendee, error) {
	var evicted []*entities.Attendee
	err := r.db.WithContext(ctx).
		Model(&evicted).
		Clauses(clause.Returning{}).
		Where("meeting_id = ? AND requested_to_speak AND floor_state = ? AND intervention_accept_deadline < ?",
			meetingID, entities.FloorStateOffered, now).
		Updates(map[string]interface{}{
			"requested_to_speak":           false,
			"requested_at":                 nil,
			"floor_state":                  entities.FloorStateIdle,
			"intervention_accept_deadline": nil,
			"intervention_start_time":      nil,
			"updated_at":                   now,
		}).Error
	if err != nil {
		return nil, translateError(err)
	}
	return evicted, nil
}
