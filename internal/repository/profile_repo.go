package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Zalthoryn/DatingBot/internal/db"
	svcErr "github.com/Zalthoryn/DatingBot/internal/errors"
)

// ProfileRepository provides data access for Users, Profiles, Photos and
// Ratings, including the candidate-selection query.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// ProfileSummary is the cacheable slice of a profile the selector filters on.
// Everything else is re-read from the DB when a cached entry survives filtering.
type ProfileSummary struct {
	ProfileID      uint64 `json:"profile_id"`
	Gender         string `json:"gender"`
	City           string `json:"city"`
	CombinedRating int    `json:"combined_rating"`
}

// GetUserByTelegramID resolves the external chat identity to the internal User.
func (r *ProfileRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &user, nil
}

// GetUserByID loads a User by internal id.
func (r *ProfileRepository) GetUserByID(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &user, nil
}

// GetProfileByUserID loads the 1:1 profile for a user.
func (r *ProfileRepository) GetProfileByUserID(ctx context.Context, userID uint64) (*db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &profile, nil
}

// GetProfileByID loads a profile by id.
func (r *ProfileRepository) GetProfileByID(ctx context.Context, id uint64) (*db.Profile, error) {
	var profile db.Profile
	err := r.db.WithContext(ctx).First(&profile, id).Error
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &profile, nil
}

// RecentPhotoKeys returns the newest object-store keys for the user,
// newest first, capped at limit.
func (r *ProfileRepository) RecentPhotoKeys(ctx context.Context, userID uint64, limit int) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&db.Photo{}).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC, id DESC").
		Limit(limit).
		Pluck("object_key", &keys).Error
	return keys, err
}

// CountPhotos returns how many photos the user has uploaded.
func (r *ProfileRepository) CountPhotos(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Photo{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// SaveRating upserts the three rating fields for a profile.
func (r *ProfileRepository) SaveRating(ctx context.Context, rating *db.Rating) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"primary_rating", "behavioral_rating", "combined_rating", "updated_at"}),
		}).
		Create(rating).Error
}

// AllProfileIDs streams every profile id, for the batch recompute job.
func (r *ProfileRepository) AllProfileIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&db.Profile{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// TopRatedProfiles returns the highest-rated profile summaries, for the
// advisory candidate cache.
func (r *ProfileRepository) TopRatedProfiles(ctx context.Context, limit int) ([]ProfileSummary, error) {
	var rows []ProfileSummary
	err := r.db.WithContext(ctx).
		Table("profiles p").
		Select("p.id AS profile_id, p.gender, p.city, COALESCE(r.combined_rating, 0) AS combined_rating").
		Joins("LEFT JOIN ratings r ON r.profile_id = p.id").
		Order("combined_rating DESC, p.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// FindCandidate returns the best-rated compatible profile for the requester,
// or nil when none qualifies — a normal empty result, not an error.
//
// Behavior:
//   - Opposite gender always; same city when sameCity, any other city otherwise.
//   - Excludes profiles already matched with the requester.
//   - Excludes profiles the requester has any interaction toward (like or skip).
//   - Ordered by combined_rating DESC, profile id ASC for a stable tie-break.
func (r *ProfileRepository) FindCandidate(
	ctx context.Context,
	requester *db.Profile,
	sameCity bool,
) (*db.Profile, error) {
	query := r.db.WithContext(ctx).
		Table("profiles p").
		Select("p.*").
		Joins("LEFT JOIN ratings r ON r.profile_id = p.id").
		Where("p.id != ?", requester.ID).
		Where("p.gender != ?", requester.Gender)

	if sameCity {
		query = query.Where("p.city = ?", requester.City)
	} else {
		query = query.Where("p.city != ?", requester.City)
	}

	query = query.
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE (m.profile1_id = ? AND m.profile2_id = p.id)
				   OR (m.profile1_id = p.id AND m.profile2_id = ?)
			)`, requester.ID, requester.ID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM interactions i
				WHERE i.from_profile_id = ? AND i.to_profile_id = p.id
			)`, requester.ID).
		Order("COALESCE(r.combined_rating, 0) DESC, p.id ASC").
		Limit(1)

	var candidates []db.Profile
	if err := query.Find(&candidates).Error; err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

// GetRating loads the rating row for a profile, or nil when absent.
func (r *ProfileRepository) GetRating(ctx context.Context, profileID uint64) (*db.Rating, error) {
	var rating db.Rating
	err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
