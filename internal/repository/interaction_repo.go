package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Zalthoryn/DatingBot/internal/db"
)

// InteractionRepository provides data access for Interactions and Matches.
// It encapsulates the like/skip state machine's storage transitions.
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new repository bound to the given DB connection.
func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// InteractionResult reports what a RecordInteraction call did.
//
//   - Duplicate: the ordered pair already had an interaction; nothing was written.
//   - Match: non-nil only when THIS call created the Match row. When two
//     concurrent likes both observe mutuality, the unique pair index lets
//     exactly one insert win; the loser gets Match == nil and must not
//     re-dispatch notifications.
type InteractionResult struct {
	Duplicate bool
	Match     *db.Match
}

// RecordInteraction writes the directed like/skip edge and, on a mutual like,
// creates the Match row.
//
// Behavior:
//   - If (from, to) already has an interaction → Duplicate, no write. The
//     composite PK makes the duplicate submission a conflict, not an overwrite.
//   - Skip → edge written, nothing else.
//   - Like → after the edge commits, the reverse edge is checked; if it is a
//     like, the normalized Match row is inserted with DoNothing-on-conflict.
//
// The reverse check runs after this call's own insert is committed, so of two
// racing likes at least one observes the other's committed edge. The unique
// pair index collapses a double observation into a single Match row.
func (r *InteractionRepository) RecordInteraction(
	ctx context.Context,
	fromID, toID uint64,
	action string,
) (InteractionResult, error) {
	var res InteractionResult

	interaction := db.Interaction{
		FromProfileID: fromID,
		ToProfileID:   toID,
		Action:        action,
	}
	out := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&interaction)
	if out.Error != nil {
		return res, out.Error
	}
	if out.RowsAffected == 0 {
		res.Duplicate = true
		return res, nil
	}

	if action != db.ActionLike {
		return res, nil
	}

	var reverse int64
	if err := r.db.WithContext(ctx).Model(&db.Interaction{}).
		Where("from_profile_id = ? AND to_profile_id = ? AND action = ?",
			toID, fromID, db.ActionLike).
		Count(&reverse).Error; err != nil {
		return res, err
	}
	if reverse == 0 {
		return res, nil
	}

	p1, p2 := db.NormalizePair(fromID, toID)
	match := db.Match{Profile1ID: p1, Profile2ID: p2}
	mout := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&match)
	if mout.Error != nil {
		return res, mout.Error
	}
	if mout.RowsAffected == 0 {
		// a concurrent like already created the pair; no-op for this call
		return res, nil
	}

	res.Match = &match
	return res, nil
}

// HasInteracted checks whether any interaction exists from → to, regardless
// of action. A skip excludes the pair as permanently as a like does.
func (r *InteractionRepository) HasInteracted(
	ctx context.Context,
	fromID, toID uint64,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Interaction{}).
		Where("from_profile_id = ? AND to_profile_id = ?", fromID, toID).
		Count(&count).Error
	return count > 0, err
}

// ArePaired checks whether a Match row exists for the unordered pair.
func (r *InteractionRepository) ArePaired(
	ctx context.Context,
	a, b uint64,
) (bool, error) {
	p1, p2 := db.NormalizePair(a, b)
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Match{}).
		Where("profile1_id = ? AND profile2_id = ?", p1, p2).
		Count(&count).Error
	return count > 0, err
}

// CountMatches returns how many Match rows reference the profile.
// Feeds the behavioral component of the rating.
func (r *InteractionRepository) CountMatches(
	ctx context.Context,
	profileID uint64,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Match{}).
		Where("profile1_id = ? OR profile2_id = ?", profileID, profileID).
		Count(&count).Error
	return count, err
}
