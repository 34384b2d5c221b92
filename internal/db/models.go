package db

import (
	"time"
)

// Gender values stored on Profile. The bot UI maps its own labels onto these.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Interaction actions.
const (
	ActionLike = "like"
	ActionSkip = "skip"
)

// User is the chat identity. TelegramID is the immutable external id;
// ID is the internal numeric id referenced by Profiles and Photos.
type User struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	TelegramID int64     `gorm:"uniqueIndex;not null"`
	Username   string    `gorm:"size:64"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Profile holds the dating form data, 1:1 with User. Completeness starts at 80
// on full form submission and grows by 10 per photo, capped at 100.
//
// Index idx_gender_city(gender, city) backs the candidate query's
// opposite-gender/same-city filter.
type Profile struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	UserID       uint64    `gorm:"uniqueIndex;not null"`
	Nickname     string    `gorm:"size:64"`
	Age          int       `gorm:"not null;default:0"`
	Gender       string    `gorm:"size:16;not null;index:idx_gender_city,priority:1"`
	Interests    string    `gorm:"size:512"`
	City         string    `gorm:"size:64;index:idx_gender_city,priority:2"`
	Completeness int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Photo references an object-store blob owned by a User.
type Photo struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserID     uint64    `gorm:"index;not null"`
	ObjectKey  string    `gorm:"size:255;not null"`
	UploadedAt time.Time `gorm:"autoCreateTime"`
}

// Rating is 1:1 with Profile and mutated only by the rating engine.
// CombinedRating = PrimaryRating + BehavioralRating after every recompute;
// the index serves the rating-ordered candidate query.
type Rating struct {
	ProfileID        uint64    `gorm:"primaryKey;autoIncrement:false"`
	PrimaryRating    int       `gorm:"not null;default:0"`
	BehavioralRating int       `gorm:"not null;default:0"`
	CombinedRating   int       `gorm:"not null;default:0;index"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Interaction is the directed like/skip edge, append-only.
//
// Composite PK (FromProfileID, ToProfileID): one row per ordered pair. A
// conflicting insert is the duplicate-submission signal, not an overwrite.
type Interaction struct {
	FromProfileID uint64    `gorm:"primaryKey;autoIncrement:false"`
	ToProfileID   uint64    `gorm:"primaryKey;autoIncrement:false"`
	Action        string    `gorm:"size:8;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

// Match is the undirected mutual-like pair, append-only. Rows are normalized
// so Profile1ID < Profile2ID; the unique pair index makes a concurrent double
// insert a constraint conflict instead of a duplicate match.
type Match struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	Profile1ID uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	Profile2ID uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// NormalizePair orders two profile ids for Match storage.
func NormalizePair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}
