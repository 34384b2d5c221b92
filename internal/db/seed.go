package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCities = []string{"Moscow", "Berlin", "Rome", "Paris"}

var seedInterests = []string{
	"music, travel", "chess, books", "sport, movies", "cooking, hiking", "art, photography",
}

// SeedTestData resets the database and populates it with demo users, profiles,
// photos, interactions and a few guaranteed mutual-like matches.
//
// Ratings rows are created zeroed; run the rating job (or cmd/seed, which does
// it for you) to fill them in.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"interactions", "matches", "ratings", "photos", "profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	// 20 users: 10 male, 10 female, spread over the cities
	profiles := make([]Profile, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := GenderMale
		if i > 10 {
			gender = GenderFemale
		}

		user := User{
			TelegramID: int64(100000 + i),
			Username:   fmt.Sprintf("user%d", i),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		photoCount := r.Intn(4)
		for p := 0; p < photoCount; p++ {
			photo := Photo{
				UserID:    user.ID,
				ObjectKey: fmt.Sprintf("user%d/photo-%s.jpg", user.ID, uuid.NewString()),
			}
			if err := db.Create(&photo).Error; err != nil {
				return fmt.Errorf("failed to seed photo: %w", err)
			}
		}

		completeness := 80 + photoCount*10
		if completeness > 100 {
			completeness = 100
		}

		profile := Profile{
			UserID:       user.ID,
			Nickname:     fmt.Sprintf("nick%d", i),
			Age:          18 + r.Intn(22),
			Gender:       gender,
			Interests:    seedInterests[r.Intn(len(seedInterests))],
			City:         seedCities[i%len(seedCities)],
			Completeness: completeness,
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		// profile and rating always exist together
		if err := db.Create(&Rating{ProfileID: profile.ID}).Error; err != nil {
			return fmt.Errorf("failed to seed rating: %w", err)
		}

		profiles = append(profiles, profile)
	}
	log.Println("Seeded 20 users with profiles and photos.")

	// interactions: each profile decides on a handful of opposite-gender
	// profiles, ~70% likes, every 3rd pair forced mutual
	counter := 0
	for _, from := range profiles {
		for j := 0; j < 6; j++ {
			to := profiles[r.Intn(len(profiles))]
			if to.ID == from.ID || to.Gender == from.Gender {
				continue
			}

			action := ActionSkip
			if r.Intn(100) < 70 {
				action = ActionLike
			}

			mutual := counter%3 == 0
			if mutual {
				action = ActionLike
				reciprocal := Interaction{FromProfileID: to.ID, ToProfileID: from.ID, Action: ActionLike}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&reciprocal)
			}

			interaction := Interaction{FromProfileID: from.ID, ToProfileID: to.ID, Action: action}
			out := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&interaction)
			if out.Error != nil {
				return fmt.Errorf("failed to seed interaction: %w", out.Error)
			}

			if mutual && out.RowsAffected > 0 {
				p1, p2 := NormalizePair(from.ID, to.ID)
				match := Match{Profile1ID: p1, Profile2ID: p2}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&match).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}

			counter++
		}
	}

	return nil
}
