package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo users,
// ratings, and the matches they imply.
//
// Behavior:
//  1. Clears existing rows in dependency order.
//  2. Creates 20 users with hashed passwords.
//  3. Generates mutual high ratings for every (2k-1, 2k) pair so the first
//     ten pairs match, plus random one-way ratings as noise.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{
		"messages", "conversations", "video_sessions", "matches",
		"ratings", "goals", "subscriptions", "daily_swipe_counters", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE matches AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('users', 'matches')")
	}

	log.Println("Cleared existing data")

	// --- Seed Users ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %d: %w", i, err)
		}
	}

	var users []User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	equalWeights := [4]float64{0.25, 0.25, 0.25, 0.25}
	seedRating := func(rater, rated uint64, base int) error {
		scores := [4]int{base, base, base, base}
		overall := base * 10
		return db.Create(&Rating{
			RaterID:             rater,
			RatedID:             rated,
			Communication:       scores[0],
			Chemistry:           scores[1],
			Values:              scores[2],
			Lifestyle:           scores[3],
			WeightCommunication: equalWeights[0],
			WeightChemistry:     equalWeights[1],
			WeightValues:        equalWeights[2],
			WeightLifestyle:     equalWeights[3],
			Overall:             overall,
		}).Error
	}

	// mutual high ratings → matches for consecutive pairs
	for i := 0; i+1 < len(users); i += 2 {
		a, b := users[i].ID, users[i+1].ID
		if err := seedRating(a, b, 9); err != nil {
			return err
		}
		if err := seedRating(b, a, 8); err != nil {
			return err
		}
		lo, hi := CanonicalPair(a, b)
		match := Match{
			UserAID:       lo,
			UserBID:       hi,
			ScoreAB:       90,
			ScoreBA:       80,
			Compatibility: 85,
			Status:        MatchActive,
		}
		if err := db.Create(&match).Error; err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}
		if err := db.Create(&Conversation{MatchID: match.ID}).Error; err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
	}

	// random one-way ratings as noise
	for n := 0; n < 60; n++ {
		rater := users[r.Intn(len(users))].ID
		rated := users[r.Intn(len(users))].ID
		if rater == rated {
			continue
		}
		// ignore duplicates from the random pairs
		_ = seedRating(rater, rated, 3+r.Intn(5))
	}

	log.Println("Seeding completed")
	return nil
}
