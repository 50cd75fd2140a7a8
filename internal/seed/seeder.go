package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/logger"
	"github.com/inkwell/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data: a mix of
// readers and creators, publications with posts, and some subscriptions.
func (s *Seeder) SeedDev() error {
	logger.Log.Info("creating users")
	users, err := s.seedUsers(40)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("creating publications")
	pubs, err := s.seedPublications(users)
	if err != nil {
		return fmt.Errorf("failed to seed publications: %w", err)
	}

	logger.Log.Info("creating posts")
	if err := s.seedPosts(pubs, 200); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("creating subscriptions")
	if err := s.seedSubscriptions(users, pubs, 80); err != nil {
		return fmt.Errorf("failed to seed subscriptions: %w", err)
	}

	logger.Log.Info("seeding complete",
		zap.Int("users", len(users)),
		zap.Int("publications", len(pubs)),
	)
	return nil
}

// Clean removes all seeded rows. Destructive; development databases only.
func (s *Seeder) Clean() error {
	for _, model := range []interface{}{
		&models.Subscription{}, &models.Post{}, &models.Publication{}, &models.User{},
	} {
		if err := s.db.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clean: %w", err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	// One shared hash keeps seeding fast; every seeded account logs in with
	// the same dev password.
	hash, err := auth.HashPassword("password123")
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(fmt.Sprintf("%s%d", gofakeit.Username(), i))
		role := models.RoleReader
		if i%4 == 0 {
			role = models.RoleCreator
		}
		user := models.User{
			Username:     username,
			Email:        strings.ToLower(fmt.Sprintf("%s@%s", username, gofakeit.DomainName())),
			PasswordHash: hash,
			Role:         role,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPublications(users []models.User) ([]models.Publication, error) {
	var pubs []models.Publication
	for _, u := range users {
		if u.Role != models.RoleCreator {
			continue
		}
		n := rand.Intn(3) + 1
		for i := 0; i < n; i++ {
			pub := models.Publication{
				Name:              gofakeit.BookTitle(),
				Description:       gofakeit.Sentence(12),
				OwnerID:           u.ID,
				SubscriptionPrice: int64(rand.Intn(20)) * 100,
			}
			if err := s.db.Create(&pub).Error; err != nil {
				return nil, err
			}
			pubs = append(pubs, pub)
		}
	}
	return pubs, nil
}

func (s *Seeder) seedPosts(pubs []models.Publication, count int) error {
	if len(pubs) == 0 {
		return nil
	}
	for i := 0; i < count; i++ {
		pub := pubs[rand.Intn(len(pubs))]
		status := models.PostPublished
		if rand.Intn(5) == 0 {
			status = models.PostDraft
		}
		access := models.AccessPublic
		if rand.Intn(3) == 0 {
			access = models.AccessPaid
		}
		post := models.Post{
			Title:         gofakeit.Sentence(6),
			Content:       gofakeit.Paragraph(3, 5, 12, "\n\n"),
			PublicationID: pub.ID,
			AuthorID:      pub.OwnerID,
			AccessLevel:   access,
			Status:        status,
		}
		if err := s.db.Create(&post).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedSubscriptions(users []models.User, pubs []models.Publication, count int) error {
	if len(pubs) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		pub := pubs[rand.Intn(len(pubs))]
		if pub.OwnerID == user.ID {
			continue
		}
		key := user.ID + ":" + pub.ID
		if seen[key] {
			continue
		}
		seen[key] = true

		periodEnd := time.Now().UTC().Add(time.Duration(rand.Intn(30)+1) * 24 * time.Hour)
		sub := models.Subscription{
			ReaderID:         user.ID,
			PublicationID:    pub.ID,
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: &periodEnd,
		}
		if err := s.db.Create(&sub).Error; err != nil {
			return err
		}
	}
	return nil
}
