package subscriptions

import (
	"context"
	"testing"
	"time"

	apierrors "github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SubscriptionsServiceSuite struct {
	suite.Suite
	db      *gorm.DB
	svc     *Service
	ctx     context.Context
	creator *models.User
	reader  *models.User
	pub     *models.Publication
}

func (s *SubscriptionsServiceSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(db.AutoMigrate(
		&models.User{}, &models.Publication{}, &models.Subscription{},
	))

	s.db = db
	s.svc = NewService(db)
	s.ctx = context.Background()

	s.creator = &models.User{Username: "carol", Email: "carol@example.com", PasswordHash: "x", Role: models.RoleCreator}
	s.Require().NoError(db.Create(s.creator).Error)
	s.reader = &models.User{Username: "rita", Email: "rita@example.com", PasswordHash: "x", Role: models.RoleReader}
	s.Require().NoError(db.Create(s.reader).Error)

	s.pub = &models.Publication{Name: "Daily", OwnerID: s.creator.ID}
	s.Require().NoError(db.Create(s.pub).Error)
}

func (s *SubscriptionsServiceSuite) apiError(err error) *apierrors.APIError {
	s.Require().Error(err)
	apiErr, ok := err.(*apierrors.APIError)
	s.Require().True(ok, "expected *APIError, got %T: %v", err, err)
	return apiErr
}

func (s *SubscriptionsServiceSuite) TestSubscribe() {
	sub, err := s.svc.Subscribe(s.ctx, s.reader, s.pub.ID)
	s.Require().NoError(err)
	s.Equal(models.SubscriptionActive, sub.Status)
	s.Require().NotNil(sub.CurrentPeriodEnd)
	s.WithinDuration(time.Now().UTC().Add(30*24*time.Hour), *sub.CurrentPeriodEnd, time.Minute)
}

func (s *SubscriptionsServiceSuite) TestSubscribeUnknownPublication() {
	_, err := s.svc.Subscribe(s.ctx, s.reader, "99999999-9999-9999-9999-999999999999")
	s.Equal(404, s.apiError(err).StatusCode)
}

func (s *SubscriptionsServiceSuite) TestSubscribeToOwnPublication() {
	_, err := s.svc.Subscribe(s.ctx, s.creator, s.pub.ID)
	s.Equal(400, s.apiError(err).StatusCode)
}

func (s *SubscriptionsServiceSuite) TestSubscribeTwiceConflicts() {
	_, err := s.svc.Subscribe(s.ctx, s.reader, s.pub.ID)
	s.Require().NoError(err)

	_, err = s.svc.Subscribe(s.ctx, s.reader, s.pub.ID)
	s.Equal(409, s.apiError(err).StatusCode)
}

func (s *SubscriptionsServiceSuite) TestResubscribeAfterCancel() {
	_, err := s.svc.Subscribe(s.ctx, s.reader, s.pub.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Cancel(s.ctx, s.reader.ID, s.pub.ID))

	// A canceled subscription does not block a new one
	sub, err := s.svc.Subscribe(s.ctx, s.reader, s.pub.ID)
	s.Require().NoError(err)
	s.Equal(models.SubscriptionActive, sub.Status)
}

func (s *SubscriptionsServiceSuite) TestCancelWithoutSubscription() {
	err := s.svc.Cancel(s.ctx, s.reader.ID, s.pub.ID)
	s.Equal(404, s.apiError(err).StatusCode)
}

func (s *SubscriptionsServiceSuite) TestCancelTwice() {
	_, err := s.svc.Subscribe(s.ctx, s.reader, s.pub.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Cancel(s.ctx, s.reader.ID, s.pub.ID))
	err = s.svc.Cancel(s.ctx, s.reader.ID, s.pub.ID)
	s.Equal(404, s.apiError(err).StatusCode)
}

func TestSubscriptionsServiceSuite(t *testing.T) {
	suite.Run(t, new(SubscriptionsServiceSuite))
}
