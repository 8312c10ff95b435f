package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/eringen/storyboard/internal/domain"
	"github.com/eringen/storyboard/internal/service/mocks"
)

type UserServiceTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	users   *mocks.MockUserStore
	service *UserService
}

func (s *UserServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserStore(s.ctrl)
	s.service = NewUserService(s.users, func(email string) bool {
		return email == "boss@example.com"
	}, zap.NewNop())
}

func (s *UserServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func validUser() domain.User {
	return domain.User{
		ID:    "u1",
		Name:  "Reader",
		Role:  domain.RoleUser,
		Email: "reader@example.com",
		Login: "reader",
	}
}

func (s *UserServiceTestSuite) TestGetUserByEmail_Absent() {
	ctx := context.Background()
	s.users.EXPECT().GetByEmail(ctx, "nobody@example.com").Return(domain.User{}, domain.ErrNotFound)

	got, err := s.service.GetUserByEmail(ctx, "nobody@example.com")

	s.NoError(err)
	s.Nil(got)
}

func (s *UserServiceTestSuite) TestGetUserByEmail_Normalizes() {
	ctx := context.Background()
	s.users.EXPECT().GetByEmail(ctx, "reader@example.com").Return(validUser(), nil)

	got, err := s.service.GetUserByEmail(ctx, "  Reader@Example.com ")

	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("u1", got.ID)
	s.Equal(domain.RoleUser, got.Role)
}

func (s *UserServiceTestSuite) TestGetUserByEmail_InvalidRow() {
	ctx := context.Background()
	bad := validUser()
	bad.Role = "superuser"
	bad.Credits = -1
	s.users.EXPECT().GetByEmail(ctx, "reader@example.com").Return(bad, nil)

	_, err := s.service.GetUserByEmail(ctx, "reader@example.com")

	var ve *domain.ValidationError
	s.Require().ErrorAs(err, &ve)
	s.Contains(ve.Fields, "role")
	s.Contains(ve.Fields, "credits")
}

func (s *UserServiceTestSuite) TestGetUserByEmail_StoreError() {
	ctx := context.Background()
	boom := errors.New("connection reset")
	s.users.EXPECT().GetByEmail(ctx, "reader@example.com").Return(domain.User{}, boom)

	_, err := s.service.GetUserByEmail(ctx, "reader@example.com")

	s.ErrorIs(err, boom)
}

func (s *UserServiceTestSuite) TestEnsureUser_CreatesAdmin() {
	ctx := context.Background()
	s.users.EXPECT().GetByEmail(ctx, "boss@example.com").Return(domain.User{}, domain.ErrNotFound)
	s.users.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, u *domain.User) error {
			s.NotEmpty(u.ID)
			s.NotEmpty(u.Login)
			s.NotEqual(u.ID, u.Login)
			return nil
		},
	)

	u, err := s.service.EnsureUser(ctx, Profile{Email: "Boss@example.com", EmailVerified: true})

	s.Require().NoError(err)
	s.Equal(domain.RoleAdmin, u.Role)
	s.Equal("boss", u.Name)
	s.True(u.EmailVerified)
}

func (s *UserServiceTestSuite) TestEnsureUser_RefreshesExisting() {
	ctx := context.Background()
	existing := validUser()
	s.users.EXPECT().GetByEmail(ctx, "reader@example.com").Return(existing, nil)
	s.users.EXPECT().UpdateProfile(ctx, gomock.Any()).Return(nil)

	u, err := s.service.EnsureUser(ctx, Profile{Email: "reader@example.com", Name: "New Name", Image: "https://img/x.png"})

	s.Require().NoError(err)
	s.Equal("u1", u.ID)
	s.Equal("New Name", u.Name)
	s.Equal(domain.RoleUser, u.Role)
	s.Require().NotNil(u.Image)
}

func (s *UserServiceTestSuite) TestEnsureUser_RejectsBadEmail() {
	_, err := s.service.EnsureUser(context.Background(), Profile{Email: "not-an-email"})

	var ve *domain.ValidationError
	s.ErrorAs(err, &ve)
}
