//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/eringen/storyboard/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storyboard_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := Open(s.ctx, DriverPostgres, connStr)
	s.Require().NoError(err)
	s.db = db
	s.Require().NoError(s.db.Migrate(s.ctx))
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM feedback")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM slugs")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM categories")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM sessions")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM accounts")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM verifications")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM users")
}

func (s *PostgresIntegrationSuite) seed() (domain.User, domain.Category) {
	u := domain.User{ID: "u1", Name: "Writer", Email: "writer@example.com", Login: "writer"}
	s.Require().NoError(NewUserStore(s.db).Insert(s.ctx, &u))
	c := domain.Category{Name: "Fiction", CanonicalURL: "fiction"}
	s.Require().NoError(NewCategoryStore(s.db).Insert(s.ctx, &c))
	return u, c
}

func (s *PostgresIntegrationSuite) TestSlugLifecycle() {
	u, c := s.seed()
	slugs := NewSlugStore(s.db)

	sl := newSlug(u, c, "pg-story", false)
	s.Require().NoError(slugs.Insert(s.ctx, &sl))
	s.NotZero(sl.ID)

	sl.Published = true
	s.Require().NoError(slugs.Update(s.ctx, &sl))

	got, err := slugs.GetByID(s.ctx, sl.ID)
	s.Require().NoError(err)
	s.True(got.Published)
	s.Equal("Fiction", got.Category.Name)
	s.Equal("writer", got.Author.Login)

	list, err := slugs.List(s.ctx, domain.SlugFilter{PublishedOnly: true})
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *PostgresIntegrationSuite) TestConstraintMapping() {
	u, c := s.seed()
	slugs := NewSlugStore(s.db)

	first := newSlug(u, c, "same", false)
	s.Require().NoError(slugs.Insert(s.ctx, &first))

	dup := newSlug(u, c, "same", false)
	s.ErrorIs(slugs.Insert(s.ctx, &dup), domain.ErrConstraintViolation)

	orphan := newSlug(domain.User{ID: "ghost"}, c, "orphan", false)
	s.ErrorIs(slugs.Insert(s.ctx, &orphan), domain.ErrConstraintViolation)

	_, err := slugs.GetByID(s.ctx, 424242)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestSessionTransaction() {
	tm := NewTransactionManager(s.db)
	users := NewUserStore(s.db)
	sessions := NewSessionStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		u := domain.User{ID: "tx-user", Name: "Tx", Email: "tx@example.com", Login: "tx"}
		if err := users.Insert(ctx, &u); err != nil {
			return err
		}
		sess := domain.Session{ID: "tx-sess", Token: "tx-token", ExpiresAt: time.Now().Add(time.Hour), UserID: u.ID}
		return sessions.Insert(ctx, &sess)
	})
	s.Require().NoError(err)

	got, err := sessions.GetByToken(s.ctx, "tx-token", time.Now())
	s.Require().NoError(err)
	s.Equal("tx@example.com", got.User.Email)
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}
