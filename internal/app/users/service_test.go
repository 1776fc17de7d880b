package users_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"billing/internal/app/users"
	"billing/internal/auth"
	"billing/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeUserRepo struct {
	byEmail   map[string]*domain.User
	createErr error
	nextID    int64
}

func (f *fakeUserRepo) CreateTx(ctx context.Context, q domain.Querier, user *domain.User) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	if _, exists := f.byEmail[user.Email]; exists {
		return 0, domain.ErrUserAlreadyExists
	}
	f.nextID++
	copied := *user
	copied.ID = f.nextID
	f.byEmail[user.Email] = &copied
	return f.nextID, nil
}

func (f *fakeUserRepo) GetByIDTx(ctx context.Context, q domain.Querier, id int64) (*domain.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmailTx(ctx context.Context, q domain.Querier, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) AddToBalanceTx(ctx context.Context, q domain.Querier, userID int64, delta decimal.Decimal) error {
	return nil
}

func newUserService(t *testing.T, repo *fakeUserRepo) (users.UserService, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Minute)
	service := users.NewUserService(setupTestDB(t), repo, tokens, zap.NewNop())
	return service, tokens
}

func TestRegister_CreatesUserWithHashedPassword(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*domain.User{}}
	service, _ := newUserService(t, repo)

	user, err := service.Register(context.Background(), "u@example.com", "secret", "Jan", "Kowalski", "Warszawa")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
	require.NotEqual(t, "secret", user.PasswordHash)
	require.True(t, user.Balance.IsZero())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*domain.User{}}
	service, _ := newUserService(t, repo)

	_, err := service.Register(context.Background(), "u@example.com", "secret", "Jan", "Kowalski", "Warszawa")
	require.NoError(t, err)

	_, err = service.Register(context.Background(), "u@example.com", "other", "Jan", "Kowalski", "Warszawa")
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*domain.User{}}
	service, tokens := newUserService(t, repo)

	user, err := service.Register(context.Background(), "u@example.com", "secret", "Jan", "Kowalski", "Warszawa")
	require.NoError(t, err)

	token, err := service.Login(context.Background(), "u@example.com", "secret")
	require.NoError(t, err)

	userID, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
}

func TestLogin_RespondsIdenticallyForUnknownEmailAndWrongPassword(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*domain.User{}}
	service, _ := newUserService(t, repo)

	_, err := service.Register(context.Background(), "u@example.com", "secret", "Jan", "Kowalski", "Warszawa")
	require.NoError(t, err)

	_, errUnknown := service.Login(context.Background(), "nobody@example.com", "secret")
	require.ErrorIs(t, errUnknown, domain.ErrInvalidCredentials)

	_, errWrongPass := service.Login(context.Background(), "u@example.com", "wrong")
	require.ErrorIs(t, errWrongPass, domain.ErrInvalidCredentials)
}
