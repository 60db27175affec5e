package account

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/amnii/internal/auth"
	"github.com/geocoder89/amnii/internal/domain/user"
	"github.com/geocoder89/amnii/internal/repo/memory"
	"github.com/geocoder89/amnii/internal/security"
	"github.com/geocoder89/amnii/internal/validation"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc    *Service
	users  user.Store
	tokens *auth.Manager
}

func newFixture(t *testing.T, store user.Store) fixture {
	t.Helper()
	if store == nil {
		store = memory.NewUsersRepo()
	}
	tokens, err := auth.NewManager("test-secret-key", time.Hour)
	require.NoError(t, err)

	hasher := security.NewHasher(bcrypt.MinCost, 4)
	return fixture{
		svc:    NewService(store, hasher, tokens),
		users:  store,
		tokens: tokens,
	}
}

func alice() user.RegisterInput {
	return user.RegisterInput{Name: "Alice User", Email: "alice@x.com", Password: "secret1"}
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	require.NotEmpty(t, res.User.ID)
	require.Equal(t, "Alice User", res.User.Name)
	require.Equal(t, "alice@x.com", res.User.Email)

	// the projection must not leak the password or its hash
	b, err := json.Marshal(res.User)
	require.NoError(t, err)
	stored, err := f.users.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.NotContains(t, string(b), "secret1")
	require.NotContains(t, string(b), stored.PasswordHash)
	require.NotContains(t, string(b), "password")

	// stored hash is one-way
	require.NotEqual(t, "secret1", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.UserID)
	require.False(t, claims.IsAdmin)
}

func TestRegister_NormalizesEmail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	in := alice()
	in.Email = "  Alice@X.com "
	res, err := f.svc.Register(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "alice@x.com", res.User.Email)

	_, err = f.svc.Register(ctx, alice())
	require.ErrorIs(t, err, user.ErrAlreadyRegistered)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, alice())
	require.ErrorIs(t, err, user.ErrAlreadyRegistered)
}

func TestRegister_ConcurrentDuplicatesOneWins(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Register(ctx, alice())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, user.ErrAlreadyRegistered)
	}
	require.Equal(t, 1, ok)
}

// racyStore hides every existing user from GetByEmail, so the pre-check always
// passes and only the insert can detect the duplicate.
type racyStore struct {
	*memory.UsersRepo
}

func (racyStore) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, user.ErrNotFound
}

func TestRegister_InsertConflictMapsToAlreadyRegistered(t *testing.T) {
	f := newFixture(t, racyStore{memory.NewUsersRepo()})
	ctx := context.Background()

	_, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, alice())
	require.ErrorIs(t, err, user.ErrAlreadyRegistered)
}

func TestRegister_NeverAdmin(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Register(context.Background(), alice())
	require.NoError(t, err)

	u, err := f.users.GetByID(context.Background(), res.User.ID)
	require.NoError(t, err)
	require.False(t, u.IsAdmin)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name      string
		in        user.RegisterInput
		wantField string
	}{
		{"short name", user.RegisterInput{Name: "Al", Email: "a@x.com", Password: "secret1"}, "name"},
		{"bad email", user.RegisterInput{Name: "Alice User", Email: "not-an-email", Password: "secret1"}, "email"},
		{"short password", user.RegisterInput{Name: "Alice User", Email: "alice@x.com", Password: "abc"}, "password"},
		{"missing all", user.RegisterInput{}, "name"},
		{"long name", user.RegisterInput{Name: strings.Repeat("n", 51), Email: "alice@x.com", Password: "secret1"}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tt.in)

			var vErr *validation.Error
			require.True(t, errors.As(err, &vErr), "got %v", err)
			require.Equal(t, tt.wantField, vErr.Fields[0].Field)
		})
	}
}

func TestRegister_OverlongPasswordBytes(t *testing.T) {
	f := newFixture(t, nil)

	// 30 runes but 90 bytes: passes the rune-based max, bcrypt refuses it
	in := alice()
	in.Password = strings.Repeat("€", 30)

	_, err := f.svc.Register(context.Background(), in)

	var vErr *validation.Error
	require.True(t, errors.As(err, &vErr), "got %v", err)
	require.Equal(t, "password", vErr.Fields[0].Field)
}

type failingStore struct{ memory.UsersRepo }

func (*failingStore) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, errors.New("db down")
}

func TestRegister_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t, &failingStore{})

	_, err := f.svc.Register(context.Background(), alice())
	require.Error(t, err)
	require.NotErrorIs(t, err, user.ErrAlreadyRegistered)

	var vErr *validation.Error
	require.False(t, errors.As(err, &vErr))
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		tok, err := f.svc.Login(ctx, user.LoginInput{Email: "alice@x.com", Password: "secret1"})
		require.NoError(t, err)

		claims, err := f.tokens.Verify(tok)
		require.NoError(t, err)
		require.Equal(t, reg.User.ID, claims.UserID)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, errWrong := f.svc.Login(ctx, user.LoginInput{Email: "alice@x.com", Password: "wrong"})
		_, errUnknown := f.svc.Login(ctx, user.LoginInput{Email: "bob@x.com", Password: "secret1"})

		require.ErrorIs(t, errWrong, user.ErrInvalidCredentials)
		require.ErrorIs(t, errUnknown, user.ErrInvalidCredentials)
		require.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := f.svc.Login(ctx, user.LoginInput{Email: "alice", Password: ""})

		var vErr *validation.Error
		require.True(t, errors.As(err, &vErr))
	})
}

func TestLogin_CarriesAdminFlag(t *testing.T) {
	store := memory.NewUsersRepo()
	f := newFixture(t, store)
	ctx := context.Background()

	hash, err := security.NewHasher(bcrypt.MinCost, 1).Hash(ctx, "adminpass")
	require.NoError(t, err)
	_, err = store.Create(ctx, user.NewUser{Name: "Admin User", Email: "admin@x.com", PasswordHash: hash, IsAdmin: true})
	require.NoError(t, err)

	tok, err := f.svc.Login(ctx, user.LoginInput{Email: "admin@x.com", Password: "adminpass"})
	require.NoError(t, err)

	claims, err := f.tokens.Verify(tok)
	require.NoError(t, err)
	require.True(t, claims.IsAdmin)
}

func TestMe(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, alice())
	require.NoError(t, err)

	me, err := f.svc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Equal(t, reg.User, me)

	_, err = f.svc.Me(ctx, "missing")
	require.ErrorIs(t, err, user.ErrNotFound)
}
