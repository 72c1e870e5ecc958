package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/Selami79/rubber-ds/internal"
	userDatamodel "github.com/Selami79/rubber-ds/internal/core/datamodel/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

const testSecret = "test-secret-that-is-long-enough-for-hs256"

// Mock CredentialStore for testing
type mockCredentialStore struct {
	users         map[string]*userDatamodel.User
	nextID        int64
	markerTaken   bool
	returnError   bool
	errorToReturn error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{
		users:  map[string]*userDatamodel.User{},
		nextID: 1,
	}
}

func (m *mockCredentialStore) addUser(username, password string, role Role, active bool) *userDatamodel.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &userDatamodel.User{
		ID:           m.nextID,
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  username,
		Role:         string(role),
		IsActive:     active,
	}
	m.nextID++
	m.users[username] = u
	return u
}

func (m *mockCredentialStore) CountUsers(ctx context.Context) (int64, error) {
	if m.returnError {
		return 0, m.errorToReturn
	}
	return int64(len(m.users)), nil
}

func (m *mockCredentialStore) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	return m.users[username], nil
}

func (m *mockCredentialStore) CreateFirstAdmin(ctx context.Context, u *userDatamodel.User) error {
	if m.returnError {
		return m.errorToReturn
	}
	if m.markerTaken {
		return internal.ErrAlreadyInitialized
	}
	m.markerTaken = true
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	m.nextID++
	m.users[u.Username] = u
	return nil
}

func (m *mockCredentialStore) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		store    *mockCredentialStore
		tokenGen *JWTTokenGenerator
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = newMockCredentialStore()
		tokenGen = NewJWTTokenGenerator(testSecret, time.Hour)
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(store, tokenGen, bcrypt.MinCost, lg)
	})

	ginkgo.Describe("BootstrapFirstAdmin", func() {
		ginkgo.It("should create an admin when no users exist", func() {
			// Given
			dto := FirstUserDTO{Username: "ayse", Password: "s3cret-pass", DisplayName: "Ayse Yilmaz"}

			// When
			view, err := service.BootstrapFirstAdmin(ctx, dto)

			// Then
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(view.Role).To(gomega.Equal(RoleAdmin))
			gomega.Expect(view.Username).To(gomega.Equal("ayse"))
			gomega.Expect(view.IsActive).To(gomega.BeTrue())
			gomega.Expect(store.users["ayse"].PasswordHash).ToNot(gomega.Equal("s3cret-pass"))
		})

		ginkgo.It("should fail with AlreadyInitialized when a user exists, whatever the payload", func() {
			store.addUser("existing", "password1", RoleOperator, true)

			_, err := service.BootstrapFirstAdmin(ctx, FirstUserDTO{Username: "other", Password: "another-pass", DisplayName: "Other"})

			gomega.Expect(errors.Is(err, internal.ErrAlreadyInitialized)).To(gomega.BeTrue())
			gomega.Expect(store.users).To(gomega.HaveLen(1))
		})

		ginkgo.It("should fail with AlreadyInitialized when the store reports a lost race", func() {
			store.markerTaken = true

			_, err := service.BootstrapFirstAdmin(ctx, FirstUserDTO{Username: "late", Password: "late-pass-1", DisplayName: "Late"})

			gomega.Expect(errors.Is(err, internal.ErrAlreadyInitialized)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject an invalid payload before touching the store", func() {
			_, err := service.BootstrapFirstAdmin(ctx, FirstUserDTO{Username: "", Password: "short"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(http.StatusBadRequest))
			gomega.Expect(store.markerTaken).To(gomega.BeFalse())
		})

		ginkgo.It("should hide storage failures behind an internal error", func() {
			store.setError(errors.New("connection refused"))

			_, err := service.BootstrapFirstAdmin(ctx, FirstUserDTO{Username: "ayse", Password: "s3cret-pass", DisplayName: "Ayse"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
			gomega.Expect(appErr.GetDetailedMessage()).ToNot(gomega.ContainSubstring("connection refused"))
		})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.BeforeEach(func() {
			store.addUser("operator1", "correct_password", RoleOperator, true)
			store.addUser("retired", "correct_password", RoleOperator, false)
		})

		ginkgo.It("should return a token carrying user id and role", func() {
			result, err := service.Login(ctx, LoginDTO{Username: "operator1", Password: "correct_password"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(result.Token).ToNot(gomega.BeEmpty())
			gomega.Expect(result.User.Role).To(gomega.Equal(RoleOperator))
			gomega.Expect(result.ExpiresAt).To(gomega.BeTemporally("~", time.Now().Add(time.Hour), time.Minute))

			identity, err := service.Verify(result.Token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(identity.UserID).To(gomega.Equal(store.users["operator1"].ID))
			gomega.Expect(identity.Role).To(gomega.Equal(RoleOperator))
		})

		ginkgo.DescribeTable("should fail with InvalidCredentials",
			func(username, password string) {
				result, err := service.Login(ctx, LoginDTO{Username: username, Password: password})

				gomega.Expect(result).To(gomega.BeNil())
				gomega.Expect(errors.Is(err, internal.ErrInvalidCredentials)).To(gomega.BeTrue())
			},
			ginkgo.Entry("unknown user", "ghost", "correct_password"),
			ginkgo.Entry("wrong password", "operator1", "wrong_password"),
			ginkgo.Entry("inactive user", "retired", "correct_password"),
		)

		ginkgo.It("should default to a 30 day token", func() {
			gen := NewJWTTokenGenerator(testSecret, 0)
			gomega.Expect(gen.TokenTTL).To(gomega.Equal(30 * 24 * time.Hour))
		})
	})

	ginkgo.Describe("Verify", func() {
		ginkgo.It("should reject a token signed with another secret", func() {
			other := NewJWTTokenGenerator("another-secret-that-is-long-enough-too", time.Hour)
			token, _, err := other.GenerateToken(1, RoleAdmin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Verify(token)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject an expired token", func() {
			expired := NewJWTTokenGenerator(testSecret, -time.Minute)
			token, _, err := expired.GenerateToken(1, RoleAdmin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Verify(token)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject malformed input", func() {
			_, err := service.Verify("not-a-jwt")
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject an unsigned token", func() {
			claims := &Claims{
				UserID: 1,
				Role:   RoleAdmin,
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					Issuer:    "rubber-ds",
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Verify(token)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("should reject a token with an unknown role", func() {
			token, _, err := tokenGen.GenerateToken(7, Role("superuser"))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Verify(token)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})
	})
})

var _ = ginkgo.Describe("Policy", func() {
	ginkgo.DescribeTable("Permits",
		func(role Role, action Action, expected bool) {
			gomega.Expect(Permits(role, action)).To(gomega.Equal(expected))
		},
		ginkgo.Entry("admin edits recipes", RoleAdmin, ActionRecipeEdit, true),
		ginkgo.Entry("admin deletes recipes", RoleAdmin, ActionRecipeDelete, true),
		ginkgo.Entry("operator views recipes", RoleOperator, ActionRecipeView, true),
		ginkgo.Entry("operator cannot edit recipes", RoleOperator, ActionRecipeEdit, false),
		ginkgo.Entry("operator cannot delete recipes", RoleOperator, ActionRecipeDelete, false),
		ginkgo.Entry("operator cannot do other recipe operations", RoleOperator, ActionRecipeOther, false),
		ginkgo.Entry("quality control cannot view recipes", RoleQualityControl, ActionRecipeView, false),
		ginkgo.Entry("quality control records tests", RoleQualityControl, ActionRecordQuality, true),
		ginkgo.Entry("quality control cannot approve tests", RoleQualityControl, ActionApproveQuality, false),
		ginkgo.Entry("operator records scrap", RoleOperator, ActionRecordScrap, true),
		ginkgo.Entry("operator cannot read scrap reports", RoleOperator, ActionReviewScrap, false),
		ginkgo.Entry("unknown action is denied", RoleAdmin, Action("nope"), false),
	)

	ginkgo.It("should hand out copies of the allowed roles", func() {
		roles := AllowedRoles(ActionManageUsers)
		roles[0] = RoleOperator
		gomega.Expect(Permits(RoleAdmin, ActionManageUsers)).To(gomega.BeTrue())
	})

	ginkgo.It("should parse roles case-insensitively and reject unknown ones", func() {
		r, err := ParseRole(" Quality_Control ")
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(r).To(gomega.Equal(RoleQualityControl))

		_, err = ParseRole("manager")
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})

var _ = ginkgo.Describe("Gate", func() {
	var (
		gate     *Gate
		tokenGen *JWTTokenGenerator
		lg       *slog.Logger
	)

	ginkgo.BeforeEach(func() {
		lg = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		tokenGen = NewJWTTokenGenerator(testSecret, time.Hour)
		gate = NewGate(NewService(newMockCredentialStore(), tokenGen, bcrypt.MinCost, lg), lg)
	})

	tokenFor := func(id int64, role Role) string {
		token, _, err := tokenGen.GenerateToken(id, role)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return token
	}

	ginkgo.Describe("Authorize", func() {
		ginkgo.It("should forbid an operator on an admin-only operation", func() {
			_, err := gate.Authorize(tokenFor(2, RoleOperator), AllowedRoles(ActionManageUsers)...)
			gomega.Expect(errors.Is(err, internal.ErrForbidden)).To(gomega.BeTrue())
		})

		ginkgo.It("should allow an operator on an operator-permitted operation", func() {
			identity, err := gate.Authorize(tokenFor(2, RoleOperator), AllowedRoles(ActionManageRawMaterial)...)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(identity).To(gomega.Equal(Identity{UserID: 2, Role: RoleOperator}))
		})

		ginkgo.It("should return InvalidToken before checking roles", func() {
			_, err := gate.Authorize("garbage", RoleAdmin)
			gomega.Expect(errors.Is(err, internal.ErrInvalidToken)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Require", func() {
		var (
			called   bool
			received Identity
			handler  http.HandlerFunc
		)

		ginkgo.BeforeEach(func() {
			called = false
			handler = gate.Require(ActionManageUsers, func(w http.ResponseWriter, r *http.Request, identity Identity) {
				called = true
				received = identity
				w.WriteHeader(http.StatusNoContent)
			})
		})

		serve := func(authHeader string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if authHeader != "" {
				req.Header.Set("Authorization", authHeader)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		ginkgo.It("should return 401 without a bearer token", func() {
			rec := serve("")
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"error"`))
			gomega.Expect(called).To(gomega.BeFalse())
		})

		ginkgo.It("should return 403 for a role outside the policy", func() {
			rec := serve("Bearer " + tokenFor(5, RoleQualityControl))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(called).To(gomega.BeFalse())
		})

		ginkgo.It("should pass the verified identity to the handler", func() {
			rec := serve("Bearer " + tokenFor(1, RoleAdmin))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(called).To(gomega.BeTrue())
			gomega.Expect(received).To(gomega.Equal(Identity{UserID: 1, Role: RoleAdmin}))
		})
	})
})
