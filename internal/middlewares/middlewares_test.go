package middlewares

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elderlink/internal/models"
	"elderlink/internal/services"
	"elderlink/internal/testutil"
	"elderlink/internal/utils"
)

type authFixture struct {
	auth   *services.AuthService
	issuer *utils.TokenIssuer
	redis  *testutil.Redis
	users  *testutil.UserStore
}

func newAuth(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		issuer: utils.NewTokenIssuer("access", "refresh"),
		redis:  testutil.NewRedis(),
		users:  testutil.NewUserStore(),
	}
	f.auth = services.NewAuthService(f.users, testutil.NewSessionStore(), f.redis, f.issuer)
	return f
}

// signIn seeds an account with the role and issues its tokens.
func (f *authFixture) signIn(t *testing.T, role models.Role) (*models.User, *utils.TokenPair) {
	t.Helper()
	u := f.users.Seed(string(role), string(role)+"-"+uuid.NewString()[:8]+"@example.com", role)
	pair, err := f.issuer.Issue(u.ID, string(role))
	require.NoError(t, err)
	return u, pair
}

func (f *authFixture) bearer(t *testing.T, role models.Role) map[string]string {
	t.Helper()
	_, pair := f.signIn(t, role)
	return testutil.BearerHeader(pair.AccessToken)
}

func whoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c), "role": CurrentRole(c)})
}

func TestAuthenticate(t *testing.T) {
	f := newAuth(t)
	user, pair := f.signIn(t, models.RoleDoctor)

	r := testutil.NewRouter()
	r.GET("/me", Authenticate(f.auth), whoami)

	w := testutil.MakeRequest(t, r, http.MethodGet, "/me", nil, testutil.BearerHeader(pair.AccessToken))
	testutil.AssertStatus(t, w, http.StatusOK)
	body := testutil.AssertJSON(t, w)
	assert.Equal(t, user.ID.String(), body["id"])
	assert.Equal(t, "doctor", body["role"])

	unknown, err := f.issuer.Issue(uuid.New(), string(models.RoleDoctor))
	require.NoError(t, err)

	cases := map[string]map[string]string{
		"missing header":  nil,
		"wrong scheme":    {"Authorization": "Basic abc"},
		"garbage token":   testutil.BearerHeader("not-a-jwt"),
		"refresh token":   testutil.BearerHeader(pair.RefreshToken),
		"unknown account": testutil.BearerHeader(unknown.AccessToken),
	}
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			w := testutil.MakeRequest(t, r, http.MethodGet, "/me", nil, headers)
			testutil.AssertStatus(t, w, http.StatusUnauthorized)
			assert.Equal(t, "error", testutil.AssertJSON(t, w)["status"])
		})
	}

	require.NoError(t, f.redis.Blacklist(context.Background(), pair.AccessTokenID, time.Minute))
	w = testutil.MakeRequest(t, r, http.MethodGet, "/me", nil, testutil.BearerHeader(pair.AccessToken))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestAuthenticate_RechecksAccount(t *testing.T) {
	f := newAuth(t)
	ctx := context.Background()
	r := testutil.NewRouter()
	r.GET("/admin", Authenticate(f.auth), RequireAdmin(), whoami)

	disabled, disabledPair := f.signIn(t, models.RoleAdmin)
	demoted, demotedPair := f.signIn(t, models.RoleAdmin)
	for _, pair := range []*utils.TokenPair{disabledPair, demotedPair} {
		w := testutil.MakeRequest(t, r, http.MethodGet, "/admin", nil, testutil.BearerHeader(pair.AccessToken))
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	disabled.Status = models.UserStatusDisabled
	require.NoError(t, f.users.Update(ctx, disabled))
	demoted.Role = models.RoleFamily
	require.NoError(t, f.users.Update(ctx, demoted))

	for name, pair := range map[string]*utils.TokenPair{"disabled": disabledPair, "demoted": demotedPair} {
		t.Run(name, func(t *testing.T) {
			w := testutil.MakeRequest(t, r, http.MethodGet, "/admin", nil, testutil.BearerHeader(pair.AccessToken))
			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	f := newAuth(t)
	r := testutil.NewRouter()
	r.GET("/clinic", Authenticate(f.auth), RequireRoles(models.RoleDoctor, models.RolePharmacist), whoami)
	r.GET("/admin", Authenticate(f.auth), RequireAdmin(), whoami)
	r.GET("/anonymous", RequireAdmin(), whoami)

	testutil.AssertStatus(t, testutil.MakeRequest(t, r, http.MethodGet, "/clinic", nil, f.bearer(t, models.RolePharmacist)), http.StatusOK)
	testutil.AssertStatus(t, testutil.MakeRequest(t, r, http.MethodGet, "/clinic", nil, f.bearer(t, models.RoleFamily)), http.StatusForbidden)
	testutil.AssertStatus(t, testutil.MakeRequest(t, r, http.MethodGet, "/admin", nil, f.bearer(t, models.RoleAdmin)), http.StatusOK)
	testutil.AssertStatus(t, testutil.MakeRequest(t, r, http.MethodGet, "/admin", nil, f.bearer(t, models.RoleDoctor)), http.StatusForbidden)
	testutil.AssertStatus(t, testutil.MakeRequest(t, r, http.MethodGet, "/anonymous", nil, nil), http.StatusUnauthorized)
}

type planMap map[uuid.UUID]*models.Plan

func (p planMap) ActivePlan(_ context.Context, userID uuid.UUID) (*models.Plan, error) {
	return p[userID], nil
}

func TestRequireActiveSubscription(t *testing.T) {
	f := newAuth(t)
	subscribed, subscribedPair := f.signIn(t, models.RoleFamily)
	_, lapsedPair := f.signIn(t, models.RoleFamily)
	_, doctorPair := f.signIn(t, models.RoleDoctor)
	basic, _ := models.FindPlan(models.PlanBasic)
	plans := planMap{subscribed.ID: &basic}

	build := func(required bool) *gin.Engine {
		r := testutil.NewRouter()
		r.POST("/book", Authenticate(f.auth), RequireActiveSubscription(plans, required), whoami)
		return r
	}
	book := func(r *gin.Engine, pair *utils.TokenPair) int {
		return testutil.MakeRequest(t, r, http.MethodPost, "/book", nil, testutil.BearerHeader(pair.AccessToken)).Code
	}

	r := build(true)
	assert.Equal(t, http.StatusOK, book(r, subscribedPair))
	assert.Equal(t, http.StatusPaymentRequired, book(r, lapsedPair))
	assert.Equal(t, http.StatusOK, book(r, doctorPair))

	r = build(false)
	assert.Equal(t, http.StatusOK, book(r, lapsedPair))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	r := testutil.NewRouter()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := testutil.MakeRequest(t, r, http.MethodGet, "/ping", nil, nil)
	testutil.AssertStatus(t, w, http.StatusNoContent)
}
