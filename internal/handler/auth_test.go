package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockguard/portal-server-go/internal/flash"
	"github.com/rockguard/portal-server-go/internal/middleware"
	"github.com/rockguard/portal-server-go/internal/repository"
	"github.com/rockguard/portal-server-go/internal/service"
)

// the min bcrypt cost keeps the suite fast
const testBcryptCost = 4

type testServer struct {
	router   *chi.Mux
	accounts repository.AccountRepository
	sessions *service.SessionService
	flashes  *flash.Store
}

// newTestServer wires the routes the way the server binary does.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	accountRepo := repository.NewAccountRepository()
	sessionRepo := repository.NewSessionRepository()
	flashStore := flash.NewStore(false)

	accountService := service.NewAccountService(accountRepo, testBcryptCost)
	sessionService := service.NewSessionService(
		accountRepo, sessionRepo, "test-secret", 24*time.Hour, 30*24*time.Hour,
	)

	renderer, err := NewRenderer()
	require.NoError(t, err)

	authHandler := NewAuthHandler(accountService, sessionService, flashStore, renderer, false)
	pagesHandler := NewPagesHandler(flashStore, renderer)
	apiHandler := NewAPIHandler()

	sessionMiddleware := middleware.NewSessionMiddleware(sessionService, flashStore, false)

	r := chi.NewRouter()
	r.Use(sessionMiddleware.LoadUser)

	r.Get("/", pagesHandler.Home)
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)
	r.Get("/signup", authHandler.SignupPage)
	r.Post("/signup", authHandler.Signup)
	r.Get("/logout", authHandler.Logout)
	r.Get("/forgot-password", authHandler.ForgotPasswordPage)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Get("/auth/google", authHandler.SocialStub("Google", "/login", "authentication"))
	r.Get("/terms", pagesHandler.Terms)
	r.Get("/privacy", pagesHandler.Privacy)

	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware.RequireAuth)
		r.Get("/dashboard", pagesHandler.Dashboard)
		r.Get("/api/user", apiHandler.User)
	})

	r.NotFound(pagesHandler.NotFound)

	return &testServer{
		router:   r,
		accounts: accountRepo,
		sessions: sessionService,
		flashes:  flashStore,
	}
}

func (ts *testServer) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func validSignupForm() url.Values {
	return url.Values{
		"firstName":       {"Ada"},
		"lastName":        {"Lovelace"},
		"email":           {"ada@example.com"},
		"company":         {"Analytical Mining Co"},
		"phone":           {"+1-555-0100"},
		"mineType":        {"open-pit"},
		"password":        {"longenough"},
		"confirmPassword": {"longenough"},
		"terms":           {"on"},
		"newsletter":      {"on"},
	}
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignupFlow(t *testing.T) {
	t.Run("valid submission redirects to login with success flash", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.postForm("/signup", validSignupForm())
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))

		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)

		page := ts.get("/login", flashCookie)
		assert.Equal(t, http.StatusOK, page.Code)
		assert.Contains(t, page.Body.String(), "Account created successfully! Please log in.")

		account, err := ts.accounts.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.True(t, account.Newsletter)
	})

	t.Run("short password re-renders with error and prefill, passwords withheld", func(t *testing.T) {
		ts := newTestServer(t)

		form := validSignupForm()
		form.Set("password", "abc")
		form.Set("confirmPassword", "abc")

		rec := ts.postForm("/signup", form)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/signup", rec.Header().Get("Location"))

		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)

		page := ts.get("/signup", flashCookie)
		body := page.Body.String()
		assert.Contains(t, body, "Password must be at least 8 characters long")
		assert.Contains(t, body, "Ada")
		assert.Contains(t, body, "ada@example.com")
		assert.Contains(t, body, "Analytical Mining Co")
		assert.NotContains(t, body, `value="abc"`)

		// no account was created
		account, err := ts.accounts.FindByEmail(context.Background(), "ada@example.com")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("mismatched but complete submission reports mismatch", func(t *testing.T) {
		ts := newTestServer(t)

		form := validSignupForm()
		form.Set("confirmPassword", "different123")

		rec := ts.postForm("/signup", form)
		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)

		page := ts.get("/signup", flashCookie)
		assert.Contains(t, page.Body.String(), "Passwords do not match")
		assert.NotContains(t, page.Body.String(), "Please fill in all required fields")
	})

	t.Run("duplicate email is rejected on second signup", func(t *testing.T) {
		ts := newTestServer(t)

		first := ts.postForm("/signup", validSignupForm())
		require.Equal(t, "/login", first.Header().Get("Location"))

		second := ts.postForm("/signup", validSignupForm())
		assert.Equal(t, "/signup", second.Header().Get("Location"))

		flashCookie := cookieByName(second, flash.CookieName)
		require.NotNil(t, flashCookie)
		page := ts.get("/signup", flashCookie)
		assert.Contains(t, page.Body.String(), "An account with this email already exists")
	})

	t.Run("flash does not replay on refresh", func(t *testing.T) {
		ts := newTestServer(t)

		form := validSignupForm()
		form.Set("terms", "")
		rec := ts.postForm("/signup", form)
		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)

		first := ts.get("/signup", flashCookie)
		assert.Contains(t, first.Body.String(), "Please agree to the Terms of Service and Privacy Policy")

		refresh := ts.get("/signup", flashCookie)
		assert.NotContains(t, refresh.Body.String(), "Please agree to the Terms of Service and Privacy Policy")
	})
}

func TestLoginFlow(t *testing.T) {
	signup := func(t *testing.T, ts *testServer) {
		t.Helper()
		rec := ts.postForm("/signup", validSignupForm())
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	loginForm := func(email, password string, remember bool) url.Values {
		form := url.Values{
			"email":    {email},
			"password": {password},
		}
		if remember {
			form.Set("remember", "on")
		}
		return form
	}

	t.Run("valid login establishes a session and lands on the dashboard", func(t *testing.T) {
		ts := newTestServer(t)
		signup(t, ts)

		rec := ts.postForm("/login", loginForm("ada@example.com", "longenough", false))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		sessionCookie := cookieByName(rec, middleware.SessionCookie)
		require.NotNil(t, sessionCookie)
		assert.Equal(t, int((24 * time.Hour).Seconds()), sessionCookie.MaxAge)

		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)

		dash := ts.get("/dashboard", sessionCookie, flashCookie)
		assert.Equal(t, http.StatusOK, dash.Code)
		body := dash.Body.String()
		assert.Contains(t, body, "Login successful! Welcome back.")
		assert.Contains(t, body, "Ada")
		assert.Contains(t, body, "Analytical Mining Co")
	})

	t.Run("remember extends the cookie to thirty days", func(t *testing.T) {
		ts := newTestServer(t)
		signup(t, ts)

		rec := ts.postForm("/login", loginForm("ada@example.com", "longenough", true))
		sessionCookie := cookieByName(rec, middleware.SessionCookie)
		require.NotNil(t, sessionCookie)
		assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), sessionCookie.MaxAge)
	})

	t.Run("unknown email and wrong password render identical errors", func(t *testing.T) {
		ts := newTestServer(t)
		signup(t, ts)

		recUnknown := ts.postForm("/login", loginForm("nobody@example.com", "longenough", false))
		recWrongPw := ts.postForm("/login", loginForm("ada@example.com", "wrongpassword", false))

		for _, rec := range []*httptest.ResponseRecorder{recUnknown, recWrongPw} {
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
			assert.Nil(t, cookieByName(rec, middleware.SessionCookie))
		}

		entryUnknown, ok := ts.flashes.Drain(cookieByName(recUnknown, flash.CookieName).Value)
		require.True(t, ok)
		entryWrongPw, ok := ts.flashes.Drain(cookieByName(recWrongPw, flash.CookieName).Value)
		require.True(t, ok)

		assert.Equal(t, entryUnknown.Message, entryWrongPw.Message)
		assert.Equal(t, "Invalid email or password", entryWrongPw.Message)
	})

	t.Run("failed login prefills email and remember but never the password", func(t *testing.T) {
		ts := newTestServer(t)
		signup(t, ts)

		rec := ts.postForm("/login", loginForm("ada@example.com", "wrongpassword", true))
		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)

		entry, ok := ts.flashes.Drain(flashCookie.Value)
		require.True(t, ok)
		assert.Equal(t, "ada@example.com", entry.Fields["email"])
		assert.Equal(t, "on", entry.Fields["remember"])
		_, hasPassword := entry.Fields["password"]
		assert.False(t, hasPassword)
	})

	t.Run("authenticated visitor is bounced from the login page", func(t *testing.T) {
		ts := newTestServer(t)
		signup(t, ts)

		rec := ts.postForm("/login", loginForm("ada@example.com", "longenough", false))
		sessionCookie := cookieByName(rec, middleware.SessionCookie)
		require.NotNil(t, sessionCookie)

		page := ts.get("/login", sessionCookie)
		assert.Equal(t, http.StatusFound, page.Code)
		assert.Equal(t, "/dashboard", page.Header().Get("Location"))
	})
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	require.Equal(t, http.StatusSeeOther, ts.postForm("/signup", validSignupForm()).Code)
	rec := ts.postForm("/login", url.Values{
		"email":    {"ada@example.com"},
		"password": {"longenough"},
	})
	sessionCookie := cookieByName(rec, middleware.SessionCookie)
	require.NotNil(t, sessionCookie)

	out := ts.get("/logout", sessionCookie)
	assert.Equal(t, http.StatusFound, out.Code)
	assert.Equal(t, "/", out.Header().Get("Location"))

	cleared := cookieByName(out, middleware.SessionCookie)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	// the old token no longer opens the protected area
	dash := ts.get("/dashboard", sessionCookie)
	assert.Equal(t, http.StatusFound, dash.Code)
	assert.Equal(t, "/login", dash.Header().Get("Location"))
}

func TestProtectedRoutes(t *testing.T) {
	t.Run("dashboard redirects anonymous visitors to login with flash", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.get("/dashboard")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))

		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)

		page := ts.get("/login", flashCookie)
		assert.Contains(t, page.Body.String(), "Please log in to access this page")
	})

	t.Run("api user rejects anonymous clients with JSON 401", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.get("/api/user")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "NOT_AUTHENTICATED", resp.Code)
		assert.Equal(t, "Please log in to access this page", resp.Error)
	})

	t.Run("api user returns the projection without secrets", func(t *testing.T) {
		ts := newTestServer(t)

		require.Equal(t, http.StatusSeeOther, ts.postForm("/signup", validSignupForm()).Code)
		rec := ts.postForm("/login", url.Values{
			"email":    {"ada@example.com"},
			"password": {"longenough"},
		})
		sessionCookie := cookieByName(rec, middleware.SessionCookie)
		require.NotNil(t, sessionCookie)

		resp := ts.get("/api/user", sessionCookie)
		assert.Equal(t, http.StatusOK, resp.Code)

		var payload struct {
			User struct {
				ID        string `json:"id"`
				Email     string `json:"email"`
				FirstName string `json:"firstName"`
				LastName  string `json:"lastName"`
				Company   string `json:"company"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
		assert.NotEmpty(t, payload.User.ID)
		assert.Equal(t, "ada@example.com", payload.User.Email)
		assert.Equal(t, "Ada", payload.User.FirstName)
		assert.NotContains(t, resp.Body.String(), "passwordHash")
		assert.NotContains(t, resp.Body.String(), "longenough")
	})
}

func TestMiscPages(t *testing.T) {
	t.Run("home renders for anonymous visitors", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.get("/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "RockGuard AI")
	})

	t.Run("unknown path renders the 404 page", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.get("/does-not-exist")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "404")
	})

	t.Run("forgot password always reports success", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.postForm("/forgot-password", url.Values{"email": {"nobody@example.com"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/forgot-password", rec.Header().Get("Location"))

		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)
		page := ts.get("/forgot-password", flashCookie)
		assert.Contains(t, page.Body.String(), "a password reset link has been sent")
	})

	t.Run("social auth stub flashes an info notice", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.get("/auth/google")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))

		flashCookie := cookieByName(rec, flash.CookieName)
		require.NotNil(t, flashCookie)
		page := ts.get("/login", flashCookie)
		assert.Contains(t, page.Body.String(), "Google authentication coming soon!")
	})
}

func TestTruthy(t *testing.T) {
	assert.True(t, truthy("on"))
	assert.True(t, truthy("true"))
	assert.True(t, truthy("1"))
	assert.False(t, truthy(""))
	assert.False(t, truthy("off"))
	assert.False(t, truthy("false"))
	assert.False(t, truthy("yes"))
}
