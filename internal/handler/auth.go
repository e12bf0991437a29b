package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rockguard/portal-server-go/internal/audit"
	apperrors "github.com/rockguard/portal-server-go/internal/errors"
	"github.com/rockguard/portal-server-go/internal/flash"
	"github.com/rockguard/portal-server-go/internal/middleware"
	"github.com/rockguard/portal-server-go/internal/service"
)

type AuthHandler struct {
	accounts *service.AccountService
	sessions *service.SessionService
	flashes  *flash.Store
	renderer *Renderer
	secure   bool
}

func NewAuthHandler(
	accounts *service.AccountService,
	sessions *service.SessionService,
	flashes *flash.Store,
	renderer *Renderer,
	secure bool,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		flashes:  flashes,
		renderer: renderer,
		secure:   secure,
	}
}

// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	entry, ok := h.flashes.DrainHTTP(r)
	data := pageData{Title: "Login - RockGuard AI"}.withFlash(entry, ok)
	h.renderer.Render(w, http.StatusOK, "login.html", data)
}

// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.failLogin(w, r, apperrors.InvalidCredentials(), "", "")
		return
	}

	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	rememberRaw := r.PostFormValue("remember")

	user, err := h.sessions.Login(r.Context(), email, password)
	if err != nil {
		appErr, _ := apperrors.AsAppError(err)
		if appErr.Code == apperrors.ErrCodeInternal {
			log.Error().Err(err).Msg("login failed")
		}
		h.failLogin(w, r, appErr, email, rememberRaw)
		return
	}

	remember := truthy(rememberRaw)
	token, _, err := h.sessions.Issue(r.Context(), user, remember)
	if err != nil {
		log.Error().Err(err).Msg("session issue failed")
		appErr, _ := apperrors.AsAppError(err)
		h.failLogin(w, r, appErr, email, rememberRaw)
		return
	}

	middleware.SetSessionCookie(w, token, h.sessions.TTL(remember), h.secure)

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginSuccess,
		UserID:  user.ID,
		Details: map[string]interface{}{"remember": remember},
	})

	h.flashes.PushHTTP(w, r, flash.Entry{
		Kind:    flash.KindSuccess,
		Message: "Login successful! Welcome back.",
	})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// failLogin flashes the error and the non-secret values back onto the login
// form. The password is never echoed.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError, email, remember string) {
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginFailure,
		Details: map[string]interface{}{"code": string(appErr.Code)},
	})

	h.flashes.PushHTTP(w, r, flash.Entry{
		Kind:    flash.KindError,
		Message: appErr.Message,
		Fields: map[string]string{
			"email":    email,
			"remember": remember,
		},
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GET /signup
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	entry, ok := h.flashes.DrainHTTP(r)
	data := pageData{Title: "Sign Up - RockGuard AI"}.withFlash(entry, ok)
	h.renderer.Render(w, http.StatusOK, "signup.html", data)
}

// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.failSignup(w, r, apperrors.IncompleteSubmission(), nil)
		return
	}

	params := service.RegisterParams{
		FirstName:       r.PostFormValue("firstName"),
		LastName:        r.PostFormValue("lastName"),
		Email:           r.PostFormValue("email"),
		Company:         r.PostFormValue("company"),
		Phone:           r.PostFormValue("phone"),
		MineType:        r.PostFormValue("mineType"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		TermsAccepted:   truthy(r.PostFormValue("terms")),
		Newsletter:      truthy(r.PostFormValue("newsletter")),
	}

	account, err := h.accounts.Register(r.Context(), params)
	if err != nil {
		appErr, _ := apperrors.AsAppError(err)
		if appErr.Code == apperrors.ErrCodeInternal {
			log.Error().Err(err).Msg("signup failed")
		}
		h.failSignup(w, r, appErr, signupPrefill(r))
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventSignupSuccess,
		UserID: account.ID,
	})

	h.flashes.PushHTTP(w, r, flash.Entry{
		Kind:    flash.KindSuccess,
		Message: "Account created successfully! Please log in.",
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) failSignup(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError, fields map[string]string) {
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventSignupFailure,
		Details: map[string]interface{}{"code": string(appErr.Code)},
	})

	h.flashes.PushHTTP(w, r, flash.Entry{
		Kind:    flash.KindError,
		Message: appErr.Message,
		Fields:  fields,
	})
	http.Redirect(w, r, "/signup", http.StatusSeeOther)
}

// signupPrefill collects every submitted signup value except the two
// password fields, which must never travel back to the client.
func signupPrefill(r *http.Request) map[string]string {
	return map[string]string{
		"firstName":  r.PostFormValue("firstName"),
		"lastName":   r.PostFormValue("lastName"),
		"email":      r.PostFormValue("email"),
		"company":    r.PostFormValue("company"),
		"phone":      r.PostFormValue("phone"),
		"mineType":   r.PostFormValue("mineType"),
		"terms":      r.PostFormValue("terms"),
		"newsletter": r.PostFormValue("newsletter"),
	}
}

// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		h.sessions.Destroy(r.Context(), cookie.Value)
	}
	middleware.ClearSessionCookie(w)

	event := audit.Event{Type: audit.EventLogout}
	if user != nil {
		event.UserID = user.ID
	}
	audit.LogFromRequest(r, event)

	http.Redirect(w, r, "/", http.StatusFound)
}

// GET /forgot-password
func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.flashes.DrainHTTP(r)
	data := pageData{Title: "Forgot Password - RockGuard AI"}.withFlash(entry, ok)
	h.renderer.Render(w, http.StatusOK, "forgot-password.html", data)
}

// POST /forgot-password
//
// Reset delivery is stubbed: the response is the same whether or not the
// email is registered, and no mail is sent.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.flashes.PushHTTP(w, r, flash.Entry{
		Kind:    flash.KindSuccess,
		Message: "If an account with that email exists, a password reset link has been sent.",
	})
	http.Redirect(w, r, "/forgot-password", http.StatusSeeOther)
}

// SocialStub returns a handler for the identity-provider placeholders. They
// only flash a notice and bounce back to the originating form.
func (h *AuthHandler) SocialStub(provider, redirectTo, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.flashes.PushHTTP(w, r, flash.Entry{
			Kind:    flash.KindInfo,
			Message: provider + " " + action + " coming soon!",
		})
		http.Redirect(w, r, redirectTo, http.StatusFound)
	}
}
