package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"coding_documenty/internal/api/middleware"
	"coding_documenty/internal/api/view"
	"coding_documenty/internal/app/service"
	"coding_documenty/internal/common"
	"coding_documenty/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	pages
	authService *service.AuthService
	baseURL     string
}

func NewAuthHandler(authService *service.AuthService, views *view.Renderer, sm *middleware.SessionManager, baseURL string) *AuthHandler {
	return &AuthHandler{pages: pages{views: views, sm: sm}, authService: authService, baseURL: baseURL}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
	r.Get("/signup", h.signupPage)
	r.Post("/signup", h.signup)
	r.Get("/forgot-password", h.forgotPage)
	r.Post("/forgot-password", h.forgot)
	r.Get("/reset-password/{token}", h.resetPage)
	r.Post("/reset-password/{token}", h.reset)
}

func (h *AuthHandler) loginPage(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil && sess.IsAdmin {
		http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "admin/login", view.Page{Title: "Admin Login"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/login")
		return
	}
	sess := middleware.SessionFromContext(r.Context())
	req := service.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if _, err := h.authService.Login(r.Context(), sess, req); err != nil {
		h.fail(w, r, err, "/admin/login")
		return
	}
	// The elevated session is already stored; only the cookie is left.
	if err := h.sm.SetCookie(w, sess); err != nil {
		h.fail(w, r, fmt.Errorf("issue session cookie: %w", err), "/admin/login")
		return
	}
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		if err := h.authService.Logout(r.Context(), sess); err != nil {
			log.Printf("ERROR: Logout Error: %v", err)
		}
	}
	h.sm.ClearCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}

func (h *AuthHandler) signupPage(w http.ResponseWriter, r *http.Request) {
	open, err := h.authService.BootstrapOpen(r.Context())
	if err != nil {
		h.fail(w, r, err, "/admin/login")
		return
	}
	if !open {
		h.sm.Redirect(w, r, model.FlashError, "Admin initialization already complete. Please log in.", "/admin/login")
		return
	}
	h.render(w, r, http.StatusOK, "admin/signup", view.Page{Title: "First Admin Signup"})
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/signup")
		return
	}
	_, err := h.authService.Signup(r.Context(), service.SignupRequest{
		SecretKey:       r.PostFormValue("secretKey"),
		FullName:        r.PostFormValue("fullName"),
		Email:           r.PostFormValue("email"),
		Username:        r.PostFormValue("username"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	})
	if err != nil {
		target := "/admin/signup"
		if open, _ := h.authService.BootstrapOpen(r.Context()); !open {
			target = "/admin/login"
		}
		h.fail(w, r, err, target)
		return
	}
	h.success(w, r, "Admin account created successfully! Please log in.", "/admin/login")
}

func (h *AuthHandler) forgotPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "admin/forgot_password", view.Page{Title: "Forgot Password"})
}

func (h *AuthHandler) forgot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/forgot-password")
		return
	}
	res, err := h.authService.ForgotPassword(r.Context(), r.PostFormValue("email"), h.baseURL)
	if err != nil {
		h.fail(w, r, err, "/admin/forgot-password")
		return
	}
	if res.MailErr != nil {
		h.sm.Redirect(w, r, model.FlashError, "The reset email could not be sent. Please try again later.", "/admin/forgot-password")
		return
	}
	h.sm.Redirect(w, r, model.FlashInfo, service.ForgotPasswordNotice, "/admin/forgot-password")
}

func (h *AuthHandler) resetPage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.authService.CheckResetToken(r.Context(), token); err != nil {
		h.fail(w, r, err, "/admin/forgot-password")
		return
	}
	h.render(w, r, http.StatusOK, "admin/reset_password", view.Page{Title: "Reset Password", Token: token})
}

func (h *AuthHandler) reset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, common.Userf(common.ErrValidation, "Invalid form submission."), "/admin/reset-password/"+token)
		return
	}
	err := h.authService.ResetPassword(r.Context(), token, r.PostFormValue("password"), r.PostFormValue("confirmPassword"))
	switch {
	case err == nil:
		h.success(w, r, "Success! Your password has been changed. Please log in.", "/admin/login")
	case errors.Is(err, common.ErrValidation):
		h.fail(w, r, err, "/admin/reset-password/"+token)
	default:
		h.fail(w, r, err, "/admin/forgot-password")
	}
}
