package httpapi

import (
	"net/http"
	"time"

	tubeAuth "github.com/MrEthical07/tubeAuth"
)

type userView struct {
	ID         string    `json:"_id"`
	UserName   string    `json:"userName"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar,omitempty"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newUserView(u *tubeAuth.User) userView {
	return userView{
		ID:         u.ID,
		UserName:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type sessionView struct {
	User         userView `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

type registerRequest struct {
	FullName   string `json:"fullName" validate:"required,max=128"`
	Email      string `json:"email" validate:"required,email,max=254"`
	UserName   string `json:"userName" validate:"required,max=64,excludes=@"`
	Password   string `json:"password" validate:"required"`
	Avatar     string `json:"avatar" validate:"omitempty,url"`
	CoverImage string `json:"coverImage" validate:"omitempty,url"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.badRequest(w, r, "register", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, "register", err)
		return
	}

	u, err := h.engine.Register(r.Context(), tubeAuth.RegisterRequest{
		Username:   req.UserName,
		Email:      req.Email,
		FullName:   req.FullName,
		Password:   req.Password,
		Avatar:     req.Avatar,
		CoverImage: req.CoverImage,
	})
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}
	writeSuccess(w, http.StatusCreated, newUserView(u), "User registered successfully.")
}

type loginRequest struct {
	UserName string `json:"userName" validate:"required_without=Email"`
	Email    string `json:"email" validate:"required_without=UserName"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.badRequest(w, r, "login", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, "login", err)
		return
	}

	identifier := req.UserName
	if identifier == "" {
		identifier = req.Email
	}
	pair, err := h.engine.Login(r.Context(), identifier, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}

	h.setTokenCookies(w, pair)
	writeSuccess(w, http.StatusOK, sessionView{
		User:         newUserView(&pair.User),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refresh takes the token from the refresh cookie, or from the body when the
// cookie is absent.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if c, err := r.Cookie(h.engine.CookieConfig().RefreshName); err == nil {
		presented = c.Value
	}
	if presented == "" && r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeBody(w, r, &req); err != nil {
			h.badRequest(w, r, "refresh", err)
			return
		}
		presented = req.RefreshToken
	}

	pair, err := h.engine.Refresh(r.Context(), presented)
	if err != nil {
		if status, _ := mapError(err); status == http.StatusUnauthorized {
			h.clearTokenCookies(w)
		}
		h.fail(w, r, "refresh", err)
		return
	}

	h.setTokenCookies(w, pair)
	writeSuccess(w, http.StatusOK, sessionView{
		User:         newUserView(&pair.User),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	id, _ := tubeAuth.IdentityFromContext(r.Context())
	if err := h.engine.Logout(r.Context(), id.UserID); err != nil {
		h.fail(w, r, "logout", err)
		return
	}

	h.clearTokenCookies(w)
	writeSuccess(w, http.StatusOK, struct{}{}, "User logged out successfully")
}
