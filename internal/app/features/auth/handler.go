// internal/app/features/auth/handler.go
package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	userstore "github.com/promanagehq/promanage/internal/app/store/users"
	"github.com/promanagehq/promanage/internal/app/system/apiutil"
	"github.com/promanagehq/promanage/internal/app/system/authz"
	"github.com/promanagehq/promanage/internal/app/system/htmlsanitize"
	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
	"github.com/promanagehq/promanage/internal/domain/models"
)

const minPasswordLen = 6

// Handler owns the register/login/me endpoints.
type Handler struct {
	Users *userstore.Store
	JWT   *jwtauth.Manager
	Log   *zap.Logger
}

// NewHandler creates a new auth Handler.
func NewHandler(users *userstore.Store, jwtMgr *jwtauth.Manager, logger *zap.Logger) *Handler {
	return &Handler{Users: users, JWT: jwtMgr, Log: logger}
}

type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse carries a fresh token plus the public user fields.
type sessionResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func publicUser(u *models.User) *userResponse {
	return &userResponse{
		ID:         u.ID.Hex(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		Avatar:     u.Avatar,
		CreatedAt:  u.CreatedAt,
	}
}

// HandleRegister handles POST /api/auth/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.BadRequest(w, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(htmlsanitize.PlainText(req.Name))
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		apiutil.BadRequest(w, "Name and email are required")
		return
	}
	if len(req.Password) < minPasswordLen {
		apiutil.BadRequest(w, "Password must be at least 6 characters")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		apiutil.ServerError(w, "Registration failed")
		return
	}

	user, err := h.Users.Create(r.Context(), models.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   string(hash),
		Role:       req.Role,
		Department: htmlsanitize.PlainText(req.Department),
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			apiutil.BadRequest(w, "Email already registered")
			return
		}
		h.Log.Error("create user", zap.Error(err))
		apiutil.ServerError(w, "Registration failed")
		return
	}

	h.respondWithToken(w, &user, http.StatusCreated)
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiutil.BadRequest(w, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		apiutil.BadRequest(w, "Email and password are required")
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		apiutil.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		apiutil.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondWithToken(w, user, http.StatusOK)
}

// HandleMe handles GET /api/auth/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	user, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		apiutil.NotFound(w, "User not found")
		return
	}
	apiutil.OK(w, http.StatusOK, publicUser(user))
}

func (h *Handler) respondWithToken(w http.ResponseWriter, user *models.User, status int) {
	token, err := h.JWT.Sign(user.ID, user.Name, user.Role)
	if err != nil {
		h.Log.Error("sign token", zap.Error(err))
		apiutil.ServerError(w, "Authentication failed")
		return
	}
	apiutil.OK(w, status, sessionResponse{Token: token, User: publicUser(user)})
}
