// internal/app/features/realtime/handler.go
package realtime

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/promanagehq/promanage/internal/app/realtime"
	userstore "github.com/promanagehq/promanage/internal/app/store/users"
	"github.com/promanagehq/promanage/internal/app/system/apiutil"
	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
)

// Handler upgrades authenticated requests to websocket sessions and
// hands them to the hub.
type Handler struct {
	Hub   *realtime.Hub
	JWT   *jwtauth.Manager
	Users *userstore.Store
	Log   *zap.Logger

	upgrader websocket.Upgrader
}

// NewHandler creates a new realtime Handler.
func NewHandler(hub *realtime.Hub, jwtMgr *jwtauth.Manager, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Hub:   hub,
		JWT:   jwtMgr,
		Users: users,
		Log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from the SPA origin; access control is
			// the token's job, not the Origin header's.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. The token travels in the Authorization header
// or a ?token= query parameter; the handshake is rejected with 401
// before the upgrade when it is missing or invalid.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	token := jwtauth.TokenFromRequest(r)
	if token == "" {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	userID, _, err := h.JWT.Verify(token)
	if err != nil {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	user, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		apiutil.Error(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := realtime.NewClient(h.Hub, conn, uuid.NewString(), user.ID.Hex(), user.Name, h.Log)
	h.Hub.Register(client)
	client.SendConnected(user.ID.Hex(), user.Name, user.Email)
	client.Start()

	h.Log.Info("websocket connected",
		zap.String("user", user.ID.Hex()),
		zap.String("name", user.Name))
}
