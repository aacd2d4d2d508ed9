// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	activitiesfeature "github.com/promanagehq/promanage/internal/app/features/activities"
	authfeature "github.com/promanagehq/promanage/internal/app/features/auth"
	healthfeature "github.com/promanagehq/promanage/internal/app/features/health"
	projectsfeature "github.com/promanagehq/promanage/internal/app/features/projects"
	realtimefeature "github.com/promanagehq/promanage/internal/app/features/realtime"
	tasksfeature "github.com/promanagehq/promanage/internal/app/features/tasks"
	"github.com/promanagehq/promanage/internal/app/realtime"
	"github.com/promanagehq/promanage/internal/app/store/activity"
	projectstore "github.com/promanagehq/promanage/internal/app/store/projects"
	taskstore "github.com/promanagehq/promanage/internal/app/store/tasks"
	userstore "github.com/promanagehq/promanage/internal/app/store/users"
	"github.com/promanagehq/promanage/internal/app/system/activitylog"
	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
	"github.com/promanagehq/promanage/internal/app/system/tracker"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. It creates the shared hub,
// stores, and tracker, then mounts the API feature routers plus the
// websocket endpoint and health check.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.ProManageMongoDatabase

	jwtMgr := jwtauth.New(appCfg.JWTSecret, appCfg.JWTExpiry)

	blobs, err := buildStorage(appCfg, logger)
	if err != nil {
		logger.Error("storage init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(db)
	projects := projectstore.New(db)
	tasks := taskstore.New(db)
	activities := activity.New(db)

	hub := realtime.NewHub(logger)
	recorder := activitylog.New(activities, logger)
	trk := tracker.New(hub, recorder, blobs, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.ProManageMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Locally stored attachments are served straight off disk.
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// Websocket endpoint; auth happens in the handshake.
	rtHandler := realtimefeature.NewHandler(hub, jwtMgr, users, logger)
	r.Mount("/ws", realtimefeature.Routes(rtHandler))

	// REST API
	r.Route("/api", func(api chi.Router) {
		authHandler := authfeature.NewHandler(users, jwtMgr, logger)
		api.Mount("/auth", authfeature.Routes(authHandler, jwtMgr))

		projectsHandler := projectsfeature.NewHandler(projects, tasks, users, trk, logger)
		api.Mount("/projects", projectsfeature.Routes(projectsHandler, jwtMgr))

		tasksHandler := tasksfeature.NewHandler(tasks, projects, blobs, trk, logger)
		api.Mount("/tasks", tasksfeature.Routes(tasksHandler, jwtMgr))

		activitiesHandler := activitiesfeature.NewHandler(activities, projects, logger)
		api.Mount("/activities", activitiesfeature.Routes(activitiesHandler, jwtMgr))
	})

	return r, nil
}
