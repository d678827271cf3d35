// Package app assembles use cases, handlers and middleware into the HTTP
// API. Backends are chosen by the caller.
package app

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"

	"github.com/projectnexus/nexus/internal/application/activity"
	"github.com/projectnexus/nexus/internal/application/auth"
	"github.com/projectnexus/nexus/internal/application/effects"
	"github.com/projectnexus/nexus/internal/application/notification"
	"github.com/projectnexus/nexus/internal/application/ports"
	"github.com/projectnexus/nexus/internal/application/project"
	"github.com/projectnexus/nexus/internal/application/version"
	httprouter "github.com/projectnexus/nexus/internal/infrastructure/http"
	"github.com/projectnexus/nexus/internal/infrastructure/http/handlers"
	"github.com/projectnexus/nexus/internal/infrastructure/http/middleware"
	"github.com/projectnexus/nexus/internal/infrastructure/metrics"
)

// Issuer signs both access tokens and share links.
type Issuer interface {
	ports.TokenIssuer
	ports.ShareTokenIssuer
}

// Backends are the adapters the API runs on.
type Backends struct {
	Users         ports.UserRepository
	Projects      ports.ProjectRepository
	Versions      ports.VersionRepository
	Activities    ports.ActivityRepository
	Notifications ports.NotificationRepository
	Tx            ports.TxManager
	Storage       ports.ObjectStorage
	Enqueuer      ports.TaskEnqueuer
	Issuer        Issuer
	Hasher        ports.PasswordHasher
	Lockout       ports.LoginLockoutStore
	Stream        handlers.StreamServer
	Metrics       *metrics.Collector
	LimiterStore  limiter.Store
	Checks        map[string]handlers.Pinger
}

// Options tune the API. Zero values fall back to package defaults.
type Options struct {
	ShareBaseURL   string
	AccessExpiry   int64
	DownloadURLTTL time.Duration
	UploadURLTTL   time.Duration
	UploadTimeout  time.Duration
	EffectTimeout  time.Duration
	MaxUploadBytes int64
	IPRate         string
	UserRate       string
	CORSOrigins    []string
	Development    bool
	ExposeMetrics  bool
}

// NewHandler wires every operation behind the chi router.
func NewHandler(b Backends, o Options, log zerolog.Logger) (http.Handler, error) {
	var m ports.Metrics = ports.NoopMetrics{}
	if b.Metrics != nil {
		m = b.Metrics
	}
	recorder := activity.NewRecorder(b.Activities, b.Enqueuer, log)
	dispatcher := notification.NewDispatcher(b.Enqueuer)
	fx := effects.NewRunner(dispatcher, recorder, b.Storage, log,
		effects.WithTimeout(o.EffectTimeout),
		effects.WithMetrics(m),
	)

	createVersion := version.NewCreateVersion(b.Tx, fx)
	projectUC := handlers.ProjectUseCases{
		Create:        project.NewCreateProject(b.Projects, fx),
		List:          project.NewListProjects(b.Projects),
		Get:           project.NewGetProject(b.Projects),
		Update:        project.NewUpdateProject(b.Tx, fx),
		Delete:        project.NewDeleteProject(b.Tx, fx, log),
		AddUser:       project.NewAddCollaborator(b.Tx, b.Users, fx),
		RemoveUser:    project.NewRemoveCollaborator(b.Tx, fx),
		RequestAccess: project.NewRequestAccess(b.Tx, b.Users, fx),
		ListRequests:  project.NewListAccessRequests(b.Projects),
		HandleRequest: project.NewHandleAccessRequest(b.Tx, fx),
		GenerateShare: project.NewGenerateShareLink(b.Projects, b.Issuer, o.ShareBaseURL),
		ResolveShare:  project.NewResolveShareLink(b.Projects, b.Issuer),
	}
	versionUC := handlers.VersionUseCases{
		List:      version.NewListVersions(b.Projects, b.Versions),
		Get:       version.NewGetVersion(b.Projects, b.Versions, b.Storage, o.DownloadURLTTL),
		Create:    createVersion,
		Upload:    version.NewUploadVersion(b.Projects, b.Storage, createVersion, o.UploadTimeout),
		UploadURL: version.NewUploadURL(b.Projects, b.Storage, o.UploadURLTTL),
		Status:    version.NewUpdateVersionStatus(b.Tx, fx),
		Delete:    version.NewDeleteVersion(b.Tx, fx),
		Revert:    version.NewRevertToVersion(b.Tx, fx),
	}

	var authRecorder handlers.AuthRecorder
	if b.Metrics != nil {
		authRecorder = b.Metrics
	}
	authHandler := handlers.NewAuthHandler(
		auth.NewRegisterUser(b.Users, b.Hasher),
		auth.NewLogin(b.Users, b.Hasher, b.Issuer, b.Lockout, o.AccessExpiry),
		authRecorder,
		log,
	)

	ipLimit, err := middleware.NewIPRateLimiter(o.IPRate, b.LimiterStore)
	if err != nil {
		return nil, err
	}
	userLimit, err := middleware.NewUserRateLimiter(o.UserRate, b.LimiterStore)
	if err != nil {
		return nil, err
	}

	cfg := httprouter.RouterConfig{
		AuthHandler:     authHandler,
		HealthHandler:   handlers.NewHealthHandler(b.Checks),
		UsersHandler:    handlers.NewUsersHandler(b.Users, auth.NewUpdateProfile(b.Users), auth.NewChangePassword(b.Users, b.Hasher), log),
		ProjectsHandler: handlers.NewProjectsHandler(projectUC, log),
		VersionsHandler: handlers.NewVersionsHandler(versionUC, o.MaxUploadBytes, log),
		ActivitiesHandler: handlers.NewActivitiesHandler(
			activity.NewList(b.Projects, b.Activities),
			activity.NewTimeline(b.Projects, b.Activities),
			log,
		),
		NotificationsHandler: handlers.NewNotificationsHandler(
			notification.NewList(b.Notifications),
			notification.NewMarkRead(b.Notifications),
			notification.NewMarkAllRead(b.Notifications),
			b.Stream,
			o.CORSOrigins,
			log,
		),
		RequireJWT:    middleware.NewAuthValidator(b.Issuer).Handler,
		Log:           log,
		Secure:        middleware.NewSecure(middleware.SecureOptions(o.Development)),
		CORS:          middleware.CORS(o.CORSOrigins, nil, nil),
		IPRateLimit:   ipLimit,
		UserRateLimit: userLimit,
	}
	if b.Metrics != nil {
		cfg.Observer = b.Metrics
		if o.ExposeMetrics {
			cfg.Metrics = b.Metrics.Handler()
		}
	}
	return httprouter.NewRouter(cfg), nil
}
