package setup

import (
	"github.com/kiez-net/kiez/internal/config"
	"github.com/kiez-net/kiez/internal/handler"
	"github.com/kiez-net/kiez/internal/jwt"
	"github.com/kiez-net/kiez/internal/middleware"
	"github.com/kiez-net/kiez/internal/service"
	"github.com/kiez-net/kiez/internal/storage/pg"
)

// Dependencies holds all initialized dependencies.
type Dependencies struct {
	Storage        *pg.Storage
	Handler        *handler.Handler
	Jwt            jwt.JwtService
	AuthMiddleware *middleware.Auth
	Config         *config.Config
}

// SetupDependencies initializes everything the server needs.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	roles := service.NewRoles(storage)

	auth := service.NewAuth(storage, jwtService)
	community := service.NewCommunity(storage, roles, service.CommunityConfig{
		CommunitiesPerPage: cfg.Public.CommunitiesPerPage,
	})
	membership := service.NewMembership(storage, roles, service.MembershipConfig{
		MembersPerPage: cfg.Public.MembersPerPage,
	})
	post := service.NewPost(storage, roles, service.PostConfig{
		PostsPerPage:   cfg.Public.PostsPerPage,
		MaxPollOptions: cfg.Public.MaxPollOptions,
	})
	comments := service.NewComments(storage, roles)
	reports := service.NewReports(storage, roles, service.ReportConfig{
		ModLogPerPage: cfg.Public.ModLogPerPage,
		MaxReportLen:  cfg.Public.MaxReportLen,
	})
	modlog := service.NewModLog(storage, roles, service.ModLogConfig{
		ModLogPerPage: cfg.Public.ModLogPerPage,
	})
	notifications := service.NewNotifications(storage, cfg.Public.ModLogPerPage)

	h := handler.New(auth, community, membership, post, comments, reports, modlog, notifications, storage, cfg)

	return &Dependencies{
		Storage:        storage,
		Handler:        h,
		Jwt:            jwtService,
		AuthMiddleware: middleware.NewAuth(jwtService, cfg.Public.SecureCookies),
		Config:         cfg,
	}, nil
}
