package api

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/marloweh/trailbook/internal/db"
	"github.com/marloweh/trailbook/internal/images"
	"github.com/marloweh/trailbook/internal/mail"
	"github.com/marloweh/trailbook/internal/payments"
	"github.com/marloweh/trailbook/internal/services"
)

const authCookieName = "jwt"

// Options carries everything a Handler needs from the composition root.
// Error verbosity and cookie security are decided here, once, instead of
// being read from ambient process state per request.
type Options struct {
	JWTSecret    string
	JWTTTL       time.Duration
	CookieSecure bool
	Mailer       mail.Mailer
	Checkout     payments.CheckoutClient
	Images       *images.Processor
	Logger       zerolog.Logger
}

type Handler struct {
	database     *gorm.DB
	users        *db.UserRepository
	auth         *services.AuthService
	reviews      *services.ReviewService
	tourStats    *services.TourStatsService
	geo          *services.GeoService
	mailer       mail.Mailer
	checkout     payments.CheckoutClient
	images       *images.Processor
	logger       zerolog.Logger
	validate     *validator.Validate
	jwtSecret    []byte
	jwtTTL       time.Duration
	cookieSecure bool
}

func NewHandler(database *gorm.DB, options Options) *Handler {
	users := db.NewUserRepository(database)
	return &Handler{
		database:     database,
		users:        users,
		auth:         services.NewAuthService(users),
		reviews:      services.NewReviewService(database),
		tourStats:    services.NewTourStatsService(database),
		geo:          services.NewGeoService(database),
		mailer:       options.Mailer,
		checkout:     options.Checkout,
		images:       options.Images,
		logger:       options.Logger,
		validate:     validator.New(),
		jwtSecret:    []byte(options.JWTSecret),
		jwtTTL:       options.JWTTTL,
		cookieSecure: options.CookieSecure,
	}
}

type signupInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordInput struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type updatePasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type createUserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
}
