package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/session"
	"github.com/trezcool/coursework/core/user"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}

	errUnauthorized = core.NewWorkflowError(core.KindNotAuthenticated, "user not authenticated")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name string       `json:"name,omitempty"`
	Role session.Role `json:"role"`
}

func GetUserClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name: usr.Name,
		Role: usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// contextIdentity rebuilds the caller's session identity from the validated JWT.
func contextIdentity(ctx echo.Context) (*session.Identity, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok && claims.Role.IsValid() {
			return &session.Identity{ID: claims.Subject, Name: claims.Name, Role: claims.Role, Token: token.Raw}, nil
		}
	}
	return nil, errUnauthorized
}

type authAPI struct {
	service *user.Service
}

func registerAuthAPI(g *echo.Group, svc *user.Service) {
	api := authAPI{service: svc}
	g.POST("/auth/login", api.login)
}

func (api *authAPI) login(ctx echo.Context) error {
	var creds user.LoginCredentials
	if err := ctx.Bind(&creds); err != nil {
		return err
	}
	usr, err := api.service.Authenticate(ctx.Request().Context(), creds)
	if err != nil {
		return err
	}
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, usr.Identity(token))
}
