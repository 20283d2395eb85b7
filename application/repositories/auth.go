package repositories

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"lugares-client/application/async"
	"lugares-client/domain/entities"
	"lugares-client/infrastructure/acl"
	"lugares-client/infrastructure/observability"
	"lugares-client/infrastructure/remote"
	"lugares-client/infrastructure/session"
	tokens "lugares-client/pkg/auth"
	appErrors "lugares-client/pkg/errors"
)

// AuthResult is the structured outcome of an auth mutation. Failures are
// data, not errors: the future always resolves.
type AuthResult struct {
	Success bool
	Message string
	User    *entities.User
}

// RegisterInput carries the registration form. StudentID is optional.
type RegisterInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=6"`
	FullName  string `validate:"required"`
	StudentID string
}

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// AuthRepository owns authentication: login, registration, the current
// user, and the session lifecycle. The session store is the single
// authority for "logged in"; this facade keeps it and the transport's
// bearer token in step.
type AuthRepository struct {
	client     remote.Client
	normalizer *acl.Normalizer
	sessions   *session.Store
	validate   *validator.Validate
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuthRepository builds the facade and rehydrates any persisted session
// so the transport carries the stored credential from the first request.
func NewAuthRepository(
	client remote.Client,
	normalizer *acl.Normalizer,
	sessions *session.Store,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *AuthRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &AuthRepository{
		client:     client,
		normalizer: normalizer,
		sessions:   sessions,
		validate:   validator.New(),
		logger:     logger,
		metrics:    metrics,
	}
	if restored, ok := sessions.Load(); ok {
		client.SetToken(restored.Token)
	}
	return r
}

// Login authenticates against the backend. Known-bad input is rejected
// before any network call.
func (r *AuthRepository) Login(ctx context.Context, email, password string) *async.Future[AuthResult] {
	email = strings.TrimSpace(email)
	if err := r.validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return async.Completed(AuthResult{Success: false, Message: credentialMessage(err)})
	}

	fut := async.New[AuthResult]()
	go func() {
		env, err := r.client.Post(ctx, "/auth/login", remote.LoginRequest{Email: email, Password: password})
		if err != nil {
			r.metrics.RemoteFailure("auth")
			r.logger.Warn("login request failed", zap.String("email", email), zap.Error(err))
			fut.Complete(AuthResult{Success: false, Message: connectionMessage(err)})
			return
		}
		fut.Complete(r.completeAuth(env, email, "login successful"))
	}()
	return fut
}

// Register creates an account. New accounts default to the visitor role.
func (r *AuthRepository) Register(ctx context.Context, input RegisterInput) *async.Future[AuthResult] {
	input.Email = strings.TrimSpace(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := r.validate.Struct(input); err != nil {
		return async.Completed(AuthResult{Success: false, Message: credentialMessage(err)})
	}

	req := remote.RegisterRequest{
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
		UserType: strings.ToUpper(string(entities.UserVisitor)),
	}
	if id := strings.TrimSpace(input.StudentID); id != "" {
		req.StudentID = id
	}

	fut := async.New[AuthResult]()
	go func() {
		env, err := r.client.Post(ctx, "/auth/register", req)
		if err != nil {
			r.metrics.RemoteFailure("auth")
			r.logger.Warn("register request failed", zap.String("email", input.Email), zap.Error(err))
			fut.Complete(AuthResult{Success: false, Message: connectionMessage(err)})
			return
		}
		fut.Complete(r.completeAuth(env, input.Email, "registration successful"))
	}()
	return fut
}

// ValidateEmail asks the backend whether an address is free to register.
// Any failure reports false; the register call remains the authority.
func (r *AuthRepository) ValidateEmail(ctx context.Context, email string) *async.Future[bool] {
	email = strings.TrimSpace(email)
	if email == "" {
		return async.Completed(false)
	}

	fut := async.New[bool]()
	go func() {
		env, err := r.client.Get(ctx, "/auth/validate-email", url.Values{"email": {email}})
		if err != nil {
			r.logger.Debug("email validation failed", zap.Error(err))
			fut.Complete(false)
			return
		}
		data, err := env.Payload()
		if err != nil {
			fut.Complete(false)
			return
		}
		obj, ok := acl.DecodeObject(data)
		if !ok {
			fut.Complete(false)
			return
		}
		available, isBool := obj["available"].(bool)
		fut.Complete(isBool && available)
	}()
	return fut
}

// GetCurrentUser fetches and refreshes the profile behind the stored
// token. A rejected token clears the session and resolves nil; a transport
// failure resolves the cached profile instead of seed data — there is no
// meaningful seed user.
func (r *AuthRepository) GetCurrentUser(ctx context.Context) *async.Future[*entities.User] {
	if !r.sessions.IsLoggedIn() {
		return async.Completed[*entities.User](nil)
	}
	if tokens.IsExpired(r.sessions.Token(), time.Now()) {
		r.logger.Info("stored token expired, clearing session")
		r.clearSession()
		return async.Completed[*entities.User](nil)
	}

	fut := async.New[*entities.User]()
	go func() {
		env, err := r.client.Get(ctx, "/auth/me", nil)
		if err != nil {
			if appErrors.IsUnauthorized(err) {
				r.logger.Warn("token rejected by backend, clearing session")
				r.clearSession()
				fut.Complete(nil)
				return
			}
			r.metrics.RemoteFailure("auth")
			r.logger.Warn("fetching current user failed, serving cached profile", zap.Error(err))
			fut.Complete(r.sessions.Current())
			return
		}

		data, err := env.Payload()
		if err != nil {
			// The backend answered but would not serve the profile:
			// the token is no longer usable.
			r.logger.Warn("current user rejected, clearing session", zap.Error(err))
			r.clearSession()
			fut.Complete(nil)
			return
		}

		obj, ok := acl.DecodeObject(data)
		if !ok {
			fut.Complete(r.sessions.Current())
			return
		}
		user := r.normalizer.ToUser(obj)
		r.sessions.SetUser(&user)
		fut.Complete(&user)
	}()
	return fut
}

// Logout clears the session locally. The backend holds no server-side
// session state to tear down.
func (r *AuthRepository) Logout() {
	r.logger.Info("logging out")
	r.clearSession()
}

// IsLoggedIn is an O(1) in-memory read.
func (r *AuthRepository) IsLoggedIn() bool {
	return r.sessions.IsLoggedIn()
}

// CurrentUser returns the cached profile without any I/O.
func (r *AuthRepository) CurrentUser() *entities.User {
	return r.sessions.Current()
}

// IsVisitor reports whether the caller holds no elevated role. An
// anonymous caller is a visitor.
func (r *AuthRepository) IsVisitor() bool {
	u := r.sessions.Current()
	return u == nil || u.Type == entities.UserVisitor
}

// IsStudent reports whether the caller is an authenticated student.
func (r *AuthRepository) IsStudent() bool {
	u := r.sessions.Current()
	return u != nil && u.Type == entities.UserStudent
}

// IsAdmin reports whether the caller is an authenticated admin.
func (r *AuthRepository) IsAdmin() bool {
	u := r.sessions.Current()
	return u != nil && u.Type == entities.UserAdmin
}

// completeAuth unwraps a login/register envelope and, on success, persists
// the session and installs the token on the transport.
func (r *AuthRepository) completeAuth(env *remote.Envelope, email, successMessage string) AuthResult {
	data, err := env.Payload()
	if err != nil {
		msg := appErrors.Message(err)
		r.logger.Warn("auth rejected", zap.String("email", email), zap.String("reason", msg))
		return AuthResult{Success: false, Message: msg}
	}

	obj, ok := acl.DecodeObject(data)
	if !ok {
		return AuthResult{Success: false, Message: "invalid response from server"}
	}
	token, _ := obj["token"].(string)
	userRaw, hasUser := obj["user"].(map[string]any)
	if token == "" || !hasUser {
		r.logger.Warn("auth response missing token or user", zap.String("email", email))
		return AuthResult{Success: false, Message: "invalid response from server"}
	}

	user := r.normalizer.ToUser(userRaw)
	if err := r.sessions.Save(token, &user); err != nil {
		// The session still lives in memory; persistence will be
		// retried on the next save.
		r.logger.Error("persisting session failed", zap.Error(err))
	}
	r.client.SetToken(token)

	r.logger.Info("authenticated", zap.String("email", email))
	return AuthResult{Success: true, Message: successMessage, User: &user}
}

func (r *AuthRepository) clearSession() {
	r.sessions.Clear()
	r.client.ClearToken()
}

// credentialMessage maps validator failures onto the user-facing messages
// the forms show.
func credentialMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "invalid input"
	}
	first := errs[0]
	switch {
	case first.Tag() == "required":
		return "all fields are required"
	case first.Field() == "Email":
		return "a valid email address is required"
	case first.Field() == "Password":
		return "password must be at least 6 characters"
	default:
		return "invalid input"
	}
}

// connectionMessage maps transport failures onto the messages shown to the
// user. The distinction callers care about is timeout versus unreachable.
func connectionMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "request timed out, check your connection"
	case appErrors.IsTransport(err):
		return "cannot reach the server, check your connection"
	default:
		return appErrors.Message(err)
	}
}
