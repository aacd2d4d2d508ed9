package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/promanagehq/promanage/internal/app/system/jwtauth"
	"github.com/promanagehq/promanage/internal/domain/models"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID   primitive.ObjectID
	Name string
	Role string
}

// AdminUser returns a TestUser with admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:   primitive.NewObjectID(),
		Name: "Test Admin",
		Role: models.RoleAdmin,
	}
}

// MemberUser returns a TestUser with member role.
func MemberUser() TestUser {
	return TestUser{
		ID:   primitive.NewObjectID(),
		Name: "Test Member",
		Role: models.RoleMember,
	}
}

// UserFor wraps an existing user record for request injection.
func UserFor(u models.User) TestUser {
	return TestUser{ID: u.ID, Name: u.Name, Role: u.Role}
}

// WithUser adds an identity to the request context for testing
// authenticated handlers. This bypasses the JWT middleware and injects
// the identity directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	identity := jwtauth.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	}
	return r.WithContext(jwtauth.WithIdentity(r.Context(), identity))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request with an identity in
// context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// NewJSONRequest creates an authenticated request carrying a JSON body.
func NewJSONRequest(method, target, body string, user TestUser) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
