package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the lifecycle state of an account
type UserStatus = string

const (
	// UserStatusInactive is a signed up account awaiting email confirmation
	UserStatusInactive UserStatus = "inactive"
	// UserStatusActive is a confirmed account that can authenticate
	UserStatusActive UserStatus = "active"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	Status         UserStatus `bun:"status,notnull" json:"status,omitempty"`
	AccessToken    *string    `bun:"access_token,nullzero" json:"access_token,omitempty"`
	LastLoginIP    string     `bun:"last_login_ip" json:"last_login_ip,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus normalizes records created before the status column existed
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// IsActive reports whether the account may authenticate
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// SetAccessToken attaches a single-use access token to the record
func (u *User) SetAccessToken(token string) *User {
	u.AccessToken = &token
	return u
}

// ClearAccessToken removes the access token once it has been consumed
func (u *User) ClearAccessToken() *User {
	u.AccessToken = nil
	return u
}

// Setting is one key-value entry of the settings store. Values are stored as
// strings; boolean flags use "1"/"true" style truthy values.
type Setting struct {
	bun.BaseModel `bun:"table:settings,alias:cfg"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Key           string     `bun:"key,notnull,unique" json:"key,omitempty"`
	Value         string     `bun:"value" json:"value,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Settings keys owned by the admin surface and read by this workflow
const (
	// SettingRegistrationOpen gates the signup action
	SettingRegistrationOpen = "frontend.registration"
	// SettingEmailConfirm requires double opt-in email confirmation on signup
	SettingEmailConfirm = "frontend.email-confirm"
	// SettingThemeSkin is the admin layout skin class
	SettingThemeSkin = "backend.theme-skin"
	// SettingLayoutFixed toggles the fixed layout class
	SettingLayoutFixed = "backend.layout-fixed"
	// SettingLayoutBoxed toggles the boxed layout class
	SettingLayoutBoxed = "backend.layout-boxed"
	// SettingLayoutCollapsedSidebar collapses the sidebar
	SettingLayoutCollapsedSidebar = "backend.layout-collapsed-sidebar"
	// SettingLayoutMiniSidebar enables the mini sidebar
	SettingLayoutMiniSidebar = "backend.layout-mini-sidebar"
)
