package auth

import "time"

// AdminUser is a staff account allowed to manage certificates.
type AdminUser struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"size:254" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FirstName    string     `gorm:"size:150" json:"first_name"`
	LastName     string     `gorm:"size:150" json:"last_name"`
	IsStaff      bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool       `gorm:"not null" json:"is_superuser"`
	IsActive     bool       `gorm:"not null" json:"-"`
	TokenVersion int        `gorm:"not null" json:"-"`
	LastLogin    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

func (AdminUser) TableName() string { return "admin_users" }

// LoginAttempt tracks consecutive failed logins per username.
type LoginAttempt struct {
	ID            uint      `gorm:"primaryKey"`
	Username      string    `gorm:"size:150;uniqueIndex;not null"`
	IPAddress     string    `gorm:"size:64"`
	Failures      int       `gorm:"not null"`
	LastFailureAt time.Time `gorm:"not null"`
	LockedUntil   *time.Time
}

func (LoginAttempt) TableName() string { return "login_attempts" }

// Models lists the tables owned by this package for migration.
func Models() []interface{} {
	return []interface{}{&AdminUser{}, &LoginAttempt{}}
}
