package models

// User represents a registered account. The password field always holds a
// bcrypt hash, never the plaintext.
type User struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	Username string  `json:"username" gorm:"type:varchar(100);not null"`
	Email    string  `json:"email" gorm:"uniqueIndex;type:varchar(100);not null"`
	Password string  `gorm:"type:varchar(200);not null"` // No json tag for security
	Videos   []Video `json:"-" gorm:"foreignKey:UserID"`
}
