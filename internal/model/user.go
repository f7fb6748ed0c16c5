package model

// User is a stored authentication identity for the host
type User struct {
	BaseModel
	Identifier   string `gorm:"type:varchar(36);uniqueIndex;not null" json:"identifier"`
	Username     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null;default:''" json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
