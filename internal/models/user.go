package models

import "github.com/google/uuid"

type User struct {
	BaseModel
	Username     string    `json:"username" gorm:"type:varchar(100);uniqueIndex;not null"`
	EmailAddress string    `json:"emailAddress" gorm:"type:varchar(255);not null"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	RootFolderID uuid.UUID `json:"rootFolderID" gorm:"type:uuid;not null"`
	CreatedBy    uuid.UUID `json:"createdBy" gorm:"type:uuid"`
	UpdatedBy    uuid.UUID `json:"updatedBy" gorm:"type:uuid"`
	// Active is false until the account is activated. Whether inactive
	// accounts may log in is a deployment policy (AuthConfig.RequireActive).
	Active bool `json:"active" gorm:"not null;default:false"`

	Folders []Folder `json:"-" gorm:"foreignKey:OwnerID"`
	Files   []File   `json:"-" gorm:"foreignKey:OwnerID"`
}
