package models

import "github.com/google/uuid"

// Folder is an ownership-scoped metadata record. A user's root folder
// references itself as parent; every other folder's parent must belong to
// the same owner, enforced in the handlers rather than by a foreign key.
type Folder struct {
	BaseModel
	OwnerID        uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;index"`
	ParentFolderID uuid.UUID `json:"parentFolderID" gorm:"type:uuid;not null;index"`
	Title          string    `json:"title" gorm:"type:varchar(255);not null"`
	Description    *string   `json:"description,omitempty" gorm:"type:text"`
	CreatedBy      uuid.UUID `json:"createdBy" gorm:"type:uuid;not null"`
	UpdatedBy      uuid.UUID `json:"updatedBy" gorm:"type:uuid;not null"`
	Active         bool      `json:"active" gorm:"not null;default:true"`

	Files []File `json:"-" gorm:"foreignKey:FolderID"`
}

func (Folder) TableName() string {
	return "file_folders"
}
