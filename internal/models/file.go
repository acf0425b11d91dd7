package models

import "github.com/google/uuid"

// File is the metadata row for one stored object. MediaType and
// OriginalFilename stay empty until content is uploaded; the upload
// patches them onto the row only after the byte stream is fully written.
type File struct {
	BaseModel
	OwnerID          uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;index"`
	FolderID         uuid.UUID `json:"folderID" gorm:"type:uuid;not null;index"`
	Title            string    `json:"title" gorm:"type:varchar(255);not null"`
	AccessLevel      int       `json:"accessLevel" gorm:"not null;default:0"`
	MediaType        *string   `json:"mediaType,omitempty" gorm:"type:varchar(255)"`
	OriginalFilename *string   `json:"originalFilename,omitempty" gorm:"type:varchar(255)"`
	Description      *string   `json:"description,omitempty" gorm:"type:text"`
	CreatedBy        uuid.UUID `json:"createdBy" gorm:"type:uuid;not null"`
	UpdatedBy        uuid.UUID `json:"updatedBy" gorm:"type:uuid;not null"`
	Active           bool      `json:"active" gorm:"not null;default:true"`
}
