package project

import (
	"collaborative-code-editor/internal/file"
	"time"
)

type Project struct {
	ID        uint64      `json:"id"`
	Name      string      `json:"name"`
	OwnerID   uint64      `json:"ownerId"` // immutable once created
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
	Files     []file.File `json:"files" gorm:"foreignKey:ProjectID"`
}

// Membership links a user to a project. The owner always has a row.
type Membership struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"projectId" gorm:"uniqueIndex:idx_project_user"`
	UserID    uint64    `json:"userId" gorm:"uniqueIndex:idx_project_user"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberDTO is the member shape project detail responses carry.
type MemberDTO struct {
	ID       uint64 `json:"id"`
	UserName string `json:"userName"`
}

// DetailResponse is the authoritative project snapshot clients reconcile
// against after any realtime signal.
type DetailResponse struct {
	ID      uint64      `json:"id"`
	Name    string      `json:"name"`
	OwnerID uint64      `json:"ownerId"`
	Members []MemberDTO `json:"members"`
	Files   []file.File `json:"files"`
}
