package file

import (
	"time"
)

// Status is the coarse edit lock on a file. While a file is in Progress only
// the assigned member may submit content; everyone else is read-only.
type Status string

const (
	StatusUnassigned Status = "Unassigned"
	StatusAssigned   Status = "Assigned"
	StatusProgress   Status = "Progress"
	StatusSaved      Status = "Saved"
)

// transitions is the fixed edge set of the status machine. Progress has no
// edge back to Unassigned; unassigning a file being edited is rejected.
var transitions = map[Status][]Status{
	StatusUnassigned: {StatusAssigned},
	StatusAssigned:   {StatusProgress, StatusUnassigned},
	StatusProgress:   {StatusSaved},
	StatusSaved:      {StatusProgress},
}

// CanTransition reports whether the status machine allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type File struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"fileName"`
	Content    string    `json:"content"`
	ProjectID  uint64    `json:"projectId"`
	AssignedTo *uint64   `json:"assignedTo"` // nil iff Status is Unassigned
	Status     Status    `json:"status" gorm:"default:Unassigned"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CanEdit reports whether a member may submit content changes. Mirrored
// client-side for UI gating; enforced here authoritatively.
func (f *File) CanEdit(memberID uint64) bool {
	if f.AssignedTo == nil || *f.AssignedTo != memberID {
		return false
	}
	switch f.Status {
	case StatusAssigned, StatusProgress, StatusSaved:
		return true
	}
	return false
}

// Version is an immutable snapshot written on every successful save.
type Version struct {
	ID        uint64    `json:"id"`
	FileID    uint64    `json:"fileId"`
	Name      string    `json:"fileName"`
	Content   string    `json:"content"`
	SavedBy   uint64    `json:"savedBy"`
	CreatedAt time.Time `json:"created_at"`
}
