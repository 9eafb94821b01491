package realtime

// Member mirrors the member shape of the project detail response.
type Member struct {
	ID       uint64 `json:"id"`
	UserName string `json:"userName"`
}

// FileInfo mirrors the file shape of the project detail response.
type FileInfo struct {
	ID         uint64  `json:"id"`
	Name       string  `json:"fileName"`
	Content    string  `json:"content"`
	ProjectID  uint64  `json:"projectId"`
	AssignedTo *uint64 `json:"assignedTo"`
	Status     string  `json:"status"`
}

// ProjectSnapshot is the authoritative project state fetched after any
// realtime signal.
type ProjectSnapshot struct {
	ID      uint64     `json:"id"`
	Name    string     `json:"name"`
	OwnerID uint64     `json:"ownerId"`
	Members []Member   `json:"members"`
	Files   []FileInfo `json:"files"`
}

// Editable mirrors the server-side permission derivation for UI gating: the
// assigned member may submit changes while the file is Assigned, Progress or
// Saved; everyone else is read-only. The server stays authoritative.
func (f FileInfo) Editable(memberID uint64) bool {
	if f.AssignedTo == nil || *f.AssignedTo != memberID {
		return false
	}
	switch f.Status {
	case "Assigned", "Progress", "Saved":
		return true
	}
	return false
}
