package constants

// DocumentStatus is the canonical status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending   DocumentStatus = "Pending"   // stored, not yet analyzed
	StatusCompleted DocumentStatus = "Completed" // analysis JSON attached
	StatusError     DocumentStatus = "Error"     // terminal failure for this document
)
