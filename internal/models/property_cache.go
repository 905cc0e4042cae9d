package models

import (
	"time"

	"github.com/GregMSThompson/agent-dashboard/internal/properties"
)

// PropertyCache is the persisted property list stored in Firestore.
type PropertyCache struct {
	AccountsAndProperties []properties.Record `firestore:"accounts_and_properties" json:"accounts_and_properties"`
	Source                string              `firestore:"source,omitempty" json:"source,omitempty"`
	UpdatedAt             time.Time           `firestore:"updatedAt" json:"updatedAt"`
}
