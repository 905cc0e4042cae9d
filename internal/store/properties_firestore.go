package store

import (
	"context"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/internal/models"
	"github.com/GregMSThompson/agent-dashboard/internal/properties"
)

const (
	propertyCacheCollection = "dashboard_cache"
	propertyCacheDoc        = "ga_properties"
)

type propertyFirestoreStore struct {
	client *firestore.Client
}

func NewPropertyFirestoreStore(client *firestore.Client) *propertyFirestoreStore {
	return &propertyFirestoreStore{client: client}
}

func (s *propertyFirestoreStore) doc() *firestore.DocumentRef {
	return s.client.Collection(propertyCacheCollection).Doc(propertyCacheDoc)
}

// Load returns the raw document data so the same normalizer handles documents
// written by older producers. The version is the document update time.
func (s *propertyFirestoreStore) Load(ctx context.Context) (any, string, error) {
	snap, err := s.doc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, "", errs.NewNotFoundError("property cache not found")
		}
		return nil, "", errs.NewDatabaseError("read", "failed to get property cache", err)
	}
	return snap.Data(), strconv.FormatInt(snap.UpdateTime.UnixNano(), 10), nil
}

func (s *propertyFirestoreStore) Save(ctx context.Context, records []properties.Record) error {
	if records == nil {
		records = []properties.Record{}
	}
	doc := models.PropertyCache{
		AccountsAndProperties: records,
		Source:                "webhook",
		UpdatedAt:             time.Now(),
	}
	if _, err := s.doc().Set(ctx, doc); err != nil {
		return errs.NewDatabaseError("write", "failed to write property cache", err)
	}
	return nil
}
