package services

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/internal/metrics"
	"github.com/GregMSThompson/agent-dashboard/internal/properties"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

// Property list status messages.
const (
	MsgRefreshOK          = "OK"
	MsgNotJSON            = "Webhook did not return JSON."
	MsgNoProperties       = "No properties found in response."
	MsgWriteFailed        = "Could not write properties cache. Check permissions."
	MsgCacheEmpty         = "Property file exists but is empty or invalid."
	MsgSourceUnconfigured = "Properties webhook is not configured."
)

const propertyCacheSize = 16

// propertyStore persists the normalized property list. Load returns
// errs.NotFoundError when nothing has been stored yet.
type propertyStore interface {
	Load(ctx context.Context) (raw any, version string, err error)
	Save(ctx context.Context, records []properties.Record) error
}

// propertySource fetches the upstream property list.
type propertySource interface {
	FetchProperties(ctx context.Context) (int, []byte, error)
}

type propertyService struct {
	store  propertyStore
	source propertySource
	cache  *lru.Cache[string, []properties.Record]
	group  singleflight.Group
}

func NewPropertyService(store propertyStore, source propertySource) *propertyService {
	cache, _ := lru.New[string, []properties.Record](propertyCacheSize)
	return &propertyService{store: store, source: source, cache: cache}
}

// List returns the cached property list, refreshing it from the source when
// asked to or when nothing is cached yet.
func (s *propertyService) List(ctx context.Context, refresh bool) (dto.PropertyList, error) {
	if refresh {
		return s.Refresh(ctx)
	}

	raw, version, err := s.store.Load(ctx)
	if err != nil {
		var nfe *errs.NotFoundError
		if errors.As(err, &nfe) {
			logger.FromContext(ctx).Info("property cache missing, refreshing")
			return s.Refresh(ctx)
		}
		return dto.PropertyList{Records: []properties.Record{}}, err
	}

	records := s.normalized(version, raw)
	out := dto.PropertyList{Records: records}
	if len(records) == 0 {
		out.Message = MsgCacheEmpty
	}
	return out, nil
}

// Refresh fetches, normalizes and persists the property list. Concurrent calls
// share one upstream fetch, which outlives the cancellation of whichever caller
// started it.
func (s *propertyService) Refresh(ctx context.Context) (dto.PropertyList, error) {
	shared := context.WithoutCancel(ctx)
	v, err, joined := s.group.Do("refresh", func() (any, error) {
		return s.refresh(shared), nil
	})
	if err != nil {
		return dto.PropertyList{Records: []properties.Record{}}, err
	}
	if joined {
		logger.FromContext(ctx).Debug("property refresh shared with a concurrent caller")
	}
	return v.(dto.PropertyList), nil
}

func (s *propertyService) refresh(ctx context.Context) dto.PropertyList {
	log := logger.FromContext(ctx)
	out := dto.PropertyList{Records: []properties.Record{}, Refreshed: true}

	if s.source == nil {
		out.Message = MsgSourceUnconfigured
		metrics.RecordPropertyRefresh("fetch_failed")
		return out
	}

	code, body, err := s.source.FetchProperties(ctx)
	if err != nil || code >= 400 {
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		log.Warn("property fetch failed", "code", code, "error", err)
		out.Message = fmt.Sprintf("Failed to fetch properties (%d): %s", code, reason)
		metrics.RecordPropertyRefresh("fetch_failed")
		return out
	}

	raw, ok := helpers.DecodeLoose(body)
	if !ok || isBlankContainer(raw) {
		log.Warn("property webhook returned non-JSON", "body_head", helpers.Head(body, 300))
		out.Message = MsgNotJSON
		metrics.RecordPropertyRefresh("not_json")
		return out
	}

	records := properties.Normalize(raw)
	if len(records) == 0 {
		out.Message = MsgNoProperties
		metrics.RecordPropertyRefresh("empty")
		return out
	}
	out.Records = records

	if err := s.store.Save(ctx, records); err != nil {
		log.Error("property cache write failed", "error", err)
		out.Message = MsgWriteFailed
		metrics.RecordPropertyRefresh("write_failed")
		return out
	}

	log.Info("property list refreshed", "count", len(records))
	out.Message = MsgRefreshOK
	metrics.RecordPropertyRefresh("ok")
	return out
}

// normalized returns the records for a stored version, normalizing at most once
// per version.
func (s *propertyService) normalized(version string, raw any) []properties.Record {
	if version != "" {
		if recs, ok := s.cache.Get(version); ok {
			metrics.RecordCacheLookup(true)
			return recs
		}
	}
	metrics.RecordCacheLookup(false)
	recs := properties.Normalize(raw)
	if version != "" {
		s.cache.Add(version, recs)
	}
	return recs
}

// isBlankContainer reports a JSON value that is not an object or list, or is an
// empty one.
func isBlankContainer(v any) bool {
	switch x := v.(type) {
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return true
}
