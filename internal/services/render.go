package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/GregMSThompson/agent-dashboard/internal/dashboard"
	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/metrics"
	"github.com/GregMSThompson/agent-dashboard/internal/properties"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

// exampleDashboard is read from the dashboard store when a render call carries
// no input at all.
const exampleDashboard = "example.json"

const msgPropertiesUnavailable = "Could not load properties."

//go:embed sample.json
var sampleDashboard []byte

// dashboardFiles reads stored dashboard documents by name.
type dashboardFiles interface {
	Read(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

type propertyLister interface {
	List(ctx context.Context, refresh bool) (dto.PropertyList, error)
}

type renderService struct {
	files dashboardFiles
	props propertyLister
}

func NewRenderService(files dashboardFiles, props propertyLister) *renderService {
	return &renderService{files: files, props: props}
}

// Render picks the first available input, runs the dashboard pipeline on it and
// attaches the property list and selection.
func (s *renderService) Render(ctx context.Context, req dto.RenderRequest) (dto.RenderResponse, error) {
	raw, source := s.input(ctx, req)
	payload, _ := helpers.DecodeLoose(raw)
	return s.render(ctx, payload, source, req.PersistedSelection, req.Refresh)
}

// RenderPayload runs the pipeline on an already parsed payload.
func (s *renderService) RenderPayload(ctx context.Context, payload any, persisted string) (dto.RenderResponse, error) {
	return s.render(ctx, payload, dto.SourceBody, persisted, false)
}

// Available lists the stored dashboards that can be rendered by name.
func (s *renderService) Available(ctx context.Context) ([]string, error) {
	return s.files.List(ctx)
}

func (s *renderService) input(ctx context.Context, req dto.RenderRequest) ([]byte, string) {
	log := logger.FromContext(ctx)

	if name := strings.TrimSpace(req.FileName); name != "" {
		b, err := s.files.Read(ctx, name)
		if err == nil {
			return b, dto.SourceFile
		}
		log.Warn("dashboard file unavailable", "file", name, "error", err)
	}
	if len(bytes.TrimSpace(req.Upload)) > 0 {
		return req.Upload, dto.SourceUpload
	}
	if strings.TrimSpace(req.JSONParam) != "" {
		return []byte(req.JSONParam), dto.SourceParam
	}
	if len(bytes.TrimSpace(req.Body)) > 0 {
		return req.Body, dto.SourceBody
	}
	if b, err := s.files.Read(ctx, exampleDashboard); err == nil {
		return b, dto.SourceExample
	}
	return sampleDashboard, dto.SourceSample
}

func (s *renderService) render(ctx context.Context, payload any, source, persisted string, refresh bool) (dto.RenderResponse, error) {
	log := logger.FromContext(ctx)

	if source != dto.SourceSample && dashboard.IsEmpty(dashboard.Resolve(payload).Dashboard) {
		log.Warn("input carries no dashboard data, using sample", "source", source)
		source = dto.SourceSample
	}
	if source == dto.SourceSample {
		payload, _ = helpers.DecodeLoose(sampleDashboard)
	}

	result, err := dashboard.Process(payload)
	if err != nil {
		log.Warn("dashboard rejected", "source", source, "error", err)
		metrics.RecordRender("schema_error", source)
		return dto.RenderResponse{}, err
	}

	list, err := s.props.List(ctx, refresh)
	if err != nil {
		log.Error("property list unavailable", "error", err)
		list = dto.PropertyList{Records: []properties.Record{}, Message: msgPropertiesUnavailable}
	}

	sel := properties.Resolve(persisted, list.Records, dashboard.SelectionHint(result.Resolution.Container))
	if sel.WriteThrough {
		log.Info("selection forwarded by wrapper", "property", sel.Token)
	}

	d := result.Dashboard
	resp := dto.RenderResponse{
		Header:           header(d),
		Theme:            d.Theme,
		Columns:          d.Layout.Columns,
		Answer:           result.Metadata.Answer,
		WhatsNext:        result.Metadata.WhatsNext,
		Summary:          d.AgentSummary,
		Model:            result.Model,
		Properties:       list,
		Selected:         sel.Token,
		Source:           source,
		IsSample:         source == dto.SourceSample,
		SelectionChanged: sel.WriteThrough,
	}

	outcome := "ok"
	if resp.IsSample {
		outcome = "sample"
	}
	metrics.RecordRender(outcome, source)
	log.Debug("dashboard rendered",
		"source", source,
		"kpis", len(resp.Model.KPICards),
		"sections", len(resp.Model.Sections),
		"hero", resp.Model.HeroCard != nil)
	return resp, nil
}

func header(d *dashboard.Dashboard) dto.HeaderData {
	h := dto.HeaderData{
		Brand:        helpers.FirstNonEmpty(d.Theme.Brand, dto.DefaultBrand),
		UserQuestion: d.UserQuestion,
		CompareType:  d.Period.Compare.Type,
	}
	if d.Period.Start != "" && d.Period.End != "" {
		h.PeriodStart = d.Period.Start
		h.PeriodEnd = d.Period.End
	}
	for _, f := range d.Filters {
		h.Filters = append(h.Filters, fmt.Sprintf("%s %s %s", f.Field, f.Operator, f.ValueText()))
	}
	return h
}
