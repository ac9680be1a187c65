// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/kontrakpro/internal/audit"
	"github.com/tomtom215/kontrakpro/internal/models"
)

// Dashboards are readable by anyone holding dashboards:read. Changing a
// dashboard or its widgets additionally requires being its creator or an
// admin.

// ListDashboards handles GET /api/v1/dashboards?created_by=&limit=&offset=.
// Widgets are not included; fetch a single dashboard for those.
func (h *Handler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	limit, offset := getPagination(r)

	dashboards, total, err := h.db.ListDashboards(r.Context(), r.URL.Query().Get("created_by"), limit, offset)
	if err != nil {
		respondStoreError(w, err, "Dashboards")
		return
	}

	respondSuccess(w, r, http.StatusOK, models.ListResponse[models.Dashboard]{
		Items:      dashboards,
		Pagination: models.NewPaginationInfo(limit, offset, total),
	})
}

// CreateDashboard handles POST /api/v1/dashboards.
func (h *Handler) CreateDashboard(w http.ResponseWriter, r *http.Request) {
	var body models.CreateDashboardRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	dashboard := &models.Dashboard{
		Name:        body.Name,
		Description: body.Description,
		Layout:      body.Layout,
		IsDefault:   body.IsDefault,
		CreatedBy:   subjectID(r),
	}
	if err := h.db.CreateDashboard(r.Context(), dashboard); err != nil {
		respondStoreError(w, err, "Dashboard")
		return
	}

	h.record(r, audit.EventDashboardCreated, dashboardTarget(dashboard), audit.OutcomeSuccess, "Dashboard created", nil)
	respondSuccess(w, r, http.StatusCreated, dashboard)
}

// GetDashboard handles GET /api/v1/dashboards/{id}, widgets included.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.db.GetDashboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "Dashboard")
		return
	}
	respondSuccess(w, r, http.StatusOK, dashboard)
}

// UpdateDashboard handles PUT /api/v1/dashboards/{id}.
func (h *Handler) UpdateDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.loadOwnedDashboard(w, r)
	if !ok {
		return
	}

	var body models.UpdateDashboardRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	ctx := r.Context()
	if err := h.db.UpdateDashboard(ctx, dashboard.ID, &body); err != nil {
		respondStoreError(w, err, "Dashboard")
		return
	}
	updated, err := h.db.GetDashboard(ctx, dashboard.ID)
	if err != nil {
		respondStoreError(w, err, "Dashboard")
		return
	}

	h.record(r, audit.EventDashboardUpdated, dashboardTarget(updated), audit.OutcomeSuccess, "Dashboard updated", nil)
	respondSuccess(w, r, http.StatusOK, updated)
}

// DeleteDashboard handles DELETE /api/v1/dashboards/{id}. Widgets go with it.
func (h *Handler) DeleteDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.loadOwnedDashboard(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteDashboard(r.Context(), dashboard.ID); err != nil {
		respondStoreError(w, err, "Dashboard")
		return
	}

	h.record(r, audit.EventDashboardDeleted, dashboardTarget(dashboard), audit.OutcomeSuccess, "Dashboard deleted", nil)
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{"id": dashboard.ID, "deleted": true})
}

// CreateWidget handles POST /api/v1/dashboards/{id}/widgets.
func (h *Handler) CreateWidget(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.loadOwnedDashboard(w, r)
	if !ok {
		return
	}

	body, ok := h.decodeWidget(w, r)
	if !ok {
		return
	}

	widget := &models.DashboardWidget{
		DashboardID: dashboard.ID,
		Title:       body.Title,
		WidgetType:  body.WidgetType,
		Request:     body.Request,
		Position:    body.Position,
	}
	if err := h.db.CreateWidget(r.Context(), widget); err != nil {
		respondStoreError(w, err, "Dashboard")
		return
	}

	h.record(r, audit.EventWidgetCreated, widgetTarget(widget), audit.OutcomeSuccess, "Widget created",
		map[string]interface{}{"dashboard_id": dashboard.ID})
	respondSuccess(w, r, http.StatusCreated, widget)
}

// UpdateWidget handles PUT /api/v1/dashboards/{id}/widgets/{widgetID}.
// The body replaces the widget.
func (h *Handler) UpdateWidget(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.loadOwnedDashboard(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	widget, err := h.db.GetWidget(ctx, dashboard.ID, chi.URLParam(r, "widgetID"))
	if err != nil {
		respondStoreError(w, err, "Widget")
		return
	}

	body, ok := h.decodeWidget(w, r)
	if !ok {
		return
	}

	widget.Title = body.Title
	widget.WidgetType = body.WidgetType
	widget.Request = body.Request
	widget.Position = body.Position
	if err := h.db.UpdateWidget(ctx, widget); err != nil {
		respondStoreError(w, err, "Widget")
		return
	}

	h.record(r, audit.EventWidgetUpdated, widgetTarget(widget), audit.OutcomeSuccess, "Widget updated",
		map[string]interface{}{"dashboard_id": dashboard.ID})
	respondSuccess(w, r, http.StatusOK, widget)
}

// DeleteWidget handles DELETE /api/v1/dashboards/{id}/widgets/{widgetID}.
func (h *Handler) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.loadOwnedDashboard(w, r)
	if !ok {
		return
	}

	widgetID := chi.URLParam(r, "widgetID")
	if err := h.db.DeleteWidget(r.Context(), dashboard.ID, widgetID); err != nil {
		respondStoreError(w, err, "Widget")
		return
	}

	h.record(r, audit.EventWidgetDeleted, &audit.Target{ID: widgetID, Type: "widget"}, audit.OutcomeSuccess,
		"Widget deleted", map[string]interface{}{"dashboard_id": dashboard.ID})
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{"id": widgetID, "deleted": true})
}

// WidgetData handles GET /api/v1/dashboards/{id}/widgets/{widgetID}/data by
// executing the widget's stored request.
func (h *Handler) WidgetData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	widget, err := h.db.GetWidget(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "widgetID"))
	if err != nil {
		respondStoreError(w, err, "Widget")
		return
	}
	if widget.Request == nil {
		respondError(w, http.StatusBadRequest, codeValidation, "Widget has no stored request", nil)
		return
	}

	h.engine.ClampLimit(widget.Request)
	result, err := h.engine.Execute(ctx, widget.Request)
	if err != nil {
		respondAnalyticsError(w, err)
		return
	}
	respondResult(w, r, result)
}

// loadOwnedDashboard fetches the {id} dashboard and checks the caller may
// change it. It writes the error response and returns false on failure.
func (h *Handler) loadOwnedDashboard(w http.ResponseWriter, r *http.Request) (*models.Dashboard, bool) {
	dashboard, err := h.db.GetDashboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err, "Dashboard")
		return nil, false
	}
	if !ownsOrAdmin(r, dashboard.CreatedBy) {
		h.record(r, audit.EventAuthzDenied, dashboardTarget(dashboard), audit.OutcomeFailure,
			"Dashboard change by non-owner", nil)
		respondError(w, http.StatusForbidden, "FORBIDDEN", "Only the dashboard owner or an admin can change it", nil)
		return nil, false
	}
	return dashboard, true
}

// decodeWidget decodes a widget body and checks its request compiles.
func (h *Handler) decodeWidget(w http.ResponseWriter, r *http.Request) (*models.WidgetRequest, bool) {
	var body models.WidgetRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return nil, false
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondValidation(w, apiErr)
		return nil, false
	}
	h.engine.ClampLimit(body.Request)
	if _, err := h.engine.Compile(body.Request); err != nil {
		respondAnalyticsError(w, err)
		return nil, false
	}
	return &body, true
}

func dashboardTarget(d *models.Dashboard) *audit.Target {
	return &audit.Target{ID: d.ID, Type: "dashboard", Name: d.Name}
}

func widgetTarget(wd *models.DashboardWidget) *audit.Target {
	return &audit.Target{ID: wd.ID, Type: "widget", Name: wd.Title}
}
