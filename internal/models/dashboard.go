// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package models

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kontrakpro/internal/analytics"
)

// WidgetType selects how a dashboard widget renders its result.
type WidgetType string

const (
	WidgetMetric WidgetType = "metric"
	WidgetLine   WidgetType = "line"
	WidgetBar    WidgetType = "bar"
	WidgetPie    WidgetType = "pie"
	WidgetTable  WidgetType = "table"
)

// WidgetPosition is a grid placement.
type WidgetPosition struct {
	X int `json:"x" validate:"min=0,max=100"`
	Y int `json:"y" validate:"min=0,max=1000"`
	W int `json:"w" validate:"min=1,max=24"`
	H int `json:"h" validate:"min=1,max=100"`
}

// Dashboard groups widgets. Layout is opaque client JSON.
type Dashboard struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Layout      json.RawMessage   `json:"layout,omitempty"`
	IsDefault   bool              `json:"is_default"`
	CreatedBy   string            `json:"created_by"`
	Widgets     []DashboardWidget `json:"widgets"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// DashboardWidget is one chart or table on a dashboard.
type DashboardWidget struct {
	ID          string             `json:"id"`
	DashboardID string             `json:"dashboard_id"`
	Title       string             `json:"title"`
	WidgetType  WidgetType         `json:"widget_type"`
	Request     *analytics.Request `json:"request"`
	Position    WidgetPosition     `json:"position"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CreateDashboardRequest is the body of POST /api/v1/dashboards.
type CreateDashboardRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	Layout      json.RawMessage `json:"layout"`
	IsDefault   bool            `json:"is_default"`
}

// UpdateDashboardRequest is a partial update.
type UpdateDashboardRequest struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Layout      json.RawMessage `json:"layout,omitempty"`
	IsDefault   *bool           `json:"is_default,omitempty"`
}

// WidgetRequest is the body for creating or replacing a widget.
type WidgetRequest struct {
	Title      string             `json:"title" validate:"required,min=1,max=200"`
	WidgetType WidgetType         `json:"widget_type" validate:"required,oneof=metric line bar pie table"`
	Request    *analytics.Request `json:"request" validate:"required"`
	Position   WidgetPosition     `json:"position"`
}
