// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/models"
)

const dashboardColumns = `id, name, description, layout, is_default, created_by, created_at, updated_at`

const widgetColumns = `id, dashboard_id, title, widget_type, request_json, pos_x, pos_y, pos_w, pos_h, created_at, updated_at`

// CreateDashboard inserts a dashboard. A default dashboard replaces the
// creator's previous default.
func (db *DB) CreateDashboard(ctx context.Context, dashboard *models.Dashboard) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if dashboard.ID == "" {
		dashboard.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	dashboard.CreatedAt = now
	dashboard.UpdatedAt = now
	if dashboard.Widgets == nil {
		dashboard.Widgets = []models.DashboardWidget{}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if dashboard.IsDefault {
		if err := clearDefaultDashboard(ctx, tx, dashboard.CreatedBy); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dashboards (`+dashboardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		dashboard.ID,
		dashboard.Name,
		nullableString(dashboard.Description),
		nullableJSON(dashboard.Layout),
		dashboard.IsDefault,
		dashboard.CreatedBy,
		dashboard.CreatedAt,
		dashboard.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dashboard: %w", err)
	}

	return tx.Commit()
}

// GetDashboard retrieves a dashboard with its widgets.
func (db *DB) GetDashboard(ctx context.Context, id string) (*models.Dashboard, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, "SELECT "+dashboardColumns+" FROM dashboards WHERE id = ?", id)
	dashboard, err := scanDashboard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dashboard %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	widgets, err := db.listWidgets(ctx, id)
	if err != nil {
		return nil, err
	}
	dashboard.Widgets = widgets
	return dashboard, nil
}

// ListDashboards returns a page of dashboards without widgets. Defaults
// sort first.
func (db *DB) ListDashboards(ctx context.Context, createdBy string, limit, offset int) (_ []models.Dashboard, _ int, err error) {
	defer observeQuery("list", "dashboards", time.Now(), &err)
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := newFilterBuilder().addFilter("created_by", createdBy).buildWhere()

	var totalCount int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM dashboards"+where, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count dashboards: %w", err)
	}

	query := "SELECT " + dashboardColumns + " FROM dashboards" + where +
		" ORDER BY is_default DESC, created_at DESC, id LIMIT ? OFFSET ?"
	rows, err := db.conn.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query dashboards: %w", err)
	}
	defer rows.Close()

	dashboards := []models.Dashboard{}
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, 0, err
		}
		d.Widgets = []models.DashboardWidget{}
		dashboards = append(dashboards, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return dashboards, totalCount, nil
}

// UpdateDashboard applies a partial update.
func (db *DB) UpdateDashboard(ctx context.Context, id string, req *models.UpdateDashboardRequest) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	ub := newUpdateBuilder()
	ub.setString("name", req.Name).
		setString("description", req.Description).
		setBool("is_default", req.IsDefault)
	if len(req.Layout) > 0 {
		ub.setValue("layout", string(req.Layout))
	}
	if ub.isEmpty() {
		return nil
	}
	ub.setTimestamp("updated_at", time.Now())

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if req.IsDefault != nil && *req.IsDefault {
		var createdBy string
		err := tx.QueryRowContext(ctx, `SELECT created_by FROM dashboards WHERE id = ?`, id).Scan(&createdBy)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("dashboard %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load dashboard owner: %w", err)
		}
		if err := clearDefaultDashboard(ctx, tx, createdBy); err != nil {
			return err
		}
	}

	setClause, args := ub.build(id)
	result, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE dashboards SET %s WHERE id = ?", setClause), args...)
	if err != nil {
		return fmt.Errorf("failed to update dashboard: %w", err)
	}
	if err := checkAffected(result, "dashboard", id); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteDashboard deletes a dashboard and its widgets.
func (db *DB) DeleteDashboard(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dashboard_widgets WHERE dashboard_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete dashboard widgets: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM dashboards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}
	if err := checkAffected(result, "dashboard", id); err != nil {
		return err
	}
	return tx.Commit()
}

func clearDefaultDashboard(ctx context.Context, tx *sql.Tx, createdBy string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE dashboards SET is_default = FALSE WHERE created_by = ? AND is_default = TRUE`, createdBy)
	if err != nil {
		return fmt.Errorf("failed to clear default dashboard: %w", err)
	}
	return nil
}

func scanDashboard(scanner rowScanner) (*models.Dashboard, error) {
	var d models.Dashboard
	var description, layout sql.NullString

	err := scanner.Scan(&d.ID, &d.Name, &description, &layout, &d.IsDefault,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan dashboard: %w", err)
	}

	d.Description = description.String
	if layout.Valid && layout.String != "" {
		d.Layout = json.RawMessage(layout.String)
	}
	return &d, nil
}

// ============================================================================
// Dashboard Widgets
// ============================================================================

// CreateWidget adds a widget to an existing dashboard.
func (db *DB) CreateWidget(ctx context.Context, widget *models.DashboardWidget) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if err := db.dashboardExists(ctx, widget.DashboardID); err != nil {
		return err
	}

	if widget.ID == "" {
		widget.ID = uuid.New().String()
	}
	requestJSON, err := marshalJSONField(widget.Request, "request")
	if err != nil {
		return err
	}
	normalizePosition(&widget.Position)

	now := time.Now().UTC()
	widget.CreatedAt = now
	widget.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO dashboard_widgets (`+widgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		widget.ID,
		widget.DashboardID,
		widget.Title,
		string(widget.WidgetType),
		string(requestJSON),
		widget.Position.X,
		widget.Position.Y,
		widget.Position.W,
		widget.Position.H,
		widget.CreatedAt,
		widget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dashboard widget: %w", err)
	}
	return nil
}

// GetWidget retrieves a widget that belongs to dashboardID.
func (db *DB) GetWidget(ctx context.Context, dashboardID, widgetID string) (*models.DashboardWidget, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+widgetColumns+" FROM dashboard_widgets WHERE id = ? AND dashboard_id = ?",
		widgetID, dashboardID)
	widget, err := scanWidget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("widget %s: %w", widgetID, ErrNotFound)
	}
	return widget, err
}

// UpdateWidget replaces a widget's title, type, request and position.
func (db *DB) UpdateWidget(ctx context.Context, widget *models.DashboardWidget) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	requestJSON, err := marshalJSONField(widget.Request, "request")
	if err != nil {
		return err
	}
	normalizePosition(&widget.Position)
	widget.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx, `
		UPDATE dashboard_widgets SET
			title = ?, widget_type = ?, request_json = ?,
			pos_x = ?, pos_y = ?, pos_w = ?, pos_h = ?, updated_at = ?
		WHERE id = ? AND dashboard_id = ?`,
		widget.Title,
		string(widget.WidgetType),
		string(requestJSON),
		widget.Position.X,
		widget.Position.Y,
		widget.Position.W,
		widget.Position.H,
		widget.UpdatedAt,
		widget.ID,
		widget.DashboardID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dashboard widget: %w", err)
	}
	return checkAffected(result, "widget", widget.ID)
}

// DeleteWidget removes a widget from a dashboard.
func (db *DB) DeleteWidget(ctx context.Context, dashboardID, widgetID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM dashboard_widgets WHERE id = ? AND dashboard_id = ?`, widgetID, dashboardID)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard widget: %w", err)
	}
	return checkAffected(result, "widget", widgetID)
}

func (db *DB) listWidgets(ctx context.Context, dashboardID string) ([]models.DashboardWidget, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+widgetColumns+" FROM dashboard_widgets WHERE dashboard_id = ? ORDER BY pos_y, pos_x, created_at",
		dashboardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard widgets: %w", err)
	}
	defer rows.Close()

	widgets := []models.DashboardWidget{}
	for rows.Next() {
		w, err := scanWidget(rows)
		if err != nil {
			return nil, err
		}
		widgets = append(widgets, *w)
	}
	return widgets, rows.Err()
}

func (db *DB) dashboardExists(ctx context.Context, id string) error {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM dashboards WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("failed to check dashboard: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("dashboard %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanWidget(scanner rowScanner) (*models.DashboardWidget, error) {
	var w models.DashboardWidget
	var widgetType, requestJSON string

	err := scanner.Scan(&w.ID, &w.DashboardID, &w.Title, &widgetType, &requestJSON,
		&w.Position.X, &w.Position.Y, &w.Position.W, &w.Position.H,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan dashboard widget: %w", err)
	}

	w.WidgetType = models.WidgetType(widgetType)
	req, err := analytics.ParseRequest([]byte(requestJSON))
	if err != nil {
		return nil, fmt.Errorf("widget %s: %w", w.ID, err)
	}
	w.Request = req
	return &w, nil
}

// normalizePosition applies the default 4x3 size to unsized widgets.
func normalizePosition(p *models.WidgetPosition) {
	if p.W <= 0 {
		p.W = 4
	}
	if p.H <= 0 {
		p.H = 3
	}
}
