package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tapstone/edcd/internal/edc/domain"
)

type terminalsRepo struct {
	db dbtx
}

const terminalColumns = `id, location, status, serial_number, model, manufacturer,
	last_maintenance, ip_address, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTerminal(row rowScanner) (domain.Terminal, error) {
	var t domain.Terminal
	var lastMaintenance sql.NullTime
	err := row.Scan(
		&t.ID, &t.Location, &t.Status, &t.SerialNumber, &t.Model, &t.Manufacturer,
		&lastMaintenance, &t.IPAddress, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Terminal{}, mapNotFound(err)
	}
	t.LastMaintenance = mapNullTimePtr(lastMaintenance)
	return t, nil
}

func (r *terminalsRepo) GetTerminalByID(ctx context.Context, id string) (domain.Terminal, error) {
	return scanTerminal(r.db.QueryRowContext(ctx,
		`SELECT `+terminalColumns+` FROM terminals WHERE id = ?`, id))
}

func (r *terminalsRepo) CreateTerminal(ctx context.Context, t domain.Terminal) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO terminals (id, location, status, serial_number, model, manufacturer,
		 last_maintenance, ip_address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Location, t.Status, t.SerialNumber, t.Model, t.Manufacturer,
		mapOptionalTime(t.LastMaintenance), t.IPAddress, now, now)
	return mapConflict(err)
}

func (r *terminalsRepo) UpdateTerminal(ctx context.Context, t domain.Terminal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE terminals SET location = ?, status = ?, serial_number = ?, model = ?,
		 manufacturer = ?, last_maintenance = ?, ip_address = ?, updated_at = ?
		 WHERE id = ?`,
		t.Location, t.Status, t.SerialNumber, t.Model, t.Manufacturer,
		mapOptionalTime(t.LastMaintenance), t.IPAddress, time.Now().UTC(), t.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *terminalsRepo) DeleteTerminal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM terminals WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *terminalsRepo) ListTerminals(
	ctx context.Context,
	f domain.TerminalFilter,
	p domain.PageRequest,
) ([]domain.Terminal, int64, error) {
	where, args := terminalFilterClause(f)

	var total int64
	countQuery := `SELECT COUNT(*) FROM terminals` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageWindow(p)
	query := fmt.Sprintf(
		`SELECT %s FROM terminals%s ORDER BY %s %s LIMIT ? OFFSET ?`,
		terminalColumns, where, sortColumn(p.SortBy), sortDirection(p.SortDescending),
	)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Terminal
	for rows.Next() {
		t, err := scanTerminal(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// terminalFilterClause builds the WHERE clause for a terminal listing. All
// values are bound parameters; only whitelisted column names appear in the
// SQL text.
func terminalFilterClause(f domain.TerminalFilter) (string, []any) {
	var conds []string
	var args []any

	like := func(col, val string) {
		conds = append(conds, col+` LIKE ?`)
		args = append(args, "%"+val+"%")
	}

	if f.Status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, f.Status)
	}
	if f.Location != "" {
		like(`location`, f.Location)
	}
	if f.Manufacturer != "" {
		like(`manufacturer`, f.Manufacturer)
	}
	if f.Model != "" {
		like(`model`, f.Model)
	}
	if f.SerialNumber != "" {
		like(`serial_number`, f.SerialNumber)
	}
	if f.Type != "" {
		conds = append(conds, `id LIKE ?`)
		args = append(args, f.Type+"-%")
	}
	if f.IPAddress != "" {
		conds = append(conds, `ip_address = ?`)
		args = append(args, f.IPAddress)
	}
	if f.CreatedFrom != nil {
		conds = append(conds, `created_at >= ?`)
		args = append(args, *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		conds = append(conds, `created_at <= ?`)
		args = append(args, *f.CreatedTo)
	}
	if f.LastMaintenanceFrom != nil {
		conds = append(conds, `last_maintenance >= ?`)
		args = append(args, *f.LastMaintenanceFrom)
	}
	if f.LastMaintenanceTo != nil {
		conds = append(conds, `last_maintenance <= ?`)
		args = append(args, *f.LastMaintenanceTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
