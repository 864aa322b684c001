package sqlite

import (
	"context"
	"strings"

	"github.com/tapstone/edcd/internal/edc/domain"
)

type echoLogsRepo struct {
	db dbtx
}

func (r *echoLogsRepo) CreateEchoLog(ctx context.Context, e domain.EchoLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO echo_logs (id, terminal_id, timestamp) VALUES (?, ?, ?)`,
		e.ID, e.TerminalID, e.Timestamp.UTC())
	return mapConflict(err)
}

func (r *echoLogsRepo) ListEchoLogs(
	ctx context.Context,
	f domain.EchoLogFilter,
	p domain.PageRequest,
) ([]domain.EchoLog, int64, error) {
	where, args := echoFilterClause(f)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM echo_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageWindow(p)
	order := `DESC`
	if !p.SortDescending {
		order = `ASC`
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, terminal_id, timestamp FROM echo_logs`+where+
			` ORDER BY timestamp `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.EchoLog
	for rows.Next() {
		var e domain.EchoLog
		if err := rows.Scan(&e.ID, &e.TerminalID, &e.Timestamp); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func echoFilterClause(f domain.EchoLogFilter) (string, []any) {
	var conds []string
	var args []any

	if f.TerminalID != "" {
		conds = append(conds, `terminal_id = ?`)
		args = append(args, f.TerminalID)
	}
	if f.From != nil {
		conds = append(conds, `timestamp >= ?`)
		args = append(args, *f.From)
	}
	if f.To != nil {
		conds = append(conds, `timestamp <= ?`)
		args = append(args, *f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
