package uploads

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new upload record.
func (r *PGRepo) Create(ctx context.Context, upload Upload) error {
	const query = `
INSERT INTO uploads (
    id,
    file_name,
    size_bytes,
    inbound_key,
    outbound_key,
    status,
    fail_stage,
    fail_reason,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var inboundKey sql.NullString
	if upload.InboundKey != "" {
		inboundKey = sql.NullString{String: upload.InboundKey, Valid: true}
	}
	var outboundKey sql.NullString
	if upload.OutboundKey != "" {
		outboundKey = sql.NullString{String: upload.OutboundKey, Valid: true}
	}
	var failStage sql.NullString
	if upload.FailStage != "" {
		failStage = sql.NullString{String: upload.FailStage, Valid: true}
	}
	var failReason sql.NullString
	if upload.FailReason != "" {
		failReason = sql.NullString{String: upload.FailReason, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		upload.ID,
		upload.FileName,
		upload.SizeBytes,
		inboundKey,
		outboundKey,
		upload.Status,
		failStage,
		failReason,
		upload.CreatedAt,
	)
	return err
}

// List returns records newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Upload, error) {
	const query = `
SELECT id, file_name, size_bytes, inbound_key, outbound_key, status, fail_stage, fail_reason, created_at
FROM uploads
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var upload Upload
		var inboundKey, outboundKey, failStage, failReason sql.NullString
		if err := rows.Scan(
			&upload.ID,
			&upload.FileName,
			&upload.SizeBytes,
			&inboundKey,
			&outboundKey,
			&upload.Status,
			&failStage,
			&failReason,
			&upload.CreatedAt,
		); err != nil {
			return nil, err
		}
		upload.InboundKey = inboundKey.String
		upload.OutboundKey = outboundKey.String
		upload.FailStage = failStage.String
		upload.FailReason = failReason.String
		out = append(out, upload)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
