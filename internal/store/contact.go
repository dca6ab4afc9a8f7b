package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lebbnb/apiserver/types"
)

// ContactRepository handles persistence for contact-form submissions.
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// List returns submissions newest first, optionally filtered by status.
func (r *ContactRepository) List(ctx context.Context, status string, offset, limit int) ([]types.Contact, int, error) {
	var total int
	var rows *sql.Rows
	var err error

	if status != "" {
		const countQuery = `SELECT COUNT(*) FROM contacts WHERE status = $1`
		if err = r.db.QueryRowContext(ctx, countQuery, status).Scan(&total); err != nil {
			return nil, 0, err
		}
		const query = `
			SELECT id, name, email, phone, subject, message, status, reply, reply_date, ip_address, created_at, updated_at
			FROM contacts
			WHERE status = $1
			ORDER BY created_at DESC
			OFFSET $2 LIMIT $3`
		rows, err = r.db.QueryContext(ctx, query, status, offset, limit)
	} else {
		const countQuery = `SELECT COUNT(*) FROM contacts`
		if err = r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
			return nil, 0, err
		}
		const query = `
			SELECT id, name, email, phone, subject, message, status, reply, reply_date, ip_address, created_at, updated_at
			FROM contacts
			ORDER BY created_at DESC
			OFFSET $1 LIMIT $2`
		rows, err = r.db.QueryContext(ctx, query, offset, limit)
	}
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	contacts := []types.Contact{}
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}

func (r *ContactRepository) Get(ctx context.Context, id int) (types.Contact, error) {
	const query = `
		SELECT id, name, email, phone, subject, message, status, reply, reply_date, ip_address, created_at, updated_at
		FROM contacts
		WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var contact types.Contact
	var phone, reply, ipAddress sql.NullString
	var replyDate sql.NullTime
	err := row.Scan(
		&contact.ID,
		&contact.Name,
		&contact.Email,
		&phone,
		&contact.Subject,
		&contact.Message,
		&contact.Status,
		&reply,
		&replyDate,
		&ipAddress,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contact{}, ErrNotFound
		}
		return types.Contact{}, err
	}
	contact.Phone = phone.String
	contact.Reply = reply.String
	contact.IPAddress = ipAddress.String
	if replyDate.Valid {
		contact.ReplyDate = &replyDate.Time
	}
	return contact, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	now := time.Now()
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	contact.Status = types.ContactStatusNew
	contact.CreatedAt = now
	contact.UpdatedAt = now

	const query = `
		INSERT INTO contacts (name, email, phone, subject, message, status, ip_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		contact.Name,
		contact.Email,
		nullString(contact.Phone),
		contact.Subject,
		contact.Message,
		contact.Status,
		nullString(contact.IPAddress),
		contact.CreatedAt,
		contact.UpdatedAt,
	).Scan(&contact.ID); err != nil {
		return types.Contact{}, err
	}
	return contact, nil
}

func (r *ContactRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	const query = `
		UPDATE contacts
		SET status = $1,
			updated_at = now()
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SetReply records the admin reply text and flips the status to replied.
func (r *ContactRepository) SetReply(ctx context.Context, id int, reply string, at time.Time) error {
	const query = `
		UPDATE contacts
		SET reply = $1,
			reply_date = $2,
			status = $3,
			updated_at = now()
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, reply, at, types.ContactStatusReplied, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *ContactRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM contacts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func scanContact(rows *sql.Rows) (types.Contact, error) {
	var contact types.Contact
	var phone, reply, ipAddress sql.NullString
	var replyDate sql.NullTime
	if err := rows.Scan(
		&contact.ID,
		&contact.Name,
		&contact.Email,
		&phone,
		&contact.Subject,
		&contact.Message,
		&contact.Status,
		&reply,
		&replyDate,
		&ipAddress,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		return types.Contact{}, err
	}
	contact.Phone = phone.String
	contact.Reply = reply.String
	contact.IPAddress = ipAddress.String
	if replyDate.Valid {
		contact.ReplyDate = &replyDate.Time
	}
	return contact, nil
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
