// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package contacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkravets/contactly/internal/platform/apperr"
	"github.com/mkravets/contactly/internal/platform/dberr"
	"github.com/mkravets/contactly/pkg/normalize"
)

// # PostgreSQL Repository

// PostgresContactRepository implements the ContactRepository interface using pgx.
type PostgresContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new PostgreSQL implementation of the ContactRepository.
func NewContactRepository(pool *pgxpool.Pool) *PostgresContactRepository {
	return &PostgresContactRepository{pool: pool}
}

const contactColumns = "id, ownerid, firstname, lastname, email, phone, birthday, notes, searchname, createdat, updatedat"

/*
Create persists a new contact record into the users.contact table.

Parameters:
  - context: context.Context
  - contact: *Contact

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresContactRepository) Create(context context.Context, contact *Contact) error {
	const query = `
		INSERT INTO users.contact (
			id, ownerid, firstname, lastname, email, phone, birthday, notes, searchname, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		contact.ID,
		contact.OwnerID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Notes,
		contact.SearchName,
		contact.CreatedAt,
		contact.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Contact")
	}

	return nil
}

/*
FindByID retrieves a contact by ID, scoped to its owner.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string

Returns:
  - *Contact: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresContactRepository) FindByID(context context.Context, ownerID, id string) (*Contact, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users.contact
		WHERE id = $1 AND ownerid = $2 AND deletedat IS NULL`, contactColumns)

	contact := &Contact{}
	err := repository.pool.QueryRow(context, query, id, ownerID).Scan(
		&contact.ID,
		&contact.OwnerID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
		&contact.Birthday,
		&contact.Notes,
		&contact.SearchName,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Contact")
	}

	return contact, nil
}

/*
List retrieves a page of the owner's contacts with an optional folded search.

Description: Uses a window function to compute the total matching count in
the same round-trip as the page itself.

Parameters:
  - context: context.Context
  - ownerID: string
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Contact: Page of entities
  - int: Total matching rows
  - error: Database retrieval failures
*/
func (repository *PostgresContactRepository) List(context context.Context, ownerID string, filter Filter, limit, offset int) ([]*Contact, int, error) {

	// Query construction
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM users.contact
		WHERE ownerid = $1 AND deletedat IS NULL`, contactColumns))
	args = append(args, ownerID)
	argID++

	// Folded search injection
	if filter.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND searchname LIKE '%%' || $%d || '%%'", argID))
		args = append(args, normalize.Fold(filter.Search))
		argID++
	}

	// Ordering and pagination limits
	queryBuilder.WriteString(" ORDER BY lastname ASC, firstname ASC, id ASC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	// Query execution
	rows, err := repository.pool.Query(context, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_contact_repo_list_failed: %w", err)
	}
	defer rows.Close()

	// Row iteration and entity hydration
	var contactList []*Contact
	var totalCount int

	for rows.Next() {
		contact := &Contact{}
		err := rows.Scan(
			&contact.ID,
			&contact.OwnerID,
			&contact.FirstName,
			&contact.LastName,
			&contact.Email,
			&contact.Phone,
			&contact.Birthday,
			&contact.Notes,
			&contact.SearchName,
			&contact.CreatedAt,
			&contact.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_contact_repo_scan_failed: %w", err)
		}
		contactList = append(contactList, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_contact_repo_rows_failed: %w", err)
	}

	return contactList, totalCount, nil
}

/*
Update persists changes to an existing contact, scoped to its owner.

Parameters:
  - context: context.Context
  - contact: *Contact

Returns:
  - error: apperr.NotFound or persistence failures
*/
func (repository *PostgresContactRepository) Update(context context.Context, contact *Contact) error {
	const query = `
		UPDATE users.contact
		SET firstname = $3, lastname = $4, email = $5, phone = $6,
		    birthday = $7, notes = $8, searchname = $9, updatedat = $10
		WHERE id = $1 AND ownerid = $2 AND deletedat IS NULL`

	contact.UpdatedAt = time.Now()
	tag, err := repository.pool.Exec(context, query,
		contact.ID,
		contact.OwnerID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Notes,
		contact.SearchName,
		contact.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Contact")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Contact")
	}

	return nil
}

/*
Delete soft-deletes the owner's contact with the given ID.

Parameters:
  - context: context.Context
  - ownerID: string
  - id: string

Returns:
  - error: apperr.NotFound or persistence failures
*/
func (repository *PostgresContactRepository) Delete(context context.Context, ownerID, id string) error {
	const query = `
		UPDATE users.contact
		SET deletedat = $3
		WHERE id = $1 AND ownerid = $2 AND deletedat IS NULL`

	tag, err := repository.pool.Exec(context, query, id, ownerID, time.Now())
	if err != nil {
		return dberr.Wrap(err, "Contact")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Contact")
	}

	return nil
}

/*
UpcomingBirthdays returns contacts whose next birthday occurrence falls
within the given window.

Description: Projects each birthday onto its next occurrence relative to
CURRENT_DATE (interval arithmetic keeps Feb 29 well-defined) and filters
in an outer query so the projection can be referenced.

Parameters:
  - context: context.Context
  - ownerID: string
  - withinDays: int

Returns:
  - []*Contact: Matching entities ordered by next occurrence
  - error: Database retrieval failures
*/
func (repository *PostgresContactRepository) UpcomingBirthdays(context context.Context, ownerID string, withinDays int) ([]*Contact, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM (
			SELECT c.*,
			       c.birthday + make_interval(years =>
			           EXTRACT(YEAR FROM age(CURRENT_DATE, c.birthday))::int +
			           CASE WHEN c.birthday + make_interval(years => EXTRACT(YEAR FROM age(CURRENT_DATE, c.birthday))::int) < CURRENT_DATE
			                THEN 1 ELSE 0 END
			       ) AS nextbirthday
			FROM users.contact c
			WHERE c.ownerid = $1 AND c.birthday IS NOT NULL AND c.deletedat IS NULL
		) candidates
		WHERE nextbirthday <= CURRENT_DATE + make_interval(days => $2)
		ORDER BY nextbirthday ASC, lastname ASC`, contactColumns)

	rows, err := repository.pool.Query(context, query, ownerID, withinDays)
	if err != nil {
		return nil, fmt.Errorf("postgres_contact_repo_birthdays_failed: %w", err)
	}
	defer rows.Close()

	var contactList []*Contact
	for rows.Next() {
		contact := &Contact{}
		err := rows.Scan(
			&contact.ID,
			&contact.OwnerID,
			&contact.FirstName,
			&contact.LastName,
			&contact.Email,
			&contact.Phone,
			&contact.Birthday,
			&contact.Notes,
			&contact.SearchName,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres_contact_repo_birthdays_scan_failed: %w", err)
		}
		contactList = append(contactList, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_contact_repo_birthdays_rows_failed: %w", err)
	}

	return contactList, nil
}
