package links

import (
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("link not found")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(link *Link) error {
	query := `
		INSERT INTO links (
			id, slug, url, description, expires_at,
			visits, last_visit, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		link.ID,
		link.Slug,
		link.URL,
		link.Description,
		link.ExpiresAt,
		link.Visits,
		link.LastVisit,
		link.CreatedAt,
		link.UpdatedAt,
	)

	return err
}

func (r *Repository) GetByID(id string) (*Link, error) {
	query := `
		SELECT id, slug, url, description, expires_at,
		       visits, last_visit, created_at, updated_at
		FROM links WHERE id = ?
	`
	row := r.db.QueryRow(query, id)
	return scanLink(row)
}

func (r *Repository) GetBySlug(slug string) (*Link, error) {
	query := `
		SELECT id, slug, url, description, expires_at,
		       visits, last_visit, created_at, updated_at
		FROM links WHERE slug = ?
	`
	row := r.db.QueryRow(query, slug)
	return scanLink(row)
}

func (r *Repository) ExistsBySlug(slug string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM links WHERE slug = ?)"
	err := r.db.QueryRow(query, slug).Scan(&exists)
	return exists, err
}

func (r *Repository) Update(link *Link) error {
	query := `
		UPDATE links SET
			slug = ?, url = ?, description = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.Exec(query,
		link.Slug,
		link.URL,
		link.Description,
		link.ExpiresAt,
		time.Now().UnixMilli(),
		link.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM links WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyVisits adds count to the cumulative visit counter and stamps the
// last visit, only if a link with that slug still exists. The returned
// bool reports whether a row matched; a link deleted between the visit
// and the flush is not an error.
func (r *Repository) ApplyVisits(slug string, count int64, at int64) (bool, error) {
	query := `UPDATE links SET visits = visits + ?, last_visit = ? WHERE slug = ?`
	res, err := r.db.Exec(query, count, at, slug)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) List(limit, offset int) ([]*Link, error) {
	query := `
		SELECT id, slug, url, description, expires_at,
		       visits, last_visit, created_at, updated_at
		FROM links
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, link)
	}
	return result, rows.Err()
}

func scanLink(s interface {
	Scan(dest ...interface{}) error
}) (*Link, error) {
	var link Link
	var description sql.NullString
	var expiresAt, lastVisit sql.NullInt64

	err := s.Scan(
		&link.ID,
		&link.Slug,
		&link.URL,
		&description,
		&expiresAt,
		&link.Visits,
		&lastVisit,
		&link.CreatedAt,
		&link.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	link.Description = description.String
	if expiresAt.Valid {
		val := expiresAt.Int64
		link.ExpiresAt = &val
	}
	if lastVisit.Valid {
		val := lastVisit.Int64
		link.LastVisit = &val
	}

	return &link, nil
}
