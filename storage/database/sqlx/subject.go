package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/subject"
)

// gradeList stores the embedded grade list as a jsonb column, preserving
// insertion order.
type gradeList []subject.Grade

var (
	_ driver.Valuer = (gradeList)(nil)
	_ sql.Scanner   = (*gradeList)(nil)
)

func (gl gradeList) Value() (driver.Value, error) {
	if gl == nil {
		gl = gradeList{}
	}
	return json.Marshal(gl)
}

func (gl *gradeList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*gl = nil
		return nil
	case []byte:
		return json.Unmarshal(v, gl)
	case string:
		return json.Unmarshal([]byte(v), gl)
	}
	return errors.Errorf("unsupported grades column type %T", src)
}

type subjectRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	OwnerID   string    `db:"owner_id"`
	Grades    gradeList `db:"grades"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r subjectRow) toSubject() subject.Subject {
	grades := []subject.Grade(r.Grades)
	if grades == nil {
		grades = []subject.Grade{}
	}
	return subject.Subject{
		ID:        r.ID,
		Title:     r.Title,
		OwnerID:   r.OwnerID,
		Grades:    grades,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newSubjectRow(sub subject.Subject) subjectRow {
	return subjectRow{
		ID:        sub.ID,
		Title:     sub.Title,
		OwnerID:   sub.OwnerID,
		Grades:    gradeList(sub.Grades),
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
}

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) *subjectRepository {
	return &subjectRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to subject.ErrNotFound
func (repo subjectRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return subject.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo subjectRepository) CreateSubject(sub subject.Subject) (subject.Subject, error) {
	sub.ID = uuid.New().String()
	row := newSubjectRow(sub)
	_, err := repo.db.NamedExec(
		`INSERT INTO subjects (id, title, owner_id, grades, created_at, updated_at)
		 VALUES (:id, :title, :owner_id, :grades, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo subjectRepository) GetOwnedSubjectByID(id, ownerID string) (subject.Subject, error) {
	var row subjectRow
	err := repo.db.Get(&row, `SELECT * FROM subjects WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return subject.Subject{}, repo.trapNoRowsErr(err, "finding owned subject by id")
	}
	return row.toSubject(), nil
}

func (repo subjectRepository) QuerySubjectsByOwner(ownerID string) ([]subject.Subject, error) {
	var rows []subjectRow
	err := repo.db.Select(&rows, `SELECT * FROM subjects WHERE owner_id = $1 ORDER BY title`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects by owner")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, row.toSubject())
	}
	return subjects, nil
}

func (repo subjectRepository) UpdateSubject(sub subject.Subject) (subject.Subject, error) {
	row := newSubjectRow(sub)
	res, err := repo.db.NamedExec(
		`UPDATE subjects SET title = :title, grades = :grades, updated_at = :updated_at WHERE id = :id`,
		row,
	)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return sub, nil
}

func (repo subjectRepository) DeleteSubject(id, ownerID string) error {
	res, err := repo.db.Exec(`DELETE FROM subjects WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.ErrNotFound
	}
	return nil
}
