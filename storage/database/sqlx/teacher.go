package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/teacher"
)

type teacherRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash []byte         `db:"password_hash"`
	Class        string         `db:"class"`
	House        null.String    `db:"house"`
	Address      null.String    `db:"address"`
	Designation  string         `db:"designation"`
	Age          int            `db:"age"`
	Tokens       pq.StringArray `db:"tokens"`
	Avatar       null.Bytes     `db:"avatar"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r teacherRow) toTeacher() teacher.Teacher {
	return teacher.Teacher{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Class:        r.Class,
		House:        r.House.String,
		Address:      r.Address.String,
		Designation:  r.Designation,
		Age:          r.Age,
		Tokens:       r.Tokens,
		Avatar:       r.Avatar.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newTeacherRow(t teacher.Teacher) teacherRow {
	tokens := t.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	return teacherRow{
		ID:           t.ID,
		Name:         t.Name,
		Email:        t.Email,
		PasswordHash: t.PasswordHash,
		Class:        t.Class,
		House:        null.NewString(t.House, t.House != ""),
		Address:      null.NewString(t.Address, t.Address != ""),
		Designation:  t.Designation,
		Age:          t.Age,
		Tokens:       tokens,
		Avatar:       null.NewBytes(t.Avatar, t.Avatar != nil),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

type teacherRepository struct {
	db *sqlx.DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *sqlx.DB) *teacherRepository {
	return &teacherRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to teacher.ErrNotFound
func (repo teacherRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return teacher.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo teacherRepository) CheckEmailUniqueness(email string, excludedTeachers ...teacher.Teacher) error {
	ids := make([]string, 0, len(excludedTeachers))
	for _, t := range excludedTeachers {
		ids = append(ids, t.ID)
	}

	var exists bool
	err := repo.db.Get(
		&exists,
		`SELECT EXISTS (SELECT 1 FROM teachers WHERE email = $1 AND id <> ALL($2))`,
		email, pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "checking teacher email uniqueness")
	}
	if exists {
		return teacher.ErrEmailExists
	}
	return nil
}

func (repo teacherRepository) CreateTeacher(t teacher.Teacher) (teacher.Teacher, error) {
	t.ID = uuid.New().String()
	row := newTeacherRow(t)
	_, err := repo.db.NamedExec(
		`INSERT INTO teachers (id, name, email, password_hash, class, house, address, designation, age, tokens, avatar, created_at, updated_at)
		 VALUES (:id, :name, :email, :password_hash, :class, :house, :address, :designation, :age, :tokens, :avatar, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return t, nil
}

func (repo teacherRepository) GetTeacherByID(id string) (teacher.Teacher, error) {
	var row teacherRow
	if err := repo.db.Get(&row, `SELECT * FROM teachers WHERE id = $1`, id); err != nil {
		return teacher.Teacher{}, repo.trapNoRowsErr(err, "finding teacher by id")
	}
	return row.toTeacher(), nil
}

func (repo teacherRepository) GetTeacherByEmail(email string) (teacher.Teacher, error) {
	var row teacherRow
	if err := repo.db.Get(&row, `SELECT * FROM teachers WHERE email = $1`, email); err != nil {
		return teacher.Teacher{}, repo.trapNoRowsErr(err, "finding teacher by email")
	}
	return row.toTeacher(), nil
}

func (repo teacherRepository) UpdateTeacher(t teacher.Teacher) (teacher.Teacher, error) {
	row := newTeacherRow(t)
	res, err := repo.db.NamedExec(
		`UPDATE teachers
		 SET name = :name, email = :email, password_hash = :password_hash, class = :class, house = :house,
		     address = :address, designation = :designation, age = :age, updated_at = :updated_at
		 WHERE id = :id`,
		row,
	)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return t, nil
}

func (repo teacherRepository) UpdateTeacherTokens(id string, tokens []string) error {
	if tokens == nil {
		tokens = []string{}
	}
	res, err := repo.db.Exec(`UPDATE teachers SET tokens = $2 WHERE id = $1`, id, pq.StringArray(tokens))
	if err != nil {
		return errors.Wrap(err, "updating teacher tokens")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.ErrNotFound
	}
	return nil
}

func (repo teacherRepository) UpdateTeacherAvatar(id string, avatar []byte) error {
	res, err := repo.db.Exec(
		`UPDATE teachers SET avatar = $2 WHERE id = $1`,
		id, null.NewBytes(avatar, avatar != nil),
	)
	if err != nil {
		return errors.Wrap(err, "updating teacher avatar")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.ErrNotFound
	}
	return nil
}

// DeleteTeacher relies on ON DELETE CASCADE to drop owned students and subjects.
func (repo teacherRepository) DeleteTeacher(id string) error {
	res, err := repo.db.Exec(`DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.ErrNotFound
	}
	return nil
}
