package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

type studentRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash []byte         `db:"password_hash"`
	Class        string         `db:"class"`
	Guardian     string         `db:"guardian"`
	House        string         `db:"house"`
	Club         string         `db:"club"`
	Address      string         `db:"address"`
	Age          int            `db:"age"`
	Tokens       pq.StringArray `db:"tokens"`
	Avatar       null.Bytes     `db:"avatar"`
	OwnerID      string         `db:"owner_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Class:        r.Class,
		Guardian:     r.Guardian,
		House:        r.House,
		Club:         r.Club,
		Address:      r.Address,
		Age:          r.Age,
		Tokens:       r.Tokens,
		Avatar:       r.Avatar.Bytes,
		OwnerID:      r.OwnerID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newStudentRow(s student.Student) studentRow {
	tokens := s.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	return studentRow{
		ID:           s.ID,
		Name:         s.Name,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		Class:        s.Class,
		Guardian:     s.Guardian,
		House:        s.House,
		Club:         s.Club,
		Address:      s.Address,
		Age:          s.Age,
		Tokens:       tokens,
		Avatar:       null.NewBytes(s.Avatar, s.Avatar != nil),
		OwnerID:      s.OwnerID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CheckEmailUniqueness(email string, excludedStudents ...student.Student) error {
	ids := make([]string, 0, len(excludedStudents))
	for _, s := range excludedStudents {
		ids = append(ids, s.ID)
	}

	var exists bool
	err := repo.db.Get(
		&exists,
		`SELECT EXISTS (SELECT 1 FROM students WHERE email = $1 AND id <> ALL($2))`,
		email, pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "checking student email uniqueness")
	}
	if exists {
		return student.ErrEmailExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	row := newStudentRow(s)
	_, err := repo.db.NamedExec(
		`INSERT INTO students (id, name, email, password_hash, class, guardian, house, club, address, age, tokens, avatar, owner_id, created_at, updated_at)
		 VALUES (:id, :name, :email, :password_hash, :class, :guardian, :house, :club, :address, :age, :tokens, :avatar, :owner_id, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo studentRepository) GetStudentByID(id string) (student.Student, error) {
	var row studentRow
	if err := repo.db.Get(&row, `SELECT * FROM students WHERE id = $1`, id); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by id")
	}
	return row.toStudent(), nil
}

func (repo studentRepository) GetStudentByEmail(email string) (student.Student, error) {
	var row studentRow
	if err := repo.db.Get(&row, `SELECT * FROM students WHERE email = $1`, email); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by email")
	}
	return row.toStudent(), nil
}

func (repo studentRepository) GetOwnedStudentByID(id, ownerID string) (student.Student, error) {
	var row studentRow
	err := repo.db.Get(&row, `SELECT * FROM students WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding owned student by id")
	}
	return row.toStudent(), nil
}

// studentOrderColumns whitelists the columns the `ordering` query param may
// sort by. Anything else falls back to the default name ordering.
var studentOrderColumns = map[string]bool{
	"name":  true,
	"email": true,
	"class": true,
	"age":   true,
}

func studentOrderBy(orderings []core.DBOrdering) string {
	terms := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if studentOrderColumns[ord.Field] {
			terms = append(terms, ord.String())
		}
	}
	if len(terms) == 0 {
		return "name ASC"
	}
	return strings.Join(terms, ", ")
}

func (repo studentRepository) QueryStudentsByOwner(ownerID string, orderings ...core.DBOrdering) ([]student.Student, error) {
	var rows []studentRow
	query := `SELECT * FROM students WHERE owner_id = $1 ORDER BY ` + studentOrderBy(orderings)
	if err := repo.db.Select(&rows, query, ownerID); err != nil {
		return nil, errors.Wrap(err, "querying students by owner")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo studentRepository) UpdateStudent(s student.Student) (student.Student, error) {
	row := newStudentRow(s)
	res, err := repo.db.NamedExec(
		`UPDATE students
		 SET name = :name, email = :email, password_hash = :password_hash, class = :class, guardian = :guardian,
		     house = :house, club = :club, address = :address, age = :age, updated_at = :updated_at
		 WHERE id = :id`,
		row,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo studentRepository) UpdateStudentTokens(id string, tokens []string) error {
	if tokens == nil {
		tokens = []string{}
	}
	res, err := repo.db.Exec(`UPDATE students SET tokens = $2 WHERE id = $1`, id, pq.StringArray(tokens))
	if err != nil {
		return errors.Wrap(err, "updating student tokens")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) UpdateStudentAvatar(id string, avatar []byte) error {
	res, err := repo.db.Exec(
		`UPDATE students SET avatar = $2 WHERE id = $1`,
		id, null.NewBytes(avatar, avatar != nil),
	)
	if err != nil {
		return errors.Wrap(err, "updating student avatar")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) DeleteStudent(id, ownerID string) error {
	res, err := repo.db.Exec(`DELETE FROM students WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}
