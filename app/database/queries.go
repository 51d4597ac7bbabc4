package database

import (
	"database/sql"
	"fmt"

	"github.com/XeinQt/Accounting-System-sub001/app/models"
	"golang.org/x/crypto/bcrypt"
)

// hashPassword hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, password, first_name, last_name, is_active, created_at, updated_at
			  FROM users WHERE email = $1 AND is_active = true`

	err := db.QueryRow(query, email).Scan(
		&user.ID, &user.Email, &user.Password, &user.FirstName,
		&user.LastName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}
	return user, nil
}

func GetUserRoles(db *sql.DB, userID string) ([]*models.Role, error) {
	query := `
		SELECT r.id, r.name
		FROM roles r
		JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1
	`
	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*models.Role
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %v", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateUser inserts a staff account with a hashed password and attaches
// the named role, creating the role row when missing.
func CreateUser(db *sql.DB, user *models.User, password, roleName string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRow(
		`INSERT INTO users (email, password, first_name, last_name, is_active)
		 VALUES ($1, $2, $3, $4, true) RETURNING id`,
		user.Email, hashed, user.FirstName, user.LastName,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user: %v", err)
	}

	var roleID string
	err = tx.QueryRow(`SELECT id FROM roles WHERE name = $1`, roleName).Scan(&roleID)
	if err == sql.ErrNoRows {
		err = tx.QueryRow(`INSERT INTO roles (name, is_active) VALUES ($1, true) RETURNING id`, roleName).Scan(&roleID)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve role: %v", err)
	}

	if _, err := tx.Exec(`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, user.ID, roleID); err != nil {
		return fmt.Errorf("failed to attach role: %v", err)
	}

	return tx.Commit()
}

// StudentFilters represents filtering options for students
type StudentFilters struct {
	Search string
	Status string
	Limit  int
	Offset int
}

func GetStudents(db *sql.DB, filters StudentFilters) ([]*models.Student, error) {
	query := `SELECT id, student_no, first_name, last_name, gender, is_active, created_at, updated_at
			  FROM students WHERE deleted_at IS NULL`
	var args []interface{}
	argIndex := 1

	if filters.Search != "" {
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR student_no ILIKE $%d)",
			argIndex, argIndex, argIndex)
		args = append(args, "%"+filters.Search+"%")
		argIndex++
	}
	if filters.Status == "active" {
		query += " AND is_active = true"
	} else if filters.Status == "inactive" {
		query += " AND is_active = false"
	}

	query += " ORDER BY last_name ASC, first_name ASC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		s := &models.Student{}
		err := rows.Scan(&s.ID, &s.StudentNo, &s.FirstName, &s.LastName,
			&s.Gender, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %v", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func GetStudentByID(db *sql.DB, studentID string) (*models.Student, error) {
	s := &models.Student{}
	err := db.QueryRow(
		`SELECT id, student_no, first_name, last_name, gender, is_active, created_at, updated_at
		 FROM students WHERE id = $1 AND deleted_at IS NULL`,
		studentID,
	).Scan(&s.ID, &s.StudentNo, &s.FirstName, &s.LastName,
		&s.Gender, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func CreateStudent(db *sql.DB, s *models.Student) error {
	return db.QueryRow(
		`INSERT INTO students (student_no, first_name, last_name, gender, is_active)
		 VALUES ($1, $2, $3, $4, true) RETURNING id, created_at, updated_at`,
		s.StudentNo, s.FirstName, s.LastName, s.Gender,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func GetAcademicYearByName(db *sql.DB, name string) (*models.AcademicYear, error) {
	ay := &models.AcademicYear{}
	err := db.QueryRow(
		`SELECT id, name, start_date, end_date, is_current, is_active
		 FROM academic_years WHERE name = $1`,
		name,
	).Scan(&ay.ID, &ay.Name, &ay.StartDate, &ay.EndDate, &ay.IsCurrent, &ay.IsActive)
	if err != nil {
		return nil, err
	}
	return ay, nil
}
