// Command seed creates the database schema and loads the baseline dataset:
// the role-permission registry, an administrator account, demo accounts for
// the other roles, and a handful of sample courses. Every statement is an
// upsert, so the command is safe to re-run. A -promote flag reassigns an
// existing account's role, since role changes are not exposed over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/internal/repository"
	"github.com/noah-isme/lms-api/internal/service"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            VARCHAR(36) PRIMARY KEY,
	username      VARCHAR(100) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role          VARCHAR(50)  NOT NULL,
	created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS roles (
	id   VARCHAR(36) PRIMARY KEY,
	name VARCHAR(50) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS permissions (
	id   VARCHAR(36) PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS role_permissions (
	role_id       VARCHAR(36) NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
	permission_id VARCHAR(36) NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
	PRIMARY KEY (role_id, permission_id)
);

CREATE TABLE IF NOT EXISTS courses (
	id               VARCHAR(36) PRIMARY KEY,
	title            VARCHAR(100) NOT NULL,
	description      VARCHAR(500),
	instructor       VARCHAR(100) NOT NULL,
	duration         INTEGER NOT NULL,
	enrollment_limit INTEGER,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id         VARCHAR(36) PRIMARY KEY,
	user_id    VARCHAR(36) NOT NULL REFERENCES users(id),
	action     VARCHAR(50) NOT NULL,
	details    TEXT NOT NULL DEFAULT '',
	ip_address VARCHAR(45) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_user_id ON audit_logs (user_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at);
CREATE INDEX IF NOT EXISTS idx_courses_created_at ON courses (created_at);
`

type seedUser struct {
	Username string
	Password string
	Role     string
}

type seedCourse struct {
	Title           string
	Description     string
	Instructor      string
	Duration        int
	EnrollmentLimit int
}

func main() {
	var (
		adminPassword string
		withDemoData  bool
		promote       string
	)
	flag.StringVar(&adminPassword, "admin-password", "admin_password", "Password for the seeded admin account")
	flag.BoolVar(&withDemoData, "demo-data", true, "Also seed demo accounts and sample courses")
	flag.StringVar(&promote, "promote", "", "Reassign an existing account's role, formatted as username:role")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}
	log.Println("schema ready")

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	authz := service.NewAuthzService(repository.NewRoleRepository(db), logger)
	if err := authz.Seed(ctx); err != nil {
		log.Fatalf("failed to seed role-permission registry: %v", err)
	}
	log.Println("role-permission registry ready")

	users := []seedUser{{Username: "admin", Password: adminPassword, Role: models.RoleAdmin}}
	if withDemoData {
		users = append(users,
			seedUser{Username: "instructor", Password: "instructor_password", Role: models.RoleInstructor},
			seedUser{Username: "student", Password: "student_password", Role: models.RoleStudent},
		)
	}
	for _, u := range users {
		if err := upsertUser(ctx, db, u); err != nil {
			log.Fatalf("failed to seed user %s: %v", u.Username, err)
		}
	}
	log.Printf("seeded %d accounts", len(users))

	if withDemoData {
		courses := []seedCourse{
			{Title: "Data Science 101", Description: "Introduction to data science", Instructor: "Dr. Smith", Duration: 40, EnrollmentLimit: 100},
			{Title: "Machine Learning Basics", Description: "Learn the fundamentals of machine learning", Instructor: "Prof. Johnson", Duration: 50, EnrollmentLimit: 50},
			{Title: "Python Programming", Description: "Introductory Python course for beginners", Instructor: "Ms. Williams", Duration: 30, EnrollmentLimit: 200},
		}
		for _, c := range courses {
			if err := upsertCourse(ctx, db, c); err != nil {
				log.Fatalf("failed to seed course %q: %v", c.Title, err)
			}
		}
		log.Printf("seeded %d sample courses", len(courses))
	}

	if promote != "" {
		if err := promoteUser(ctx, db, promote); err != nil {
			log.Fatalf("failed to promote account: %v", err)
		}
		log.Printf("promoted %s", promote)
	}

	log.Println("done")
}

// promoteUser reassigns the role of an existing account. Role changes are an
// operator action, so this is the only place that reaches UpdateRole.
func promoteUser(ctx context.Context, db *sqlx.DB, spec string) error {
	username, role, ok := strings.Cut(spec, ":")
	if !ok || username == "" || role == "" {
		return fmt.Errorf("expected username:role, got %q", spec)
	}
	if _, known := models.DefaultGrants[role]; !known {
		return fmt.Errorf("unknown role %q", role)
	}

	users := repository.NewUserRepository(db)
	user, err := users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find account %q: %w", username, err)
	}
	return users.UpdateRole(ctx, user.ID, role)
}

// upsertUser inserts the account when the username is free. Existing accounts
// are left untouched so a re-run never rotates anyone's password.
func upsertUser(ctx context.Context, db *sqlx.DB, u seedUser) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	const query = `INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (username) DO NOTHING`
	_, err = db.ExecContext(ctx, query, uuid.NewString(), u.Username, string(hash), u.Role)
	return err
}

func upsertCourse(ctx context.Context, db *sqlx.DB, c seedCourse) error {
	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM courses WHERE title = $1)`, c.Title); err != nil {
		return err
	}
	if exists {
		return nil
	}

	const query = `INSERT INTO courses (id, title, description, instructor, duration, enrollment_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	_, err := db.ExecContext(ctx, query, uuid.NewString(), c.Title, c.Description, c.Instructor, c.Duration, c.EnrollmentLimit)
	return err
}
