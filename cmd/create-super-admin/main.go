package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"engagement_backend/internal/auth/password"
	identityrepo "engagement_backend/internal/identity/repository"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/config"
	"engagement_backend/platform/db"
	"engagement_backend/platform/logger"
	"engagement_backend/platform/validator"
)

const minPasswordLength = 8

type superAdminInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8"`
	FirstName string `validate:"notblank,max=100"`
	LastName  string `validate:"notblank,max=100"`
}

// userStore is the part of the identity repository the command needs.
type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (tenancy.User, error)
	CreateUser(ctx context.Context, q identityrepo.DBTX, in identityrepo.NewUser) (tenancy.User, error)
}

func main() {
	in, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	user, created, err := createSuperAdmin(ctx, identityrepo.New(pool), in)
	if err != nil {
		log.Error("failed to create super admin", "email", in.Email, "error", err)
		os.Exit(1)
	}
	if !created {
		log.Info("super admin already exists", "email", user.Email, "userId", user.ID.String())
		return
	}
	log.Info("super admin created", "email", user.Email, "userId", user.ID.String())
}

func parseArgs(args []string) (superAdminInput, error) {
	fs := flag.NewFlagSet("create-super-admin", flag.ContinueOnError)
	in := superAdminInput{}
	fs.StringVar(&in.Email, "email", "", "login email")
	fs.StringVar(&in.Password, "password", os.Getenv("SUPER_ADMIN_PASSWORD"), "password (defaults to SUPER_ADMIN_PASSWORD)")
	fs.StringVar(&in.FirstName, "first-name", "Super", "first name")
	fs.StringVar(&in.LastName, "last-name", "Admin", "last name")
	if err := fs.Parse(args); err != nil {
		return superAdminInput{}, err
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validator.New().Struct(in); err != nil {
		return superAdminInput{}, fmt.Errorf("invalid arguments (password needs %d characters): %w", minPasswordLength, err)
	}
	return in, nil
}

// createSuperAdmin is idempotent for an existing super admin and refuses to
// promote any other account.
func createSuperAdmin(ctx context.Context, users userStore, in superAdminInput) (tenancy.User, bool, error) {
	existing, err := users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		if existing.UserType == tenancy.UserTypeSuperAdmin {
			return existing, false, nil
		}
		return tenancy.User{}, false, apperr.Conflict("a non super admin user with this email already exists")
	case !apperr.Is(err, apperr.KindNotFound):
		return tenancy.User{}, false, err
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return tenancy.User{}, false, err
	}

	user, err := users.CreateUser(ctx, nil, identityrepo.NewUser{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		UserType:     tenancy.UserTypeSuperAdmin,
	})
	if err != nil {
		return tenancy.User{}, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}
