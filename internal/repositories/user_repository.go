package repositories

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"vtask/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	FindByRefreshToken(ctx context.Context, token string) (*models.User, error)
	SetTelegramChatID(ctx context.Context, id string, chatID int64) error
	// ListWithTelegram returns every owner that linked a telegram chat,
	// for the daily digest.
	ListWithTelegram(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `
		INSERT INTO users (id, email, password_hash, telegram_chat_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.TelegramChatID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *userRepository) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, `WHERE refresh_token = $1`, token)
}

func (r *userRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT id, email, password_hash, telegram_chat_id, created_at, updated_at FROM users ` + where
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.TelegramChatID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`, token, id)
	return err
}

func (r *userRepository) SetTelegramChatID(ctx context.Context, id string, chatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id = $1, updated_at = NOW() WHERE id = $2`, chatID, id)
	return err
}

func (r *userRepository) ListWithTelegram(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, password_hash, telegram_chat_id, created_at, updated_at
		 FROM users WHERE telegram_chat_id <> 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.TelegramChatID,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
