package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/common/errors"
)

// PostgresRepository provides PostgreSQL-based board storage operations
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// Ensure PostgresRepository implements Repository interface
var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository using a pgx pool
func NewPostgresRepository(ctx context.Context, dsn string, maxConns, minConns int) (*PostgresRepository, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	if minConns > 0 {
		poolCfg.MinConns = int32(minConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresRepository{pool: pool}

	if err := repo.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// initSchema creates the database tables if they don't exist
func (r *PostgresRepository) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		owner_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lists (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		position INTEGER DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		list_id TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		position INTEGER DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS members (
		board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		added_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (board_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		actor_id TEXT NOT NULL,
		verb TEXT NOT NULL,
		task_id TEXT DEFAULT '',
		detail TEXT DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lists_board_id ON lists(board_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_board_id ON tasks(board_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_list_id ON tasks(list_id);
	CREATE INDEX IF NOT EXISTS idx_members_user_id ON members(user_id);
	CREATE INDEX IF NOT EXISTS idx_activities_board_id ON activities(board_id);
	`

	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Close closes the connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Board operations

// CreateBoard creates a new board
func (r *PostgresRepository) CreateBoard(ctx context.Context, board *models.Board) error {
	if board.ID == "" {
		board.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	board.CreatedAt = now
	board.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO boards (id, name, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, board.ID, board.Name, board.Description, board.OwnerID, board.CreatedAt, board.UpdatedAt)

	return err
}

// GetBoard retrieves a board by ID
func (r *PostgresRepository) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	board := &models.Board{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM boards WHERE id = $1
	`, id).Scan(&board.ID, &board.Name, &board.Description, &board.OwnerID, &board.CreatedAt, &board.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("board", id)
	}
	if err != nil {
		return nil, err
	}
	return board, nil
}

// UpdateBoard updates an existing board
func (r *PostgresRepository) UpdateBoard(ctx context.Context, board *models.Board) error {
	board.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		UPDATE boards SET name = $1, description = $2, updated_at = $3 WHERE id = $4
	`, board.Name, board.Description, board.UpdatedAt, board.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("board", board.ID)
	}
	return nil
}

// DeleteBoard deletes a board; lists, tasks, members and activity cascade
func (r *PostgresRepository) DeleteBoard(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("board", id)
	}
	return nil
}

// ListBoardsByUser returns all boards the user is a member of
func (r *PostgresRepository) ListBoardsByUser(ctx context.Context, userID string) ([]*models.Board, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.name, b.description, b.owner_id, b.created_at, b.updated_at
		FROM boards b
		JOIN members m ON m.board_id = b.id
		WHERE m.user_id = $1
		ORDER BY b.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Board
	for rows.Next() {
		board := &models.Board{}
		if err := rows.Scan(&board.ID, &board.Name, &board.Description, &board.OwnerID, &board.CreatedAt, &board.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, board)
	}
	return result, rows.Err()
}

// List operations

// CreateList creates a new list
func (r *PostgresRepository) CreateList(ctx context.Context, list *models.List) error {
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO lists (id, board_id, title, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, list.ID, list.BoardID, list.Title, list.Position, list.CreatedAt, list.UpdatedAt)

	return err
}

// GetList retrieves a list by ID
func (r *PostgresRepository) GetList(ctx context.Context, id string) (*models.List, error) {
	list := &models.List{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE id = $1
	`, id).Scan(&list.ID, &list.BoardID, &list.Title, &list.Position, &list.CreatedAt, &list.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("list", id)
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateList updates an existing list
func (r *PostgresRepository) UpdateList(ctx context.Context, list *models.List) error {
	list.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		UPDATE lists SET title = $1, position = $2, updated_at = $3 WHERE id = $4
	`, list.Title, list.Position, list.UpdatedAt, list.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("list", list.ID)
	}
	return nil
}

// DeleteList deletes a list; its tasks cascade
func (r *PostgresRepository) DeleteList(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("list", id)
	}
	return nil
}

// ListLists returns all lists for a board ordered by position
func (r *PostgresRepository) ListLists(ctx context.Context, boardID string) ([]*models.List, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE board_id = $1 ORDER BY position
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.List
	for rows.Next() {
		list := &models.List{}
		if err := rows.Scan(&list.ID, &list.BoardID, &list.Title, &list.Position, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, list)
	}
	return result, rows.Err()
}

// UpdateListPositions applies list placements in a single transaction
func (r *PostgresRepository) UpdateListPositions(ctx context.Context, boardID string, placements []models.ListPlacement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, p := range placements {
		tag, err := tx.Exec(ctx, `
			UPDATE lists SET position = $1, updated_at = $2 WHERE id = $3 AND board_id = $4
		`, p.Position, now, p.ListID, boardID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errors.NotFound("list", p.ListID)
		}
	}

	return tx.Commit(ctx)
}

// Task operations

// CreateTask creates a new task
func (r *PostgresRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, board_id, list_id, title, description, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, task.ID, task.BoardID, task.ListID, task.Title, task.Description, task.Position, task.CreatedAt, task.UpdatedAt)

	return err
}

// GetTask retrieves a task by ID
func (r *PostgresRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task := &models.Task{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, board_id, list_id, title, description, position, created_at, updated_at
		FROM tasks WHERE id = $1
	`, id).Scan(&task.ID, &task.BoardID, &task.ListID, &task.Title, &task.Description, &task.Position, &task.CreatedAt, &task.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("task", id)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask updates an existing task
func (r *PostgresRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		UPDATE tasks SET list_id = $1, title = $2, description = $3, position = $4, updated_at = $5
		WHERE id = $6
	`, task.ListID, task.Title, task.Description, task.Position, task.UpdatedAt, task.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("task", task.ID)
	}
	return nil
}

// DeleteTask deletes a task by ID
func (r *PostgresRepository) DeleteTask(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("task", id)
	}
	return nil
}

// ListTasks returns all tasks for a board
func (r *PostgresRepository) ListTasks(ctx context.Context, boardID string) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, board_id, list_id, title, description, position, created_at, updated_at
		FROM tasks WHERE board_id = $1 ORDER BY list_id, position
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPgxTasks(rows)
}

// ListTasksByList returns all tasks in a list ordered by position
func (r *PostgresRepository) ListTasksByList(ctx context.Context, listID string) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, board_id, list_id, title, description, position, created_at, updated_at
		FROM tasks WHERE list_id = $1 ORDER BY position
	`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPgxTasks(rows)
}

func scanPgxTasks(rows pgx.Rows) ([]*models.Task, error) {
	var result []*models.Task
	for rows.Next() {
		task := &models.Task{}
		if err := rows.Scan(&task.ID, &task.BoardID, &task.ListID, &task.Title, &task.Description, &task.Position, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

// UpdateTaskPositions applies task placements in a single transaction
func (r *PostgresRepository) UpdateTaskPositions(ctx context.Context, placements []models.TaskPlacement) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, p := range placements {
		batch.Queue(`
			UPDATE tasks SET list_id = $1, position = $2, updated_at = $3 WHERE id = $4
		`, p.ListID, p.Position, now, p.TaskID)
	}

	results := tx.SendBatch(ctx, batch)
	for _, p := range placements {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return err
		}
		if tag.RowsAffected() == 0 {
			results.Close()
			return errors.NotFound("task", p.TaskID)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Member operations

// AddMember adds a member to a board
func (r *PostgresRepository) AddMember(ctx context.Context, member *models.Member) error {
	member.AddedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO members (board_id, user_id, role, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (board_id, user_id) DO NOTHING
	`, member.BoardID, member.UserID, member.Role, member.AddedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.Conflict("user is already a member of this board")
	}
	return nil
}

// GetMember retrieves a board member
func (r *PostgresRepository) GetMember(ctx context.Context, boardID, userID string) (*models.Member, error) {
	member := &models.Member{}
	err := r.pool.QueryRow(ctx, `
		SELECT board_id, user_id, role, added_at
		FROM members WHERE board_id = $1 AND user_id = $2
	`, boardID, userID).Scan(&member.BoardID, &member.UserID, &member.Role, &member.AddedAt)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("member", userID)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember removes a member from a board
func (r *PostgresRepository) RemoveMember(ctx context.Context, boardID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM members WHERE board_id = $1 AND user_id = $2
	`, boardID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("member", userID)
	}
	return nil
}

// ListMembers returns all members of a board
func (r *PostgresRepository) ListMembers(ctx context.Context, boardID string) ([]*models.Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT board_id, user_id, role, added_at
		FROM members WHERE board_id = $1 ORDER BY user_id
	`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Member
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(&member.BoardID, &member.UserID, &member.Role, &member.AddedAt); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	return result, rows.Err()
}

// Activity operations

// RecordActivity appends an activity entry for a board
func (r *PostgresRepository) RecordActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	activity.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO activities (id, board_id, actor_id, verb, task_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, activity.ID, activity.BoardID, activity.ActorID, activity.Verb, activity.TaskID, activity.Detail, activity.CreatedAt)

	return err
}

// ListActivity returns the most recent activity entries, newest first
func (r *PostgresRepository) ListActivity(ctx context.Context, boardID string, limit int) ([]*models.Activity, error) {
	query := `
		SELECT id, board_id, actor_id, verb, task_id, detail, created_at
		FROM activities WHERE board_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{boardID}
	// Zero or negative limit returns the full history, matching the other
	// repository implementations.
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*models.Activity
	for rows.Next() {
		activity := &models.Activity{}
		if err := rows.Scan(&activity.ID, &activity.BoardID, &activity.ActorID, &activity.Verb, &activity.TaskID, &activity.Detail, &activity.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
