package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/cardwall/cardwall/internal/board/models"
	"github.com/cardwall/cardwall/internal/common/errors"
)

// SQLiteRepository provides SQLite-based board storage operations
type SQLiteRepository struct {
	db *sqlx.DB
}

// Ensure SQLiteRepository implements Repository interface
var _ Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &SQLiteRepository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// initSchema creates the database tables if they don't exist
func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		owner_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lists (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL,
		title TEXT NOT NULL,
		position INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL,
		list_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		position INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE,
		FOREIGN KEY (list_id) REFERENCES lists(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS members (
		board_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		added_at DATETIME NOT NULL,
		PRIMARY KEY (board_id, user_id),
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		verb TEXT NOT NULL,
		task_id TEXT DEFAULT '',
		detail TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_lists_board_id ON lists(board_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_board_id ON tasks(board_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_list_id ON tasks(list_id);
	CREATE INDEX IF NOT EXISTS idx_members_user_id ON members(user_id);
	CREATE INDEX IF NOT EXISTS idx_activities_board_id ON activities(board_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Board operations

// CreateBoard creates a new board
func (r *SQLiteRepository) CreateBoard(ctx context.Context, board *models.Board) error {
	if board.ID == "" {
		board.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	board.CreatedAt = now
	board.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO boards (id, name, description, owner_id, created_at, updated_at)
		VALUES (:id, :name, :description, :owner_id, :created_at, :updated_at)
	`, board)

	return err
}

// GetBoard retrieves a board by ID
func (r *SQLiteRepository) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	board := &models.Board{}
	err := r.db.GetContext(ctx, board, `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM boards WHERE id = ?
	`, id)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("board", id)
	}
	if err != nil {
		return nil, err
	}
	return board, nil
}

// UpdateBoard updates an existing board
func (r *SQLiteRepository) UpdateBoard(ctx context.Context, board *models.Board) error {
	board.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE boards SET name = ?, description = ?, updated_at = ? WHERE id = ?
	`, board.Name, board.Description, board.UpdatedAt, board.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("board", board.ID)
	}
	return nil
}

// DeleteBoard deletes a board; lists, tasks, members and activity cascade
func (r *SQLiteRepository) DeleteBoard(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("board", id)
	}
	return nil
}

// ListBoardsByUser returns all boards the user is a member of
func (r *SQLiteRepository) ListBoardsByUser(ctx context.Context, userID string) ([]*models.Board, error) {
	var result []*models.Board
	err := r.db.SelectContext(ctx, &result, `
		SELECT b.id, b.name, b.description, b.owner_id, b.created_at, b.updated_at
		FROM boards b
		JOIN members m ON m.board_id = b.id
		WHERE m.user_id = ?
		ORDER BY b.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List operations

// CreateList creates a new list
func (r *SQLiteRepository) CreateList(ctx context.Context, list *models.List) error {
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO lists (id, board_id, title, position, created_at, updated_at)
		VALUES (:id, :board_id, :title, :position, :created_at, :updated_at)
	`, list)

	return err
}

// GetList retrieves a list by ID
func (r *SQLiteRepository) GetList(ctx context.Context, id string) (*models.List, error) {
	list := &models.List{}
	err := r.db.GetContext(ctx, list, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE id = ?
	`, id)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("list", id)
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateList updates an existing list
func (r *SQLiteRepository) UpdateList(ctx context.Context, list *models.List) error {
	list.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE lists SET title = ?, position = ?, updated_at = ? WHERE id = ?
	`, list.Title, list.Position, list.UpdatedAt, list.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("list", list.ID)
	}
	return nil
}

// DeleteList deletes a list; its tasks cascade
func (r *SQLiteRepository) DeleteList(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("list", id)
	}
	return nil
}

// ListLists returns all lists for a board ordered by position
func (r *SQLiteRepository) ListLists(ctx context.Context, boardID string) ([]*models.List, error) {
	var result []*models.List
	err := r.db.SelectContext(ctx, &result, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE board_id = ? ORDER BY position
	`, boardID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateListPositions applies list placements in a single transaction
func (r *SQLiteRepository) UpdateListPositions(ctx context.Context, boardID string, placements []models.ListPlacement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, p := range placements {
		result, err := tx.ExecContext(ctx, `
			UPDATE lists SET position = ?, updated_at = ? WHERE id = ? AND board_id = ?
		`, p.Position, now, p.ListID, boardID)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return errors.NotFound("list", p.ListID)
		}
	}

	return tx.Commit()
}

// Task operations

// CreateTask creates a new task
func (r *SQLiteRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tasks (id, board_id, list_id, title, description, position, created_at, updated_at)
		VALUES (:id, :board_id, :list_id, :title, :description, :position, :created_at, :updated_at)
	`, task)

	return err
}

// GetTask retrieves a task by ID
func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task := &models.Task{}
	err := r.db.GetContext(ctx, task, `
		SELECT id, board_id, list_id, title, description, position, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("task", id)
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask updates an existing task
func (r *SQLiteRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET list_id = ?, title = ?, description = ?, position = ?, updated_at = ?
		WHERE id = ?
	`, task.ListID, task.Title, task.Description, task.Position, task.UpdatedAt, task.ID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("task", task.ID)
	}
	return nil
}

// DeleteTask deletes a task by ID
func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("task", id)
	}
	return nil
}

// ListTasks returns all tasks for a board
func (r *SQLiteRepository) ListTasks(ctx context.Context, boardID string) ([]*models.Task, error) {
	var result []*models.Task
	err := r.db.SelectContext(ctx, &result, `
		SELECT id, board_id, list_id, title, description, position, created_at, updated_at
		FROM tasks WHERE board_id = ? ORDER BY list_id, position
	`, boardID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListTasksByList returns all tasks in a list ordered by position
func (r *SQLiteRepository) ListTasksByList(ctx context.Context, listID string) ([]*models.Task, error) {
	var result []*models.Task
	err := r.db.SelectContext(ctx, &result, `
		SELECT id, board_id, list_id, title, description, position, created_at, updated_at
		FROM tasks WHERE list_id = ? ORDER BY position
	`, listID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateTaskPositions applies task placements in a single transaction
func (r *SQLiteRepository) UpdateTaskPositions(ctx context.Context, placements []models.TaskPlacement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, p := range placements {
		result, err := tx.ExecContext(ctx, `
			UPDATE tasks SET list_id = ?, position = ?, updated_at = ? WHERE id = ?
		`, p.ListID, p.Position, now, p.TaskID)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return errors.NotFound("task", p.TaskID)
		}
	}

	return tx.Commit()
}

// Member operations

// AddMember adds a member to a board
func (r *SQLiteRepository) AddMember(ctx context.Context, member *models.Member) error {
	member.AddedAt = time.Now().UTC()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO members (board_id, user_id, role, added_at)
		VALUES (:board_id, :user_id, :role, :added_at)
	`, member)
	if err != nil {
		// Only the (board_id, user_id) primary key maps to a conflict;
		// other failures (FK violations, I/O errors) surface as-is.
		var sqliteErr sqlite3.Error
		if stderrors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return errors.Conflict("user is already a member of this board")
		}
		return err
	}
	return nil
}

// GetMember retrieves a board member
func (r *SQLiteRepository) GetMember(ctx context.Context, boardID, userID string) (*models.Member, error) {
	member := &models.Member{}
	err := r.db.GetContext(ctx, member, `
		SELECT board_id, user_id, role, added_at
		FROM members WHERE board_id = ? AND user_id = ?
	`, boardID, userID)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("member", userID)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember removes a member from a board
func (r *SQLiteRepository) RemoveMember(ctx context.Context, boardID, userID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM members WHERE board_id = ? AND user_id = ?
	`, boardID, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("member", userID)
	}
	return nil
}

// ListMembers returns all members of a board
func (r *SQLiteRepository) ListMembers(ctx context.Context, boardID string) ([]*models.Member, error) {
	var result []*models.Member
	err := r.db.SelectContext(ctx, &result, `
		SELECT board_id, user_id, role, added_at
		FROM members WHERE board_id = ? ORDER BY user_id
	`, boardID)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Activity operations

// RecordActivity appends an activity entry for a board
func (r *SQLiteRepository) RecordActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	activity.CreatedAt = time.Now().UTC()

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO activities (id, board_id, actor_id, verb, task_id, detail, created_at)
		VALUES (:id, :board_id, :actor_id, :verb, :task_id, :detail, :created_at)
	`, activity)

	return err
}

// ListActivity returns the most recent activity entries, newest first.
// A limit of zero or less returns the full history.
func (r *SQLiteRepository) ListActivity(ctx context.Context, boardID string, limit int) ([]*models.Activity, error) {
	query := `
		SELECT id, board_id, actor_id, verb, task_id, detail, created_at
		FROM activities WHERE board_id = ?
		ORDER BY created_at DESC
	`
	args := []interface{}{boardID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var result []*models.Activity
	if err := r.db.SelectContext(ctx, &result, query, args...); err != nil {
		return nil, err
	}
	return result, nil
}
