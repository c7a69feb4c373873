package source

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/network"
)

// createdAtLayout sorts lexicographically in time order.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// SQLite keeps network snapshots in a local database, mirroring the
// backend's creator_networks collection one row per snapshot.
type SQLite struct {
	db    *sql.DB
	path  string
	table string
	now   func() time.Time
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(ctx context.Context, path string, opts Options) (*SQLite, error) {
	opts = opts.withDefaults()
	if strings.TrimSpace(path) == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "sqlite path cannot be empty")
	}
	if !tableNameRe.MatchString(opts.Collection) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid table name %q", opts.Collection)
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &SQLite{db: db, path: path, table: opts.Collection, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform TEXT NOT NULL,
		network_data TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_platform ON %[1]s(platform, created_at);
	`, s.table)
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLite) Load(ctx context.Context, platform string) (network.Payload, error) {
	platform, err := platformOrDefault(platform)
	if err != nil {
		return network.Payload{}, err
	}

	var data string
	query := fmt.Sprintf(`SELECT network_data FROM %s WHERE platform = ? ORDER BY created_at DESC, id DESC LIMIT 1`, s.table)
	err = s.db.QueryRowContext(ctx, query, platform).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return network.Payload{}, nil
	}
	if err != nil {
		return network.Payload{}, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "load network for %s", platform)
	}
	return network.Unmarshal([]byte(data))
}

// Save stores p as the newest snapshot for platform.
func (s *SQLite) Save(ctx context.Context, platform string, p network.Payload) error {
	platform, err := platformOrDefault(platform)
	if err != nil {
		return err
	}
	data, err := network.Marshal(p)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (platform, network_data, created_at) VALUES (?, ?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, query, platform, string(data), s.now().UTC().Format(createdAtLayout)); err != nil {
		return errors.Wrap(errors.ErrCodeSourceUnavailable, err, "save network for %s", platform)
	}
	return nil
}

// Prune keeps the newest keep snapshots per platform and returns how many
// rows were deleted.
func (s *SQLite) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	query := fmt.Sprintf(`
	DELETE FROM %[1]s WHERE id IN (
		SELECT id FROM (
			SELECT id, ROW_NUMBER() OVER (PARTITION BY platform ORDER BY created_at DESC, id DESC) AS rn
			FROM %[1]s
		) WHERE rn > ?
	)`, s.table)
	res, err := s.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLite) Name() string { return "sqlite:" + s.path }

func (s *SQLite) Close() error { return s.db.Close() }
