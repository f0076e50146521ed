package database

import (
	"testing"

	"github.com/CosmoTheDev/prnotify/internal/config"
)

func TestUpsertQueries(t *testing.T) {
	cols, placeholders, vals := structToInsert(userRow{Login: "bar", Email: "bar@example.com"})
	if len(vals) != len(cols) || len(placeholders) != len(cols) {
		t.Fatalf("cols=%v placeholders=%v vals=%v", cols, placeholders, vals)
	}

	tests := []struct {
		name     string
		build    func(table string, cols, placeholders, conflictCols []string) string
		conflict []string
		want     string
	}{
		{
			name:     "mysql",
			build:    mysqlUpsertQuery,
			conflict: []string{"login"},
			want: "INSERT INTO users (login, email, slack_user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?) " +
				"ON DUPLICATE KEY UPDATE email = VALUES(email), slack_user_id = VALUES(slack_user_id), " +
				"created_at = VALUES(created_at), updated_at = VALUES(updated_at)",
		},
		{
			name:     "mysql all key columns",
			build:    mysqlUpsertQuery,
			conflict: cols,
			want: "INSERT INTO users (login, email, slack_user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?) " +
				"ON DUPLICATE KEY UPDATE login = login",
		},
		{
			name:     "sqlite",
			build:    sqliteUpsertQuery,
			conflict: []string{"login"},
			want: "INSERT INTO users (login, email, slack_user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?) " +
				"ON CONFLICT(login) DO UPDATE SET email = excluded.email, slack_user_id = excluded.slack_user_id, " +
				"created_at = excluded.created_at, updated_at = excluded.updated_at",
		},
		{
			name:     "sqlite all key columns",
			build:    sqliteUpsertQuery,
			conflict: cols,
			want: "INSERT INTO users (login, email, slack_user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?) " +
				"ON CONFLICT(login, email, slack_user_id, created_at, updated_at) DO NOTHING",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build("users", cols, placeholders, tt.conflict); got != tt.want {
				t.Fatalf("query =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestNewMySQLRejectsBadDSN(t *testing.T) {
	for _, dsn := range []string{"", "not a dsn"} {
		if _, err := NewMySQL(config.DatabaseConfig{Driver: "mysql", DSN: dsn}); err == nil {
			t.Fatalf("expected an error for DSN %q", dsn)
		}
	}
}
