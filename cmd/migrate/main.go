package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/backend/internal/config"
	"github.com/workbridge/backend/internal/logging"
	"github.com/workbridge/backend/internal/repository"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  (default)   差分マイグレーションを適用
  status      適用済み／未適用のマイグレーションを表示
  reset       全テーブルを DROP し、集約スキーマで再作成
  fresh       全テーブルを DROP し、全マイグレーションを順番に適用`)
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, "migrate")

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("connect failed", "error", err)
	}
	defer pool.Close()

	migrationDir := findMigrationDir()
	upFiles, err := collectUpFiles(migrationDir)
	if err != nil {
		logging.Fatal("read migrations dir failed", "error", err)
	}

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "":
		runIncremental(ctx, pool, migrationDir, upFiles)
	case "status":
		runStatus(ctx, pool, upFiles)
	case "reset":
		runDropAll(ctx, pool, migrationDir)
		runConsolidated(ctx, pool, migrationDir, upFiles)
	case "fresh":
		runDropAll(ctx, pool, migrationDir)
		runIncremental(ctx, pool, migrationDir, upFiles)
	default:
		usage()
	}
}

func findMigrationDir() string {
	dir := "migrations"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../migrations"
	}
	return dir
}

// collectUpFiles は .up.sql ファイル名をソート済みで返す
func collectUpFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func migrationName(filename string) string {
	return strings.TrimSuffix(filename, ".up.sql")
}

// pending は未適用のファイル名を順序を保って返す
func pending(upFiles []string, applied map[string]bool) []string {
	var out []string
	for _, f := range upFiles {
		if !applied[migrationName(f)] {
			out = append(out, f)
		}
	}
	return out
}

func ensureSchemaMigrations(ctx context.Context, pool *pgxpool.Pool) {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		logging.Fatal("create schema_migrations failed", "error", err)
	}
}

func appliedNames(ctx context.Context, pool *pgxpool.Pool) map[string]bool {
	rows, err := pool.Query(ctx, "SELECT name FROM schema_migrations")
	if err != nil {
		logging.Fatal("list applied migrations failed", "error", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		logging.Fatal("list applied migrations failed", "error", err)
	}
	applied := make(map[string]bool, len(names))
	for _, n := range names {
		applied[n] = true
	}
	return applied
}

// ---------------------------------------------------------------------------
// (default) 差分マイグレーション。1 ファイルずつトランザクションで適用
// ---------------------------------------------------------------------------
func runIncremental(ctx context.Context, pool *pgxpool.Pool, dir string, upFiles []string) {
	ensureSchemaMigrations(ctx, pool)

	todo := pending(upFiles, appliedNames(ctx, pool))
	for i, filename := range todo {
		name := migrationName(filename)
		sql, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			logging.Fatal("read migration failed", "migration", name, "error", err)
		}
		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name)
			return err
		})
		if err != nil {
			logging.Fatal("migration failed", "migration", name, "error", err)
		}
		slog.Info("migration completed", "number", i+1, "migration", name)
	}

	if len(todo) == 0 {
		slog.Info("all migrations already applied")
	} else {
		slog.Info("migrations completed", "count", len(todo))
	}
}

func runStatus(ctx context.Context, pool *pgxpool.Pool, upFiles []string) {
	ensureSchemaMigrations(ctx, pool)
	applied := appliedNames(ctx, pool)
	for _, f := range upFiles {
		state := "pending"
		if applied[migrationName(f)] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, migrationName(f))
	}
}

// ---------------------------------------------------------------------------
// 全テーブル DROP
// ---------------------------------------------------------------------------
func runDropAll(ctx context.Context, pool *pgxpool.Pool, dir string) {
	slog.Info("dropping all tables")
	sql, err := os.ReadFile(filepath.Join(dir, "000_drop_all.sql"))
	if err != nil {
		logging.Fatal("read 000_drop_all.sql failed", "error", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		logging.Fatal("drop all failed", "error", err)
	}
	slog.Info("all tables dropped")
}

// ---------------------------------------------------------------------------
// 集約スキーマで再作成
// ---------------------------------------------------------------------------
func runConsolidated(ctx context.Context, pool *pgxpool.Pool, dir string, upFiles []string) {
	slog.Info("applying consolidated schema")
	sql, err := os.ReadFile(filepath.Join(dir, "000_consolidated.sql"))
	if err != nil {
		logging.Fatal("read 000_consolidated.sql failed", "error", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		logging.Fatal("consolidated apply failed", "error", err)
	}

	// 全マイグレーションを適用済みとして記録
	ensureSchemaMigrations(ctx, pool)
	for _, filename := range upFiles {
		_, _ = pool.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING", migrationName(filename))
	}
	slog.Info("consolidated schema applied", "migrations_marked", len(upFiles))
}
