package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_projects",
		SQL: `CREATE TABLE IF NOT EXISTS projects (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name        TEXT        NOT NULL,
  description TEXT        NOT NULL DEFAULT '',
  status      TEXT        NOT NULL DEFAULT 'draft',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_generation_jobs",
		SQL: `CREATE TABLE IF NOT EXISTS generation_jobs (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  project_id UUID        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
  status     TEXT        NOT NULL DEFAULT 'queued',
  prompt     TEXT        NOT NULL,
  model      TEXT        NOT NULL,
  attempts   INT         NOT NULL DEFAULT 0 CHECK (attempts >= 0),
  error      TEXT        NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_generation_logs",
		SQL: `CREATE TABLE IF NOT EXISTS generation_logs (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  job_id     UUID        NOT NULL REFERENCES generation_jobs (id) ON DELETE CASCADE,
  seq        INT         NOT NULL CHECK (seq >= 0),
  level      TEXT        NOT NULL,
  message    TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (job_id, seq)
);`,
	},
	{
		Name: "create_table_previews",
		SQL: `CREATE TABLE IF NOT EXISTS previews (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  project_id UUID        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
  status     TEXT        NOT NULL DEFAULT 'pending',
  url        TEXT        NOT NULL DEFAULT '',
  expires_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_app_files",
		SQL: `CREATE TABLE IF NOT EXISTS app_files (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  project_id   UUID        NOT NULL REFERENCES projects (id) ON DELETE CASCADE,
  job_id       UUID        NOT NULL REFERENCES generation_jobs (id) ON DELETE CASCADE,
  path         TEXT        NOT NULL,
  storage_key  TEXT        NOT NULL UNIQUE,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (project_id, path)
);`,
	},
	{
		Name: "create_index_generation_jobs_project_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_generation_jobs_project_id ON generation_jobs (project_id);`,
	},
	{
		Name: "create_index_generation_logs_job_id_seq",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_generation_logs_job_id_seq ON generation_logs (job_id, seq);`,
	},
	{
		Name: "create_index_previews_project_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_previews_project_id ON previews (project_id);`,
	},
	{
		Name: "create_index_previews_expires_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_previews_expires_at ON previews (expires_at);`,
	},
	{
		Name: "create_index_app_files_project_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_app_files_project_id ON app_files (project_id);`,
	},
}

// EnsureMigrated checks if the 'projects' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.projects') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
