package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/store"
)

type PostgresStore struct {
	db *sql.DB
}

var openDB = sql.Open

// New connects, applies migrations and verifies the schema.
func New(conn string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := Open(conn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := verifySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Open returns a pinged connection pool.
func Open(conn string) (*sql.DB, error) {
	db, err := openDB("pgx", conn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func verifySchema(ctx context.Context, db *sql.DB) error {
	for _, table := range []string{"projects", "missions"} {
		var regclass sql.NullString
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)", fmt.Sprintf("public.%s", table)).Scan(&regclass); err != nil {
			return err
		}
		if !regclass.Valid {
			return fmt.Errorf("database schema missing: %s table not found", table)
		}
	}
	return nil
}

func (p *PostgresStore) DB() *sql.DB {
	return p.db
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresStore) UpsertProject(ctx context.Context, input store.ProjectInput, existingID string) (string, error) {
	status := input.Status
	if status == "" {
		status = store.StatusActive
	}
	if existingID != "" {
		const query = `
			UPDATE projects
			SET url = $2,
				company_name = $3,
				knowledge_base_summary = $4,
				status = $5,
				agent_id = $6,
				agent_resource_id = $7
			WHERE id = $1
		`
		result, err := p.db.ExecContext(
			ctx,
			query,
			existingID,
			input.URL,
			input.CompanyName,
			input.KnowledgeBaseSummary,
			string(status),
			nullString(input.AgentID),
			nullString(input.AgentResourceID),
		)
		if err != nil {
			return "", err
		}
		if err := requireAffected(result); err != nil {
			return "", err
		}
		return existingID, nil
	}

	const query = `
		INSERT INTO projects (
			id,
			url,
			company_name,
			knowledge_base_summary,
			status,
			agent_id,
			agent_resource_id,
			linked_lead_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id string
	err := p.db.QueryRowContext(
		ctx,
		query,
		uuid.NewString(),
		input.URL,
		input.CompanyName,
		input.KnowledgeBaseSummary,
		string(status),
		nullString(input.AgentID),
		nullString(input.AgentResourceID),
		nullString(input.LinkedLeadID),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *PostgresStore) SetDemoURL(ctx context.Context, projectID string, demoURL string) error {
	result, err := p.db.ExecContext(ctx, "UPDATE projects SET demo_url = $2 WHERE id = $1", projectID, nullString(demoURL))
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (p *PostgresStore) SetStatus(ctx context.Context, projectID string, status store.ProjectStatus) error {
	result, err := p.db.ExecContext(ctx, "UPDATE projects SET status = $2 WHERE id = $1", projectID, string(status))
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (p *PostgresStore) FindProjectByLead(ctx context.Context, leadID string) (string, error) {
	leadID = strings.TrimSpace(leadID)
	if leadID == "" {
		return "", nil
	}
	const query = `
		SELECT id
		FROM projects
		WHERE linked_lead_id = $1
		ORDER BY created_time DESC
		LIMIT 1
	`
	var id string
	if err := p.db.QueryRowContext(ctx, query, leadID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

const projectColumns = `id, url, company_name, knowledge_base_summary, demo_url, status, agent_id, agent_resource_id, linked_lead_id, created_time`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (store.Project, error) {
	var (
		project         store.Project
		status          string
		demoURL         sql.NullString
		agentID         sql.NullString
		agentResourceID sql.NullString
		linkedLeadID    sql.NullString
		createdTime     time.Time
	)
	if err := row.Scan(
		&project.ID,
		&project.URL,
		&project.CompanyName,
		&project.KnowledgeBaseSummary,
		&demoURL,
		&status,
		&agentID,
		&agentResourceID,
		&linkedLeadID,
		&createdTime,
	); err != nil {
		return store.Project{}, err
	}
	project.Status = store.ProjectStatus(status)
	project.DemoURL = demoURL.String
	project.AgentID = agentID.String
	project.AgentResourceID = agentResourceID.String
	project.LinkedLeadID = linkedLeadID.String
	project.CreatedTime = createdTime.UTC()
	return project, nil
}

func (p *PostgresStore) GetProject(ctx context.Context, projectID string) (*store.Project, error) {
	row := p.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = $1", projectID)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

func (p *PostgresStore) ListProjects(ctx context.Context) ([]store.Project, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY created_time DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	projects := []store.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

const missionColumns = `id, keyword, location, max_leads, status, last_run_at, created_at`

func scanMission(row rowScanner) (store.Mission, error) {
	var (
		mission   store.Mission
		status    string
		lastRunAt sql.NullTime
		createdAt time.Time
	)
	if err := row.Scan(
		&mission.ID,
		&mission.Keyword,
		&mission.Location,
		&mission.MaxLeads,
		&status,
		&lastRunAt,
		&createdAt,
	); err != nil {
		return store.Mission{}, err
	}
	mission.Status = store.MissionStatus(status)
	if lastRunAt.Valid {
		ranAt := lastRunAt.Time.UTC()
		mission.LastRunAt = &ranAt
	}
	mission.CreatedAt = createdAt.UTC()
	return mission, nil
}

func (p *PostgresStore) ListMissions(ctx context.Context) ([]store.Mission, error) {
	return p.queryMissions(ctx, "SELECT "+missionColumns+" FROM missions ORDER BY created_at DESC")
}

func (p *PostgresStore) ListActiveMissions(ctx context.Context) ([]store.Mission, error) {
	return p.queryMissions(ctx, "SELECT "+missionColumns+" FROM missions WHERE status = $1 ORDER BY created_at DESC", string(store.MissionActive))
}

func (p *PostgresStore) queryMissions(ctx context.Context, query string, args ...any) ([]store.Mission, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	missions := []store.Mission{}
	for rows.Next() {
		mission, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, mission)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return missions, nil
}

func (p *PostgresStore) GetMission(ctx context.Context, missionID string) (*store.Mission, error) {
	row := p.db.QueryRowContext(ctx, "SELECT "+missionColumns+" FROM missions WHERE id = $1", missionID)
	mission, err := scanMission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &mission, nil
}

func (p *PostgresStore) CreateMission(ctx context.Context, mission store.Mission) (string, error) {
	if mission.ID == "" {
		mission.ID = uuid.NewString()
	}
	if mission.Status == "" {
		mission.Status = store.MissionActive
	}
	if mission.MaxLeads <= 0 {
		mission.MaxLeads = store.DefaultMaxLeads
	}
	const query = `
		INSERT INTO missions (id, keyword, location, max_leads, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id string
	if err := p.db.QueryRowContext(ctx, query, mission.ID, mission.Keyword, mission.Location, mission.MaxLeads, string(mission.Status)).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (p *PostgresStore) SetMissionStatus(ctx context.Context, missionID string, status store.MissionStatus) error {
	result, err := p.db.ExecContext(ctx, "UPDATE missions SET status = $2 WHERE id = $1", missionID, string(status))
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (p *PostgresStore) MarkMissionRun(ctx context.Context, missionID string, at time.Time) error {
	result, err := p.db.ExecContext(ctx, "UPDATE missions SET last_run_at = $2 WHERE id = $1", missionID, at.UTC())
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (p *PostgresStore) DeleteMission(ctx context.Context, missionID string) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM missions WHERE id = $1", missionID)
	return err
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return value
}
