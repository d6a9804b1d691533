package store

import (
	"context"
	"errors"
	"time"
)

type ProjectStatus string

const (
	StatusActive   ProjectStatus = "Active"
	StatusInactive ProjectStatus = "Inactive"
)

func (s ProjectStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// ErrNotFound is returned by writes that target an id the store does not
// hold. Reads report a missing record with a nil result instead.
var ErrNotFound = errors.New("record not found")

// Project is one generated agent demo.
type Project struct {
	ID                   string
	URL                  string
	CompanyName          string
	KnowledgeBaseSummary string
	DemoURL              string
	Status               ProjectStatus
	AgentID              string
	AgentResourceID      string
	LinkedLeadID         string
	CreatedTime          time.Time
}

// ProjectInput carries the fields written by the generation pipeline.
// LinkedLeadID is only written on create.
type ProjectInput struct {
	URL                  string
	CompanyName          string
	KnowledgeBaseSummary string
	Status               ProjectStatus
	AgentID              string
	AgentResourceID      string
	LinkedLeadID         string
}

type MissionStatus string

const (
	MissionActive   MissionStatus = "Active"
	MissionInactive MissionStatus = "Inactive"
)

// DefaultMaxLeads matches the missions.max_leads column default.
const DefaultMaxLeads = 20

// Mission is a saved crawl configuration triggered on a schedule.
type Mission struct {
	ID        string
	Keyword   string
	Location  string
	MaxLeads  int
	Status    MissionStatus
	LastRunAt *time.Time
	CreatedAt time.Time
}

type Store interface {
	// UpsertProject updates existingID in place when it is non-empty and
	// creates a new project otherwise. It returns the project id.
	UpsertProject(ctx context.Context, input ProjectInput, existingID string) (string, error)
	SetDemoURL(ctx context.Context, projectID string, demoURL string) error
	SetStatus(ctx context.Context, projectID string, status ProjectStatus) error
	// FindProjectByLead returns the id of the most recently created project
	// linked to leadID, or "" when there is none.
	FindProjectByLead(ctx context.Context, leadID string) (string, error)
	GetProject(ctx context.Context, projectID string) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)

	ListMissions(ctx context.Context) ([]Mission, error)
	ListActiveMissions(ctx context.Context) ([]Mission, error)
	GetMission(ctx context.Context, missionID string) (*Mission, error)
	CreateMission(ctx context.Context, mission Mission) (string, error)
	SetMissionStatus(ctx context.Context, missionID string, status MissionStatus) error
	MarkMissionRun(ctx context.Context, missionID string, at time.Time) error
	DeleteMission(ctx context.Context, missionID string) error

	Ping(ctx context.Context) error
}
