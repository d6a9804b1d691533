// Package memory is the in-process Store used when no database is
// configured. Data lives for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MartialAndCo/berinia-bot/internal/store"
)

type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]store.Project
	missions map[string]store.Mission
	now      func() time.Time

	// seq orders projects created at the same instant.
	seq        uint64
	projectSeq map[string]uint64
}

func New() *MemoryStore {
	return &MemoryStore{
		projects:   map[string]store.Project{},
		missions:   map[string]store.Mission{},
		now:        time.Now,
		projectSeq: map[string]uint64{},
	}
}

// NewWithClock is New with the creation timestamp source replaced.
func NewWithClock(now func() time.Time) *MemoryStore {
	m := New()
	if now != nil {
		m.now = now
	}
	return m
}

func (m *MemoryStore) UpsertProject(ctx context.Context, input store.ProjectInput, existingID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := input.Status
	if status == "" {
		status = store.StatusActive
	}
	if existingID != "" {
		project, ok := m.projects[existingID]
		if !ok {
			return "", store.ErrNotFound
		}
		project.URL = input.URL
		project.CompanyName = input.CompanyName
		project.KnowledgeBaseSummary = input.KnowledgeBaseSummary
		project.Status = status
		project.AgentID = input.AgentID
		project.AgentResourceID = input.AgentResourceID
		m.projects[existingID] = project
		return existingID, nil
	}

	id := uuid.NewString()
	m.seq++
	m.projectSeq[id] = m.seq
	m.projects[id] = store.Project{
		ID:                   id,
		URL:                  input.URL,
		CompanyName:          input.CompanyName,
		KnowledgeBaseSummary: input.KnowledgeBaseSummary,
		Status:               status,
		AgentID:              input.AgentID,
		AgentResourceID:      input.AgentResourceID,
		LinkedLeadID:         strings.TrimSpace(input.LinkedLeadID),
		CreatedTime:          m.now().UTC(),
	}
	return id, nil
}

func (m *MemoryStore) SetDemoURL(ctx context.Context, projectID string, demoURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	project.DemoURL = demoURL
	m.projects[projectID] = project
	return nil
}

func (m *MemoryStore) SetStatus(ctx context.Context, projectID string, status store.ProjectStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[projectID]
	if !ok {
		return store.ErrNotFound
	}
	project.Status = status
	m.projects[projectID] = project
	return nil
}

func (m *MemoryStore) FindProjectByLead(ctx context.Context, leadID string) (string, error) {
	leadID = strings.TrimSpace(leadID)
	if leadID == "" {
		return "", nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		found   string
		newest  store.Project
		matched bool
	)
	for id, project := range m.projects {
		if project.LinkedLeadID != leadID {
			continue
		}
		if !matched || m.newer(project, newest) {
			found, newest, matched = id, project, true
		}
	}
	return found, nil
}

// newer reports whether a was created after b, falling back to insertion
// order on equal timestamps.
func (m *MemoryStore) newer(a, b store.Project) bool {
	if !a.CreatedTime.Equal(b.CreatedTime) {
		return a.CreatedTime.After(b.CreatedTime)
	}
	return m.projectSeq[a.ID] > m.projectSeq[b.ID]
}

func (m *MemoryStore) GetProject(ctx context.Context, projectID string) (*store.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	project, ok := m.projects[projectID]
	if !ok {
		return nil, nil
	}
	cloned := project
	return &cloned, nil
}

func (m *MemoryStore) ListProjects(ctx context.Context) ([]store.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	projects := make([]store.Project, 0, len(m.projects))
	for _, project := range m.projects {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(i, j int) bool {
		return m.newer(projects[i], projects[j])
	})
	return projects, nil
}

func (m *MemoryStore) ListMissions(ctx context.Context) ([]store.Mission, error) {
	return m.listMissions(func(store.Mission) bool { return true }), nil
}

func (m *MemoryStore) ListActiveMissions(ctx context.Context) ([]store.Mission, error) {
	return m.listMissions(func(mission store.Mission) bool {
		return mission.Status == store.MissionActive
	}), nil
}

func (m *MemoryStore) listMissions(keep func(store.Mission) bool) []store.Mission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	missions := make([]store.Mission, 0, len(m.missions))
	for _, mission := range m.missions {
		if keep(mission) {
			missions = append(missions, cloneMission(mission))
		}
	}
	sort.Slice(missions, func(i, j int) bool {
		return missions[i].CreatedAt.After(missions[j].CreatedAt)
	})
	return missions
}

func (m *MemoryStore) GetMission(ctx context.Context, missionID string) (*store.Mission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mission, ok := m.missions[missionID]
	if !ok {
		return nil, nil
	}
	cloned := cloneMission(mission)
	return &cloned, nil
}

func (m *MemoryStore) CreateMission(ctx context.Context, mission store.Mission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mission.ID == "" {
		mission.ID = uuid.NewString()
	}
	if mission.Status == "" {
		mission.Status = store.MissionActive
	}
	if mission.MaxLeads <= 0 {
		mission.MaxLeads = store.DefaultMaxLeads
	}
	if mission.CreatedAt.IsZero() {
		mission.CreatedAt = m.now().UTC()
	}
	m.missions[mission.ID] = cloneMission(mission)
	return mission.ID, nil
}

func (m *MemoryStore) SetMissionStatus(ctx context.Context, missionID string, status store.MissionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mission, ok := m.missions[missionID]
	if !ok {
		return store.ErrNotFound
	}
	mission.Status = status
	m.missions[missionID] = mission
	return nil
}

func (m *MemoryStore) MarkMissionRun(ctx context.Context, missionID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mission, ok := m.missions[missionID]
	if !ok {
		return store.ErrNotFound
	}
	ranAt := at.UTC()
	mission.LastRunAt = &ranAt
	m.missions[missionID] = mission
	return nil
}

func (m *MemoryStore) DeleteMission(ctx context.Context, missionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.missions, missionID)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func cloneMission(mission store.Mission) store.Mission {
	cloned := mission
	if mission.LastRunAt != nil {
		lastRun := *mission.LastRunAt
		cloned.LastRunAt = &lastRun
	}
	return cloned
}
