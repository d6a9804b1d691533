package api

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/MartialAndCo/berinia-bot/internal/agentplatform"
	"github.com/MartialAndCo/berinia-bot/internal/jobs"
	"github.com/MartialAndCo/berinia-bot/internal/pipeline"
	"github.com/MartialAndCo/berinia-bot/internal/store"
	"github.com/MartialAndCo/berinia-bot/internal/workflows"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpsertProject(ctx context.Context, input store.ProjectInput, existingID string) (string, error) {
	args := m.Called(ctx, input, existingID)
	return args.String(0), args.Error(1)
}

func (m *MockStore) SetDemoURL(ctx context.Context, projectID string, demoURL string) error {
	args := m.Called(ctx, projectID, demoURL)
	return args.Error(0)
}

func (m *MockStore) SetStatus(ctx context.Context, projectID string, status store.ProjectStatus) error {
	args := m.Called(ctx, projectID, status)
	return args.Error(0)
}

func (m *MockStore) FindProjectByLead(ctx context.Context, leadID string) (string, error) {
	args := m.Called(ctx, leadID)
	return args.String(0), args.Error(1)
}

func (m *MockStore) GetProject(ctx context.Context, projectID string) (*store.Project, error) {
	args := m.Called(ctx, projectID)
	if value := args.Get(0); value != nil {
		return value.(*store.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) ListProjects(ctx context.Context) ([]store.Project, error) {
	args := m.Called(ctx)
	var result []store.Project
	if value := args.Get(0); value != nil {
		result = value.([]store.Project)
	}
	return result, args.Error(1)
}

func (m *MockStore) ListMissions(ctx context.Context) ([]store.Mission, error) {
	args := m.Called(ctx)
	var result []store.Mission
	if value := args.Get(0); value != nil {
		result = value.([]store.Mission)
	}
	return result, args.Error(1)
}

func (m *MockStore) ListActiveMissions(ctx context.Context) ([]store.Mission, error) {
	args := m.Called(ctx)
	var result []store.Mission
	if value := args.Get(0); value != nil {
		result = value.([]store.Mission)
	}
	return result, args.Error(1)
}

func (m *MockStore) GetMission(ctx context.Context, missionID string) (*store.Mission, error) {
	args := m.Called(ctx, missionID)
	if value := args.Get(0); value != nil {
		return value.(*store.Mission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStore) CreateMission(ctx context.Context, mission store.Mission) (string, error) {
	args := m.Called(ctx, mission)
	return args.String(0), args.Error(1)
}

func (m *MockStore) SetMissionStatus(ctx context.Context, missionID string, status store.MissionStatus) error {
	args := m.Called(ctx, missionID, status)
	return args.Error(0)
}

func (m *MockStore) MarkMissionRun(ctx context.Context, missionID string, at time.Time) error {
	args := m.Called(ctx, missionID, at)
	return args.Error(0)
}

func (m *MockStore) DeleteMission(ctx context.Context, missionID string) error {
	args := m.Called(ctx, missionID)
	return args.Error(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pipeline.Result), args.Error(1)
}

type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) StartGenerate(ctx context.Context, input workflows.GenerateInput) (workflows.Execution, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(workflows.Execution), args.Error(1)
}

func (m *MockWorkflowService) GetResult(ctx context.Context, workflowID, runID string) (workflows.GenerateResult, error) {
	args := m.Called(ctx, workflowID, runID)
	return args.Get(0).(workflows.GenerateResult), args.Error(1)
}

type MockTrigger struct {
	mock.Mock
}

func (m *MockTrigger) TriggerAll(ctx context.Context) (jobs.TriggerReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(jobs.TriggerReport), args.Error(1)
}

type MockSweep struct {
	mock.Mock
}

func (m *MockSweep) Run(ctx context.Context, now time.Time) (jobs.SweepReport, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(jobs.SweepReport), args.Error(1)
}

type MockRunLister struct {
	mock.Mock
}

func (m *MockRunLister) RecentRuns(ctx context.Context, limit int) []jobs.RunSummary {
	args := m.Called(ctx, limit)
	return args.Get(0).([]jobs.RunSummary)
}

type MockAgentRelay struct {
	mock.Mock
}

func (m *MockAgentRelay) CreateChat(ctx context.Context, agentID string) (string, error) {
	args := m.Called(ctx, agentID)
	return args.String(0), args.Error(1)
}

func (m *MockAgentRelay) CreateChatCompletion(ctx context.Context, chatID, content string) ([]agentplatform.ChatMessage, error) {
	args := m.Called(ctx, chatID, content)
	var result []agentplatform.ChatMessage
	if value := args.Get(0); value != nil {
		result = value.([]agentplatform.ChatMessage)
	}
	return result, args.Error(1)
}

func (m *MockAgentRelay) CreateWebCall(ctx context.Context, agentID string, dynamicVariables map[string]any) (agentplatform.WebCall, error) {
	args := m.Called(ctx, agentID, dynamicVariables)
	return args.Get(0).(agentplatform.WebCall), args.Error(1)
}

func newTestServer(t *testing.T, deps Deps) *httptest.Server {
	t.Helper()
	if deps.Store == nil {
		deps.Store = &MockStore{}
	}
	server := NewServer(deps)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts
}
