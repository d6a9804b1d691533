package workflows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
)

func TestNewService(t *testing.T) {
	mockClient := mocks.NewClient(t)
	service := NewService(mockClient, "")
	require.Equal(t, DefaultTaskQueue, service.taskQueue)
}

func TestWorkflowID(t *testing.T) {
	require.Equal(t, "generate:lead:L1", workflowID("L1"))
	require.Equal(t, "generate:lead:L1", workflowID(" L1 "))

	a, b := workflowID(""), workflowID("")
	require.True(t, strings.HasPrefix(a, "generate:"))
	require.NotEqual(t, a, b)
}

func TestStartGenerate_Success(t *testing.T) {
	mockClient := mocks.NewClient(t)
	workflowRun := mocks.NewWorkflowRun(t)
	taskQueue := "previews-test"
	input := GenerateInput{URL: "https://acme.com", LeadID: "L1"}

	workflowRun.On("GetID").Return("generate:lead:L1")
	workflowRun.On("GetRunID").Return("run-1")
	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
			return opts.ID == "generate:lead:L1" && opts.TaskQueue == taskQueue
		}),
		mock.Anything,
		input,
	).Return(workflowRun, nil)

	service := NewService(mockClient, taskQueue)
	exec, err := service.StartGenerate(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, Execution{WorkflowID: "generate:lead:L1", RunID: "run-1"}, exec)
}

func TestStartGenerate_Error(t *testing.T) {
	mockClient := mocks.NewClient(t)
	expectedErr := errors.New("start failed")
	input := GenerateInput{URL: "https://acme.com"}

	mockClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, input).
		Return((*mocks.WorkflowRun)(nil), expectedErr)

	service := NewService(mockClient, "")
	_, err := service.StartGenerate(context.Background(), input)
	require.ErrorIs(t, err, expectedErr)
}

func TestGetResult(t *testing.T) {
	mockClient := mocks.NewClient(t)
	workflowRun := mocks.NewWorkflowRun(t)

	workflowRun.On("Get", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		out := args.Get(1).(*GenerateResult)
		out.ProjectID = "p1"
	}).Return(nil)
	mockClient.On("GetWorkflow", mock.Anything, "generate:lead:L1", "run-1").Return(workflowRun)

	service := NewService(mockClient, "")
	res, err := service.GetResult(context.Background(), "generate:lead:L1", "run-1")
	require.NoError(t, err)
	require.Equal(t, "p1", res.ProjectID)
}
