package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
)

const DefaultTaskQueue = "preview-generation"

type Execution struct {
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`
}

type Service struct {
	client    client.Client
	taskQueue string
}

func NewService(client client.Client, taskQueue string) *Service {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	return &Service{client: client, taskQueue: taskQueue}
}

// StartGenerate starts GenerateWorkflow. While a workflow for the same lead
// is running, the running execution is returned instead of a new one.
func (s *Service) StartGenerate(ctx context.Context, input GenerateInput) (Execution, error) {
	options := client.StartWorkflowOptions{
		ID:                                       workflowID(input.LeadID),
		TaskQueue:                                s.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: false,
	}
	run, err := s.client.ExecuteWorkflow(ctx, options, GenerateWorkflow, input)
	if err != nil {
		return Execution{}, err
	}
	return Execution{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}

// GetResult blocks until the workflow completes.
func (s *Service) GetResult(ctx context.Context, workflowID, runID string) (GenerateResult, error) {
	var result GenerateResult
	if err := s.client.GetWorkflow(ctx, workflowID, runID).Get(ctx, &result); err != nil {
		return GenerateResult{}, err
	}
	return result, nil
}

func workflowID(leadID string) string {
	leadID = strings.TrimSpace(leadID)
	if leadID == "" {
		return fmt.Sprintf("generate:%s", uuid.NewString())
	}
	return fmt.Sprintf("generate:lead:%s", leadID)
}
