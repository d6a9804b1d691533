package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const GeneratePreviewActivity = "GeneratePreview"

type GenerateInput struct {
	URL     string
	LeadID  string
	BaseURL string
}

type GenerateResult struct {
	ProjectID   string `json:"projectId"`
	PreviewURL  string `json:"previewUrl"`
	AgentID     string `json:"agentId"`
	CompanyName string `json:"companyName"`
	Reused      bool   `json:"reused"`
}

// GenerateWorkflow runs the generation pipeline once. Retrying is left to
// the caller.
func GenerateWorkflow(ctx workflow.Context, input GenerateInput) (GenerateResult, error) {
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)
	logger := workflow.GetLogger(ctx)

	var result GenerateResult
	if err := workflow.ExecuteActivity(ctx, GeneratePreviewActivity, input).Get(ctx, &result); err != nil {
		logger.Error("generate activity failed", "url", input.URL, "lead_id", input.LeadID, "error", err)
		return GenerateResult{}, err
	}
	logger.Info("preview generated", "project_id", result.ProjectID, "reused", result.Reused)
	return result, nil
}
