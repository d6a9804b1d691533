package workflows

import (
	"context"

	"github.com/MartialAndCo/berinia-bot/internal/pipeline"
)

type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type GenerateActivities struct {
	generator Generator
}

func NewGenerateActivities(generator Generator) *GenerateActivities {
	return &GenerateActivities{generator: generator}
}

func (a *GenerateActivities) GeneratePreview(ctx context.Context, input GenerateInput) (GenerateResult, error) {
	res, err := a.generator.Generate(ctx, pipeline.Request{
		URL:     input.URL,
		LeadID:  input.LeadID,
		BaseURL: input.BaseURL,
	})
	if err != nil {
		return GenerateResult{}, err
	}
	return GenerateResult{
		ProjectID:   res.ProjectID,
		PreviewURL:  res.PreviewURL,
		AgentID:     res.AgentID,
		CompanyName: res.CompanyName,
		Reused:      res.Reused,
	}, nil
}
