// Package provisioner deploys a conversational agent for a knowledge summary,
// or resolves the pre-provisioned agent when dynamic provisioning is off.
package provisioner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MartialAndCo/berinia-bot/internal/agentplatform"
	"github.com/MartialAndCo/berinia-bot/internal/config"
	"github.com/MartialAndCo/berinia-bot/internal/summarizer"
)

const DefaultModel = "gpt-4.1-mini"

// Platform is the part of the agent platform client provisioning needs.
type Platform interface {
	CreateReasoningResource(ctx context.Context, req agentplatform.ReasoningResourceRequest) (string, error)
	CreateChatAgent(ctx context.Context, req agentplatform.ChatAgentRequest) (string, error)
}

type Provisioned struct {
	AgentID    string
	ResourceID string
}

type Provisioner struct {
	platform Platform
	model    string
	logger   *zap.Logger
}

func New(platform Platform, model string, logger *zap.Logger) *Provisioner {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{platform: platform, model: model, logger: logger.Named("provisioner")}
}

// ProvisionAgent creates the reasoning resource and then the chat agent bound
// to it. Any error is returned as is; nothing is cleaned up on the platform.
func (p *Provisioner) ProvisionAgent(ctx context.Context, companyName, summary, greeting string) (Provisioned, error) {
	resourceID, err := p.platform.CreateReasoningResource(ctx, agentplatform.ReasoningResourceRequest{
		Model:         p.model,
		GeneralPrompt: GeneralPrompt(companyName, summary),
		BeginMessage:  greeting,
	})
	if err != nil {
		return Provisioned{}, err
	}

	agentID, err := p.platform.CreateChatAgent(ctx, agentplatform.ChatAgentRequest{
		Name:       AgentName(companyName),
		ResourceID: resourceID,
	})
	if err != nil {
		p.logger.Warn("chat agent creation failed after reasoning resource was created",
			zap.String("resource_id", resourceID), zap.Error(err))
		return Provisioned{}, err
	}

	p.logger.Info("agent provisioned",
		zap.String("company", companyName),
		zap.String("agent_id", agentID),
		zap.String("resource_id", resourceID))
	return Provisioned{AgentID: agentID, ResourceID: resourceID}, nil
}

func GeneralPrompt(companyName, summary string) string {
	return fmt.Sprintf("You are an AI assistant for %s.\n\nYour Role & Knowledge:\n%s\n\nKeep responses concise and helpful. Be professional but friendly.", companyName, summary)
}

func AgentName(companyName string) string {
	return companyName + " Assistant"
}

type AgentRef struct {
	AgentID    string
	ResourceID string
}

// Resolver yields the agent a project is served by.
type Resolver interface {
	ResolveAgent(ctx context.Context, summary summarizer.KnowledgeSummary) (AgentRef, error)
}

type DynamicResolver struct {
	Provisioner *Provisioner
}

func (r DynamicResolver) ResolveAgent(ctx context.Context, summary summarizer.KnowledgeSummary) (AgentRef, error) {
	out, err := r.Provisioner.ProvisionAgent(ctx, summary.CompanyName, summary.SummaryText, summary.OpeningGreeting)
	if err != nil {
		return AgentRef{}, err
	}
	return AgentRef{AgentID: out.AgentID, ResourceID: out.ResourceID}, nil
}

// StaticResolver returns one pre-provisioned agent for every project.
type StaticResolver struct {
	AgentID string
}

func (r StaticResolver) ResolveAgent(context.Context, summarizer.KnowledgeSummary) (AgentRef, error) {
	if r.AgentID == "" {
		return AgentRef{}, config.MissingCredentialError{Name: "STATIC_AGENT_ID"}
	}
	return AgentRef{AgentID: r.AgentID}, nil
}

// NewResolver picks the resolver for the configured agent mode.
func NewResolver(mode, staticAgentID string, p *Provisioner) (Resolver, error) {
	switch mode {
	case "", config.AgentModeDynamic:
		return DynamicResolver{Provisioner: p}, nil
	case config.AgentModeStatic:
		return StaticResolver{AgentID: staticAgentID}, nil
	default:
		return nil, fmt.Errorf("unsupported agent mode %q", mode)
	}
}
