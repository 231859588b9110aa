package synthesis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lumastack/agentdraft/internal/llm"
)

// Options configures a synthesis Service.
type Options struct {
	Logger   *slog.Logger
	Provider llm.Provider
	// Model is the model id passed on every call and recorded in result
	// metadata as the model version.
	Model string
	// Retry bounds the retry loop around each model call. Zero value means
	// llm.DefaultRetryPolicy.
	Retry llm.RetryPolicy
	// MaxTokens caps the model output per call. Zero means the provider
	// default.
	MaxTokens int
}

// Service runs the synthesis pipeline: model call (with retry) -> extract ->
// normalize -> score. It holds no per-call state; all methods are safe for
// concurrent use.
type Service struct {
	log      *slog.Logger
	provider llm.Provider
	model    string
	policy   llm.RetryPolicy
	maxTok   int
	now      func() time.Time
}

func NewService(opts Options) (*Service, error) {
	if opts.Provider == nil {
		return nil, errors.New("missing Provider")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("missing Model")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	policy := opts.Retry
	if policy.MaxRetries == 0 && policy.InitialDelay == 0 && policy.MaxDelay == 0 {
		policy = llm.DefaultRetryPolicy()
	}
	return &Service{
		log:      log,
		provider: opts.Provider,
		model:    strings.TrimSpace(opts.Model),
		policy:   policy,
		maxTok:   opts.MaxTokens,
		now:      time.Now,
	}, nil
}

// InitialAnalysis runs the first synthesis pass over a free-text system
// description and returns the scored canonical result.
func (s *Service) InitialAnalysis(ctx context.Context, systemDescription string) (AnalysisResult, error) {
	systemDescription = strings.TrimSpace(systemDescription)
	if systemDescription == "" {
		return AnalysisResult{}, errors.New("empty system description")
	}

	started := s.now()
	parsed, err := s.generateObject(ctx, analysisSystemPrompt, buildInitialAnalysisPrompt(systemDescription))
	if err != nil {
		return AnalysisResult{}, err
	}
	result, err := NormalizeAnalysis(parsed, s.log)
	if err != nil {
		return AnalysisResult{}, err
	}
	result = Score(result, systemDescription)
	result.Metadata = s.metadata(started)
	return result, nil
}

// RefineWithTools reruns synthesis with the user's tool selections folded in.
// The refined result is scored against the refinement prompt, which embeds
// both the prior analysis and the selections.
func (s *Service) RefineWithTools(ctx context.Context, initial AnalysisResult, selections []ToolSelection) (AnalysisResult, error) {
	if len(initial.Agents) == 0 {
		return AnalysisResult{}, errors.New("initial analysis has no agents")
	}

	started := s.now()
	prompt := buildRefinementPrompt(initial, selections)
	parsed, err := s.generateObject(ctx, analysisSystemPrompt, prompt)
	if err != nil {
		return AnalysisResult{}, err
	}
	result, err := NormalizeAnalysis(parsed, s.log)
	if err != nil {
		return AnalysisResult{}, err
	}
	result = Score(result, prompt)
	result.Metadata = s.metadata(started)
	return result, nil
}

// GenerateDiagram produces the canonical diagram for a set of agents. When
// the model output yields no usable nodes, one node per input agent is
// synthesized instead, so a valid agent list always produces a diagram.
func (s *Service) GenerateDiagram(ctx context.Context, agents []Agent, relationships []Relationship, orchestrationType string) (DiagramData, error) {
	if len(agents) == 0 {
		return DiagramData{}, errors.New("no agents to diagram")
	}

	parsed, err := s.generateObject(ctx, diagramSystemPrompt, buildDiagramPrompt(agents, relationships, orchestrationType))
	if err != nil {
		return DiagramData{}, err
	}
	return NormalizeDiagram(parsed, agents, s.log)
}

func (s *Service) generateObject(ctx context.Context, system string, prompt string) (map[string]any, error) {
	resp, err := llm.WithRetry(ctx, s.policy, func(ctx context.Context) (llm.Response, error) {
		return s.provider.Generate(ctx, llm.Request{
			Model:     s.model,
			System:    system,
			Prompt:    prompt,
			MaxTokens: s.maxTok,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("model call completed",
		"model", s.model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens)

	return ParseObject(resp.Text)
}

func (s *Service) metadata(started time.Time) Metadata {
	finished := s.now()
	return Metadata{
		ProcessingTimeMs: finished.Sub(started).Milliseconds(),
		ModelVersion:     s.model,
		Timestamp:        finished.UTC().Format(time.RFC3339),
	}
}
