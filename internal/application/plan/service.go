// Package plan provides the application layer for diet plan generation.
// It implements the use cases defined in the inbound ports.
package plan

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nutriplan/dietplan/internal/application/prompt"
	"github.com/nutriplan/dietplan/internal/domain/nutrition"
	"github.com/nutriplan/dietplan/internal/domain/plan"
	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	"github.com/nutriplan/dietplan/pkg/errors"
)

const outcomeSuccess = "success"

// PlanService implements the plan use cases. Steps run strictly one after
// another; nutrition lookups are never issued in parallel.
type PlanService struct {
	generator outbound.PlanGenerator
	nutrition outbound.NutritionProvider
	renderer  outbound.DocumentRenderer
	tracer    *monitoring.TracingProvider
	metrics   *monitoring.MetricsCollector
	logger    *zap.Logger
}

// NewPlanService creates a new plan service. tracer and metrics may be nil.
// A nil nutrition provider disables custom food lookups.
func NewPlanService(
	generator outbound.PlanGenerator,
	nutrition outbound.NutritionProvider,
	renderer outbound.DocumentRenderer,
	tracer *monitoring.TracingProvider,
	metrics *monitoring.MetricsCollector,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		generator: generator,
		nutrition: nutrition,
		renderer:  renderer,
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger.Named("plan-service"),
	}
}

var _ inbound.PlanService = (*PlanService)(nil)

// Generate runs prompt, plan, lookups and render for one profile
func (s *PlanService) Generate(ctx context.Context, p *profile.UserProfile) (*inbound.PlanResult, error) {
	if p == nil {
		return nil, errors.NewBadRequestError("profile is required")
	}

	ctx, span := s.tracer.StartSpan(ctx, "plan.Generate")
	defer span.End()

	foods := p.CustomFoodList()
	span.SetAttributes(
		attribute.String("profile.goal", string(p.Goal())),
		attribute.String("profile.diet_type", string(p.DietType())),
		attribute.Int("profile.custom_foods", len(foods)),
	)

	s.logger.Info("Generating diet plan",
		zap.String("goal", string(p.Goal())),
		zap.String("diet_type", string(p.DietType())),
		zap.Int("custom_foods", len(foods)),
	)

	dietPlan, err := s.generatePlan(ctx, prompt.Build(p))
	if err != nil {
		monitoring.RecordError(span, err)
		s.metrics.PlanGenerated(outcome(err))
		s.logger.Warn("Diet plan generation failed",
			zap.String("code", string(errors.GetCode(err))),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.PlanGenerated(outcomeSuccess)

	result := &inbound.PlanResult{
		Profile:   p,
		Plan:      dietPlan,
		Nutrition: make([]inbound.FoodNutrition, 0, len(foods)),
	}

	for _, food := range foods {
		if s.nutrition == nil {
			break
		}
		info, err := s.lookup(ctx, food)
		result.Nutrition = append(result.Nutrition, inbound.FoodNutrition{Food: food, Info: info, Err: err})
	}

	result.Document, result.RenderErr = s.render(ctx, plan.DocumentInput{
		Profile:   p,
		Plan:      dietPlan,
		Nutrition: result.NutritionByFood(),
	})

	s.logger.Info("Diet plan generated",
		zap.String("model", dietPlan.Model),
		zap.Int("plan_length", len(dietPlan.Text)),
		zap.Bool("document", result.Document != nil),
	)

	return result, nil
}

// LookupNutrition fetches the facts for a single food
func (s *PlanService) LookupNutrition(ctx context.Context, food string) (*nutrition.Info, error) {
	if s.nutrition == nil {
		return nil, errors.NewConfigError("nutrition.enabled")
	}
	if nutrition.NormalizeName(food) == "" {
		return nil, errors.NewValidationError("food is required")
	}
	return s.lookup(ctx, food)
}

func (s *PlanService) generatePlan(ctx context.Context, userPrompt string) (*plan.DietPlan, error) {
	ctx, span := s.tracer.StartUpstreamSpan(ctx, "groq", "chat_completion")
	defer span.End()

	start := time.Now()
	dietPlan, err := s.generator.GeneratePlan(ctx, userPrompt)
	s.metrics.UpstreamRequest("groq", outcome(err), time.Since(start))
	if err != nil {
		monitoring.RecordError(span, err)
		return nil, err
	}
	return dietPlan, nil
}

func (s *PlanService) lookup(ctx context.Context, food string) (*nutrition.Info, error) {
	ctx, span := s.tracer.StartUpstreamSpan(ctx, "spoonacular", "lookup")
	defer span.End()
	span.SetAttributes(attribute.String("food", food))

	start := time.Now()
	info, err := s.nutrition.Lookup(ctx, food)
	s.metrics.NutritionLookup(outcome(err))
	if err != nil {
		monitoring.RecordError(span, err)
		s.logger.Warn("Nutrition lookup failed",
			zap.String("food", food),
			zap.String("code", string(errors.GetCode(err))),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Debug("Nutrition lookup succeeded",
		zap.String("food", food),
		zap.Duration("duration", time.Since(start)),
	)
	return info, nil
}

func (s *PlanService) render(ctx context.Context, in plan.DocumentInput) (*plan.Document, error) {
	ctx, span := s.tracer.StartSpan(ctx, "document.Render")
	defer span.End()

	doc, err := s.renderer.Render(ctx, in)
	if err != nil {
		monitoring.RecordError(span, err)
		s.metrics.DocumentRendered(outcome(err), 0)
		s.logger.Error("Document rendering failed", zap.Error(err))
		return nil, err
	}

	s.metrics.DocumentRendered(outcomeSuccess, len(doc.Data))
	span.SetAttributes(attribute.Int("document.size", len(doc.Data)))
	return doc, nil
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	return string(errors.GetCode(err))
}
