package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
	"github.com/SscSPs/furniture_budget_engine/internal/utils/budgeting"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultRuleSequence is used when a rule is created without one.
const DefaultRuleSequence = 10

// AssignmentService attributes transaction lines to cost centers using
// rules first and the classifier second.
type AssignmentService struct {
	BaseService
	ruleRepo          portsrepo.RuleRepositoryFacade
	suggestionRepo    portsrepo.SuggestionRepositoryFacade
	accountRepo       portsrepo.AnalyticalAccountRepository
	txStore           portsrepo.TransactionStore
	txManager         portsrepo.TransactionManager
	classifier        clients.Classifier
	classifierTimeout time.Duration
	tracker           clients.EventTracker
	validate          *validator.Validate
}

// AssignmentServiceOption is a functional option for configuring the assignment service
type AssignmentServiceOption func(*AssignmentService)

func WithAssignmentClock(now func() time.Time) AssignmentServiceOption {
	return func(s *AssignmentService) {
		s.Now = now
	}
}

// WithClassifier enables the classifier fallback. Each call is bounded by timeout.
func WithClassifier(classifier clients.Classifier, timeout time.Duration) AssignmentServiceOption {
	return func(s *AssignmentService) {
		s.classifier = classifier
		s.classifierTimeout = timeout
	}
}

func WithAssignmentTracker(tracker clients.EventTracker) AssignmentServiceOption {
	return func(s *AssignmentService) {
		s.tracker = tracker
	}
}

func NewAssignmentService(
	ruleRepo portsrepo.RuleRepositoryFacade,
	suggestionRepo portsrepo.SuggestionRepositoryFacade,
	accountRepo portsrepo.AnalyticalAccountRepository,
	txStore portsrepo.TransactionStore,
	txManager portsrepo.TransactionManager,
	options ...AssignmentServiceOption,
) *AssignmentService {
	svc := &AssignmentService{
		ruleRepo:       ruleRepo,
		suggestionRepo: suggestionRepo,
		accountRepo:    accountRepo,
		txStore:        txStore,
		txManager:      txManager,
		validate:       validator.New(),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AssignmentSvcFacade = (*AssignmentService)(nil)

func manualResult() *domain.AssignmentResult {
	return &domain.AssignmentResult{Source: domain.SourceManual}
}

func (s *AssignmentService) checkDate(line domain.TransactionLine) time.Time {
	if line.Date != nil {
		return *line.Date
	}
	return s.now()
}

func (s *AssignmentService) FindAssignment(ctx context.Context, line domain.TransactionLine) (*domain.AssignmentResult, error) {
	product, err := s.txStore.FindProduct(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "Product not found, leaving line for manual assignment", slog.String("product_id", line.ProductID))
			return manualResult(), nil
		}
		s.LogError(ctx, err, "Failed to load product", slog.String("product_id", line.ProductID))
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	rules, err := s.ruleRepo.ListActiveRules(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load assignment rules")
		return nil, fmt.Errorf("failed to load assignment rules: %w", err)
	}

	if winner := budgeting.FirstMatch(rules, line, *product, s.checkDate(line)); winner != nil {
		if err := s.ruleRepo.RecordRuleApplied(ctx, winner.RuleID, s.now()); err != nil {
			s.LogWarn(ctx, err, "Failed to record rule usage", slog.String("rule_id", winner.RuleID))
		}
		s.track("line_auto_assigned", map[string]any{
			"source":  string(domain.SourceRule),
			"ruleID":  winner.RuleID,
			"account": winner.AnalyticalAccountID,
		})
		accountID, ruleID, ruleName := winner.AnalyticalAccountID, winner.RuleID, winner.Name
		return &domain.AssignmentResult{
			AnalyticalAccountID: &accountID,
			RuleID:              &ruleID,
			RuleName:            &ruleName,
			IsAutoAssigned:      true,
			Source:              domain.SourceRule,
		}, nil
	}

	if s.classifier == nil {
		return manualResult(), nil
	}
	return s.classify(ctx, line, *product)
}

// classify asks the classifier and applies the confidence policy. Any
// classifier failure degrades to a manual result.
func (s *AssignmentService) classify(ctx context.Context, line domain.TransactionLine, product domain.Product) (*domain.AssignmentResult, error) {
	partnerName := ""
	if contact, err := s.txStore.FindContact(ctx, line.ContactID); err == nil {
		partnerName = contact.Name
	} else {
		s.LogDebug(ctx, "Contact not resolved for classification", slog.String("contact_id", line.ContactID))
	}

	description := line.Description
	if description == "" {
		description = product.Description
	}
	req := domain.ClassificationRequest{
		ProductName:     product.Name,
		ProductCategory: product.CategoryName,
		PartnerName:     partnerName,
		Amount:          line.Amount,
		Description:     description,
		TransactionType: line.Type,
	}

	callCtx := ctx
	if s.classifierTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.classifierTimeout)
		defer cancel()
	}
	suggestions, err := s.classifier.Suggest(callCtx, req)
	if err != nil {
		s.LogWarn(ctx, err, "Classifier failed, falling back to manual assignment", slog.String("product_id", line.ProductID))
		return manualResult(), nil
	}

	decision := budgeting.DecideSuggestion(suggestions)
	switch decision.Outcome {
	case budgeting.OutcomeAccept:
		accountID := decision.Accepted.AccountID
		s.track("line_auto_assigned", map[string]any{
			"source":     string(domain.SourceClassifier),
			"account":    accountID,
			"confidence": decision.Accepted.Confidence,
		})
		return &domain.AssignmentResult{
			AnalyticalAccountID: &accountID,
			IsAutoAssigned:      true,
			Source:              domain.SourceClassifier,
			Suggestions:         []domain.Suggestion{*decision.Accepted},
		}, nil

	case budgeting.OutcomeConflict, budgeting.OutcomeReview:
		if line.Ref != nil {
			s.persistSuggestions(ctx, *line.Ref, decision)
		}
		return &domain.AssignmentResult{
			IsConflict:  true,
			Source:      domain.SourceClassifier,
			Suggestions: decision.Review,
		}, nil
	}

	return manualResult(), nil
}

// persistSuggestions queues the suggestions for review. A failure only
// loses the review queue entry, so it is logged and not returned.
func (s *AssignmentService) persistSuggestions(ctx context.Context, ref domain.LineRef, decision budgeting.SuggestionDecision) {
	now := s.now()
	pending := make([]domain.AssignmentSuggestion, 0, len(decision.Review))
	for _, sg := range decision.Review {
		pending = append(pending, domain.AssignmentSuggestion{
			SuggestionID: uuid.NewString(),
			Line:         ref,
			AccountID:    sg.AccountID,
			AccountName:  sg.AccountName,
			Confidence:   sg.Confidence,
			IsConflict:   decision.Outcome == budgeting.OutcomeConflict,
			Status:       domain.SuggestionPending,
			CreatedAt:    now,
		})
	}
	if err := s.suggestionRepo.SaveSuggestions(ctx, pending); err != nil {
		s.LogWarn(ctx, err, "Failed to queue suggestions for review", slog.String("line_id", ref.LineID))
	}
}

func (s *AssignmentService) ApplyToLines(ctx context.Context, lines []domain.TransactionLine) ([]domain.AssignmentResult, error) {
	results := make([]domain.AssignmentResult, 0, len(lines))
	for i, line := range lines {
		res, err := s.FindAssignment(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

func (s *AssignmentService) TestRule(ctx context.Context, ruleID string, lines []domain.TransactionLine) (*dto.TestRuleResponse, error) {
	rule, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	resp := &dto.TestRuleResponse{RuleID: ruleID, Total: len(lines)}
	// an inactive rule never wins
	if !rule.IsActive {
		return resp, nil
	}
	candidates, err := s.ruleRepo.ListActiveRules(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load assignment rules")
		return nil, fmt.Errorf("failed to load assignment rules: %w", err)
	}

	products := make(map[string]*domain.Product)
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			product, err = s.txStore.FindProduct(ctx, line.ProductID)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("failed to load product: %w", err)
			}
			products[line.ProductID] = product
		}
		if product == nil {
			continue
		}
		if winner := budgeting.FirstMatch(candidates, line, *product, s.checkDate(line)); winner != nil && winner.RuleID == ruleID {
			resp.Matched++
		}
	}
	return resp, nil
}

// buildRule validates req and applies creation defaults onto rule.
func (s *AssignmentService) buildRule(ctx context.Context, req dto.RuleRequest, rule *domain.AssignmentRule) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if req.AmountMin != nil && req.AmountMax != nil && req.AmountMin.GreaterThan(*req.AmountMax) {
		return fmt.Errorf("%w: amountMin must not exceed amountMax", apperrors.ErrValidation)
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return fmt.Errorf("%w: dateFrom must not be after dateTo", apperrors.ErrValidation)
	}

	accounts, err := s.accountRepo.FindAnalyticalAccountsByIDs(ctx, []string{req.AnalyticalAccountID})
	if err != nil {
		return fmt.Errorf("failed to load analytical account: %w", err)
	}
	if _, ok := accounts[req.AnalyticalAccountID]; !ok {
		return fmt.Errorf("%w: analytical account %s does not exist", apperrors.ErrValidation, req.AnalyticalAccountID)
	}

	rule.Name = req.Name
	rule.Sequence = DefaultRuleSequence
	if req.Sequence != nil {
		rule.Sequence = *req.Sequence
	}
	rule.IsActive = true
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.ApplyOn = domain.ApplyOnBoth
	if req.ApplyOn != nil {
		rule.ApplyOn = *req.ApplyOn
	}
	rule.ProductID = req.ProductID
	rule.ProductCategoryID = req.ProductCategoryID
	rule.ContactID = req.ContactID
	rule.UseAmountFilter = req.UseAmountFilter
	rule.AmountMin = req.AmountMin
	rule.AmountMax = req.AmountMax
	rule.UseDateFilter = req.UseDateFilter
	rule.DateFrom = req.DateFrom
	rule.DateTo = req.DateTo
	rule.AnalyticalAccountID = req.AnalyticalAccountID
	return nil
}

func (s *AssignmentService) CreateRule(ctx context.Context, req dto.RuleRequest, userID string) (*domain.AssignmentRule, error) {
	now := s.now()
	rule := domain.AssignmentRule{
		RuleID: uuid.NewString(),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.buildRule(ctx, req, &rule); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.SaveRule(ctx, rule); err != nil {
		s.LogError(ctx, err, "Failed to save assignment rule", slog.String("rule_id", rule.RuleID))
		return nil, err
	}
	s.LogInfo(ctx, "Assignment rule created", slog.String("rule_id", rule.RuleID), slog.Int("sequence", rule.Sequence))
	return &rule, nil
}

func (s *AssignmentService) UpdateRule(ctx context.Context, ruleID string, req dto.RuleRequest, userID string) (*domain.AssignmentRule, error) {
	rule, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if err := s.buildRule(ctx, req, rule); err != nil {
		return nil, err
	}
	rule.LastUpdatedAt = s.now()
	rule.LastUpdatedBy = userID

	if err := s.ruleRepo.UpdateRule(ctx, *rule); err != nil {
		s.LogError(ctx, err, "Failed to update assignment rule", slog.String("rule_id", ruleID))
		return nil, err
	}
	return rule, nil
}

func (s *AssignmentService) DeleteRule(ctx context.Context, ruleID string) error {
	if err := s.ruleRepo.DeleteRule(ctx, ruleID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to delete assignment rule", slog.String("rule_id", ruleID))
		}
		return err
	}
	s.LogInfo(ctx, "Assignment rule deleted", slog.String("rule_id", ruleID))
	return nil
}

func (s *AssignmentService) GetRule(ctx context.Context, ruleID string) (*domain.AssignmentRule, error) {
	rule, err := s.ruleRepo.FindRuleByID(ctx, ruleID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find assignment rule", slog.String("rule_id", ruleID))
		}
		return nil, err
	}
	return rule, nil
}

func (s *AssignmentService) ListRules(ctx context.Context) ([]domain.AssignmentRule, error) {
	rules, err := s.ruleRepo.ListRules(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list assignment rules")
		return nil, fmt.Errorf("failed to list assignment rules: %w", err)
	}
	if rules == nil {
		return []domain.AssignmentRule{}, nil
	}
	return rules, nil
}

func (s *AssignmentService) ListConflicts(ctx context.Context) ([]domain.AssignmentSuggestion, error) {
	pending, err := s.suggestionRepo.ListPendingConflicts(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list pending suggestions")
		return nil, fmt.Errorf("failed to list pending suggestions: %w", err)
	}
	if pending == nil {
		return []domain.AssignmentSuggestion{}, nil
	}
	return pending, nil
}

func (s *AssignmentService) ResolveConflict(ctx context.Context, suggestionID string) (*domain.AssignmentSuggestion, error) {
	suggestion, err := s.suggestionRepo.FindSuggestionByID(ctx, suggestionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find suggestion", slog.String("suggestion_id", suggestionID))
		}
		return nil, err
	}
	if suggestion.Status != domain.SuggestionPending {
		return nil, fmt.Errorf("%w: suggestion %s is already %s", apperrors.ErrConcurrentUpdate, suggestionID, suggestion.Status)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := s.txManager.Rollback(ctx, tx); rbErr != nil {
				s.LogError(ctx, rbErr, "Failed to roll back conflict resolution", slog.String("suggestion_id", suggestionID))
			}
		}
	}()

	if err := s.txStore.SetLineAnalyticalAccountInTx(ctx, tx, suggestion.Line, suggestion.AccountID); err != nil {
		s.LogError(ctx, err, "Failed to assign line", slog.String("line_id", suggestion.Line.LineID))
		return nil, err
	}
	if err := s.suggestionRepo.ResolveSuggestionInTx(ctx, tx, *suggestion); err != nil {
		s.LogError(ctx, err, "Failed to resolve suggestion", slog.String("suggestion_id", suggestionID))
		return nil, err
	}
	if err := s.txManager.Commit(ctx, tx); err != nil {
		return nil, err
	}
	committed = true

	suggestion.Status = domain.SuggestionAccepted
	s.LogInfo(ctx, "Assignment conflict resolved",
		slog.String("suggestion_id", suggestionID),
		slog.String("line_id", suggestion.Line.LineID),
		slog.String("analytical_account_id", suggestion.AccountID))
	s.track("assignment_conflict_resolved", map[string]any{
		"suggestionID": suggestionID,
		"account":      suggestion.AccountID,
	})
	return suggestion, nil
}

func (s *AssignmentService) track(event string, properties map[string]any) {
	if s.tracker != nil {
		s.tracker.Track(systemActor, event, properties)
	}
}
