package services

import (
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/platform/config"
)

// Clients are the optional outbound adapters. Nil members disable the
// corresponding behaviour.
type Clients struct {
	Classifier clients.Classifier
	Notifier   clients.AlertNotifier
	Tracker    clients.EventTracker
	Exporter   clients.BudgetExporter
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, c Clients) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Budget = NewBudgetService(
		repos.BudgetRepo,
		repos.AnalyticalAccountRepo,
		repos.TransactionStore,
		WithBudgetAlertReader(repos.AlertRepo),
		WithBudgetExporter(c.Exporter),
	)

	alertOpts := []AlertServiceOption{WithUnderutilizationThreshold(cfg.UnderutilizationThreshold)}
	if c.Notifier != nil {
		alertOpts = append(alertOpts, WithAlertNotifier(c.Notifier))
	}
	if c.Tracker != nil {
		alertOpts = append(alertOpts, WithAlertTracker(c.Tracker))
	}
	container.Alert = NewAlertService(repos.BudgetRepo, repos.AlertRepo, alertOpts...)

	var assignmentOpts []AssignmentServiceOption
	if c.Classifier != nil {
		assignmentOpts = append(assignmentOpts, WithClassifier(c.Classifier, cfg.ClassifierTimeout))
	}
	if c.Tracker != nil {
		assignmentOpts = append(assignmentOpts, WithAssignmentTracker(c.Tracker))
	}
	container.Assignment = NewAssignmentService(
		repos.RuleRepo,
		repos.SuggestionRepo,
		repos.AnalyticalAccountRepo,
		repos.TransactionStore,
		repos.TxManager,
		assignmentOpts...,
	)

	return container
}
