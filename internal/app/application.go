// Package app wires the journal ledger, the access policy registry, and the
// event feed into one lifecycle-managed application.
package app

import (
	"context"
	"fmt"

	"github.com/moodvault/journal_layer/internal/app/events"
	"github.com/moodvault/journal_layer/internal/app/metrics"
	"github.com/moodvault/journal_layer/internal/app/services/journals"
	"github.com/moodvault/journal_layer/internal/app/services/policies"
	"github.com/moodvault/journal_layer/internal/app/storage"
	"github.com/moodvault/journal_layer/internal/app/storage/memory"
	"github.com/moodvault/journal_layer/internal/app/system"
	"github.com/moodvault/journal_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Journals storage.JournalStore
	Entries  storage.EntryStore
	Policies storage.PolicyStore
}

// Application ties the domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Events   *events.Log
	Journals *journals.Service
	Policies *policies.Service
}

// New builds a fully initialised application with the provided stores. A nil
// eventLog gets a default-sized ring buffer.
func New(stores Stores, eventLog *events.Log, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if eventLog == nil {
		eventLog = events.NewLog(0)
	}

	mem := memory.NewStore()
	if stores.Journals == nil {
		stores.Journals = mem
	}
	if stores.Entries == nil {
		stores.Entries = mem
	}
	if stores.Policies == nil {
		stores.Policies = mem
	}

	// Every emitted event also lands in the metrics feed counter.
	eventLog.Subscribe(func(e events.Event) {
		metrics.RecordEvent(string(e.Type))
	})

	manager := system.NewManager()

	journalService := journals.New(stores.Journals, stores.Entries, eventLog, log)
	policyService := policies.New(stores.Policies, eventLog, log)

	for _, name := range []string{"journals", "policies", "events"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager:  manager,
		log:      log,
		Events:   eventLog,
		Journals: journalService,
		Policies: policyService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
