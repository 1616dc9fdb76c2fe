// Package main implements a load generator driving the rehydration engine
// with configurable request rates and realistic compute inventory scenarios.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/badock/object-graph-rehydrator-go/example/demo/inventory"
	"github.com/badock/object-graph-rehydrator-go/rehydrator"
)

const operationTimeout = 5 * time.Second

var instanceFlavors = []string{"m1.small", "m1.medium", "m1.large"}

var flavorVCPUs = []int64{1, 2, 4}

// RecordStore is the store surface the load generator drives: the fetch side
// feeds the rehydration engine, the save side seeds the dataset.
type RecordStore interface {
	rehydrator.Store
	Save(ctx context.Context, collection string, id string, doc rehydrator.Document) error
}

// LoadGenerator seeds a compute inventory dataset and then replays a mix of
// rehydration scenarios against it at a configurable request rate.
type LoadGenerator struct {
	engine *rehydrator.Engine
	store  RecordStore
	config Config

	hypervisorCount int64

	// The warm scenario reuses one long-lived session. Sessions are not safe
	// for concurrent use, so every warm request holds this mutex.
	warmMu      sync.Mutex
	warmSession *rehydrator.Session

	// Rate limiting
	ticker   *time.Ticker
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Request statistics
	requestCount int64
	errorCount   int64
	startTime    time.Time
	mu           sync.RWMutex
}

// NewLoadGenerator creates a new LoadGenerator on top of the given engine and
// record store.
func NewLoadGenerator(engine *rehydrator.Engine, store RecordStore, config Config) *LoadGenerator {
	return &LoadGenerator{
		engine:          engine,
		store:           store,
		config:          config,
		hypervisorCount: int64(config.InitialInstances/32) + 1,
		warmSession:     rehydrator.NewSession(),
		stopChan:        make(chan struct{}),
	}
}

// Start seeds the dataset and begins load generation with the configured
// request rate. It runs until the context is cancelled or Stop is called.
func (lg *LoadGenerator) Start(ctx context.Context) error {
	if err := lg.seed(ctx); err != nil {
		return fmt.Errorf("seeding dataset failed: %w", err)
	}

	lg.mu.Lock()
	lg.startTime = time.Now()
	lg.requestCount = 0
	lg.errorCount = 0
	lg.mu.Unlock()

	interval := time.Second / time.Duration(lg.config.Rate)
	lg.ticker = time.NewTicker(interval)
	defer lg.ticker.Stop()

	log.Printf("Load generator starting with %d requests/second (interval: %v), initial goroutines: %d",
		lg.config.Rate, interval, runtime.NumGoroutine())

	lg.wg.Add(1)
	go lg.statsReporter(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Load generator stopping due to context cancellation")
			return ctx.Err()

		case <-lg.stopChan:
			log.Printf("Load generator stopping due to stop signal")
			return nil

		case <-lg.ticker.C:
			lg.wg.Add(1)
			go lg.executeScenario(ctx)
		}
	}
}

// Stop gracefully shuts down the load generator.
func (lg *LoadGenerator) Stop(ctx context.Context) error {
	close(lg.stopChan)

	done := make(chan struct{})
	go func() {
		lg.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		lg.logFinalStats()
		return nil
	case <-ctx.Done():
		lg.logFinalStats()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// seed stores the hypervisor records and the instance records the scenarios
// will rehydrate. IDs derive deterministically from their position, so the
// scenarios can pick random targets without tracking what was stored.
func (lg *LoadGenerator) seed(ctx context.Context) error {
	log.Printf("Seeding %d instances across %d hypervisors...", lg.config.InitialInstances, lg.hypervisorCount)

	for n := int64(1); n <= lg.hypervisorCount; n++ {
		hypervisorID := hypervisorIDFor(n)
		record := inventory.HypervisorRecord(hypervisorID, fmt.Sprintf("rack-%d", n%8))

		if err := lg.store.Save(ctx, inventory.HypervisorCollection, hypervisorID, record); err != nil {
			return fmt.Errorf("saving hypervisor %d: %w", n, err)
		}
	}

	for n := 1; n <= lg.config.InitialInstances; n++ {
		instanceID := instanceIDFor(int64(n))
		hypervisorID := hypervisorIDFor(int64(n)%lg.hypervisorCount + 1)

		volumeIDs := make([]string, n%3)
		for k := range volumeIDs {
			volumeIDs[k] = deterministicID(fmt.Sprintf("volume-%d-%d", n, k))
		}

		record := inventory.InstanceRecord(
			instanceID,
			hypervisorID,
			instanceFlavors[n%len(instanceFlavors)],
			flavorVCPUs[n%len(flavorVCPUs)],
			volumeIDs,
			time.Now().Add(-time.Duration(n)*time.Minute),
		)

		if err := lg.store.Save(ctx, inventory.InstanceCollection, instanceID, record); err != nil {
			return fmt.Errorf("saving instance %d: %w", n, err)
		}
	}

	log.Printf("Seeding completed")

	return nil
}

// executeScenario runs a single load generation scenario based on configured weights.
func (lg *LoadGenerator) executeScenario(ctx context.Context) {
	defer lg.wg.Done()

	scenarioType := lg.selectScenario()

	var err error
	switch scenarioType {
	case "cold":
		err = lg.runColdScenario(ctx)
	case "warm":
		err = lg.runWarmScenario(ctx)
	case "lazy":
		err = lg.runLazyScenario(ctx)
	default:
		err = fmt.Errorf("unknown scenario type: %s", scenarioType)
	}

	lg.mu.Lock()
	lg.requestCount++
	if err != nil {
		lg.errorCount++
		log.Printf("Scenario error (%s): %v", scenarioType, err)
	}
	lg.mu.Unlock()
}

// selectScenario chooses a scenario type based on configured weights.
func (lg *LoadGenerator) selectScenario() string {
	// Generate random number 0-99
	r := rand.Intn(100) //nolint:gosec // Test code - weak random is acceptable

	// Apply weights: [cold, warm, lazy]
	// Example: [60, 30, 10] -> cold: 0-59, warm: 60-89, lazy: 90-99
	if r < lg.config.ScenarioWeights[0] {
		return "cold"
	}

	if r < lg.config.ScenarioWeights[0]+lg.config.ScenarioWeights[1] {
		return "warm"
	}

	return "lazy"
}

// runColdScenario rehydrates a random instance into a fresh session, the
// worst case where every referenced record has to come from the store.
func (lg *LoadGenerator) runColdScenario(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	instanceID := lg.randomInstanceID()

	record, err := lg.store.Fetch(opCtx, inventory.InstanceCollection, instanceID)
	if err != nil {
		return err
	}

	_, err = lg.engine.Rehydrate(opCtx, rehydrator.NewSession(), record)

	return err
}

// runWarmScenario rehydrates a random instance into the shared long-lived
// session, so repeated targets and shared hypervisors come out of the
// session's identity cache instead of the store.
func (lg *LoadGenerator) runWarmScenario(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	instanceID := lg.randomInstanceID()

	record, err := lg.store.Fetch(opCtx, inventory.InstanceCollection, instanceID)
	if err != nil {
		return err
	}

	lg.warmMu.Lock()
	defer lg.warmMu.Unlock()

	_, err = lg.engine.Rehydrate(opCtx, lg.warmSession, record)

	return err
}

// runLazyScenario resolves a lazy reference to a random hypervisor, the
// access pattern of code that holds coordinates and only materializes the
// object when it is actually needed.
func (lg *LoadGenerator) runLazyScenario(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	ref, err := rehydrator.NewLazyReference(lg.engine, inventory.HypervisorCollection, lg.randomHypervisorID())
	if err != nil {
		return err
	}

	host, err := rehydrator.ResolvedAs[*inventory.Hypervisor](ref).Get(opCtx)
	if err != nil {
		return err
	}

	if host == nil {
		return fmt.Errorf("hypervisor %s resolved to nothing", ref.ID())
	}

	return nil
}

// randomInstanceID picks an instance id from the seeded range.
func (lg *LoadGenerator) randomInstanceID() string {
	n := rand.Int63n(int64(lg.config.InitialInstances)) + 1 //nolint:gosec // Test code - weak random is acceptable
	return instanceIDFor(n)
}

// randomHypervisorID picks a hypervisor id from the seeded range.
func (lg *LoadGenerator) randomHypervisorID() string {
	n := rand.Int63n(lg.hypervisorCount) + 1 //nolint:gosec // Test code - weak random is acceptable
	return hypervisorIDFor(n)
}

func instanceIDFor(n int64) string {
	return deterministicID(fmt.Sprintf("instance-%d", n))
}

func hypervisorIDFor(n int64) string {
	return deterministicID(fmt.Sprintf("hypervisor-%d", n))
}

// deterministicID derives a stable UUID from a name, so seeding and the
// scenarios agree on record ids without shared state.
func deterministicID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// statsReporter logs request statistics periodically.
func (lg *LoadGenerator) statsReporter(ctx context.Context) {
	defer lg.wg.Done()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-lg.stopChan:
			return
		case <-ticker.C:
			lg.logCurrentStats()
		}
	}
}

// logCurrentStats logs current performance statistics.
func (lg *LoadGenerator) logCurrentStats() {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	errors := lg.errorCount
	lg.mu.RUnlock()

	goroutineCount := runtime.NumGoroutine()

	if duration > 0 && requests > 0 {
		rps := float64(requests) / duration.Seconds()
		errorRate := float64(errors) / float64(requests) * 100
		log.Printf("Stats: %d requests in %v (%.1f req/s), %d errors (%.1f%%), %d goroutines",
			requests, duration.Truncate(time.Second), rps, errors, errorRate, goroutineCount)
	}
}

// logFinalStats logs final performance statistics.
func (lg *LoadGenerator) logFinalStats() {
	lg.mu.RLock()
	duration := time.Since(lg.startTime)
	requests := lg.requestCount
	errors := lg.errorCount
	lg.mu.RUnlock()

	goroutineCount := runtime.NumGoroutine()

	if duration > 0 && requests > 0 {
		rps := float64(requests) / duration.Seconds()
		errorRate := float64(errors) / float64(requests) * 100
		log.Printf("Final Stats: %d requests in %v (%.1f req/s), %d errors (%.1f%%), %d goroutines",
			requests, duration.Truncate(time.Second), rps, errors, errorRate, goroutineCount)
	}
}
