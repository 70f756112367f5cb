// Package app assembles the engine, its post-commit path and the HTTP layer
// from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/dinein-lifecycle/cache"
	"github.com/yeremiapane/dinein-lifecycle/config"
	"github.com/yeremiapane/dinein-lifecycle/realtime"
	"github.com/yeremiapane/dinein-lifecycle/router"
	"github.com/yeremiapane/dinein-lifecycle/services"
	"github.com/yeremiapane/dinein-lifecycle/store"
	"github.com/yeremiapane/dinein-lifecycle/utils"
	"gorm.io/gorm"
)

type App struct {
	Config     config.Config
	Store      *store.Store
	Cache      cache.Store
	Engine     *services.Engine
	Queries    *services.Queries
	Dispatcher *services.Dispatcher
	Reconciler *services.Reconciler
	Hub        *realtime.Hub
	Bindings   *realtime.BindingRegistry
	Notifier   *realtime.Notifier
	Relay      *realtime.Relay
	Tokens     *utils.TokenIssuer
	Router     *gin.Engine

	kafka  *realtime.KafkaSink
	cancel context.CancelFunc
}

// New wires every component. rdb may be nil, in which case caching is off and
// realtime delivery stays within this process.
func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	policy, err := services.PolicyByName(cfg.Engine.OrderTransitionPolicy)
	if err != nil {
		return nil, err
	}
	fee, err := decimal.NewFromString(cfg.Engine.DeliveryFee)
	if err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_FEE %q: %w", cfg.Engine.DeliveryFee, err)
	}

	a := &App{Config: cfg, Store: store.New(db)}

	a.Cache = cache.Noop{}
	if rdb != nil {
		a.Cache = cache.NewRedisStore(rdb)
	}

	a.Hub = realtime.NewHub()
	var transport realtime.Transport = a.Hub
	if rdb != nil {
		a.Relay = realtime.NewRelay(a.Hub, rdb, cfg.Server.InstanceID)
		transport = a.Relay
	}
	a.Bindings = realtime.NewBindingRegistry(a.Store, cfg.Server.InstanceID)
	a.Notifier = realtime.NewNotifier(transport, a.Bindings, a.Cache)

	a.Dispatcher = services.NewDispatcher(cfg.Engine.DispatcherQueueSize, a.Notifier)
	if len(cfg.Kafka.Brokers) > 0 {
		a.kafka = realtime.NewKafkaSink(realtime.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		a.Dispatcher.AddHandler(a.kafka)
	}

	coordinator := services.NewCoordinator(a.Cache, cfg.Engine.InvalidationTimeout)
	a.Engine = services.NewEngine(a.Store, coordinator, a.Dispatcher, policy, services.WithDeliveryFee(fee))
	a.Queries = services.NewQueries(a.Store, services.NewReadPath(a.Cache), cfg.Cache)
	a.Reconciler = services.NewReconciler(a.Engine, cfg.Engine.ReconcileInterval)
	a.Tokens = utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	a.Router, err = router.SetupRouter(router.Dependencies{
		Engine:          a.Engine,
		Queries:         a.Queries,
		Dispatcher:      a.Dispatcher,
		Reconciler:      a.Reconciler,
		Hub:             a.Hub,
		Bindings:        a.Bindings,
		Tokens:          a.Tokens,
		RegistrationKey: cfg.Auth.RegistrationKey,
		AllowedOrigin:   cfg.Server.AllowedOrigin,
		RateLimit:       cfg.Server.RateLimit,
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Infof("Engine ready (policy=%s, cache=%t, relay=%t, kafka=%t)",
		policy.Name(), rdb != nil, a.Relay != nil, a.kafka != nil)
	return a, nil
}

// Start launches the background workers.
func (a *App) Start() {
	a.Dispatcher.Start()
	a.Reconciler.Start()

	if a.Relay != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.cancel = cancel
		go func() {
			if err := a.Relay.Run(ctx, nil); err != nil {
				utils.ErrorLogger.Errorf("Realtime relay stopped: %v", err)
			}
		}()
	}
}

// Stop drains queued notifications and closes every connection.
func (a *App) Stop() {
	a.Reconciler.Stop()
	a.Dispatcher.Stop()
	a.Notifier.Wait()
	if a.cancel != nil {
		a.cancel()
	}
	a.Hub.Close()
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			utils.ErrorLogger.Errorf("Failed to close kafka writer: %v", err)
		}
	}
}
