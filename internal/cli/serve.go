package cli

import (
	"checkout-service/internal/api"
	"checkout-service/internal/config"
	"checkout-service/internal/entity"
	"checkout-service/internal/events"
	"checkout-service/internal/ratelimit"
	"checkout-service/internal/repository"
	"checkout-service/internal/service"
	"checkout-service/internal/sharding"
	"checkout-service/migrations"
	"context"
	"errors"
	"fmt"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func newServeCmd(load configLoader) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the checkout HTTP API and the catalog event consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, migrate bool) error {
	db, err := connectDB(cfg.MySQLDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	shards, err := connectShards(cfg.OrderShardDSNs)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range shards {
			s.Close()
		}
	}()

	if migrate {
		if err := migrations.AutoMigrateCheckout(3, db); err != nil {
			return fmt.Errorf("failed to migrate checkout tables: %w", err)
		}
		if err := migrations.AutoMigrateOrders(3, shards...); err != nil {
			return fmt.Errorf("failed to migrate order tables: %w", err)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.Topics.Orders)
	defer kafkaWriter.Close()
	kafkaReader := config.NewKafkaReader(cfg.KafkaBrokers, cfg.Topics.Products, cfg.Topics.ConsumerGroup)

	router := sharding.NewShardRouter(len(shards))

	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db, rdb, cfg.ProductCache)
	orderRepo := repository.NewOrderRepository(shards, router)
	addressRepo := repository.NewAddressRepository(db)

	publisher := events.NewPublisher(kafkaWriter)
	gate := ratelimit.FromConfig(cfg.Limits, rdb)

	pricePerUnit, err := decimal.NewFromString(cfg.Split.PricePerUnit)
	if err != nil {
		return fmt.Errorf("split.price_per_unit: %w", err)
	}
	shipping := service.NewShippingInformationService(cartRepo, service.FlatRate{
		Carrier:      cfg.Split.CarrierCode,
		Method:       cfg.Split.MethodCode,
		PricePerUnit: pricePerUnit,
	})

	methods := make([]entity.PaymentMethodInfo, 0, len(cfg.PaymentMethods))
	for _, m := range cfg.PaymentMethods {
		methods = append(methods, entity.PaymentMethodInfo{Code: m.Code, Title: m.Title})
	}
	payments := service.NewPaymentMethodService(cartRepo, methods)
	totals := service.NewTotalsService(cartRepo)
	orders := service.NewOrderService(cartRepo, cartRepo, orderRepo, publisher)

	checkout := service.NewCheckout(cartRepo, payments, totals, orders, addressRepo, gate)
	builder := service.NewSubCartBuilder(cartRepo, cartRepo, productRepo, shipping)
	idempotency := service.NewRedisIdempotencyGuard(rdb, cfg.IdempotencyTTL)
	splitCfg := service.SplitConfig{
		Threshold:      decimal.NewFromInt(cfg.Split.Threshold),
		MaxQtyPerOrder: decimal.NewFromInt(cfg.Split.MaxQtyPerOrder),
		CarrierCode:    cfg.Split.CarrierCode,
		MethodCode:     cfg.Split.MethodCode,
	}

	coordinator := service.NewCoordinator(cartRepo, checkout, builder, gate, publisher, idempotency, splitCfg)
	guestCoordinator := service.NewCoordinator(cartRepo, checkout.WithServerErrorMessage(service.GuestServerErrorMessage), builder, gate, publisher, idempotency, splitCfg)
	guest := service.NewGuestCheckout(cartRepo, guestCoordinator)

	e := api.NewServer(api.NewCheckoutHandler(coordinator, guest), cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	warmed, err := productRepo.WarmCache(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error warming product cache")
	} else {
		log.Info().Msgf("Warmed %d products", warmed)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return events.NewConsumer(kafkaReader, productRepo).Run(gctx)
	})
	g.Go(func() error {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		kafkaReader.Close()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
