package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Leganyst/facility-booking/internal/calendar"
	"github.com/Leganyst/facility-booking/internal/config"
	"github.com/Leganyst/facility-booking/internal/db"
	"github.com/Leganyst/facility-booking/internal/model"
	"github.com/Leganyst/facility-booking/internal/notify"
	"github.com/Leganyst/facility-booking/internal/obs"
	"github.com/Leganyst/facility-booking/internal/repository"
	"github.com/Leganyst/facility-booking/internal/service"
	"github.com/Leganyst/facility-booking/internal/transport/httpapi"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Конфиг приложения и БД из env.
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		return err
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: appCfg.SlogLevel()})).
		With(slog.String("service", appCfg.ServiceName))
	slog.SetDefault(log)

	defaultLoc, err := appCfg.Location()
	if err != nil {
		return err
	}

	shutdownTracer, err := obs.InitTracer(ctx, appCfg.ServiceName, appCfg.Env, appCfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			log.Warn("tracer shutdown", slog.Any("error", err))
		}
	}()

	// 2. Подключаемся к БД через GORM и мигрируем модели.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := model.AutoMigrate(gormDB); err != nil {
		return err
	}

	// 3. Приёмник уведомлений: брокер, если настроен, иначе лог.
	var notifier service.Notifier = notify.NewLogNotifier(log, defaultLoc)
	if appCfg.RabbitURL != "" {
		pub, err := notify.NewPublisher(appCfg.RabbitURL, appCfg.RabbitExchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		notifier = notify.NewBrokerNotifier(pub, defaultLoc)
	}

	// 4. Сервисы.
	store := repository.NewGormStore(gormDB)
	clock := calendar.SystemClock{}

	bookingSvc := service.NewBookingService(store, clock,
		service.WithNotifier(notifier),
		service.WithLogger(log),
		service.WithDefaultLocation(defaultLoc),
	)
	availabilitySvc := service.NewAvailabilityService(store, clock, log, defaultLoc)
	reportSvc := service.NewReportService(store, log, defaultLoc)
	identitySvc := service.NewIdentityService(store, log)

	// 5. HTTP API.
	httpSrv := &http.Server{
		Addr: appCfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			JWTSecret:    []byte(appCfg.JWTSecret),
			Users:        identitySvc,
			Bookings:     bookingSvc,
			Availability: availabilitySvc,
			Reports:      reportSvc,
			Log:          log,
		}),
	}

	// 6. gRPC: health и reflection.
	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", appCfg.GRPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("grpc server listening", slog.String("addr", appCfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		log.Info("http server listening", slog.String("addr", appCfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// 7. Грейсфул-шатдаун по сигналу.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("server failed", slog.Any("error", err))
	}

	log.Info("shutting down")
	healthSrv.Shutdown()

	sctx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		log.Warn("http shutdown", slog.Any("error", err))
	}
	grpcServer.GracefulStop()
	return nil
}
