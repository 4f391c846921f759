package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/calhub/calendar-service-go/docs"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/routers"
	"github.com/calhub/calendar-service-go/internal/util"
)

const shutdownTimeout = 10 * time.Second

// serve runs srv on ln until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}

// @title Calendar Service API
// @version 1.0
// @description Calendar aggregation and friend sharing
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// config
	_ = godotenv.Load()

	logger := util.GetLogger(util.LevelForMode(os.Getenv("GIN_MODE")))

	// init dependency
	dep, err := dependency.InitDependency(logger)
	if err != nil {
		logger.Error("failed to init dependency", "err", err)
		os.Exit(1)
	}

	// validator
	dto.InitValidator()

	// services
	svc := routers.NewServices(dep)

	// router
	r := routers.SetupRouter(dep)
	routers.RegisterRoutes(r, dep, svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", ":3003")
	if err == nil {
		dep.Logger.Info("server listening", "addr", ln.Addr().String())
		err = serve(ctx, &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}, ln, shutdownTimeout)
	}

	// pending notification mails finish before the connections close
	svc.Notifier.Wait()
	dependency.CloseDependency(dep)

	if err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
