package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"data-loader/core/loader"
	"data-loader/core/logger"
	"data-loader/core/middleware/auth"
	"data-loader/core/middleware/rayid"
	"data-loader/feature/jobs"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the job server",
	Long:  `Starts the HTTP server exposing job listing, checks, runs, reports and metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		logg := a.log

		if err := a.cfg.Server.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		svc := a.service()
		mgr := loader.NewManager(logg)
		mgr.Register(jobs.NewFeature(ctx, svc))

		// RayID first so every later log line carries it
		srv.Use(rayid.New())

		srv.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Public endpoints
		srv.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok", "features": mgr.Enabled()})
		})
		srv.Get("/metrics", a.metrics.Handler())

		srv.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(srv); err != nil {
			return err
		}

		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := srv.Listen(a.cfg.Server.Addr()); err != nil {
				logg.Error("Server stopped", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		logg.Info("Shutting down server...")
		_ = srv.Shutdown()
		// background runs see the cancelled context and stop at their next query
		svc.Wait()
		return nil
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
