package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wgdash/config"
	"wgdash/internal/api"
	"wgdash/internal/controller"
	"wgdash/internal/db"
	"wgdash/internal/exec_commander"
	"wgdash/internal/health"
	"wgdash/internal/logs"
	"wgdash/internal/metrics"
	"wgdash/internal/middleware"
	"wgdash/internal/netif"
	"wgdash/internal/repo"
	"wgdash/internal/vpn/wireguard"
	"wgdash/internal/wgquick"

	"github.com/gorilla/mux"
	"golang.zx2c4.com/wireguard/wgctrl"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	wg         *wgctrl.Client
	store      *repo.Store
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) Интерфейсы хоста */
	hosts := netif.NewResolver()
	if err := checkInterfaces(hosts, a.cfg); err != nil {
		logs.Logger.Fatalf("startup: %v", err)
	}

	/* 3) Хранилище Dataset: data.json или БД */
	persister, err := a.openPersister()
	if err != nil {
		logs.Logger.Fatalf("storage: %v", err)
	}
	alloc := wireguard.NewAllocator(hosts, a.cfg.WireGuard.Interface)
	a.store, err = repo.Open(context.Background(), persister, alloc)
	if err != nil {
		logs.Logger.Fatalf("load dataset: %v", err)
	}

	/* 4) Живое устройство и wg-quick */
	var devices wireguard.DeviceReader
	if c, err := wireguard.OpenDeviceReader(); err != nil {
		logs.Logger.Warnf("wgctrl unavailable, /wireguard/peers will fail: %v", err)
	} else {
		a.wg = c
		devices = c
	}
	tunnel := wgquick.New(exec_commander.NewExecCommander(), wgquick.Options{
		Interface:    a.cfg.WireGuard.Interface,
		QuickBin:     a.cfg.WireGuard.QuickBin,
		SystemctlBin: a.cfg.WireGuard.SystemctlBin,
	})
	rec := controller.NewReconciler(a.store, devices, tunnel, hosts, controller.Options{
		Interface:        a.cfg.WireGuard.Interface,
		NetworkInterface: a.cfg.WireGuard.NetworkInterface,
		ConfigPath:       a.cfg.WireGuard.ConfigPath,
	})

	/* 5) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 6) Health */
	health.RegisterRoutes(a.Router, a.readinessChecks(persister))
	a.Router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	/* 7) API */
	api.RegisterRoutes(a.Router, api.NewHandler(a.store, rec), middleware.BearerAuth(a.cfg.API.Token))
	if a.cfg.API.Token == "" {
		logs.Logger.Warn("api.token is empty, control API is not authenticated")
	}

	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := rt.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		logs.Logger.Debugf("route: %-6v %s", methods, path)
		return nil
	})
}

// checkInterfaces: явно названный внешний интерфейс обязан существовать;
// туннельного может ещё не быть (его поднимет wg-quick).
func checkInterfaces(hosts *netif.Resolver, cfg *config.Config) error {
	if name := cfg.WireGuard.NetworkInterface; name != "" {
		if _, err := hosts.ByName(name); err != nil {
			return err
		}
	}
	if _, err := hosts.ByName(cfg.WireGuard.Interface); err != nil {
		logs.Logger.Warnf("tunnel interface: %v", err)
	}
	return nil
}

func (a *App) openPersister() (repo.Persister, error) {
	drv := a.cfg.Database.Driver
	if drv == "" {
		logs.Logger.Infof("dataset file: %s", a.cfg.WireGuard.DataFile)
		return repo.NewFileStore(a.cfg.WireGuard.DataFile), nil
	}
	d, err := db.Open(drv, a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open failed: %w", err)
	}
	a.db = d
	s := repo.NewDBStore(d)
	if err := s.Migrate(); err != nil {
		return nil, fmt.Errorf("db migrate failed: %w", err)
	}
	logs.Logger.Infof("dataset stored in %s", drv)
	return s, nil
}

func (a *App) readinessChecks(p repo.Persister) map[string]health.Check {
	checks := map[string]health.Check{
		"store": func(context.Context) error {
			if a.store.Dirty() {
				return errors.New("last dataset save failed")
			}
			return nil
		},
	}
	if s, ok := p.(*repo.DBStore); ok {
		checks["db"] = s.Ping
	}
	return checks
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// restart/reload держат запрос до конца работы wg-quick, поэтому WriteTimeout с запасом
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	if a.wg != nil {
		_ = a.wg.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return nil
}
