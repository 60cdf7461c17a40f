// Package agent builds every component of the daemon and runs them.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/ble"
	"neopixel-controller/internal/config"
	"neopixel-controller/internal/core"
	"neopixel-controller/internal/effects"
	"neopixel-controller/internal/indicator"
	"neopixel-controller/internal/lua"
	"neopixel-controller/internal/mqtt"
	"neopixel-controller/internal/schedule"
	"neopixel-controller/internal/scheduler"
	"neopixel-controller/internal/server"
	"neopixel-controller/internal/settings"
	"neopixel-controller/internal/strip"
)

type Agent struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config
	wg     sync.WaitGroup

	queue       *core.Queue
	store       *settings.Store
	registry    *effects.Registry
	strip       *strip.Strip
	indicator   *indicator.Indicator
	broadcaster *core.Broadcaster

	scheduler  *scheduler.Scheduler
	schedules  *schedule.Scheduler
	scripts    *lua.Library
	server     *server.Server
	mqttClient *mqtt.Client
	bleLink    *ble.Link
}

// OpenStore opens the settings file named by cfg.
func OpenStore(cfg *config.Config) *settings.Store {
	return settings.Open(cfg.Device.SettingsFile, core.DefaultSettings())
}

// BuildRegistry registers the built-in effects and the valid scripts of the
// scripts directory.
func BuildRegistry(scripts *lua.Library) *effects.Registry {
	extra, err := lua.LoadEffects(scripts)
	if err != nil {
		log.Printf("[Agent] Scripted effects unavailable: %v", err)
	}
	return effects.NewRegistry(extra...)
}

func NewAgent(cfg *config.Config) (*Agent, error) {
	driver, err := strip.OpenDriver(strip.Options{
		Driver:       cfg.Strip.Driver,
		SPIPort:      cfg.Strip.SPIPort,
		FrequencyKHz: cfg.Strip.FrequencyKHz,
		NumLEDs:      cfg.Device.NumLEDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open strip: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Agent{
		ctx:         ctx,
		cancel:      cancel,
		config:      cfg,
		queue:       core.NewQueue(cfg.QueueSize),
		store:       OpenStore(cfg),
		strip:       strip.New(driver, cfg.Device.NumLEDs),
		indicator:   indicator.New(openIndicator(cfg.Indicator), cfg.Indicator.BlinkPeriod),
		broadcaster: core.NewBroadcaster(),
		scripts:     lua.NewLibrary(cfg.ScriptsDir),
	}
	a.registry = BuildRegistry(a.scripts)

	a.scheduler = scheduler.New(a.queue, a.store, a.registry, a.strip, a.indicator, a.broadcaster,
		scheduler.Options{DeviceName: cfg.Device.Name})
	a.schedules = schedule.New(a.queue, a.broadcaster, cfg.SchedulesFile)

	if cfg.BLE.Enabled {
		a.bleLink = ble.NewLink(ctx, cfg.BLE.Name, a.queue, a.indicator, cfg.BLE.MTU, cfg.BLE.NotifyRate, cfg.BLE.NotifyBurst)
		a.broadcaster.Attach(a.bleLink)
	}

	if cfg.Server.Enabled {
		a.server = server.NewServer(
			a.queue,
			a.registry,
			a.schedules,
			a.scripts,
			a.Status,
			cfg.Server.Port,
			cfg.Server.WebFilesDir,
			cfg.Server.AllowedOrigins,
		)
		a.broadcaster.Attach(a.server.Hub)
	}

	a.mqttClient = mqtt.NewClient(cfg.MQTT, cfg.Device.Name, a.queue, a.effectNames)
	if a.mqttClient != nil {
		a.broadcaster.Attach(a.mqttClient)
	}

	return a, nil
}

func openIndicator(cfg config.IndicatorConfig) indicator.Output {
	if cfg.Driver != "gpio" {
		return &indicator.Discard{}
	}
	out, err := indicator.NewGPIOOutput(cfg.Chip, cfg.Line)
	if err != nil {
		log.Printf("[Agent] Status LED unavailable: %v", err)
		return &indicator.Discard{}
	}
	return out
}

func (a *Agent) effectNames() []string {
	list := a.registry.List()
	names := make([]string, 0, len(list))
	for _, e := range list {
		names = append(names, string(e.Mode))
	}
	return names
}

// Status is the snapshot served by the web API.
func (a *Agent) Status() server.Status {
	st := server.Status{
		Settings:    a.store.Snapshot(),
		Fingerprint: a.store.Fingerprint().String(),
		Dirty:       a.store.IsDirty(),
		Scheduler:   a.scheduler.State().String(),
		Frames:      a.scheduler.Frames(),
		Started:     a.scheduler.Started(),
		Handled:     a.scheduler.Handled(),
	}
	if target, ok := a.scheduler.Current(); ok {
		st.Rendering = target
	}
	return st
}

// Run starts the transports and blocks in the scheduler loop until Shutdown.
func (a *Agent) Run() {
	a.wg.Add(1)
	defer a.wg.Done()

	if a.mqttClient != nil {
		go func() {
			if err := a.mqttClient.Connect(); err != nil {
				log.Printf("[Agent] MQTT Setup Error: %v", err)
			}
		}()
	}

	if a.bleLink != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := ble.NewPeripheral(a.bleLink).Run(a.ctx); err != nil {
				log.Printf("[Agent] BLE unavailable: %v", err)
			}
		}()
	}

	a.schedules.Start()

	if a.server != nil {
		log.Printf("[Agent] Web UI on http://localhost:%s", a.config.Server.Port)
		go func() {
			if err := a.server.ListenAndServe(a.ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[Agent] Server error: %v", err)
			}
		}()
	}

	log.Println("[Agent] Scheduler ready.")
	if err := a.scheduler.Run(a.ctx); err != nil {
		log.Printf("[Agent] Scheduler stopped: %v", err)
	}
}

func (a *Agent) Shutdown() {
	a.schedules.Stop()
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}
	a.cancel()
	a.wg.Wait()
	a.broadcaster.Close()

	a.strip.Clear()
	if err := a.strip.Show(); err != nil {
		log.Printf("[Agent] Failed to blank strip: %v", err)
	}
	if err := a.strip.Close(); err != nil {
		log.Printf("[Agent] Failed to close strip: %v", err)
	}
	if err := a.indicator.Close(); err != nil {
		log.Printf("[Agent] Failed to close status LED: %v", err)
	}
}
