package srv

import (
	"os"
	"time"

	"github.com/mjoret/emovi/internal/console"
	"github.com/mjoret/emovi/internal/srv/config"
	"github.com/mjoret/emovi/internal/srv/device"
	"github.com/mjoret/emovi/internal/srv/display"
	"github.com/mjoret/emovi/internal/srv/event"
	"github.com/mjoret/emovi/internal/version"
	"github.com/sirupsen/logrus"
)

type ServerApp struct {
	*config.ServerConfig

	board *device.Board
	bus   *event.Bus

	displayController *display.Controller
	backlightDevice   *device.Backlight
	networkDevice     *device.Network
	apiDevice         *device.Api
	consoleFacility   *console.Console

	// Simulation handles, wired to the console commands
	simPanel   *device.SimPanel
	simSampler *device.SimSampler

	commandChannel       chan event.CommandEvent
	internalEventChannel chan event.InternalEvent

	idleTimer   *time.Timer
	stopChannel chan bool

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of emovi server %s ...", version.AppVersion.String())

	app := &ServerApp{
		commandChannel:       make(chan event.CommandEvent),
		internalEventChannel: make(chan event.InternalEvent),
		stopChannel:          make(chan bool),
		eventLoopAskDone:     make(chan bool),
		eventLoopDone:        make(chan bool),
		ServerConfig:         config.NewServerConfig(configDir, debugMode, simulationMode),
	}

	app.board = device.NewBoard()
	app.bus = event.NewBus()

	app.registerBoardDevices()

	app.displayController = display.NewController(app.ServerConfig, app.board, app.bus)
	app.networkDevice = device.NewNetwork(app.bus, app.ServerConfig)
	app.apiDevice = device.NewApi(app.ServerConfig)
	app.consoleFacility = console.NewConsole("emovi> ", os.Stdin, os.Stdout)

	logrus.Debugln("Server created")

	return app
}

// registerBoardDevices populates the board registry from the param file. The
// display controller acquires everything through the registry, so simulation
// mode only has to register different implementations.
func (s *ServerApp) registerBoardDevices() {
	displayParam := s.ServerParam.DisplayParam
	touchParam := s.ServerParam.TouchParam

	driver := displayParam.Driver
	if s.SimulationMode {
		driver = "sim"
	}

	switch driver {
	case "sim":
		s.simPanel = device.NewSimPanel(displayParam.Width, displayParam.Height)
		s.simSampler = device.NewSimSampler()
		s.board.RegisterDevice("panel", s.simPanel, displayParam)
		s.board.RegisterDevice("touch", s.simSampler, touchParam)
	case "gc9307":
		panel, err := device.NewGC9307Panel(displayParam)
		if err != nil {
			logrus.Fatalf("Unable to bring up gc9307 panel: %v", err)
		}
		s.board.RegisterDevice("panel", panel, displayParam)
	case "ssd1306":
		panel, err := device.NewSSD1306Panel()
		if err != nil {
			logrus.Fatalf("Unable to bring up ssd1306 panel: %v", err)
		}
		s.board.RegisterDevice("panel", panel, displayParam)
	default:
		logrus.Fatalf("Unknown display driver: %s", displayParam.Driver)
	}

	if !s.SimulationMode && (touchParam.DevicePath != "" || touchParam.DeviceName != "") {
		sampler, err := device.NewEvdevSampler(touchParam.DevicePath, touchParam.DeviceName)
		if err != nil {
			// Reduced capability, the display still works without touch
			logrus.Warnf("Touch device unavailable: %v", err)
		} else {
			s.board.RegisterDevice("touch", sampler, touchParam)
		}
	}

	s.backlightDevice = device.NewBacklight(s.ServerState, s.ServerParam.BacklightParam)
	s.board.RegisterDevice("backlight", s.backlightDevice, s.ServerParam.BacklightParam)
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting emovi server ...")

	if err := s.displayController.Init(); err != nil {
		logrus.Fatalf("Display bring-up failed: %v", err)
	}

	s.armIdleTimer()

	// Start event loop
	go s.eventLoop()

	// Start network device
	s.networkDevice.Start()

	// Start api device
	if s.ServerParam.ApiParam.Enabled {
		s.apiDevice.Start()
	}

	// Start console. Command registration failures after this point are
	// logged and swallowed, the display keeps running without them.
	s.registerConsoleCommands()
	if err := s.consoleFacility.Init(); err != nil {
		logrus.Warnf("Console unavailable: %v", err)
	}

	logrus.Printf("Server started")
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping emovi server ...")

	// Stop console
	s.consoleFacility.Stop()

	// Stop api
	if s.ServerParam.ApiParam.Enabled {
		s.apiDevice.StopSendingEvent()
	}

	// Stop network device
	s.networkDevice.StopSendingEvent()

	// Release a pending idle timeout before stopping its consumer
	close(s.stopChannel)

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}

	// Stop event bus dispatchers
	s.bus.Close()

	// Stop display controller
	s.displayController.Close()

	// Flush config backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")
}

// armIdleTimer (re)starts the inactivity countdown. Called from the Start
// flow once, then only from the event loop.
func (s *ServerApp) armIdleTimer() {
	timeout := time.Duration(s.ServerParam.IdleTimeout) * time.Second
	if timeout <= 0 {
		return
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(timeout, s.postIdleTimeout)
}

// postIdleTimeout hands the idle timeout to the event loop. The timer can
// fire while the server is shutting down, with nobody left to consume the
// event; the stop channel lets the send abort instead of blocking forever.
func (s *ServerApp) postIdleTimeout() {
	select {
	case s.internalEventChannel <- event.InternalEvent{Data: event.InternalEventIdleTimeoutData{}}:
	case <-s.stopChannel:
	}
}
