package device

import (
	"sync"
	"time"

	"github.com/go-ping/ping"
	"github.com/mjoret/emovi/internal/srv/config"
	"github.com/mjoret/emovi/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// Network watches station connectivity and posts transitions on the bus.
// When the device is not provisioned yet, it also posts the provisioning QR
// payload once at startup.
type Network struct {
	lock sync.RWMutex
	bus  *event.Bus

	serverConfig *config.ServerConfig
	probeTicker  *time.Ticker

	connected    bool
	everReported bool

	askDone chan bool
	done    chan bool
}

func NewNetwork(bus *event.Bus, serverConfig *config.ServerConfig) *Network {
	device := Network{
		bus:          bus,
		serverConfig: serverConfig,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}
	return &device
}

func (d *Network) Start() {
	logrus.Infof("Start network device")

	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.serverConfig.NetworkParam.Provisioned {
		logrus.Infof("Device not provisioned, posting QR payload")
		d.bus.Post(event.NetworkTopic, event.NetworkEventQRDisplay, d.serverConfig.NetworkParam.ProvisioningPayload)
	}

	interval := time.Duration(d.serverConfig.NetworkParam.ProbeIntervalS) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	d.probeTicker = time.NewTicker(interval)

	go func() {
		for loop := true; loop; {
			select {
			case <-d.probeTicker.C:
				if !d.serverConfig.SimulationMode {
					d.report(d.probe())
				}
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Network) probe() bool {
	pinger, err := ping.NewPinger(d.serverConfig.NetworkParam.ProbeHost)
	if err != nil {
		logrus.Debugf("Probe setup failed: %v", err)
		return false
	}
	pinger.Count = 1
	pinger.Timeout = 2 * time.Second
	pinger.SetPrivileged(true)
	if err := pinger.Run(); err != nil {
		logrus.Debugf("Probe failed: %v", err)
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}

func (d *Network) report(connected bool) {
	d.lock.Lock()
	changed := !d.everReported || connected != d.connected
	d.everReported = true
	d.connected = connected
	d.lock.Unlock()

	if !changed {
		return
	}
	if connected {
		logrus.Infof("Station connected")
		d.bus.Post(event.NetworkTopic, event.NetworkEventStaConnected, nil)
	} else {
		logrus.Infof("Station disconnected")
		d.bus.Post(event.NetworkTopic, event.NetworkEventStaDisconnected, nil)
	}
}

// SetConnected forces a connectivity transition, used in simulation mode.
func (d *Network) SetConnected(connected bool) {
	d.report(connected)
}

func (d *Network) StopSendingEvent() {
	logrus.Infof("Stop network device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.probeTicker.Stop()
	d.askDone <- true
	<-d.done
}
