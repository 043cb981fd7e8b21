package config

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	completeStateFilename string
}

func NewServerState(completeStateFilename string, defaultBacklight int64) *ServerState {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err == nil {
		// Interpret state file
		err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig)
		if err != nil {
			logrus.Fatalf("Unable to interpret state file: %v\n", err)
		}
	} else {
		// Create default state file
		logrus.Infof("Create default state file")
		serverState.SetBacklight(defaultBacklight)
		serverState.SetDisplayOn(true)
	}

	return serverState
}

func (ss *ServerState) Backlight() int64 {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.Backlight
}

func (ss *ServerState) SetBacklight(percent int64) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.Backlight = percent
	ss.scheduleSave()
}

func (ss *ServerState) DisplayOn() bool {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.DisplayOn
}

func (ss *ServerState) SetDisplayOn(on bool) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.DisplayOn = on
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(10*time.Second, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(10 * time.Second)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Fatalf("Unable to serialize state file: %v\n", err)
	}
	err = os.WriteFile(ss.completeStateFilename, rawConfig, 0660)
	if err != nil {
		logrus.Fatalf("Unable to save state file: %v\n", err)
	}
}

func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}

type ServerStateConfig struct {
	Backlight int64 `yaml:"backlight"`
	DisplayOn bool  `yaml:"display_on"`
}
