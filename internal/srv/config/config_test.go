package config

import (
	"os"
	"testing"
)

func TestDefaultParamCreation(t *testing.T) {
	dir := t.TempDir()

	serverConfig := NewServerConfig(dir, false, false)
	t.Cleanup(serverConfig.ServerState.FlushSave)

	if _, err := os.Stat(serverConfig.GetCompleteParamFilename()); err != nil {
		t.Fatalf("default param file not written: %v", err)
	}

	param := serverConfig.ServerParam
	if param.DisplayParam.Driver != "gc9307" {
		t.Errorf("default driver = %q, want gc9307", param.DisplayParam.Driver)
	}
	if param.DisplayParam.SettleDelayMs != 50 {
		t.Errorf("default settle delay = %d, want 50", param.DisplayParam.SettleDelayMs)
	}
	if param.TouchParam.PollMs != 15 {
		t.Errorf("default touch poll = %d, want 15", param.TouchParam.PollMs)
	}
	if param.EmoteParam.Fps != 30 {
		t.Errorf("default fps = %d, want 30", param.EmoteParam.Fps)
	}
	if param.IdleTimeout != 60 {
		t.Errorf("default idle timeout = %d, want 60", param.IdleTimeout)
	}
	if param.BacklightParam.DefaultPercent != 100 {
		t.Errorf("default backlight = %d, want 100", param.BacklightParam.DefaultPercent)
	}
}

func TestParamRoundTrip(t *testing.T) {
	dir := t.TempDir()

	serverConfig := NewServerConfig(dir, false, false)
	t.Cleanup(serverConfig.ServerState.FlushSave)
	serverConfig.ServerParam.DisplayParam.Driver = "sim"
	serverConfig.ServerParam.TouchParam.PollMs = 20
	serverConfig.SaveParam()

	reloaded := NewServerConfig(dir, false, false)
	t.Cleanup(reloaded.ServerState.FlushSave)
	if reloaded.ServerParam.DisplayParam.Driver != "sim" {
		t.Errorf("reloaded driver = %q, want sim", reloaded.ServerParam.DisplayParam.Driver)
	}
	if reloaded.ServerParam.TouchParam.PollMs != 20 {
		t.Errorf("reloaded touch poll = %d, want 20", reloaded.ServerParam.TouchParam.PollMs)
	}
}

func TestStatePersistence(t *testing.T) {
	dir := t.TempDir()

	serverConfig := NewServerConfig(dir, false, false)
	if got := serverConfig.ServerState.Backlight(); got != 100 {
		t.Errorf("initial backlight = %d, want 100", got)
	}
	if !serverConfig.ServerState.DisplayOn() {
		t.Error("display should start on")
	}

	serverConfig.ServerState.SetBacklight(42)
	serverConfig.ServerState.SetDisplayOn(false)
	serverConfig.ServerState.FlushSave()

	reloaded := NewServerConfig(dir, false, false)
	if got := reloaded.ServerState.Backlight(); got != 42 {
		t.Errorf("reloaded backlight = %d, want 42", got)
	}
	if reloaded.ServerState.DisplayOn() {
		t.Error("reloaded display state should be off")
	}
}
