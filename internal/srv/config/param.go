package config

import (
	_ "embed"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	DisplayParam   DisplayParam   `yaml:"display"`
	TouchParam     TouchParam     `yaml:"touch"`
	BacklightParam BacklightParam `yaml:"backlight"`
	EmoteParam     EmoteParam     `yaml:"emote"`
	NetworkParam   NetworkParam   `yaml:"network"`
	ApiParam       ApiParam       `yaml:"api"`

	// Seconds without touch activity before the idle policy dims the
	// backlight and reports the sleep state.
	IdleTimeout int64 `yaml:"idle_timeout"`
}

type DisplayParam struct {
	// "gc9307", "ssd1306" or "sim"
	Driver string `yaml:"driver"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	SpiPort      string `yaml:"spi_port"`
	ResetPin     string `yaml:"reset_pin"`
	DcPin        string `yaml:"dc_pin"`
	CsPin        string `yaml:"cs_pin"`
	BacklightPin string `yaml:"backlight_pin"`
	ColumnOffset int    `yaml:"column_offset"`

	SwapXy  bool `yaml:"swap_xy"`
	MirrorX bool `yaml:"mirror_x"`
	MirrorY bool `yaml:"mirror_y"`

	// Pause between blanking the panel and powering it on, hides the
	// power-on garbage pixels.
	SettleDelayMs int64 `yaml:"settle_delay_ms"`
}

type TouchParam struct {
	// Evdev device path. When empty, DeviceName is searched for instead.
	// Both empty disables touch.
	DevicePath string `yaml:"device_path"`
	DeviceName string `yaml:"device_name"`
	PollMs     int64  `yaml:"poll_ms"`
}

type BacklightParam struct {
	SysfsPath      string `yaml:"sysfs_path"`
	MaxBrightness  int64  `yaml:"max_brightness"`
	DefaultPercent int64  `yaml:"default_percent"`
	DimPercent     int64  `yaml:"dim_percent"`
}

type EmoteParam struct {
	Fps      int    `yaml:"fps"`
	AssetDir string `yaml:"asset_dir"`
}

type NetworkParam struct {
	Provisioned         bool   `yaml:"provisioned"`
	ProvisioningPayload string `yaml:"provisioning_payload"`
	ProbeHost           string `yaml:"probe_host"`
	ProbeIntervalS      int64  `yaml:"probe_interval_s"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}
