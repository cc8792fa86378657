// Package config loads the environment-variable configuration names
// (CONTROL_PANEL_IP, Node<i>_IP) via viper, with an optional TOML file
// overlay for convenience settings. The binaries apply only the overlay's
// worker-pool sizes; default_timeout and log_json are decoded but not read
// anywhere.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Overlay is the optional TOML file schema (`-config path/to/file.toml`).
type Overlay struct {
	ControlWorkers  int    `toml:"control_workers"`
	ProcessWorkers  int    `toml:"process_workers"`
	DefaultTimeout  string `toml:"default_timeout"`
	LogJSON         bool   `toml:"log_json"`
}

// DefaultControlWorkers and DefaultProcessWorkers are the worker-pool sizes
// used when no overlay file overrides them.
const (
	DefaultControlWorkers = 10
	DefaultProcessWorkers = 2
)

// Env reads CONTROL_PANEL_IP and Node<i>_IP from the environment.
type Env struct {
	v *viper.Viper
}

// NewEnv constructs an Env bound to the process environment.
func NewEnv() *Env {
	v := viper.New()
	v.AutomaticEnv()
	return &Env{v: v}
}

// ControlPlaneAddress returns CONTROL_PANEL_IP, or an error if unset.
func (e *Env) ControlPlaneAddress() (string, error) {
	if err := e.v.BindEnv("CONTROL_PANEL_IP"); err != nil {
		return "", err
	}
	addr := e.v.GetString("CONTROL_PANEL_IP")
	if addr == "" {
		return "", fmt.Errorf("config: CONTROL_PANEL_IP is not set")
	}
	return addr, nil
}

// NodeBaseAddress returns the base "host:port" for Node<i>_IP, and the parsed
// base port, used to derive each child Process's address as
// host:(base_port+process_index+1).
func (e *Env) NodeBaseAddress(nodeIndex int) (host string, basePort int, err error) {
	key := fmt.Sprintf("Node%d_IP", nodeIndex)
	// Bind the exact, mixed-case variable name; the one-argument form
	// would look up the upper-cased NODE<i>_IP instead.
	if err := e.v.BindEnv(key, key); err != nil {
		return "", 0, err
	}
	addr := e.v.GetString(key)
	if addr == "" {
		return "", 0, fmt.Errorf("config: %s is not set", key)
	}
	host, portStr, ok := splitHostPort(addr)
	if !ok {
		return "", 0, fmt.Errorf("config: %s=%q is not host:port", key, addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("config: %s port %q: %w", key, portStr, err)
	}
	return host, port, nil
}

func splitHostPort(addr string) (host, port string, ok bool) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return "", "", false
	}
	return addr[:i], addr[i+1:], true
}

// ProcessAddress derives the address of the process at index i on a node
// whose base host/port was resolved via NodeBaseAddress:
// host:(node_port + process_index + 1).
func ProcessAddress(host string, basePort, processIndex int) string {
	return fmt.Sprintf("%s:%d", host, basePort+processIndex+1)
}

// LoadOverlay parses an optional TOML overlay file. A missing path is not an
// error; it returns the zero Overlay.
func LoadOverlay(path string) (Overlay, error) {
	var o Overlay
	if path == "" {
		return o, nil
	}
	if _, err := toml.DecodeFile(path, &o); err != nil {
		return o, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return o, nil
}
