package config

import (
	"errors"
	"fmt"
	"net"

	"artnetsync/internal/routing"
	"github.com/BurntSushi/toml"
)

const (
	DefaultPort      = 6454
	DefaultPoolSize  = 2
	DefaultFrameRate = 30
	maxChannels      = 512
)

// Config структура конфигурации.
type Config struct {
	Logger  LogConf     // Logger - конфигурация регистратора.
	MQTT    MQTTConf    // MQTT - конфигурация MQTT клиента.
	Network NetworkConf // Network - параметры сети Art-Net.
	Groups  []GroupConf `toml:"Group"` // Groups - список групп (universe).
}

// LogConf структура конфигурации.
type LogConf struct {
	Level  string `toml:"log-level"`  // Level - уровень логирования.
	Format string `toml:"log-format"` // Format - text или json.
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	Enabled     bool   `toml:"enabled"`      // Enabled - включить мост MQTT.
	ClientID    string `toml:"clientID"`     // ClientID - имя клиента.
	Host        string `toml:"server"`       // Host - адрес MQTT сервера.
	Port        string `toml:"port"`         // Port - порт MQTT сервера.
	User        string `toml:"user"`         // User - логин для подключения к MQTT серверу.
	Password    string `toml:"password"`     // Password - пароль для подключения к MQTT серверу.
	Qos         byte   `toml:"qos"`          // Qos - качество обслуживания.
	TopicPrefix string `toml:"topic-prefix"` // TopicPrefix - префикс топиков групп.
}

// NetworkConf describes how DMX frames leave the process.
type NetworkConf struct {
	Strategy    routing.Strategy `toml:"strategy"`
	Port        int              `toml:"port"`
	BindNetwork string           `toml:"bind-network"` // CIDR of the interface the sender binds to.
	PoolSize    int              `toml:"pool-size"`
	FrameRate   int              `toml:"frame-rate"`
}

// GroupConf is one universe of fixtures.
type GroupConf struct {
	ID       uint16 `toml:"id"`
	Address  string `toml:"address"`
	Channels int    `toml:"channels"`
}

// NewConfig конструктор.
func NewConfig(path string) (*Config, error) {
	cfg := defaults()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes a configuration held in memory.
func Parse(data string) (*Config, error) {
	cfg := defaults()
	if _, err := toml.Decode(data, cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func defaults() *Config {
	return &Config{
		Logger: LogConf{Level: "info"},
		MQTT:   MQTTConf{TopicPrefix: "artnet"},
		Network: NetworkConf{
			Strategy:  routing.Loopback,
			Port:      DefaultPort,
			PoolSize:  DefaultPoolSize,
			FrameRate: DefaultFrameRate,
		},
	}
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.Network.Port <= 0 || c.Network.Port > 65535 {
		return fmt.Errorf("network: invalid port %d", c.Network.Port)
	}
	if c.Network.PoolSize < 1 {
		return fmt.Errorf("network: pool-size must be positive, got %d", c.Network.PoolSize)
	}
	if c.Network.FrameRate < 1 {
		return fmt.Errorf("network: frame-rate must be positive, got %d", c.Network.FrameRate)
	}
	if c.Network.BindNetwork != "" {
		if _, _, err := net.ParseCIDR(c.Network.BindNetwork); err != nil {
			return fmt.Errorf("network: bind-network: %w", err)
		}
	}
	if len(c.Groups) == 0 {
		return errors.New("no groups configured")
	}

	seen := make(map[uint16]struct{}, len(c.Groups))
	for _, g := range c.Groups {
		if _, ok := seen[g.ID]; ok {
			return fmt.Errorf("group %d: duplicate id", g.ID)
		}
		seen[g.ID] = struct{}{}
		if g.Channels < 0 || g.Channels > maxChannels {
			return fmt.Errorf("group %d: channels out of range: %d", g.ID, g.Channels)
		}
		if g.Address == "" && c.Network.Strategy != routing.Direct {
			continue
		}
		ip := net.ParseIP(g.Address)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("group %d: invalid IPv4 address %q", g.ID, g.Address)
		}
		// стратегия direct шлёт только на unicast адреса
		if class := routing.Classify(ip); class != routing.Unicast {
			return fmt.Errorf("group %d: %s address %s cannot be a node address", g.ID, class, g.Address)
		}
	}
	return nil
}
