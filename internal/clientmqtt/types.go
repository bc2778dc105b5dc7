package clientmqtt

type MQTTConf struct {
	ClientID    string // ClientID - уникальное имя клиента для брокеров.
	Schema      string // Schema - тип подключения.
	Host        string // Host - адрес MQTT сервера.
	Port        string // Port - порт MQTT сервера.
	User        string // User - логин для подключения к MQTT серверу.
	Password    string // Password - пароль для подключения к MQTT серверу.
	Qos         byte   // Qos - качество обслуживания.
	TopicPrefix string // TopicPrefix - префикс топиков, по умолчанию "artnet".
}

type nameTopic string
type dmxAddr uint16

// DataCh is a batch of channel commands for one group.
type DataCh struct {
	Addr uint16
	Data Payload
}

type DMXCommand struct {
	Channel uint16 // Channel is the channel a command can talk to (0-511).
	Value   uint8  // Value is the value a DMX channel can represent (0-255).
}

type Payload []DMXCommand

// State is what is published on a group's state topic.
type State struct {
	Group    uint16 `json:"group"`
	Channels []int  `json:"channels"`
}
