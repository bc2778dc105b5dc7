package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"sync"
	"time"

	"artnetsync/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ClientMQTT структура клиента MQTT.
// It turns <prefix>/<group>/set messages into DataCh and publishes received
// group payloads on <prefix>/<group>/state.
type ClientMQTT struct {
	ctx       context.Context
	log       *logger.Log
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	dmxDataCh chan<- DataCh

	mu        sync.Mutex
	topics    map[nameTopic]dmxAddr
	published map[dmxAddr]uint64
}

// MQTTClient is a convenience interface to use within this application.
type MQTTClient interface {
	Start(ctx context.Context, dmxDataCh chan<- DataCh) error
	Stop() error
	AddGroup(id uint16)
	HandleGroupData(id uint16, data []byte)
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf) *ClientMQTT {
	if cfgClient.TopicPrefix == "" {
		cfgClient.TopicPrefix = "artnet"
	}
	if cfgClient.Schema == "" {
		cfgClient.Schema = "tcp"
	}
	return &ClientMQTT{
		log:       log.Module("mqtt"),
		cfgClient: cfgClient,
		topics:    map[nameTopic]dmxAddr{},
		published: map[dmxAddr]uint64{},
	}
}

// AddGroup registers the command topic of a group. Call before Start.
func (c *ClientMQTT) AddGroup(id uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics[nameTopic(c.setTopic(id))] = dmxAddr(id)
}

func (c *ClientMQTT) Start(ctx context.Context, dmxDataCh chan<- DataCh) error {
	// TODO перенаправить в logger
	if c.log.GetLevel() == "debug" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx
	c.dmxDataCh = dmxDataCh

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		return errors.New("context canceled")
	}

	c.log.Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

// connectHandler subscribes again after every (re)connect.
func (c *ClientMQTT) connectHandler(_ mqtt.Client) {
	c.log.Info("client connected to server")
	c.mu.Lock()
	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, string(t))
	}
	c.mu.Unlock()
	for _, t := range topics {
		c.sub(t)
	}
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.Debugf("received message: %v from topic: %s", msg.Payload(), msg.Topic())
	c.sendDataToArtNet(msg.Topic(), msg.Payload())
}

func (c *ClientMQTT) sendDataToArtNet(topic string, payload []byte) {
	c.mu.Lock()
	addr, ok := c.topics[nameTopic(topic)]
	c.mu.Unlock()
	if !ok {
		c.log.Errorf("accepted topic %s was not found in the database. Recording in Art-net was canceled", topic)
		return
	}

	var data Payload
	if err := json.Unmarshal(payload, &data); err != nil {
		c.log.Errorf("message could not be parsed (%s): %v", payload, err)
		return
	}
	c.log.Debugf("message payload parsed. Result: %v", data)

	select {
	case c.dmxDataCh <- DataCh{Addr: uint16(addr), Data: data}:
	case <-c.ctx.Done():
	}
}

func (c *ClientMQTT) sub(topic string) {
	token := c.client.Subscribe(topic, c.cfgClient.Qos, nil)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.Debugf("topic %s subscribed", topic)
	}()
}

// HandleGroupData publishes a received payload when it differs from the last one published.
// It is called from the Art-Net receive loop and does not wait for the broker.
func (c *ClientMQTT) HandleGroupData(id uint16, data []byte) {
	if c.client == nil || !c.client.IsConnectionOpen() {
		return
	}
	if !c.changed(id, data) {
		return
	}

	state := State{Group: id, Channels: make([]int, len(data))}
	for i, v := range data {
		state.Channels[i] = int(v)
	}
	msg, err := json.Marshal(state)
	if err != nil {
		c.log.Errorf("public topic. msg: %v", err)
		return
	}

	topic := c.stateTopic(id)
	token := c.client.Publish(topic, c.cfgClient.Qos, false, msg)
	go func() {
		select {
		case <-c.ctx.Done():
		case <-token.Done():
			if token.Error() != nil {
				c.log.Errorf("error publish topic %s. %v", topic, token.Error())
			}
		}
	}()
}

func (c *ClientMQTT) changed(id uint16, data []byte) bool {
	h := fnv.New64a()
	h.Write(data)
	sum := h.Sum64()

	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.published[dmxAddr(id)]; ok && last == sum {
		return false
	}
	c.published[dmxAddr(id)] = sum
	return true
}

func (c *ClientMQTT) setTopic(id uint16) string {
	return fmt.Sprintf("%s/%d/set", c.cfgClient.TopicPrefix, id)
}

func (c *ClientMQTT) stateTopic(id uint16) string {
	return fmt.Sprintf("%s/%d/state", c.cfgClient.TopicPrefix, id)
}
