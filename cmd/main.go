package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artnetsync/internal/clientmqtt"
	"artnetsync/internal/config"
	"artnetsync/internal/controller"
	"artnetsync/internal/logger"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v", err)
		os.Exit(1)
	}

	log.Module("logger").Debug("newLogger created ok")

	groups, err := controller.GroupsFromConfig(cfg.Groups)
	if err != nil {
		log.Module("art-net").Errorf("invalid groups: %v", err)
		os.Exit(1)
	}

	var (
		client    *clientmqtt.ClientMQTT
		observers []controller.DataHandler
	)
	if cfg.MQTT.Enabled {
		client = clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT))
		for _, g := range groups {
			client.AddGroup(g.ID)
		}
		observers = append(observers, client)
		log.Module("mqtt").Debug("NewClient created ok")
	}

	ctrl, err := controller.New(log, groups, controller.Options{
		Port:        cfg.Network.Port,
		PoolSize:    cfg.Network.PoolSize,
		BindNetwork: cfg.Network.BindNetwork,
		Observers:   observers,
	})
	if err != nil {
		log.Module("art-net").Errorf("error while creating a new controller art-net. %v", err)
		os.Exit(1)
	}
	log.Module("art-net").Debug("NewController created ok")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	// Канал для передачи команд из MQTT в кадр.
	dmxDataCh := make(chan clientmqtt.DataCh, 10)

	if client != nil {
		if err = client.Start(ctx, dmxDataCh); err != nil {
			log.Error("failed to start MQTT service:", err.Error())
			cancel()
		}
	}

	if err = ctrl.Start(ctx, cfg.Network.Strategy); err != nil {
		log.Error("failed to start art-net service:", err.Error())
		cancel()
	}

	fx := newFixtures(log, dmxDataCh)
	ticker := time.NewTicker(time.Second / time.Duration(cfg.Network.FrameRate))
	defer ticker.Stop()

	code := 0
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-hup:
			reload(log, ctrl)
		case <-ticker.C:
			if err := ctrl.Tick(fx); err != nil {
				log.Module("art-net").Errorf("frame loop stopped: %v", err)
				code = 1
				break loop
			}
		}
	}

	if client != nil {
		if err := client.Stop(); err != nil {
			log.Error("failed to stop MQTT service:", err.Error())
		}
	}

	if err := ctrl.Stop(); err != nil {
		log.Error("art-net service stopped with error:", err.Error())
		code = 1
	}

	log.Info("shutdown complete")
	os.Exit(code)
}

// reload re-reads the configuration file and applies the routing strategy.
func reload(log *logger.Log, ctrl *controller.Controller) {
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		log.Module("art-net").Errorf("reload: configuration file read error: %v", err)
		return
	}
	log.Module("art-net").Infof("reload: strategy %s -> %s", ctrl.Strategy(), cfg.Network.Strategy)
	if err := ctrl.SetStrategy(cfg.Network.Strategy); err != nil {
		log.Module("art-net").Errorf("reload: %v", err)
	}
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID:    cfg.ClientID,
		Schema:      "tcp",
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		Qos:         cfg.Qos,
		TopicPrefix: cfg.TopicPrefix,
	}
}
