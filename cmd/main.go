package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"osc2truegear/internal/clientmqtt"
	"osc2truegear/internal/config"
	"osc2truegear/internal/logger"
	"osc2truegear/internal/mapping"
	"osc2truegear/internal/metrics"
	"osc2truegear/internal/receiver"
	"osc2truegear/internal/sender"
	"osc2truegear/internal/truegear"
)

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	opts := bindFlags(fs, config.Default())
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.NewConfig(opts.configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v\n", err)
		os.Exit(1)
	}
	opts.apply(fs, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}
	log.With(logger.Fields{"module": "logger"}).Debug("newLogger created ok")

	mode, err := mapping.ParseFeedbackMode(cfg.TrueGear.FeedbackMode)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	var met *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		met = metrics.New()
		if err := metrics.NewServer(log, cfg.Metrics.Addr, met).Start(ctx); err != nil {
			log.With(logger.Fields{"module": "metrics"}).Errorf("failed to start metrics server: %v", err)
			os.Exit(1)
		}
	}

	mapper := mapping.NewMapper(log, mode, met)
	log.With(logger.Fields{"module": "mapping"}).Debugf("mapper created, feedback mode %s", mode)

	client := truegear.NewClient(log, ConvertConfigTrueGear(cfg.TrueGear), met)

	var mq *clientmqtt.ClientMQTT
	if cfg.MQTT.Enabled {
		mq = clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT), met)
		client.OnStateChange(mq.PublishLink)

		// Канал для передачи значений из MQTT.
		dataCh := make(chan clientmqtt.DataCh, 10)
		if err := mq.Start(ctx, dataCh); err != nil {
			log.Error("failed to start MQTT service:", err.Error())
			cancel()
		}
		go clientmqtt.Forward(ctx, dataCh, mapper)
	}

	recv, err := receiver.NewReceiver(log, ConvertConfigReceiver(cfg.OSC), mapper, met)
	if err != nil {
		log.With(logger.Fields{"module": "osc"}).Errorf("error while creating the OSC receiver. %v", err)
		os.Exit(1)
	}
	if err := recv.Start(ctx); err != nil {
		log.With(logger.Fields{"module": "osc"}).Errorf("failed to start OSC receiver: %v", err)
		os.Exit(1)
	}

	params := mapping.Params{
		ShakeIntensity:      cfg.TrueGear.ShakeIntensity,
		ElectricalIntensity: cfg.TrueGear.ElectricalIntensity,
		ElectricalInterval:  cfg.TrueGear.ElectricalInterval,
	}
	snd := sender.NewSender(log, client, mapper, params, time.Duration(cfg.TrueGear.TickMillis)*time.Millisecond)
	snd.Start(ctx)

	<-ctx.Done()
	log.Info("Received shutdown signal, shutting down.")

	snd.Stop()
	recv.Stop()
	if mq != nil {
		if err := mq.Stop(); err != nil {
			log.Error("failed to stop MQTT service:", err.Error())
		}
	}

	log.Info("shutdown complete")
}

// ConvertConfigTrueGear преобразует структуры.
func ConvertConfigTrueGear(cfg config.TrueGearConf) truegear.Conf {
	return truegear.Conf{
		URL:              cfg.URL,
		HandshakeTimeout: time.Duration(cfg.HandshakeMillis) * time.Millisecond,
	}
}

// ConvertConfigReceiver преобразует структуры.
func ConvertConfigReceiver(cfg config.OSCConf) receiver.Conf {
	conf := receiver.Conf{
		ListenAddr: fmt.Sprintf("0.0.0.0:%d", cfg.ReceivePort),
	}
	if cfg.Forward {
		conf.ForwardAddr = fmt.Sprintf("127.0.0.1:%d", cfg.SendPort)
	}
	return conf
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
