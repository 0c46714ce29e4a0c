package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/go-plcbridge/bridge"
	"github.com/arloliu/go-plcbridge/config"
	"github.com/arloliu/go-plcbridge/logger"
	"github.com/arloliu/go-plcbridge/monitor"
	"github.com/arloliu/go-plcbridge/publish"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath   string
	plcNetwork   string
	monitorAddr  string
	mqttBroker   string
	mqttTopic    string
	mqttInterval time.Duration
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return opts.run(ctx, cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "interface.cfg", "roster file (interface.cfg or .yaml)")
	flags.StringVar(&opts.plcNetwork, "plc-network", "", "station transport, udp or tcp; overrides the roster file")
	flags.StringVar(&opts.monitorAddr, "monitor", "", "serve the monitor API on this address, e.g. :8080")
	flags.StringVar(&opts.mqttBroker, "mqtt-broker", "", "publish station snapshots to this MQTT broker, e.g. tcp://localhost:1883")
	flags.StringVar(&opts.mqttTopic, "mqtt-topic", publish.DefaultTopicPrefix, "topic prefix of the station snapshots")
	flags.DurationVar(&opts.mqttInterval, "mqtt-interval", publish.DefaultInterval, "period of the station snapshots")

	return cmd
}

func (opts *runOptions) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.plcNetwork != "" {
		cfg.PLCNetwork = opts.plcNetwork
	}

	l := logger.GetLogger()

	// services are started by Run, after b is assigned
	var b *bridge.Bridge

	bopts := []bridge.Option{
		bridge.WithLogger(l),
		bridge.WithStatusWriter(cmd.OutOrStdout()),
	}
	if opts.monitorAddr != "" {
		bopts = append(bopts, bridge.WithService("monitor", func(ctx context.Context) error {
			return monitor.New(b, l).Serve(ctx, opts.monitorAddr)
		}))
	}
	if opts.mqttBroker != "" {
		bopts = append(bopts, bridge.WithService("mqtt", func(ctx context.Context) error {
			return opts.publishSnapshots(ctx, b, l)
		}))
	}

	b, err = bridge.New(*cfg, bopts...)
	if err != nil {
		return err
	}

	if err := b.DescribeRoster(cmd.OutOrStdout()); err != nil {
		return err
	}

	return b.Run(ctx)
}

func (opts *runOptions) publishSnapshots(ctx context.Context, b *bridge.Bridge, l logger.Logger) error {
	pub, err := publish.NewMQTT(opts.mqttBroker, "plcbridge-"+b.ID())
	if err != nil {
		return err
	}
	defer pub.Close()

	snap, err := publish.NewSnapshotter(b.Store(), pub,
		publish.WithTopicPrefix(opts.mqttTopic),
		publish.WithInterval(opts.mqttInterval),
		publish.WithBridgeID(b.ID()),
		publish.WithLogger(l),
	)
	if err != nil {
		return err
	}

	l.Info("publishing station snapshots", "broker", opts.mqttBroker, "topic", opts.mqttTopic)

	return snap.Run(ctx)
}
