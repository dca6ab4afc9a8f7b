/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lebbnb/apiserver/config"
	"github.com/lebbnb/apiserver/internal/mailer"
	"github.com/lebbnb/apiserver/internal/mq"
	"github.com/lebbnb/apiserver/internal/notify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// notifierCmd represents the notifier command.
var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Run the contact notification worker",
	Long: `Run the contact notification worker. Consumes contact notification
jobs from the message broker and delivers them over SMTP. Usage:

	lebbnb notifier
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logrus.New()
		log.SetFormatter(&logrus.JSONFormatter{})

		broker, err := newNotifierBroker(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = broker.Close()
		}()

		smtpMailer, err := mailer.New(cfg.SMTP)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			cancel()
		}()

		log.Info("starting notification worker")
		worker := notify.NewWorker(broker, smtpMailer, cfg.SMTP.To, log)
		return worker.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}

func newNotifierBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQBackend {
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "rabbitmq", "":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
}
