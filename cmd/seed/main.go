package main

import (
	"context"
	"time"

	"config_client/internal/config"
	"config_client/internal/db"
	"config_client/internal/events"
	"config_client/internal/observability"
	"config_client/internal/queue"
	"config_client/internal/user"

	"github.com/sirupsen/logrus"
)

var demoUsers = []*user.User{
	{Username: "ada", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"},
	{Username: "grace", Email: "grace@example.com", FirstName: "Grace", LastName: "Hopper"},
	{Username: "ken", Email: "ken@example.com", FirstName: "Ken", LastName: "Thompson"},
}

func main() {
	cfg := config.Load()
	observability.ConfigureLogging(cfg.AppEnv, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	database, err := db.Init(&cfg.DB)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		logrus.WithError(err).Fatal("Failed to migrate database")
	}

	ids, err := db.Seed(ctx, database, demoUsers)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to seed users")
	}

	conn, err := queue.SetupRabbitMQ(&cfg.RabbitMQ)
	if err != nil {
		logrus.WithError(err).Warn("RabbitMQ unavailable, skipping user events")
		return
	}
	defer conn.Close()

	ch, err := queue.CreateChannel(conn)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create RabbitMQ channel")
	}
	defer ch.Close()

	if _, err := queue.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
		logrus.WithError(err).Fatal("Failed to declare RabbitMQ queue")
	}

	publisher := events.NewPublisher(ch, cfg.RabbitMQ.Queue, nil)
	for _, id := range ids {
		if err := publisher.PublishUserEvent(ctx, events.UserEvent{UserID: id, Action: events.ActionCreated}); err != nil {
			logrus.WithError(err).WithField("user_id", id).Error("Failed to publish user event")
		}
	}
	logrus.Info("Published user created events")
}
