package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stoik/lure/services/analyzer/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Analyze emails from the Redis queue",
	Long:  "Pops email events from a Redis list, analyzes each message once and pushes the results to another list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		log := newLogger()

		opts, err := redis.ParseURL(viper.GetString("redis.url"))
		if err != nil {
			return fmt.Errorf("invalid redis.url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		comps, err := buildComponents(ctx, log)
		if err != nil {
			return err
		}
		defer comps.close()

		w := queue.NewWorker(rdb, comps.service, queue.Config{
			EmailsQueue:   viper.GetString("queue.emails"),
			ResultsQueue:  viper.GetString("queue.results"),
			Concurrency:   viper.GetInt("queue.concurrency"),
			GenerateReply: viper.GetBool("queue.generate_reply"),
		}, log)

		return w.Run(ctx)
	},
}

func init() {
	workerCmd.Flags().String("redis.url", "redis://localhost:6379/0", "Redis connection URL")
	workerCmd.Flags().String("queue.emails", queue.DefaultEmailsQueue, "List the email events are popped from")
	workerCmd.Flags().String("queue.results", queue.DefaultResultsQueue, "List the analysis results are pushed to")
	workerCmd.Flags().Int("queue.concurrency", 4, "Number of concurrent consumers")
	workerCmd.Flags().Bool("queue.generate_reply", false, "Also draft a persona reply for every email")

	for _, key := range []string{"redis.url", "queue.emails", "queue.results", "queue.concurrency", "queue.generate_reply"} {
		viper.BindPFlag(key, workerCmd.Flags().Lookup(key))
	}

	rootCmd.AddCommand(workerCmd)
}
