package cmd

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/configs"
	mqc "github.com/yeisme/iolabel/pkg/internal/storage/mq"
	"github.com/yeisme/iolabel/pkg/log"
	"github.com/yeisme/iolabel/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message queue (classification events) related commands",
		Aliases: []string{"queue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered mq types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered mq types:")
			for _, t := range mqc.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:   "tail [topics...]",
		Short: "print classification events as JSON lines until interrupted",
		Long: "Subscribe to the given topics (all iolabel topics by default) and print every\n" +
			"event envelope on its own line. The mq section of the config selects the broker.",
		RunE: runMQTail,
	}
)

func runMQTail(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := configs.GetConfig()

	topics := args
	if len(topics) == 0 {
		topics = queue.Topics
	}

	client, err := mqc.New(ctx, cfg.MQ, false)
	if err != nil {
		return err
	}
	defer client.Close()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = cmd.OutOrStdout()
	)

	for _, topic := range topics {
		ch, err := client.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			for msg := range ch {
				mu.Lock()
				fmt.Fprintln(out, string(msg.Payload))
				mu.Unlock()

				msg.Ack()
			}
		}()
	}

	log.Logger().Info().Strs("topics", topics).Str("type", string(cfg.MQ.Type)).Msg("tailing events")

	<-ctx.Done()
	wg.Wait()

	return nil
}

// registerMQCommands 注册消息队列相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd, mqTailCmd)
}
