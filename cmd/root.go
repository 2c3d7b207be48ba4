package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironrep/coach/pkg/chat"
	"github.com/ironrep/coach/pkg/config"
	"github.com/ironrep/coach/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "coach [question]",
	Short: "Ask the ironRep coach",
	Long:  `Terminal client for the ironRep agent backend. Streams the coach's answer as it is generated.`,
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := logger.Init(); err != nil {
			return err
		}
		defer logger.Close()

		question := strings.Join(args, " ")
		if question == "" {
			return cmd.Help()
		}

		return runAsk(cfg, question)
	},
	SilenceUsage: true,
}

func runAsk(cfg *config.Config, question string) error {
	mode := viper.GetString("chat.default_mode")
	sessionID := viper.GetString("chat.session_id")

	client := chat.NewClientWithTimeout(cfg.Server.URL, cfg.Server.Timeout)
	renderer := newRenderer(os.Stdout)

	done := make(chan struct{}, 1)
	callbacks := chat.Callbacks{
		OnStart: renderer.Agent,
		OnToken: renderer.Token,
		OnError: renderer.Error,
	}

	var session *chat.Session
	if sessionID != "" {
		session = chat.NewSessionWithID(client, callbacks, sessionID)
	} else {
		session = chat.NewSession(client, callbacks)
	}

	// Ctrl-C cancels the exchange instead of killing the process mid-line.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)
	go func() {
		select {
		case <-interrupt:
			session.Stop()
			renderer.Stopped()
		case <-done:
		}
	}()

	if err := session.Send(question, mode); err != nil {
		return err
	}

	for session.IsStreaming() {
		time.Sleep(50 * time.Millisecond)
	}
	close(done)
	renderer.Finish()

	logger.Info("Exchange finished (session %s, agent %q)", session.SessionID(), session.CurrentAgent())

	if msg := session.LastError(); msg != "" {
		return fmt.Errorf("answer failed: %s", msg)
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .coach/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.Flags().StringP("mode", "m", chat.ModeChat, "answer mode: medical, workout, nutrition or chat")
	viper.BindPFlag("chat.default_mode", rootCmd.Flags().Lookup("mode"))

	rootCmd.Flags().StringP("session", "s", "", "backend session id to continue")
	viper.BindPFlag("chat.session_id", rootCmd.Flags().Lookup("session"))

	rootCmd.Flags().String("server", "", "agent backend base URL")
	viper.BindPFlag("server.url", rootCmd.Flags().Lookup("server"))
}
