// Command simulator runs a device in process and talks to it as a host would: it pairs,
// exchanges encrypted messages and manages the device's list of trusted hosts.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opd-ai/hwwnoise/simulator/internal/sim"
)

var (
	configPath  string
	dataDir     string
	passphrase  string
	logLevel    string
	autoConfirm bool
	cfg         sim.Config
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "simulator",
		Short: "Simulated signing device with a Noise secured USB channel",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = sim.LoadConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if flags.Changed("passphrase") {
				cfg.Passphrase = passphrase
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("yes") {
				cfg.AutoConfirm = autoConfirm
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return cfg.ApplyLogLevel()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for device and host records (default in memory)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the records")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&autoConfirm, "yes", "y", false, "accept pairing codes without asking")

	root.AddCommand(pairCmd(), sendCmd(), peersCmd(), resetCmd())
	return root
}

// askUser shows the pairing code on the "device" and reads the user's answer from stdin.
func askUser(s **sim.Simulator) func(code string) {
	return func(code string) {
		fmt.Printf("Device shows pairing code:\n%s\n", code)
		if cfg.AutoConfirm {
			return
		}
		fmt.Print("Does it match the host? [y/N] ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if strings.EqualFold(strings.TrimSpace(answer), "y") {
			(*s).Accept()
		} else {
			(*s).Reject()
		}
	}
}

func open() (*sim.Simulator, *sim.Host, error) {
	var s *sim.Simulator
	s, err := sim.New(cfg, askUser(&s))
	if err != nil {
		return nil, nil, err
	}
	h, err := sim.NewHost(s)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, h, nil
}

func connect(h *sim.Host) error {
	required, err := h.Connect()
	if err != nil {
		return err
	}
	if !required {
		fmt.Println("Device already trusts this host")
		return nil
	}
	fmt.Printf("Host shows pairing code:\n%s\n", h.Code())
	if err := h.Verify(nil); err != nil {
		return err
	}
	fmt.Println("Paired")
	return nil
}

func pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair",
		Short: "Handshake with the device and confirm the pairing code",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, h, err := open()
			if err != nil {
				return err
			}
			defer s.Close()
			defer h.Close()
			return connect(h)
		},
	}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>...",
		Short: "Pair if needed and send each message over the encrypted channel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, h, err := open()
			if err != nil {
				return err
			}
			defer s.Close()
			defer h.Close()

			if err := connect(h); err != nil {
				return err
			}
			for _, msg := range args {
				reply, err := h.Send([]byte(msg))
				if err != nil {
					return err
				}
				fmt.Printf("> %s\n< %s\n", msg, reply)
			}
			return nil
		},
	}
}

func peersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "List the hosts the device trusts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sim.New(cfg, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			peers := s.TrustedPeers()
			if len(peers) == 0 {
				fmt.Println("No trusted hosts")
				return nil
			}
			for i, p := range peers {
				fmt.Printf("%d  %s\n", i+1, p)
			}
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget every trusted host",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sim.New(cfg, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ResetTrust(); err != nil {
				return err
			}
			logrus.WithField("data_dir", cfg.DataDir).Info("Trusted hosts cleared")
			fmt.Println("Trusted hosts cleared")
			return nil
		},
	}
}
