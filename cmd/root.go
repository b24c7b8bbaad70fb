package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tameszaza/p2p/internal/session"
	"github.com/tameszaza/p2p/internal/signaling"
	"github.com/tameszaza/p2p/internal/transfer"
	"github.com/tameszaza/p2p/internal/ui"
	"github.com/tameszaza/p2p/internal/version"
)

var (
	flagRole        string
	flagFile        string
	flagSTUN        string
	flagTURN        string
	flagTURNUser    string
	flagTURNPass    string
	flagRelay       bool
	flagDir         string
	flagChunkSize   int
	flagByeCloses   bool
	flagNoDeparture bool
	flagKeepAlive   time.Duration
	flagGreeting    string
	flagEncoding    string
	flagLogFile     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "p2p",
	Short: "Peer-to-peer chat and file transfer over WebRTC with copy-paste signaling",
	Long: `p2p connects two machines directly over a WebRTC data channel. There is no
signaling server: each side prints its session description and the operator
pastes it into the other side's terminal.

Without --file the session is an interactive chat. With --file the offering
side sends that file as soon as the channel opens. Either side may receive
files at any time; they are saved as received_<name> in --dir.

Examples:
  p2p --role offer
  p2p --role answer --dir ./downloads
  p2p -r offer -f report.pdf
  p2p -r offer -f ./photos --relay --turn turn.example.com --turn-user u --turn-pass p`,
	Version: version.Version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := resolveRole(flagRole, stdinIsTerminal(), promptRole)
		if err != nil {
			return err
		}
		return runSession(cmd.Context(), role, sessionFlags())
	},
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resolveRole uses the flag when given, otherwise asks when a terminal is
// attached.
func resolveRole(flag string, interactive bool, prompt func() (string, error)) (session.Role, error) {
	if flag != "" {
		return session.ParseRole(flag)
	}
	if !interactive || prompt == nil {
		return "", fmt.Errorf("%w: --role is required when stdin is not a terminal", session.ErrUnknownRole)
	}
	answer, err := prompt()
	if err != nil {
		return "", transfer.NewError("select role", err)
	}
	return session.ParseRole(answer)
}

func promptRole() (string, error) {
	var role string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which side of the connection is this?").
				Options(
					huh.NewOption("Offer (start the connection)", string(session.RoleOffer)),
					huh.NewOption("Answer (reply to a pasted offer)", string(session.RoleAnswer)),
				).
				Value(&role),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return role, nil
}

// exitCode maps a session error to the process status. A malformed pasted
// description and a dropped connection end the session cleanly; a file cut
// short does not.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, transfer.ErrIncompleteTransfer):
		return 1
	case errors.Is(err, signaling.ErrHandshakeParse), errors.Is(err, transfer.ErrTransportFailure):
		return 0
	default:
		return 1
	}
}

// alreadyReported is true for errors the session printed while running.
func alreadyReported(err error) bool {
	return errors.Is(err, transfer.ErrIncompleteTransfer) || errors.Is(err, transfer.ErrTransportFailure)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.Execute()
	if err != nil && !alreadyReported(err) {
		ui.PrintError(err.Error())
	}
	os.Exit(exitCode(err))
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagRole, "role", "r", "", "Handshake role: offer or answer")
	f.StringVarP(&flagFile, "file", "f", "", "File or directory to send once the channel opens")
	f.StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	f.StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	f.StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	f.StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	f.BoolVar(&flagRelay, "relay", false, "Force relay mode (requires a TURN server)")
	f.StringVarP(&flagDir, "dir", "d", "", "Directory to save received files")
	f.IntVar(&flagChunkSize, "chunk-size", 0, "Bytes per file chunk (default 16000)")
	f.BoolVar(&flagByeCloses, "bye-closes", false, `Close the channel when "bye" is typed`)
	f.BoolVar(&flagNoDeparture, "no-departure", false, `Do not tell the peer when you type "bye"`)
	f.DurationVar(&flagKeepAlive, "keepalive", 0, "Send a keep-alive message at this interval (0 disables)")
	f.StringVar(&flagGreeting, "greeting", "", "Message sent to the peer as soon as the channel opens")
	f.StringVar(&flagEncoding, "encoding", "", "Printed session description format: json or base64")
	f.StringVar(&flagLogFile, "log-file", "", "Write logs to this rotating file instead of stderr")
}
