package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/printdeck/internal/app"
	"github.com/five82/printdeck/internal/gateway"
)

func newFilesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List the files stored on the printer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, app.EngineOptions{})
			if err != nil {
				return err
			}
			if err := s.check(s.engine.Gateway.ListFiles(cmd.Context())); err != nil {
				return err
			}
			printFiles(s.out, s.view())
			return nil
		},
	}
}

func newSelectCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "select NAME|INDEX",
		Short: "Select a file for printing",
		Long: `Select a file for printing by name or by its row in "printdeck files".
A numeric argument is treated as a row when the listing has that many rows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, app.EngineOptions{})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			gw := s.engine.Gateway
			if err := s.check(gw.ListFiles(ctx)); err != nil {
				return err
			}

			target := strings.TrimSpace(args[0])
			var res gateway.Result
			if index, convErr := strconv.Atoi(target); convErr == nil && index >= 0 && index < len(s.view().Files.Rows) {
				res = gw.SelectFile(ctx, index)
			} else {
				res = gw.SelectName(ctx, target)
			}
			if err := s.check(res); err != nil {
				return err
			}
			printFiles(s.out, s.view())
			return nil
		},
	}
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the selected file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, app.EngineOptions{})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := s.check(s.engine.Gateway.ListFiles(ctx)); err != nil {
				return err
			}
			if err := s.awaitStatus(ctx); err != nil {
				return err
			}
			if !s.view().Controls.Delete {
				return unavailable("delete", s)
			}
			if err := s.check(s.engine.Gateway.DeleteSelected(ctx)); err != nil {
				return err
			}
			printFiles(s.out, s.view())
			return nil
		},
	}
}

func newPrintCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Start printing the selected file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, app.EngineOptions{})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := s.check(s.engine.Gateway.ListFiles(ctx)); err != nil {
				return err
			}
			if err := s.awaitStatus(ctx); err != nil {
				return err
			}
			if !s.view().Controls.Print {
				return unavailable("print", s)
			}
			if err := s.check(s.engine.Gateway.StartPrint(ctx)); err != nil {
				return err
			}
			printStatus(s.out, s.view())
			return nil
		},
	}
}

func newSendCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send CMD",
		Short: "Send a G-code command line to the printer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.TrimSpace(strings.Join(args, " "))
			if line == "" {
				return errors.New("command required")
			}
			s, err := openSession(cmd, flags, app.EngineOptions{})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := s.awaitStatus(ctx); err != nil {
				return err
			}
			if !s.view().Controls.SendCommand {
				return unavailable("send", s)
			}
			if err := s.check(s.engine.Gateway.SendCommand(ctx, line)); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "sent %s\n", line)
			return nil
		},
	}
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show printer status and temperatures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, app.EngineOptions{})
			if err != nil {
				return err
			}
			if err := s.awaitStatus(cmd.Context()); err != nil {
				return err
			}
			printStatus(s.out, s.view())
			return nil
		},
	}
}

// unavailable explains why the console would have this action disabled.
func unavailable(action string, s *session) error {
	v := s.view()
	switch {
	case v.Print.Visible:
		return fmt.Errorf("%s unavailable: printer is busy (%s)", action, v.Telemetry.Status)
	case action != "send" && v.Selected == "":
		return fmt.Errorf("%s unavailable: no file selected", action)
	default:
		return fmt.Errorf("%s unavailable: printer status is %s", action, v.Telemetry.Status)
	}
}
