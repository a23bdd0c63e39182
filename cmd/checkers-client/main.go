package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/park285/checkers-server/internal/admin"
	"github.com/park285/checkers-server/internal/client"
	"github.com/park285/checkers-server/internal/msgcat"
	"github.com/park285/checkers-server/internal/transport"
)

func main() {
	rootCmd := playCmd()
	rootCmd.AddCommand(statsCmd())
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func playCmd() *cobra.Command {
	var (
		addr        string
		wsURL       string
		messagesDir string
		stay        bool
	)
	cmd := &cobra.Command{
		Use:           "checkers-client [host port]",
		Short:         "Play checkers against another player",
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				if _, err := strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid port %q", args[1])
				}
				addr = args[0] + ":" + args[1]
			} else if len(args) == 1 {
				return errors.New("expected host and port")
			}

			cat, err := msgcat.New(messagesDir)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var conn transport.Conn
			target := addr
			if wsURL != "" {
				target = wsURL
				conn, err = transport.DialWebSocket(ctx, wsURL, 0)
			} else {
				conn, err = transport.DialTCP(ctx, addr, 0)
			}
			if err != nil {
				return err
			}
			defer conn.Close()

			pterm.Success.Println(cat.Text("client.connected", map[string]string{"Addr": target}, "Connected."))
			return client.NewPlayer(conn, cat, os.Stdin, os.Stdout, client.Options{Stay: stay}).Run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:1100", "server TCP address")
	f.StringVar(&wsURL, "ws", "", "WebSocket gateway URL, e.g. ws://127.0.0.1:1101/play")
	f.StringVar(&messagesDir, "messages", os.Getenv("MESSAGES_DIR"), "directory of YAML message overrides, falls back to $MESSAGES_DIR")
	f.BoolVar(&stay, "stay", false, "keep playing after the opponent leaves")
	return cmd
}

func statsCmd() *cobra.Command {
	var adminURL string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show server occupancy and live tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			c := admin.NewClient(adminURL)

			st, err := c.Stats(ctx)
			if err != nil {
				return err
			}
			pterm.DefaultSection.Println("Occupancy")
			pterm.Info.Printfln("sessions %d/%d, tables %d/%d, waiting: %v",
				st.Sessions, st.SessionsCapacity, st.Tables, st.TablesCapacity, st.Waiting)

			tables, err := c.Tables(ctx)
			var se *admin.StatusError
			if errors.As(err, &se) && se.Code == 503 {
				pterm.Warning.Println("table mirror not configured")
				return nil
			}
			if err != nil {
				return err
			}
			data := pterm.TableData{{"ID", "Turn", "Plies", "Version", "Started"}}
			for _, t := range tables {
				data = append(data, []string{
					t.ID, t.Turn, strconv.Itoa(t.Plies),
					strconv.FormatInt(t.Version, 10), t.StartedAt.Format(time.RFC3339),
				})
			}
			pterm.DefaultSection.Println("Live tables")
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
	cmd.Flags().StringVar(&adminURL, "admin", "http://127.0.0.1:9090", "admin HTTP base URL; the server must be started with ADMIN_ADDR (or --admin) set")
	return cmd
}
