package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgelink/knxip/knx"
)

var watchRouting bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor group traffic",
	Long: `Watch prints every group telegram observed on the bus until
interrupted.

By default a tunneling connection is used; --routing joins the multicast
group instead and listens to routing indications.`,

	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchRouting, "routing", false, "Listen via multicast routing instead of tunneling")
}

func runWatch(cmd *cobra.Command, args []string) error {
	var inbound <-chan knx.GroupEvent

	if watchRouting {
		client, err := knx.NewGroupRouter(knx.RouterConfig{
			PhysAddr:           viper.GetString("phys-addr"),
			TwoLevelAddressing: viper.GetBool("two-level"),
		})
		if err != nil {
			return err
		}
		defer client.Close()
		inbound = client.Inbound()
	} else {
		client, err := knx.NewGroupTunnel(tunnelConfig())
		if err != nil {
			return err
		}
		defer client.Close()
		inbound = client.Inbound()
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	twoLevel := viper.GetBool("two-level")
	logger.Info("watching group traffic, interrupt to stop")

	for {
		select {
		case event, ok := <-inbound:
			if !ok {
				return nil
			}

			fmt.Printf("%s  %-19s  %-9s -> %-9s  % x\n",
				time.Now().Format("15:04:05.000"),
				event.Command,
				event.Source,
				event.Destination.Format(twoLevel),
				event.Data)

		case <-interrupt:
			return nil
		}
	}
}
