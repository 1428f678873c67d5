package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgelink/knxip/knx"
)

var scanTimeout time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover KNXnet/IP gateways via multicast",
	Long: `Scan sends a search request to the KNXnet/IP multicast group and lists
every gateway that answers within the scan window.`,

	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", 3*time.Second, "How long to collect responses")
}

func runScan(cmd *cobra.Command, args []string) error {
	logger.Info("scanning for gateways", "window", scanTimeout)

	results, err := knx.Discover(scanTimeout)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No gateways found.")
		return nil
	}

	for _, res := range results {
		hw := res.DescriptionB.DeviceHardware
		fmt.Printf("%-21s  %-9s  %s\n",
			res.Control.UDPAddr(), hw.Source, hw.FriendlyName)

		for _, family := range res.DescriptionB.SupportedServices.Families {
			fmt.Printf("    service family %#02x version %d\n",
				uint8(family.Type), family.Version)
		}
	}

	return nil
}
