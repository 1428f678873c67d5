package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgelink/knxip/knx"
)

var describeCmd = &cobra.Command{
	Use:   "describe [address]",
	Short: "Request the self-description of a gateway",
	Long: `Describe asks a single gateway for its self-description over unicast.
The address defaults to the configured gateway endpoint.`,

	Args: cobra.MaximumNArgs(1),
	RunE: runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	address := viper.GetString("gateway")
	if len(args) > 0 {
		address = args[0]
	}
	if address == "" {
		return fmt.Errorf("no gateway address given (argument or --gateway)")
	}

	res, err := knx.Describe(address, viper.GetDuration("timeout"))
	if err != nil {
		return err
	}

	hw := res.DescriptionB.DeviceHardware
	fmt.Printf("Name:          %s\n", hw.FriendlyName)
	fmt.Printf("Physical addr: %s\n", hw.Source)
	fmt.Printf("Serial:        % x\n", hw.SerialNumber)
	fmt.Printf("MAC:           %s\n", hw.HardwareAddr)
	fmt.Printf("Medium:        %#02x\n", uint8(hw.Medium))

	for _, family := range res.DescriptionB.SupportedServices.Families {
		fmt.Printf("Service family %#02x version %d\n", uint8(family.Type), family.Version)
	}

	return nil
}
