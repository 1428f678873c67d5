package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgelink/knxip/knx"
)

var readCmd = &cobra.Command{
	Use:   "read <group-address>",
	Short: "Read a group address",
	Long: `Read issues a GroupValue_Read for the given group address and waits for
the answering GroupValue_Response.

Examples:
  knxip read 1/2/3
  knxip read --two-level 1/515`,

	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func runRead(cmd *cobra.Command, args []string) error {
	client, err := knx.NewGroupTunnel(tunnelConfig())
	if err != nil {
		return err
	}
	defer client.Close()

	data, err := client.Read(args[0], viper.GetDuration("timeout"))
	if err != nil {
		return err
	}

	fmt.Printf("%s = % x\n", args[0], data)
	return nil
}
