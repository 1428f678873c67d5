package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/edgelink/knxip/knx"
	"github.com/edgelink/knxip/knx/dpt"
)

var (
	writeDPT   string
	writeValue string
	writeRaw   string
	writeBits  uint
)

var writeCmd = &cobra.Command{
	Use:   "write <group-address>",
	Short: "Write a value to a group address",
	Long: `Write submits a GroupValue_Write to the given group address.

The value is encoded according to the selected datapoint type, or sent
verbatim with --raw.

Supported datapoint types:
  1.001  switch (value 0/1, on/off)
  5.001  scaling (value 0..100)
  9.001  temperature in °C

Examples:
  knxip write 1/2/3 --dpt 1.001 --value on
  knxip write 4/0/1 --dpt 9.001 --value 21.5
  knxip write 1/2/3 --raw 0c80 --bits 16`,

	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&writeDPT, "dpt", "1.001", "Datapoint type of the value")
	writeCmd.Flags().StringVar(&writeValue, "value", "", "Value to encode")
	writeCmd.Flags().StringVar(&writeRaw, "raw", "", "Raw payload as hex, bypassing datapoint encoding")
	writeCmd.Flags().UintVar(&writeBits, "bits", 0, "Payload width in bits for --raw")
}

func parseValue() (dpt.DatapointValue, error) {
	switch writeDPT {
	case "1.001", "1":
		switch writeValue {
		case "1", "on", "true":
			sw := dpt.Switch(true)
			return &sw, nil
		case "0", "off", "false":
			sw := dpt.Switch(false)
			return &sw, nil
		}
		return nil, fmt.Errorf("bad switch value %q", writeValue)

	case "5.001", "5":
		v, err := strconv.ParseFloat(writeValue, 32)
		if err != nil {
			return nil, fmt.Errorf("bad scaling value %q: %w", writeValue, err)
		}
		s := dpt.Scaling(v)
		return &s, nil

	case "9.001", "9":
		v, err := strconv.ParseFloat(writeValue, 32)
		if err != nil {
			return nil, fmt.Errorf("bad temperature value %q: %w", writeValue, err)
		}
		t := dpt.ValueTemp(v)
		return &t, nil
	}

	return nil, fmt.Errorf("unsupported datapoint type %q", writeDPT)
}

func runWrite(cmd *cobra.Command, args []string) error {
	client, err := knx.NewGroupTunnel(tunnelConfig())
	if err != nil {
		return err
	}
	defer client.Close()

	if writeRaw != "" {
		data, err := hex.DecodeString(writeRaw)
		if err != nil {
			return fmt.Errorf("bad raw payload: %w", err)
		}

		bits := writeBits
		if bits == 0 {
			bits = uint(len(data)) * 8
		}

		if err := client.WriteRaw(args[0], data, bits); err != nil {
			return err
		}

		fmt.Printf("%s <- raw % x (%d bits)\n", args[0], data, bits)
		return nil
	}

	value, err := parseValue()
	if err != nil {
		return err
	}

	if err := client.Write(args[0], value); err != nil {
		return err
	}

	fmt.Printf("%s <- %v\n", args[0], value)
	return nil
}
