package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmx-tools/dmxbench/pkg/gatewaysim"
	"github.com/dmx-tools/dmxbench/pkg/mbap"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a protocol smoke check against the gateway",
	}
	cmd.AddCommand(checkModbusCmd())
	return cmd
}

func checkModbusCmd() *cobra.Command {
	var (
		target  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "modbus",
		Short: "Exercise each Modbus operation once and verify the results",
		Long: `Run the eight-step Modbus smoke sequence: read the enable coil,
enable output, read channels, write two channels, read them back,
trigger a blackout, and confirm the channels went dark.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if target == "" {
				target = cfg.ModbusTarget
			}
			passed, total := runModbusCheck(target, timeout)
			fmt.Printf("\n=== Results: %d/%d checks passed ===\n", passed, total)
			if passed != total {
				return fmt.Errorf("%d checks failed", total-passed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Modbus host:port (default from dmxbench.json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Per-request timeout")
	return cmd
}

// runModbusCheck walks the smoke sequence and reports one line per step.
func runModbusCheck(target string, timeout time.Duration) (passed, total int) {
	total = 8

	client, err := mbap.Dial(target, timeout)
	if err != nil {
		fail("connect to %s: %v", target, err)
		return 0, total
	}
	defer client.Close()

	step := func(name string, fn func() error) {
		if err := fn(); err != nil {
			fail("%s: %v", name, err)
			return
		}
		success("%s", name)
		passed++
	}

	step("read enable coil", func() error {
		coils, err := client.ReadCoils(gatewaysim.CoilEnable, 1)
		if err != nil {
			return err
		}
		fmt.Printf("    enabled = %v\n", coils[0])
		return nil
	})
	step("enable output (coil 0 = ON)", func() error {
		return client.WriteSingleCoil(gatewaysim.CoilEnable, true)
	})
	step("read channels 1-4", func() error {
		values, err := client.ReadHoldingRegisters(0, 4)
		if err != nil {
			return err
		}
		fmt.Printf("    channels 1-4 = %v\n", values)
		return nil
	})
	step("write channel 1 = 128", func() error {
		return client.WriteSingleRegister(0, 128)
	})
	step("write channel 2 = 64", func() error {
		return client.WriteSingleRegister(1, 64)
	})
	step("read back channels 1-4", func() error {
		values, err := client.ReadHoldingRegisters(0, 4)
		if err != nil {
			return err
		}
		if values[0] != 128 || values[1] != 64 {
			return fmt.Errorf("expected [128 64 ...], got %v", values)
		}
		return nil
	})
	step("blackout (coil 1 = ON)", func() error {
		return client.WriteSingleCoil(gatewaysim.CoilBlackout, true)
	})
	step("read channels after blackout", func() error {
		values, err := client.ReadHoldingRegisters(0, 4)
		if err != nil {
			return err
		}
		for _, v := range values {
			if v != 0 {
				return fmt.Errorf("expected all zero, got %v", values)
			}
		}
		return nil
	})

	return passed, total
}
