package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yang-ling/i3pystatus/internal/db"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Query the device inventory database",
	Long: `Query the persistent device inventory.

The inventory is filled by 'status --record' and 'watch --record'. It keeps
every device that was ever displayed, keyed by filesystem UUID, and the
discovered, state_changed, reconnected and removed events between scans.`,
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List devices present in the latest recorded scan",
	RunE:  runInventoryList,
}

var inventoryEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent device events",
	RunE:  runInventoryEvents,
}

var inventoryScansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Show recently recorded scans",
	RunE:  runInventoryScans,
}

func init() {
	inventoryCmd.AddCommand(inventoryListCmd)
	inventoryCmd.AddCommand(inventoryEventsCmd)
	inventoryCmd.AddCommand(inventoryScansCmd)

	inventoryListCmd.Flags().Bool("json", false, "Output as JSON")
	inventoryListCmd.Flags().Bool("all", false, "Include devices that are no longer present")

	inventoryEventsCmd.Flags().Int("limit", 50, "Maximum number of events to show")
	inventoryScansCmd.Flags().Int("limit", 20, "Maximum number of scans to show")
}

func openDB() (*db.DB, error) {
	cfg, _, err := setup()
	if err != nil {
		return nil, err
	}
	return db.New(cfg.Database)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runInventoryList(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	all, _ := cmd.Flags().GetBool("all")

	database, err := openDB()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	var devices []*db.DeviceRecord
	if all {
		devices, err = database.GetAllDevices()
	} else {
		devices, err = database.GetPresentDevices()
	}
	if err != nil {
		return err
	}

	if jsonOut {
		if devices == nil {
			devices = []*db.DeviceRecord{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No devices in inventory. Run 'usbstatus status --record' to populate.")
		return nil
	}

	fmt.Printf("%-12s %-18s %-10s %-20s %-16s %-20s %s\n",
		"DEVICE", "STATE", "KIND", "LABEL", "MOUNT", "KEY", "LAST SEEN")
	fmt.Println(strings.Repeat("-", 110))

	for _, d := range devices {
		name := d.KernelName
		if d.ParentKernelName != "" {
			name = d.ParentKernelName + ":" + name
		}
		state := d.State
		if !d.Present {
			state += " (gone)"
		}

		fmt.Printf("%-12s %-18s %-10s %-20s %-16s %-20s %s\n",
			dash(name), state, d.Kind, dash(d.Label), dash(d.MountPoint), d.Key, humanize.Time(d.LastSeen))
	}

	fmt.Println(strings.Repeat("-", 110))
	fmt.Printf("Total: %d\n", len(devices))
	return nil
}

func runInventoryEvents(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	database, err := openDB()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	events, err := database.GetRecentEvents(limit)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		fmt.Println("No events recorded.")
		return nil
	}

	fmt.Printf("%-16s %-14s %-12s %-30s %s\n", "WHEN", "EVENT", "PATH", "CHANGE", "KEY")
	fmt.Println(strings.Repeat("-", 100))

	for _, e := range events {
		change := "-"
		if e.OldState != "" || e.NewState != "" {
			change = fmt.Sprintf("%s -> %s", dash(e.OldState), dash(e.NewState))
		}
		fmt.Printf("%-16s %-14s %-12s %-30s %s\n",
			humanize.Time(e.Timestamp), e.EventType, dash(e.Path), change, e.DeviceKey)
	}
	return nil
}

func runInventoryScans(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	database, err := openDB()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	scans, err := database.GetRecentScans(limit)
	if err != nil {
		return err
	}

	if len(scans) == 0 {
		fmt.Println("No scans recorded.")
		return nil
	}

	fmt.Printf("%-38s %-16s %s\n", "SCAN", "WHEN", "DEVICES")
	fmt.Println(strings.Repeat("-", 64))

	for _, s := range scans {
		fmt.Printf("%-38s %-16s %s\n", s.ID, humanize.Time(s.StartedAt), humanize.Comma(int64(s.DeviceCount)))
	}
	return nil
}
