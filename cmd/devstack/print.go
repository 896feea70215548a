package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/loykin/devstack"
)

func printReport(rep devstack.Report) {
	for _, r := range rep {
		switch {
		case r.Failed():
			fmt.Printf("  [FAIL] %-18s %v\n", r.Step, r.Err)
		case r.Skipped:
			fmt.Printf("  [SKIP] %-18s %s\n", r.Step, r.Info)
		case r.Info != "":
			fmt.Printf("  [ OK ] %-18s %s\n", r.Step, r.Info)
		default:
			fmt.Printf("  [ OK ] %s\n", r.Step)
		}
	}
}

func printStatusTable(statuses []devstack.Status) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Service", "State", "PID", "Log"})

	for _, st := range statuses {
		state := "stopped"
		pid := "-"
		if st.Running {
			state = "running"
			pid = strconv.Itoa(st.PID)
		}
		table.Append([]string{st.Name, state, pid, st.LogFile})
	}

	fmt.Println()
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.Render()
	fmt.Println()
}
