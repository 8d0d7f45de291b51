package main

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// stats prints application counts per review status.
func (cli *commandLine) stats(w io.Writer) error {
	byStatus, err := cli.appRepo.CountApplicationsByStatus(context.Background())
	if err != nil {
		return err
	}

	statuses := make([]string, 0, len(byStatus))
	var total int
	for status, n := range byStatus {
		statuses = append(statuses, status)
		total += n
	}
	sort.Strings(statuses)

	for _, status := range statuses {
		fmt.Fprintf(w, "%-15s %d\n", status, byStatus[status])
	}
	fmt.Fprintf(w, "%-15s %d\n", "total", total)
	return nil
}
