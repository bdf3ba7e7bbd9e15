package console

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"eventease/internal/model"
)

func (c *Console) renderEvents(events []model.Event, withDescription bool) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if withDescription {
		fmt.Fprintf(tw, "ID\tTitle\tDate\tTime\tLocation\tDescription\n")
	} else {
		fmt.Fprintf(tw, "ID\tTitle\tDate\tTime\tLocation\n")
	}
	for _, ev := range events {
		if withDescription {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", ev.ID, ev.Title, ev.Date, ev.Time, ev.Location, ev.Description)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", ev.ID, ev.Title, ev.Date, ev.Time, ev.Location)
		}
	}
}

func (c *Console) renderSummary(sum model.Summary) {
	c.printf("\nEvents by year:\n")
	for _, y := range slices.Sorted(maps.Keys(sum.ByYear)) {
		c.printf("  %d: %d\n", y, sum.ByYear[y])
	}
	c.printf("\nEvents by month:\n")
	for _, m := range slices.Sorted(maps.Keys(sum.ByMonth)) {
		c.printf("  %s: %d\n", m, sum.ByMonth[m])
	}
	c.printf("\nEvents by day of month:\n")
	for _, d := range slices.Sorted(maps.Keys(sum.ByDay)) {
		c.printf("  %02d: %d\n", d, sum.ByDay[d])
	}
	c.printf("\nEvents by date:\n")
	for _, d := range slices.Sorted(maps.Keys(sum.ByDate)) {
		c.printf("  %s: %d\n", d, sum.ByDate[d])
	}
}
