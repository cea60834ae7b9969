package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/pgtools/replctl/internal/config"
	"github.com/pgtools/replctl/internal/postgres"
	"github.com/pgtools/replctl/internal/repl"
)

var (
	title  = color.New(color.FgGreen)
	danger = color.New(color.FgRed)
)

// Dangerf prints a red warning, used for irreversible-operation prompts.
func Dangerf(w io.Writer, format string, args ...any) {
	_, _ = danger.Fprintf(w, format, args...)
}

func renderTable(w io.Writer, name, empty string, header []string, rows [][]string) {
	_, _ = title.Fprintf(w, "\n%s\n\n", name)
	if len(rows) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.AppendBulk(rows)
	t.Render()
}

// Topology prints the configured pair.
func Topology(w io.Writer, t config.Topology) {
	renderTable(w, "Topology", "Not configured.", []string{"Role", "DSN"}, [][]string{
		{string(t.Source.Role), t.Source.DSN},
		{string(t.Destination.Role), t.Destination.DSN},
	})
}

// Subscriptions prints each subscription together with its slot's lag and
// flush position, the numbers an operator looks at before reversing.
func Subscriptions(w io.Writer, subs []repl.SubscriptionStatus) {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			s.Name, strconv.FormatBool(s.Enabled), s.ConnInfo, s.SlotName,
			strings.Join(s.Publications, ","), s.Lag, s.FlushedLSN,
		})
	}
	renderTable(w, "Subscriptions", "No subscriptions found.",
		[]string{"Name", "Enabled", "DSN", "Slot", "Publications", "Replication Lag", "Flushed LSN"}, rows)
}

// Publications prints pg_publication rows.
func Publications(w io.Writer, pubs []postgres.Publication) {
	rows := make([][]string, 0, len(pubs))
	for _, p := range pubs {
		rows = append(rows, []string{p.Name, strconv.FormatBool(p.AllTables)})
	}
	renderTable(w, "Publications", "No publications found.", []string{"Name", "All Tables"}, rows)
}

// ReplicationSlots prints pg_replication_slots rows.
func ReplicationSlots(w io.Writer, slots []postgres.ReplicationSlot) {
	rows := make([][]string, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, []string{s.Name, s.Plugin, s.SlotType, s.ConfirmedFlushLSN})
	}
	renderTable(w, "Replication Slots", "No replication slots found.", []string{"Name", "Plugin", "Type", "Flushed LSN"}, rows)
}

// ReplicationOrigins prints pg_replication_origin rows.
func ReplicationOrigins(w io.Writer, origins []postgres.ReplicationOrigin) {
	rows := make([][]string, 0, len(origins))
	for _, o := range origins {
		rows = append(rows, []string{o.Name})
	}
	renderTable(w, "Replication Origins", "No replication origins found.", []string{"Name"}, rows)
}

// Tables prints public-schema tables.
func Tables(w io.Writer, tables []postgres.Table) {
	rows := make([][]string, 0, len(tables))
	for _, t := range tables {
		rows = append(rows, []string{t.Name, t.Owner})
	}
	renderTable(w, "Tables", "No tables found.", []string{"Name", "Owner"}, rows)
}

// Columns prints the columns of one table.
func Columns(w io.Writer, table string, cols []postgres.Column) {
	rows := make([][]string, 0, len(cols))
	for _, c := range cols {
		rows = append(rows, []string{c.Name, c.Type})
	}
	renderTable(w, fmt.Sprintf("Columns in %q", table), "No columns found.", []string{"Name", "Data Type"}, rows)
}
