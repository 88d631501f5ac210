package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/rewired-gh/seatscout/internal/cycle"
	"github.com/rewired-gh/seatscout/internal/excitement"
	"github.com/rewired-gh/seatscout/internal/logger"
	"github.com/rewired-gh/seatscout/internal/models"
)

var (
	previewVariant string
	previewBody    bool
)

// previewCmd prints a digest without sending it
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the next digest to the terminal without sending it",
	Args:  cobra.NoArgs,
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewVariant, "variant", cycle.VariantSeats, "digest variant (seats, matchups)")
	previewCmd.Flags().BoolVar(&previewBody, "text", false, "print the plaintext email body instead of a table")
}

func runPreview(cmd *cobra.Command, args []string) error {
	if err := checkVariant(previewVariant); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := exitOnSignal()
	defer cancel()

	res, err := a.runner.Prepare(ctx, previewVariant)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if previewBody {
		fmt.Fprintf(out, "Subject: %s\n\n%s", res.Message.Subject, res.Message.Text)
		return nil
	}
	fmt.Fprintln(out, res.Message.Subject)
	if res.Variant == cycle.VariantMatchups {
		renderMatchupsTable(out, res.Matchups)
	} else {
		renderSeatsTable(out, res.Seats)
	}
	return nil
}

func renderSeatsTable(out io.Writer, recs []models.EventRecommendation) {
	if len(recs) == 0 {
		fmt.Fprintln(out, "No recommendations this cycle.")
		return
	}

	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Game", "Date", "Section", "Tier", "Row", "Seats", "Per Seat", "Total", "Score"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, WidthMax: 28},
		{Number: 2, AutoMerge: true},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	t.Style().Options.SeparateRows = true

	for _, er := range recs {
		var items []table.Row
		for _, r := range er.Recommendations {
			row := strconv.Itoa(r.Row)
			if r.Aisle {
				row += " (aisle)"
			}
			items = append(items, table.Row{
				er.Event.Title,
				er.Event.Date.Format("Mon Jan 2 15:04"),
				r.Section,
				r.Tier,
				row,
				seatList(r.Seats),
				"$" + r.PricePerSeat.StringFixed(2),
				"$" + r.Total.StringFixed(2),
				strconv.FormatFloat(r.Score, 'f', 1, 64),
			})
		}
		t.AppendRows(items, rowConfigAutoMerge)
		t.AppendSeparator()
	}
	t.Render()
}

func renderMatchupsTable(out io.Writer, matchups []models.MatchupRecommendation) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"#", "Game", "Date", "Excitement", "Band", "Stars"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, WidthMax: 40},
	})

	for i, m := range matchups {
		excite := fmt.Sprintf("%d/10", m.Rating.Excitement)
		if m.Rating.Preferred {
			excite += " *"
		}
		names := make([]string, 0, len(m.Rating.StarPlayers))
		for _, p := range m.Rating.StarPlayers {
			names = append(names, p.Name)
		}
		t.AppendRow(table.Row{
			i + 1,
			m.Event.Title,
			m.Event.Date.Format("Mon Jan 2"),
			excite,
			excitement.BandFor(m.Rating.Excitement).Label(),
			strings.Join(names, ", "),
		})
	}
	t.Render()
}

func seatList(seats []int) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}
