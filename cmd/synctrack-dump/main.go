// Command synctrack-dump loads a .ctf archive and prints its tracks and
// keyframes. With -interactive it opens a scrollable tview table instead of
// printing to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/s53zo/synctrack/ctf"
	"github.com/s53zo/synctrack/track"
)

func main() {
	interactive := flag.Bool("interactive", false, "open a scrollable table viewer instead of printing")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-interactive] <file.ctf>\n", os.Args[0])
		os.Exit(2)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("synctrack-dump: %v", err)
	}

	names, err := probeTrackNames(data)
	if err != nil {
		log.Fatalf("synctrack-dump: %v", err)
	}

	bindings := make([]track.Binding, len(names))
	for i, name := range names {
		bindings[i] = track.Binding{Name: name, Var: new(float32)}
	}
	reg := track.NewRegistry(bindings)
	if err := ctf.Decode(reg, data); err != nil {
		log.Fatalf("synctrack-dump: decode %s: %v", path, err)
	}

	fmt.Printf("%s: %s, %s tracks\n", path, humanize.Bytes(uint64(len(data))), humanize.Comma(int64(reg.Len())))

	if *interactive {
		runInteractive(reg)
		return
	}
	printTracks(reg)
}

func printTracks(reg *track.Registry) {
	reg.Each(func(_ int, t *track.Track) {
		fmt.Printf("\n%s (%s keys)\n", t.Name, humanize.Comma(int64(len(t.Keys))))
		for _, k := range t.Keys {
			fmt.Printf("  row %-8d value %-12g %s\n", k.Row, k.Value, interpName(k.Interp))
		}
	})
}

func interpName(i track.Interpolation) string {
	switch i {
	case track.Step:
		return "step"
	case track.Linear:
		return "linear"
	case track.Smoothstep:
		return "smoothstep"
	case track.Ramp:
		return "ramp"
	default:
		return "?"
	}
}

func runInteractive(reg *track.Registry) {
	app := tview.NewApplication()
	table := tview.NewTable().SetBorders(false).SetFixed(1, 0)
	table.SetCell(0, 0, tview.NewTableCell("Track").SetSelectable(false).SetTextColor(tcell.ColorYellow))
	table.SetCell(0, 1, tview.NewTableCell("Row").SetSelectable(false).SetTextColor(tcell.ColorYellow))
	table.SetCell(0, 2, tview.NewTableCell("Value").SetSelectable(false).SetTextColor(tcell.ColorYellow))
	table.SetCell(0, 3, tview.NewTableCell("Interp").SetSelectable(false).SetTextColor(tcell.ColorYellow))

	row := 1
	reg.Each(func(_ int, t *track.Track) {
		for _, k := range t.Keys {
			table.SetCell(row, 0, tview.NewTableCell(t.Name))
			table.SetCell(row, 1, tview.NewTableCell(humanize.Comma(int64(k.Row))))
			table.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%g", k.Value)))
			table.SetCell(row, 3, tview.NewTableCell(interpName(k.Interp)))
			row++
		}
	})
	table.SetSelectable(true, false)
	table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	if err := app.SetRoot(table, true).Run(); err != nil {
		log.Fatalf("synctrack-dump: %v", err)
	}
}

// probeTrackNames reads just the track names out of a CTF image, without
// knowing the host's registry ahead of time, so the dump tool can build a
// registry sized to whatever the file actually contains.
func probeTrackNames(data []byte) ([]string, error) {
	return ctf.TrackNames(data)
}
