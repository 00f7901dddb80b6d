// Package main runs the interactive FieldPulse client: a JSON-file-backed
// local store with background synchronization against the sync server.
package main

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"fieldpulse/internal/client/store"
	syncengine "fieldpulse/internal/client/sync"
	"fieldpulse/internal/logger"
	"fieldpulse/internal/models"
)

var (
	version   string
	buildDate string
)

// repl runs the interactive shell loop for logging time, mileage, fuel and
// notes. Every mutation is persisted and eventually pushed by the engine.
func repl(st *store.Store, engine *syncengine.Engine) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("fieldpulse> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Commands: help, start, stop [breakMinutes], trip start <odometer>,")
			fmt.Println("  trip end <odometer>, fuel <gallons> <price> <odometer> [station],")
			fmt.Println("  note <text...>, pin <noteId>, tag <name>, list, delete <time|mileage|fuel|note> <id>,")
			fmt.Println("  sync, status, exit")
		case "start":
			st.StartTimer()
			_ = st.Save()
			fmt.Println("Timer started")
		case "stop":
			breakMin := 0
			if len(args) > 1 {
				breakMin, _ = strconv.Atoi(args[1])
			}
			id := st.StopTimer(breakMin)
			if id == "" {
				fmt.Println("No timer running")
				continue
			}
			_ = st.Save()
			fmt.Println("Logged time entry", id)
		case "trip":
			if len(args) < 3 {
				fmt.Println("Usage: trip start|end <odometer>")
				continue
			}
			odo, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				fmt.Println("Invalid odometer reading")
				continue
			}
			switch args[1] {
			case "start":
				st.StartTrip(odo)
				_ = st.Save()
				fmt.Println("Trip started at", odo)
			case "end":
				id := st.EndTrip(odo)
				if id == "" {
					fmt.Println("No trip running")
					continue
				}
				_ = st.Save()
				fmt.Println("Logged mileage entry", id)
			default:
				fmt.Println("Usage: trip start|end <odometer>")
			}
		case "fuel":
			if len(args) < 4 {
				fmt.Println("Usage: fuel <gallons> <price> <odometer> [station]")
				continue
			}
			gallons, err1 := strconv.ParseFloat(args[1], 64)
			price, err2 := strconv.ParseFloat(args[2], 64)
			odo, err3 := strconv.ParseFloat(args[3], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				fmt.Println("Invalid number")
				continue
			}
			station := ""
			if len(args) > 4 {
				station = strings.Join(args[4:], " ")
			}
			id := st.AddFuelLog(models.FuelLog{
				Date:          time.Now().Format("2006-01-02"),
				Time:          time.Now().Format("15:04"),
				Mileage:       odo,
				Gallons:       gallons,
				CostPerGallon: price,
				Station:       station,
				FuelType:      "regular",
			})
			_ = st.Save()
			fmt.Println("Logged fuel", id)
		case "note":
			if len(args) < 2 {
				fmt.Println("Usage: note <text...>")
				continue
			}
			id := st.AddDailyNote(models.DailyNote{
				Content: strings.Join(args[1:], " "),
				Tags:    []string{},
			})
			_ = st.Save()
			fmt.Println("Logged note", id)
		case "pin":
			if len(args) < 2 {
				fmt.Println("Usage: pin <noteId>")
				continue
			}
			st.TogglePinNote(args[1])
			_ = st.Save()
		case "tag":
			if len(args) < 2 {
				fmt.Println("Usage: tag <name>")
				continue
			}
			st.AddTag(strings.Join(args[1:], " "))
			_ = st.Save()
		case "list":
			printSummary(st)
		case "delete":
			if len(args) < 3 {
				fmt.Println("Usage: delete <time|mileage|fuel|note> <id>")
				continue
			}
			switch args[1] {
			case "time":
				st.DeleteTimeEntry(args[2])
			case "mileage":
				st.DeleteMileageEntry(args[2])
			case "fuel":
				st.DeleteFuelLog(args[2])
			case "note":
				st.DeleteDailyNote(args[2])
			default:
				fmt.Println("Usage: delete <time|mileage|fuel|note> <id>")
				continue
			}
			_ = st.Save()
			fmt.Println("Deleted")
		case "sync":
			if err := engine.SyncNow(context.Background()); err != nil {
				fmt.Println("Sync failed — will retry:", err)
			} else {
				fmt.Println("Synced to server!")
			}
		case "status":
			s := engine.State()
			fmt.Printf("Sync status: %s", s.Status)
			if !s.LastSyncedAt.IsZero() {
				fmt.Printf(", last synced %s", s.LastSyncedAt.Format(time.RFC3339))
			}
			if s.Err != "" {
				fmt.Printf(", error: %s", s.Err)
			}
			fmt.Println()
			fmt.Printf("Streak: %d day(s)\n", st.Streak())
		case "exit", "quit":
			return
		default:
			fmt.Println("Unknown command; type help")
		}
	}
}

func printSummary(st *store.Store) {
	fmt.Println("Time entries:")
	for _, e := range st.TimeEntries() {
		end := "(running)"
		if e.EndTime != nil {
			end = *e.EndTime
		}
		fmt.Printf("  %s  %s  %s → %s  break=%dm overtime=%v\n",
			e.ID, e.Date, e.StartTime, end, e.BreakMinutes, e.IsOvertime)
	}
	fmt.Println("Mileage entries:")
	for _, e := range st.MileageEntries() {
		fmt.Printf("  %s  %s  %.1f mi (%s)\n", e.ID, e.Date, e.TripMiles, e.Purpose)
	}
	fmt.Println("Fuel logs:")
	for _, l := range st.FuelLogs() {
		fmt.Printf("  %s  %s  %.3f gal @ %.3f = %.2f  %s\n",
			l.ID, l.Date, l.Gallons, l.CostPerGallon, l.TotalCost, l.Station)
	}
	fmt.Println("Notes:")
	pinned := map[string]bool{}
	for _, id := range st.PinnedNoteIDs() {
		pinned[id] = true
	}
	for _, n := range st.DailyNotes() {
		marker := " "
		if pinned[n.ID] {
			marker = "*"
		}
		fmt.Printf(" %s %s  %s  %s\n", marker, n.ID, n.Date, n.Content)
	}
}

func main() {
	serverURL := flag.String("s", "http://localhost:8080", "sync server base URL")
	storageFile := flag.String("f", "fieldpulse.json", "local storage file")
	logLevel := flag.String("l", "warn", "log level")
	flag.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	if err := log.Init(*logLevel); err != nil {
		fmt.Println("failed to init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	st := store.New(*storageFile)
	if err := st.Load(); err != nil {
		fmt.Println("failed to load local storage:", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	engine := syncengine.New(st, client, strings.TrimRight(*serverURL, "/"), 0, log.Log)
	engine.Start(context.Background())
	defer engine.Stop()

	if s := engine.State(); s.Status == syncengine.StatusError {
		fmt.Println("Working offline:", s.Err)
	}

	repl(st, engine)

	if err := st.Save(); err != nil {
		b, _ := json.Marshal(st.Snapshot())
		fmt.Printf("failed to save storage, dumping snapshot:\n%s\n", b)
	}
}
