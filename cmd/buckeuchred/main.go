package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/vctt94/bisonbotkit/logging"

	"buckeuchre/pkg/bot"
	"buckeuchre/pkg/game"
	"buckeuchre/pkg/server"
)

func main() {
	var (
		dbPath         string
		seed           int64
		displayDelayMs int
		debugLevel     string
		demo           bool
	)
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database file (created if missing)")
	flag.Int64Var(&seed, "seed", 0, "Deterministic RNG seed for decks (0 = random)")
	flag.IntVar(&displayDelayMs, "displayms", 2000, "Completed trick display time in milliseconds")
	flag.StringVar(&debugLevel, "debuglevel", "info", "Logging level: trace, debug, info, warn, error")
	flag.BoolVar(&demo, "demo", false, "Create a game and play it to completion with bot players")
	flag.Parse()

	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "buckeuchre.sqlite")
	}

	if seed == 0 {
		if env := os.Getenv("BUCKEUCHRE_SEED"); env != "" {
			if v, err := strconv.ParseInt(env, 10, 64); err == nil {
				seed = v
			}
		}
	}

	db, err := server.NewDatabase(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	logBackend, _ := logging.NewLogBackend(logging.LogConfig{DebugLevel: debugLevel})

	srv, err := server.NewServer(db, logBackend, server.Config{
		Seed:         seed,
		DisplayDelay: time.Duration(displayDelayMs) * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		os.Exit(1)
	}
	defer srv.Stop()

	if demo {
		if err := runDemo(srv); err != nil {
			fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// runDemo creates a four-bot game and plays it to completion, printing each
// round's scores.
func runDemo(srv *server.Server) error {
	var seats [game.NumSeats]game.Seat
	for i := range seats {
		seats[i] = game.Seat{
			PlayerID: fmt.Sprintf("bot-%d", i),
			Name:     fmt.Sprintf("Bot %d", i),
		}
	}

	st, err := srv.CreateGame(seats)
	if err != nil {
		return err
	}
	fmt.Printf("game %s: round %d, dealer seat %d\n", st.ID, st.Round, st.DealerPosition)

	for !st.GameOver {
		switch {
		case st.Phase.ActionRequired():
			action, ok := bot.Suggest(st)
			if !ok {
				return fmt.Errorf("no action available in phase %s", st.Phase)
			}
			switch action.Kind {
			case bot.ActionBid:
				st, err = srv.PlaceBid(st.ID, action.Seat, action.Amount)
			case bot.ActionDeclareTrump:
				st, err = srv.DeclareTrump(st.ID, action.Seat, action.Trump)
			case bot.ActionFold:
				st, err = srv.DecideFold(st.ID, action.Seat, action.Fold)
			case bot.ActionPlayCard:
				st, err = srv.PlayCard(st.ID, action.Seat, action.CardID)
			}
			if err != nil {
				return err
			}
		case st.Phase == game.PhaseRoundOver:
			// Round scoring runs on the display timer after the last trick;
			// wait for it to land before dealing the next round.
			for st.Phase == game.PhaseRoundOver && !st.RoundScored {
				time.Sleep(50 * time.Millisecond)
				if st, err = srv.Game(st.ID); err != nil {
					return err
				}
			}
			if st.GameOver {
				break
			}
			printScores(st)
			if st, err = srv.StartNextRound(st.ID); err != nil {
				return err
			}
			fmt.Printf("round %d, dealer seat %d\n", st.Round, st.DealerPosition)
		default:
			time.Sleep(50 * time.Millisecond)
			if st, err = srv.Game(st.ID); err != nil {
				return err
			}
		}
	}

	printScores(st)
	fmt.Printf("seat %d wins\n", st.Winner)
	return nil
}

func printScores(st *game.GameState) {
	for seat := 0; seat < game.NumSeats; seat++ {
		if p, err := st.PlayerAt(seat); err == nil {
			fmt.Printf("  seat %d (%s): %d\n", seat, p.Name, p.Score)
		}
	}
}
