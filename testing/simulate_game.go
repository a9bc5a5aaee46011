package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/tatianab/cyber-clicker/internal/config"
	"github.com/tatianab/cyber-clicker/internal/engine"
	"github.com/tatianab/cyber-clicker/internal/events"
	"github.com/tatianab/cyber-clicker/internal/game"
	"github.com/tatianab/cyber-clicker/internal/models"
	"github.com/tatianab/cyber-clicker/internal/persistence"
	"github.com/tatianab/cyber-clicker/internal/store"
	"github.com/tatianab/cyber-clicker/internal/tutor"
)

const (
	maxTurns       = 300
	clicksPerTurn  = 5
	reportInterval = 30
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cat, err := models.DefaultCatalog()
	if err != nil {
		log.Fatalf("Failed to load upgrade catalog: %v", err)
	}

	// The bot plays against an in-memory save so real saves stay untouched.
	gw := persistence.NewGateway(store.NewMemoryStore(), "simulation", logger)
	eng := engine.New(engine.DefaultRules(), cat)
	// Ticks are driven by the loop below, not by the session's own ticker.
	sess := game.NewSession(eng, gw, game.Options{
		SaveInterval: 0,
		TickInterval: time.Hour,
		EventBuffer:  256,
		Logger:       logger,
	})
	defer sess.Close(ctx)

	tu, closeTutor := tutor.New(ctx, cfg.GeminiAPIKey, logger)
	defer closeTutor()

	feed, cancel := sess.Subscribe()
	defer cancel()

	if err := sess.Load(ctx); err != nil {
		log.Fatalf("Failed to load game: %v", err)
	}

	fmt.Println("--- Simulating a greedy player ---")
	for turn := 1; turn <= maxTurns; turn++ {
		for i := 0; i < clicksPerTurn; i++ {
			if err := sess.ManualAction(ctx); err != nil {
				log.Fatalf("Click failed: %v", err)
			}
		}

		// Buy whatever is cheapest until nothing is affordable.
		for {
			st, _ := sess.State()
			id, cost := cheapest(eng, st)
			if id == "" || st.Currency < cost {
				break
			}
			if err := sess.Purchase(ctx, id); err != nil {
				log.Fatalf("Purchase of %s failed: %v", id, err)
			}
		}

		// One simulated second of passive income.
		if err := sess.OnTick(ctx, time.Second); err != nil {
			log.Fatalf("Tick failed: %v", err)
		}

		report(ctx, turn, feed, tu)
		if turn%reportInterval == 0 {
			st, _ := sess.State()
			fmt.Printf("[t=%3ds] packets=%.0f click=%g auto=%g/s level=%d\n",
				turn, math.Floor(st.Currency), st.ClickPower, st.AutoRate, st.Level)
		}
	}

	st, _ := sess.State()
	fmt.Println("--- Final state ---")
	fmt.Printf("Level %d with %.0f packets, %g per click and %g per second\n",
		st.Level, math.Floor(st.Currency), st.ClickPower, st.AutoRate)
	for _, u := range cat.List() {
		fmt.Printf("  %-26s x%d\n", u.Name, st.Owned(u.ID))
	}
	as, _ := sess.Achievements()
	fmt.Printf("Achievements: %d/%d\n", len(as), len(engine.Achievements()))
}

func cheapest(eng *engine.Engine, st models.GameState) (string, float64) {
	id, best := "", math.Inf(1)
	for _, u := range eng.Catalog().List() {
		if c := engine.UpgradeCost(u, st.Owned(u.ID)); c < best {
			id, best = u.ID, c
		}
	}
	return id, best
}

// report drains the events emitted during a turn.
func report(ctx context.Context, turn int, feed <-chan events.Event, tu tutor.Tutor) {
	for {
		select {
		case ev := <-feed:
			switch data := ev.Data.(type) {
			case events.LevelUpData:
				fmt.Printf("[t=%3ds] LEVEL UP -> %d\n", turn, data.NewLevel)
				if lesson, err := tu.Lesson(ctx, tutor.Request{Level: data.NewLevel}); err == nil {
					fmt.Printf("          Lesson: %s\n", lesson)
				}
			case events.AchievementUnlockedData:
				fmt.Printf("[t=%3ds] ACHIEVEMENT %s\n", turn, data.Name)
			case events.PurchaseSucceededData:
				if data.OwnedCount == 1 {
					fmt.Printf("[t=%3ds] first %s for %.0f\n", turn, data.UpgradeID, data.Cost)
				}
			}
		default:
			return
		}
	}
}
