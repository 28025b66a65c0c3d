package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/quietblocks/quietblocks-api/internal/config"
	"github.com/quietblocks/quietblocks-api/internal/domain/quietblock"
	"github.com/quietblocks/quietblocks-api/internal/domain/user"
	"github.com/quietblocks/quietblocks-api/internal/pkg/database"
	"github.com/quietblocks/quietblocks-api/internal/pkg/jwt"
)

// Mints an access token for a local profile and prints its quiet blocks.
// For development against a local database only.
func main() {
	userFlag := flag.String("user", "", "profile id to sign the token for")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		log.Fatal("dev-token refuses to run with ENV=production")
	}

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		log.Fatalf("Invalid -user %q: %v", *userFlag, err)
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.ClosePostgres(db)

	ctx := context.Background()

	profile, err := user.NewRepository(db).GetByID(ctx, userID)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		fmt.Println("WARNING: no profile row, reminders for this user will be skipped")
	case err != nil:
		log.Fatalf("Failed to load profile: %v", err)
	default:
		fmt.Printf("Profile: %s | %s | has email: %v\n", profile.ID, profile.Name(), profile.HasEmail())
	}

	token, err := jwt.NewService(cfg.JWTSecret, *ttl).GenerateAccessToken(userID)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	blocks, err := quietblock.NewRepository(db).ListByOwner(ctx, userID, true)
	if err != nil {
		log.Printf("Failed to list quiet blocks: %v", err)
	} else {
		loc := cfg.DisplayLocation()
		fmt.Println("--- Quiet blocks ---")
		for _, b := range blocks {
			fmt.Printf("%s | %q | %s - %s | active: %v | reminded: %v\n",
				b.ID, b.Title,
				b.Start.In(loc).Format(time.RFC3339), b.End.In(loc).Format(time.RFC3339),
				b.Active, b.ReminderSent)
		}
		fmt.Printf("Total: %d\n", len(blocks))
		fmt.Println("--------------------")
	}

	fmt.Println(token)
}
