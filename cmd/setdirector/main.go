// Command setdirector grants or revokes the director role for a user.
// Director users decide approvals; there is no API to self-promote, so role
// changes go through this tool against the database directly.
//
//	setdirector --email owner@example.com
//	setdirector --uid 4f6a... --value=false
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/config"
	db "github.com/chitragupta-ai/chitragupta-server/internal/core/database"
)

func main() {
	email := flag.String("email", "", "email of the user to update")
	uid := flag.String("uid", "", "user id to update (alternative to --email)")
	value := flag.Bool("value", true, "director flag value to set")
	flag.Parse()

	if *email == "" && *uid == "" {
		log.Fatal("either --email or --uid is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.LoadConfig()
	store, err := db.NewDatabaseClient(ctx, cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	id := *uid
	if id == "" {
		user, err := store.GetUserByEmail(ctx, *email)
		if err != nil {
			log.Fatalf("lookup failed: %v", err)
		}
		if user == nil {
			log.Fatalf("no user with email %s", *email)
		}
		id = user.ID
	}

	if err := store.SetUserDirector(ctx, id, *value); err != nil {
		log.Fatalf("update failed: %v", err)
	}

	log.Printf("director=%v set for user %s", *value, id)
}
