// Package main provides account management utilities for Instaclone.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"instaclone/internal/cache"
	"instaclone/internal/config"
	"instaclone/internal/database"
	"instaclone/internal/models"
	"instaclone/internal/notifications"
	"instaclone/internal/repository"
	"instaclone/internal/service"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin/main.go promote <username>      - Grant superuser status")
	fmt.Println("  go run ./cmd/admin/main.go demote <username>       - Revoke superuser status")
	fmt.Println("  go run ./cmd/admin/main.go activate <username>     - Re-enable an account")
	fmt.Println("  go run ./cmd/admin/main.go deactivate <username>   - Disable an account")
	fmt.Println("  go run ./cmd/admin/main.go list-superusers         - List all superusers")
	fmt.Println("  go run ./cmd/admin/main.go announce <message>      - Send a message to every connected user")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Args[1] == "announce" {
		announce(cfg, os.Args[2:])
		return
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	svc := service.NewUserService(users, repository.NewTransactor(db), nil)

	command := os.Args[1]
	if command == "list-superusers" {
		listSuperusers(ctx, svc)
		return
	}

	if len(os.Args) < 3 {
		fmt.Printf("Usage: go run ./cmd/admin/main.go %s <username>\n", command)
		os.Exit(1)
	}
	username := os.Args[2]

	var user *models.User
	switch command {
	case "promote":
		user, err = svc.SetSuperuser(ctx, username, true)
	case "demote":
		user, err = svc.SetSuperuser(ctx, username, false)
	case "activate":
		user, err = svc.SetActive(ctx, username, true)
	case "deactivate":
		user, err = svc.SetActive(ctx, username, false)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			fmt.Printf("User %q not found\n", username)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	fmt.Printf("User %s (ID: %d) superuser=%t active=%t\n", user.Username, user.ID, user.IsSuperuser, user.IsActive)
}

func listSuperusers(ctx context.Context, svc *service.UserService) {
	admins, err := svc.ListSuperusers(ctx)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No superusers found")
		return
	}

	fmt.Printf("Found %d superuser(s):\n", len(admins))
	fmt.Println("ID\tUsername\tEmail\tActive")
	fmt.Println("--\t--------\t-----\t------")
	for _, admin := range admins {
		fmt.Printf("%d\t%s\t%s\t%t\n", admin.ID, admin.Username, admin.Email, admin.IsActive)
	}
}

func announce(cfg *config.Config, args []string) {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		fmt.Println("Usage: go run ./cmd/admin/main.go announce <message>")
		os.Exit(1)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()
	if rdb == nil {
		log.Fatal("Redis is required to reach connected users")
	}
	defer func() { _ = rdb.Close() }()

	d := notifications.NewDispatcher(nil, notifications.NewNotifier(rdb))
	if err := d.Announce(context.Background(), message); err != nil {
		log.Fatalf("Failed to publish announcement: %v", err)
	}
	fmt.Println("Announcement published")
}
