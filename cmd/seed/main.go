// Command main runs the database seeder for Instaclone.
package main

import (
	"context"
	"flag"
	"log"

	"instaclone/internal/bootstrap"
	"instaclone/internal/config"
	"instaclone/internal/database"
	"instaclone/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPublications := flag.Int("publications", defaults.NumPublications, "Number of publications to create")
	followsPerUser := flag.Int("follows", defaults.FollowsPerUser, "Maximum accounts each user follows")
	fixturePath := flag.String("fixture", "", "Load a YAML fixture instead of generating data")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer func() { _ = database.Close() }()

	opts := defaults
	opts.NumUsers = *numUsers
	opts.NumPublications = *numPublications
	opts.FollowsPerUser = *followsPerUser
	opts.ShouldClean = *shouldClean
	opts.DryRun = *dryRun
	opts.RandomSeed = *randomSeed

	if *fixturePath != "" {
		if opts.DryRun {
			log.Fatal("-dry-run cannot be combined with -fixture")
		}
		fx, err := seed.LoadFixture(*fixturePath)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
		if opts.ShouldClean {
			if err := seed.Clean(ctx, db); err != nil {
				log.Fatalf("Cleanup failed: %v", err)
			}
		}
		res, err := seed.ApplyFixture(ctx, db, fx, opts)
		if err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
		log.Printf("fixture applied: users=%d follows=%d publications=%d likes=%d comments=%d",
			res.Users, res.Follows, res.Publications, res.Likes, res.Comments)
		return
	}

	res, err := seed.Seed(ctx, db, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("seeded: users=%d follows=%d publications=%d likes=%d comments=%d",
		res.Users, res.Follows, res.Publications, res.Likes, res.Comments)
	log.Printf("all generated users have the password: %s", seed.DefaultPassword)
}
