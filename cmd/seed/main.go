// Command seed fills the database with demo content.
package main

import (
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numGroups := flag.Int("groups", 5, "Number of groups to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	numComments := flag.Int("comments", 200, "Number of comments to create")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible content (0 = random)")
	shouldClean := flag.Bool("clean", false, "Delete existing content before seeding")
	flag.Parse()

	log.Printf("Target: %d users, %d groups, %d posts, %d comments, clean=%v",
		*numUsers, *numGroups, *numPosts, *numComments, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	sum, err := seed.Run(db, seed.Options{
		Users:    *numUsers,
		Groups:   *numGroups,
		Posts:    *numPosts,
		Comments: *numComments,
		Seed:     *randSeed,
		Clean:    *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d groups, %d posts, %d comments, %d follows, %d likes",
		sum.Users, sum.Groups, sum.Posts, sum.Comments, sum.Follows, sum.Likes)
	log.Printf("All seeded users have the password: %s", seed.DemoPassword)
}
