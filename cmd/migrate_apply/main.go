package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"olo_mining/internal/db"
	"olo_mining/internal/logger"
	"olo_mining/internal/migrations"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations")
	flag.Parse()

	names, err := migrations.Names()
	if err != nil {
		logger.Fatal("list migrations", "error", err)
	}
	if !*apply {
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	pool := db.Connect(dsn)
	defer pool.Close()

	if err := migrations.Apply(context.Background(), pool); err != nil {
		logger.Fatal("apply migrations", "error", err)
	}
	for _, name := range names {
		fmt.Printf("applied %s\n", name)
	}
}
