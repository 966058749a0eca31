package main

import (
	"log"

	"nexus-chat-be/internal/config"
	"nexus-chat-be/internal/model"
	"nexus-chat-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	if cfg.Database.Driver == "sqlite" {
		log.Println("Running AutoMigrate (sqlite, no vector table)...")
		if err := db.AutoMigrate(model.PortableModels()...); err != nil {
			log.Fatalf("Error: AutoMigrate failed: %v", err)
		}
		log.Println("Success: sqlite schema is up to date.")
		return
	}

	// Step 1: extensions GORM cannot create
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		log.Fatalf("Error: pgvector extension unavailable: %v", err)
	}

	// Step 2: tables
	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(model.PostgresModels()...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// Step 3: the ANN index AutoMigrate does not express
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_vector_records_embedding
		 ON vector_records USING hnsw (embedding_value vector_cosine_ops);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: post-migration SQL failed: %v", err)
		}
	}

	log.Println("Success: database migration completed.")
}
