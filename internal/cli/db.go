package cli

import (
	"database/sql"
	"fmt"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"time"
)

func connectDB(dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info().Msg("Connected to DB")
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Msgf("Retry %d: failed to connect to DB", i+1)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB after retries: %w", err)
}

func connectShards(dsns []string) ([]*sql.DB, error) {
	shards := make([]*sql.DB, 0, len(dsns))
	for i, dsn := range dsns {
		db, err := connectDB(dsn)
		if err != nil {
			for _, s := range shards {
				s.Close()
			}
			return nil, fmt.Errorf("order shard %d: %w", i, err)
		}
		shards = append(shards, db)
	}
	return shards, nil
}
