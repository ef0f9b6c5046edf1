package storage

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/privacy-dispatch/internal/models"
)

type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresArchive{db: db}, nil
}

func (p *PostgresArchive) SaveOrder(o *models.Order) error {
	_, err := p.db.Exec(`INSERT INTO orders(id, rider_id, origin_lat, origin_lon, dest_lat, dest_lon, resolution, cell_id, bucket_tokens, status, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		o.OrderID, o.RiderID, o.Origin.Lat, o.Origin.Lon, o.Destination.Lat, o.Destination.Lon, o.Resolution, o.CellID, joinTokens(o.BucketTokens), string(o.Status), o.CreatedAt, o.UpdatedAt)
	return err
}

func (p *PostgresArchive) UpdateOrder(o *models.Order) error {
	_, err := p.db.Exec(`UPDATE orders SET driver_id=$1, status=$2, updated_at=$3 WHERE id=$4`,
		o.AssignedDriverID, string(o.Status), time.Now(), o.OrderID)
	return err
}
