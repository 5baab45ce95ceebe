package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'time_card_status') THEN
			CREATE TYPE time_card_status AS ENUM ('OPEN', 'CLOSED', 'SUPERSEDED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'hos_violation_severity') THEN
			CREATE TYPE hos_violation_severity AS ENUM ('WARNING', 'CRITICAL');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id UUID PRIMARY KEY,
		full_name VARCHAR(255),
		phone VARCHAR(32),
		license_number VARCHAR(64),
		active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY,
		plate_number VARCHAR(32),
		make VARCHAR(64),
		model VARCHAR(64),
		capacity INT NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS time_cards (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL REFERENCES drivers(id),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id),
		card_date DATE NOT NULL,
		clock_in_at TIMESTAMPTZ NOT NULL,
		clock_in_lat DOUBLE PRECISION NOT NULL,
		clock_in_lng DOUBLE PRECISION NOT NULL,
		clock_out_at TIMESTAMPTZ,
		clock_out_lat DOUBLE PRECISION,
		clock_out_lng DOUBLE PRECISION,
		signature_ref TEXT,
		on_duty_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		driving_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		notes TEXT,
		status time_card_status NOT NULL DEFAULT 'OPEN',
		superseded_by UUID REFERENCES time_cards(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	// The one-open-card invariants live here, not in application code:
	// concurrent clock-ins race on these indexes and exactly one wins.
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_time_card_per_driver
		ON time_cards (driver_id)
		WHERE status = 'OPEN';`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_time_card_per_vehicle
		ON time_cards (vehicle_id)
		WHERE status = 'OPEN';`,
	`CREATE INDEX IF NOT EXISTS idx_time_cards_driver_date ON time_cards (driver_id, card_date);`,
	`CREATE INDEX IF NOT EXISTS idx_time_cards_status ON time_cards (status);`,
	`CREATE TABLE IF NOT EXISTS trip_waypoints (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL REFERENCES drivers(id),
		trip_date DATE NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_trip_waypoints_driver_date ON trip_waypoints (driver_id, trip_date);`,
	`CREATE TABLE IF NOT EXISTS daily_trips (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL REFERENCES drivers(id),
		trip_date DATE NOT NULL,
		base_lat DOUBLE PRECISION NOT NULL,
		base_lng DOUBLE PRECISION NOT NULL,
		max_distance_nm DOUBLE PRECISION NOT NULL DEFAULT 0,
		furthest_lat DOUBLE PRECISION,
		furthest_lng DOUBLE PRECISION,
		exceeded BOOLEAN NOT NULL DEFAULT FALSE,
		missing_location_data BOOLEAN NOT NULL DEFAULT FALSE,
		waypoint_count INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uniq_daily_trip_driver_date UNIQUE (driver_id, trip_date)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_daily_trips_exceeded ON daily_trips (driver_id, exceeded, trip_date);`,
	`CREATE TABLE IF NOT EXISTS exemption_statuses (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL REFERENCES drivers(id),
		window_start DATE NOT NULL,
		window_end DATE NOT NULL,
		exceedance_days INT NOT NULL DEFAULT 0,
		requires_detailed_logs BOOLEAN NOT NULL DEFAULT FALSE,
		computed_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT uniq_exemption_driver_window UNIQUE (driver_id, window_start)
	);`,
	`CREATE TABLE IF NOT EXISTS weekly_hos (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL REFERENCES drivers(id),
		window_start DATE NOT NULL,
		window_end DATE NOT NULL,
		window_days INT NOT NULL,
		on_duty_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		limit_hours DOUBLE PRECISION NOT NULL,
		exceeded BOOLEAN NOT NULL DEFAULT FALSE,
		computed_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT uniq_weekly_driver_window UNIQUE (driver_id, window_start)
	);`,
	`CREATE TABLE IF NOT EXISTS hos_violations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL REFERENCES drivers(id),
		time_card_id UUID REFERENCES time_cards(id) ON DELETE SET NULL,
		violation_date DATE NOT NULL,
		type VARCHAR(64) NOT NULL,
		severity hos_violation_severity NOT NULL,
		measured DOUBLE PRECISION NOT NULL DEFAULT 0,
		limit_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_hos_violations_driver_date ON hos_violations (driver_id, violation_date);`,
	`CREATE INDEX IF NOT EXISTS idx_hos_violations_type ON hos_violations (type);`,
	`CREATE TABLE IF NOT EXISTS timecard_audit_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		time_card_id UUID NOT NULL REFERENCES time_cards(id),
		replacement_id UUID NOT NULL REFERENCES time_cards(id),
		old_clock_in_at TIMESTAMPTZ NOT NULL,
		old_clock_out_at TIMESTAMPTZ,
		new_clock_in_at TIMESTAMPTZ NOT NULL,
		new_clock_out_at TIMESTAMPTZ,
		note TEXT,
		changed_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_timecard_audit_log_card ON timecard_audit_log (time_card_id);`,
}

func runMigrations(database *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
