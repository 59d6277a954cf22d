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
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'application_status') THEN
			CREATE TYPE application_status AS ENUM ('DRAFT', 'SUBMITTED', 'UNDER_VERIFICATION', 'AWAITING_COMPLIANCE', 'AWAITING_APPROVAL', 'COMPLETED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'resolution_status') THEN
			CREATE TYPE resolution_status AS ENUM ('NONE', 'FOR_COMPLIANCE', 'RESOLVED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'inspection_status') THEN
			CREATE TYPE inspection_status AS ENUM ('NONE', 'PENDING', 'COMPLETED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'inspection_type') THEN
			CREATE TYPE inspection_type AS ENUM ('ROUTINE', 'REINSPECTION', 'FOLLOW_UP', 'COMPLAINT_BASED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'violation_code') THEN
			CREATE TYPE violation_code AS ENUM ('NO_SANITARY_PERMIT', 'NO_HEALTH_CERTIFICATE', 'FAILURE_RENEW_SANITARY', 'PEST_CONTROL_NONCOMPLIANCE', 'OTHER');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'violation_status') THEN
			CREATE TYPE violation_status AS ENUM ('PENDING', 'RESOLVED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'notification_category') THEN
			CREATE TYPE notification_category AS ENUM ('INSPECTION_CREATED', 'INSPECTION_COMPLETED', 'VIOLATION_ISSUED', 'PERMIT_RELEASED', 'GENERAL');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS business_applications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		bid_number VARCHAR(32),
		name VARCHAR(255) NOT NULL,
		nickname VARCHAR(255),
		establishment VARCHAR(255),
		type VARCHAR(128) NOT NULL,
		address TEXT NOT NULL,
		landmark TEXT,
		contact_person VARCHAR(255),
		contact_number VARCHAR(32),
		remarks TEXT,
		status application_status NOT NULL DEFAULT 'DRAFT',
		resolution_status resolution_status NOT NULL DEFAULT 'NONE',
		sanitary_permit_issued_at TIMESTAMPTZ,
		sanitary_permit_checklist JSONB,
		health_certificate_checklist JSONB,
		msr_checklist JSONB,
		declared_personnel INTEGER,
		health_cert_count INTEGER,
		balance_to_comply INTEGER,
		compliance_due_date TIMESTAMPTZ,
		account_id UUID NOT NULL,
		account_email VARCHAR(255),
		officer_id UUID,
		approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_business_bid_number ON business_applications (bid_number) WHERE bid_number IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_business_applications_account_id ON business_applications (account_id);`,
	`CREATE INDEX IF NOT EXISTS idx_business_applications_status ON business_applications (status);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_account_active_request
		ON business_applications (account_id)
		WHERE status IN ('SUBMITTED', 'UNDER_VERIFICATION', 'AWAITING_COMPLIANCE', 'AWAITING_APPROVAL');`,
	`CREATE TABLE IF NOT EXISTS inspection_tickets (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ticket_number VARCHAR(32) NOT NULL UNIQUE,
		business_id UUID NOT NULL REFERENCES business_applications(id) ON DELETE CASCADE,
		account_id UUID NOT NULL,
		officer_id UUID NOT NULL,
		inspection_status inspection_status NOT NULL DEFAULT 'PENDING',
		inspection_type inspection_type NOT NULL DEFAULT 'ROUTINE',
		inspection_number INTEGER NOT NULL DEFAULT 0,
		inspection_date TIMESTAMPTZ,
		checklist_sanitary_permit VARCHAR(16),
		checklist_hc_actual_count INTEGER NOT NULL DEFAULT 0,
		checklist_hc_with_cert INTEGER NOT NULL DEFAULT 0,
		checklist_hc_without_cert INTEGER NOT NULL DEFAULT 0,
		checklist_potable_water_cert VARCHAR(8),
		checklist_pest_control VARCHAR(8),
		checklist_sanitary_order1 VARCHAR(8),
		checklist_sanitary_order2 VARCHAR(8),
		remarks TEXT,
		resolution_status resolution_status NOT NULL DEFAULT 'NONE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_tickets_business_id ON inspection_tickets (business_id);`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_tickets_account_id ON inspection_tickets (account_id);`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_tickets_status ON inspection_tickets (inspection_status);`,
	`CREATE INDEX IF NOT EXISTS idx_inspection_tickets_created_at ON inspection_tickets (created_at);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_business_pending_ticket
		ON inspection_tickets (business_id)
		WHERE inspection_status = 'PENDING';`,
	`CREATE TABLE IF NOT EXISTS violations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ticket_id UUID NOT NULL REFERENCES inspection_tickets(id) ON DELETE CASCADE,
		code violation_code NOT NULL,
		description TEXT,
		penalty NUMERIC(12,2) NOT NULL,
		ordinance_section VARCHAR(64) NOT NULL DEFAULT 'Ordinance No. 53, s.2022',
		offense_count INTEGER NOT NULL DEFAULT 1,
		status violation_status NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_violations_ticket_id ON violations (ticket_id);`,
	`CREATE INDEX IF NOT EXISTS idx_violations_status ON violations (status);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		account_id UUID NOT NULL,
		business_id UUID REFERENCES business_applications(id) ON DELETE SET NULL,
		ticket_id UUID REFERENCES inspection_tickets(id) ON DELETE SET NULL,
		title VARCHAR(255),
		message TEXT NOT NULL,
		category notification_category NOT NULL DEFAULT 'GENERAL',
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_account_id ON notifications (account_id);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_is_read ON notifications (is_read);`,
	`CREATE TABLE IF NOT EXISTS application_status_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		business_id UUID NOT NULL REFERENCES business_applications(id) ON DELETE CASCADE,
		old_status application_status,
		new_status application_status NOT NULL,
		note TEXT,
		changed_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_application_status_log_business_id ON application_status_log (business_id);`,
	`CREATE TABLE IF NOT EXISTS ticket_status_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ticket_id UUID NOT NULL REFERENCES inspection_tickets(id) ON DELETE CASCADE,
		old_status inspection_status,
		new_status inspection_status NOT NULL,
		note TEXT,
		changed_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_ticket_status_log_ticket_id ON ticket_status_log (ticket_id);`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_business_applications_updated_at') THEN
			CREATE TRIGGER trg_business_applications_updated_at
				BEFORE UPDATE ON business_applications
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_inspection_tickets_updated_at') THEN
			CREATE TRIGGER trg_inspection_tickets_updated_at
				BEFORE UPDATE ON inspection_tickets
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_violations_updated_at') THEN
			CREATE TRIGGER trg_violations_updated_at
				BEFORE UPDATE ON violations
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_notifications_updated_at') THEN
			CREATE TRIGGER trg_notifications_updated_at
				BEFORE UPDATE ON notifications
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_inspection_number_range') THEN
			ALTER TABLE inspection_tickets ADD CONSTRAINT chk_inspection_number_range
				CHECK (inspection_number >= 0 AND inspection_number <= 2);
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_hc_counts_nonnegative') THEN
			ALTER TABLE inspection_tickets ADD CONSTRAINT chk_hc_counts_nonnegative
				CHECK (checklist_hc_actual_count >= 0 AND checklist_hc_with_cert >= 0 AND checklist_hc_without_cert >= 0);
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
