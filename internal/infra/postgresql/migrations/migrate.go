package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/timeroster/push-relay/internal/registry"
	"github.com/timeroster/push-relay/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_intents",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.IntentModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE INDEX IF NOT EXISTS idx_intents_status_created ON intents (status, created_at)`,
					`CREATE INDEX IF NOT EXISTS idx_intents_correlation_id ON intents (correlation_id)`,
					`CREATE INDEX IF NOT EXISTS idx_intents_stale ON intents (created_at) WHERE status = 'PENDING'`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.IntentModel{})
			},
		},
		{
			ID: "000002_create_push_endpoints",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&registry.EndpointModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&registry.EndpointModel{})
			},
		},
		{
			ID: "000003_create_contact_requests",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ContactRequestModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_contact_requests_status ON contact_requests (status)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ContactRequestModel{})
			},
		},
		{
			ID: "000004_create_contacts",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.ContactModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ContactModel{})
			},
		},
	})

	return m.Migrate()
}
