package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра бронирования студий.
// Ограничения, которые gorm не выражает (exclusion constraint, частичные индексы),
// добавляются SQL-миграциями в пакете db.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Location{},
		&Room{},
		&ServiceProvider{},
		&DurationOption{},
		&Upgrade{},
		&Booking{},
		&BookingUpgrade{},
		&RoomPrice{},
		&RoomPriceTier{},
		&UpgradePrice{},
		&Billing{},
		&BillingItem{},
	)
}
