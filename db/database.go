package db

import "gorm.io/gorm"

type Database interface {
	GetDB() *gorm.DB
}

type GormDatabase struct {
	DB *gorm.DB
}

func (g *GormDatabase) GetDB() *gorm.DB { return g.DB }

// Transaction runs fn inside a database transaction bound to a new Database.
func Transaction(d Database, fn func(tx Database) error) error {
	return d.GetDB().Transaction(func(tx *gorm.DB) error {
		return fn(&GormDatabase{DB: tx})
	})
}
