package shop

import (
	"time"

	"gorm.io/gorm"

	shopEntity "storefront.GO/model/entity/shop"
)

// Demo session tokens created by Seed.
const (
	DemoToken        = "demo-session-u1"
	DemoTokenOther   = "demo-session-u2"
	DemoTokenRevoked = "demo-session-revoked"
)

// Seed fills an empty database with a small furniture catalog, two
// customers with sessions, reviews and a cart for u1. A database that
// already has products is left untouched.
func Seed(db *gorm.DB) error {
	var n int64
	if err := db.Model(&shopEntity.Product{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return db.Transaction(func(tx *gorm.DB) error {
		rows := []interface{}{
			&[]shopEntity.Customer{
				{UserID: "u1", Name: "Amy", Email: "amy@example.com", Address: "台北市信義區松仁路100號"},
				{UserID: "u2", Name: "Ben", Email: "ben@example.com"},
			},
			&[]shopEntity.Session{
				{Token: DemoToken, UserID: "u1"},
				{Token: DemoTokenOther, UserID: "u2"},
				{Token: DemoTokenRevoked, UserID: "u1", Revoked: true},
			},
			&[]shopEntity.Category{
				{Code: "SOFA", Name: "沙發", Position: 1},
				{Code: "BED", Name: "床", Position: 2},
				{Code: "LEATHER", Name: "皮沙發", ParentCode: "SOFA", Position: 1},
				{Code: "FABRIC", Name: "布沙發", ParentCode: "SOFA", Position: 2},
				{Code: "DOUBLE", Name: "雙人床", ParentCode: "BED", Position: 1},
			},
			&[]shopEntity.Product{
				{ProductID: 1, Name: "Oak Leather Sofa", Description: "oak frame, full grain leather", Price: 32000, Stock: 5, MainCategory: "SOFA", CategoryID: "LEATHER", Rating: 4.5, CreatedAt: base},
				{ProductID: 2, Name: "Fabric Sofa", Description: "linen blend", Price: 18000, Stock: 10, MainCategory: "SOFA", CategoryID: "FABRIC", Rating: 4.0, CreatedAt: base.Add(24 * time.Hour)},
				{ProductID: 3, Name: "Walnut Bed", Description: "solid walnut", Price: 45000, Stock: 2, MainCategory: "BED", CategoryID: "DOUBLE", Rating: 4.8, CreatedAt: base.Add(48 * time.Hour)},
				{ProductID: 4, Name: "Compact Sofa", Description: "two seats", Price: 9000, Stock: 0, MainCategory: "SOFA", CategoryID: "FABRIC", Rating: 3.5, CreatedAt: base.Add(72 * time.Hour)},
				{ProductID: 5, Name: "Reading Lamp", Description: "brass", Price: 1200, Stock: 50, MainCategory: "DECOR", CategoryID: "LAMP", Rating: 4.9, CreatedAt: base.Add(96 * time.Hour)},
			},
			&[]shopEntity.Review{
				{ProductID: 3, UserName: "Amy", Color: "walnut", Rating: 5, Comment: "very sturdy"},
				{ProductID: 3, UserName: "Ben", Color: "walnut", Rating: 4.5, Comment: "took a week to arrive"},
			},
			&[]shopEntity.CartItem{
				{UserID: "u1", ProductID: 1, Quantity: 1},
				{UserID: "u1", ProductID: 2, Quantity: 2},
			},
		}
		for _, r := range rows {
			if err := tx.Create(r).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
