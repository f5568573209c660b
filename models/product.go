package models

import "time"

type Product struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	Name        string       `gorm:"not null" json:"name"`
	Price       float64      `gorm:"not null" json:"price"`
	Description string       `gorm:"not null" json:"description"`
	Img         string       `gorm:"not null" json:"img"`
	ImgTitle    string       `gorm:"not null" json:"imgTitle"`
	Alt         string       `gorm:"not null" json:"alt"`
	CategoryID  string       `gorm:"size:36;not null;index" json:"-"`
	Category    *CategoryRef `gorm:"-" json:"categoryId"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`
}

// ProductInput holds the text fields of a product create or update form.
// Price stays nil when the field was not sent.
type ProductInput struct {
	Name        string   `form:"name" validate:"required"`
	Price       *float64 `form:"price" validate:"required,gte=0"`
	Description string   `form:"description" validate:"required"`
	CategoryID  string   `form:"categoryId" validate:"required"`
	ImgTitle    string   `form:"imgTitle" validate:"required"`
	Alt         string   `form:"alt" validate:"required"`
}

type ProductFilter struct {
	CategoryID string
}

type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
}

// NewPagination computes the page summary for a listing.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Current: page, Pages: pages, Total: total, Limit: limit}
}

type ProductPage struct {
	Products   []Product
	Pagination Pagination
}
