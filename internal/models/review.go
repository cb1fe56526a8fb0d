package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 10
)

type Review struct {
	ID       uint      `gorm:"primaryKey"`
	TitleID  uint      `gorm:"not null;uniqueIndex:uq_review_title_author"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_review_title_author;index"`
	Text     string    `gorm:"type:text;not null"`
	Score    *int      `gorm:"check:chk_reviews_score,score IS NULL OR (score >= 1 AND score <= 10)"`
	PubDate  time.Time `gorm:"not null;index"`

	Title  *Title `gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE"`
	Author *User  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

type Comment struct {
	ID       uint      `gorm:"primaryKey"`
	ReviewID uint      `gorm:"not null;index"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"not null;index"`

	Review *Review `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	Author *User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}
