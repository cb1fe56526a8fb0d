package models

// Taxonomy is the shape shared by categories and genres.
type Taxonomy struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"type:varchar(256);not null;index" json:"name"`
	Slug string `gorm:"type:varchar(50);uniqueIndex;not null" json:"slug"`
}

func (t Taxonomy) Entry() Taxonomy { return t }

type Category struct {
	Taxonomy
}

type Genre struct {
	Taxonomy
}

func NewCategory(t Taxonomy) Category { return Category{Taxonomy: t} }

func NewGenre(t Taxonomy) Genre { return Genre{Taxonomy: t} }

type Title struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(256);not null;index" json:"name"`
	Year        int       `gorm:"not null;index" json:"year"`
	Description string    `gorm:"type:text" json:"description"`
	CategoryID  *uint     `gorm:"index" json:"-"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"category"`

	// Loaded by TitleRepository from title_genres.
	Genres []Genre `gorm:"-" json:"genre"`

	// Mean review score computed on read; nil when the title has no scored reviews.
	Rating *float64 `gorm:"->;-:migration" json:"rating"`
}

type TitleGenre struct {
	ID      uint   `gorm:"primaryKey"`
	TitleID uint   `gorm:"not null;uniqueIndex:uq_title_genre"`
	GenreID uint   `gorm:"not null;uniqueIndex:uq_title_genre;index"`
	Title   *Title `gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE"`
	Genre   *Genre `gorm:"foreignKey:GenreID;constraint:OnDelete:CASCADE"`
}
