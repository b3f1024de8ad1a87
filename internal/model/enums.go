package model

import "strings"

type Category string

const (
	CategoryTechnology       Category = "Technology"
	CategoryScience          Category = "Science"
	CategoryHistory          Category = "History"
	CategorySports           Category = "Sports"
	CategoryGeneralKnowledge Category = "General Knowledge"
	CategoryMathematics      Category = "Mathematics"
	CategoryLiterature       Category = "Literature"
	CategoryGeography        Category = "Geography"
	CategoryArts             Category = "Arts"
	CategoryBusiness         Category = "Business"
)

// Categories 固定的分类枚举，顺序即展示顺序
var Categories = []Category{
	CategoryTechnology,
	CategoryScience,
	CategoryHistory,
	CategorySports,
	CategoryGeneralKnowledge,
	CategoryMathematics,
	CategoryLiterature,
	CategoryGeography,
	CategoryArts,
	CategoryBusiness,
}

func (c Category) IsValid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Slug "General Knowledge" -> "general-knowledge"
func (c Category) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(c)), " ", "-")
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
