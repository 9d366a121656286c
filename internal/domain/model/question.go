package model

import (
	"time"
)

type QuestionDifficulty string
type QuestionLanguage string

const (
	DifficultyEasy   QuestionDifficulty = "Easy"
	DifficultyMedium QuestionDifficulty = "Medium"
	DifficultyHard   QuestionDifficulty = "Hard"

	LanguageCpp        QuestionLanguage = "cpp"
	LanguageJava       QuestionLanguage = "java"
	LanguagePython     QuestionLanguage = "python"
	LanguageJavaScript QuestionLanguage = "javascript"
)

var Difficulties = []QuestionDifficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
var Languages = []QuestionLanguage{LanguageCpp, LanguageJava, LanguagePython, LanguageJavaScript}

func (d QuestionDifficulty) Valid() bool {
	for _, v := range Difficulties {
		if d == v {
			return true
		}
	}
	return false
}

func (l QuestionLanguage) Valid() bool {
	for _, v := range Languages {
		if l == v {
			return true
		}
	}
	return false
}

// Extension is the source file suffix used for downloads.
func (l QuestionLanguage) Extension() string {
	switch l {
	case LanguageJava:
		return ".java"
	case LanguagePython:
		return ".py"
	case LanguageJavaScript:
		return ".js"
	default:
		return ".cpp"
	}
}

type Question struct {
	ID          string             `json:"id" bson:"_id"`
	Chapter     string             `json:"chapter" bson:"chapter"`
	Title       string             `json:"title" bson:"title"`
	Code        string             `json:"code" bson:"code"`
	Output      string             `json:"output" bson:"output"`
	Difficulty  QuestionDifficulty `json:"difficulty" bson:"difficulty"`
	Language    QuestionLanguage   `json:"language" bson:"language"`
	Explanation string             `json:"explanation" bson:"explanation"`
	Tags        []string           `json:"tags" bson:"tags"`
	FileName    string             `json:"file_name,omitempty" bson:"fileName,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updatedAt"`
}
