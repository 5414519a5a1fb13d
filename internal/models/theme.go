package models

type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeElderly Theme = "elderly"
)

func (t Theme) Valid() bool {
	return t == ThemeDefault || t == ThemeElderly
}
