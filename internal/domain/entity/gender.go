package entity

// Gender is the declared gender of an account holder.
type Gender string

const (
	GenderUnknown Gender = "unknown"
	GenderMan     Gender = "man"
	GenderWoman   Gender = "woman"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderUnknown, GenderMan, GenderWoman:
		return true
	}
	return false
}

func (g Gender) String() string { return string(g) }
