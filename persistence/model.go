package persistence

type UserRecord struct {
	UserID       string `json:"userID"`
	GoogleID     string `json:"googleId"`
	Name         string `json:"name"`
	EmailAddress string `json:"emailAddress"`
	Bio          string `json:"bio"`
	Icebreaker   string `json:"icebreaker"`
}
