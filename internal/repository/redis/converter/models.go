package converter

type TurnRedisModel struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
