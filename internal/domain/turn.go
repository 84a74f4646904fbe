package domain

// Роли реплик диалога, совпадают с ролями completion-сервиса.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn — одна реплика диалога. Живёт только в истории сессии,
// ядро её не интерпретирует.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func NewTurn(role, content string) Turn {
	return Turn{Role: role, Content: content}
}
