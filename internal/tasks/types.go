package tasks

// Status das tarefas no quadro
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// ValidStatus reporta se status é um dos três estados do quadro
func ValidStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task espelha a entidade do backend REST
type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status"`
	PIC         *string `json:"pic,omitempty"` // responsável (person in charge)
	Deadline    *string `json:"deadline,omitempty"`
	UserID      string  `json:"userId"`
	CreatedAt   string  `json:"createdAt,omitempty"`
	UpdatedAt   string  `json:"updatedAt,omitempty"`
}

// CreateInput é o payload de criação de tarefa
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	PIC         string `json:"pic,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
}

// UpdateInput é o payload parcial de atualização de tarefa
type UpdateInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	PIC         *string `json:"pic,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
}

// Suggestion é uma sugestão de tarefa (do backend ou do provider de IA)
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// State é o estado reativo do quadro para o frontend
type State struct {
	Tasks     []Task `json:"tasks"`
	IsLoading bool   `json:"isLoading"`
	Error     string `json:"error,omitempty"`
	FromCache bool   `json:"fromCache"`
}

// EventChanged é emitido sempre que a lista de tarefas muda
const EventChanged = "tasks:changed"
