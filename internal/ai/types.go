package ai

// Provider representa um provedor/modelo de IA configurável para gerar
// sugestões de tarefas quando o backend não responde
type Provider struct {
	ID       string `json:"id"`                 // "openai", "gemini", "ollama"
	Name     string `json:"name"`               // "GPT-4.1", "Gemini", "Llama 3"
	Model    string `json:"model"`              // "gpt-4.1-mini", "llama3", etc.
	APIKey   string `json:"apiKey,omitempty"`   // Nunca persistir em plaintext
	Endpoint string `json:"endpoint,omitempty"` // URL base (ex.: Ollama local)
	Enabled  bool   `json:"enabled"`
}
