package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskboard/internal/credstore"
)

const requestTimeout = 30 * time.Second

// ExpiredHandler é chamado quando a sessão não pode mais ser renovada.
// A navegação para a tela de login é responsabilidade de quem fornece
// o handler (shell do app), nunca do transporte.
type ExpiredHandler func()

// Client é o transporte único do aplicativo: anexa o bearer token a cada
// requisição, normaliza o envelope de resposta e renova o access token
// em 401 com uma única repetição da requisição original.
type Client struct {
	http      *http.Client
	creds     credstore.Store
	onExpired ExpiredHandler

	mu      sync.RWMutex
	baseURL string

	refreshMu sync.Mutex
	inflight  *refreshCall
}

// refreshCall coaliza renovações concorrentes: todo 401 em voo espera a
// mesma chamada de refresh e repete sua própria requisição com o token novo
type refreshCall struct {
	done        chan struct{}
	accessToken string
	err         error
}

// NewClient cria o cliente HTTP compartilhado
func NewClient(baseURL string, creds credstore.Store, onExpired ExpiredHandler) *Client {
	if onExpired == nil {
		onExpired = func() {}
	}
	return &Client{
		http:      &http.Client{Timeout: requestTimeout},
		creds:     creds,
		onExpired: onExpired,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL retorna a URL base atual
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL troca o backend em runtime (hot reload de taskboard.json)
func (c *Client) SetBaseURL(baseURL string) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return
	}
	c.mu.Lock()
	changed := c.baseURL != baseURL
	c.baseURL = baseURL
	c.mu.Unlock()
	if changed {
		log.Printf("[API] Base URL changed to %s", baseURL)
	}
}

// Get emite GET path e decodifica a resposta em out
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post emite POST path com corpo JSON e decodifica a resposta em out
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Patch emite PATCH path com corpo JSON e decodifica a resposta em out
func (c *Client) Patch(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete emite DELETE path
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = encoded
	}

	status, respBody, err := c.issue(ctx, method, path, payload, credstore.AccessToken(c.creds))
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !isAuthExempt(path) {
		return c.handleUnauthorized(ctx, method, path, payload, respBody, out)
	}
	return c.finish(status, respBody, out)
}

// issue monta e envia uma única requisição HTTP, sem decidir nada sobre 401
func (c *Client) issue(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	return resp.StatusCode, respBody, nil
}

// handleUnauthorized renova o par de tokens e repete a requisição original
// exatamente uma vez. Falha de refresh (ou ausência de refresh token) limpa
// as credenciais e aciona o handler de sessão expirada.
func (c *Client) handleUnauthorized(ctx context.Context, method, path string, payload []byte, originalBody []byte, out interface{}) error {
	if credstore.RefreshToken(c.creds) == "" {
		c.onExpired()
		return c.finish(http.StatusUnauthorized, originalBody, out)
	}

	accessToken, err := c.refreshAccessToken(ctx)
	if err != nil {
		log.Printf("[API] Token refresh failed: %v", err)
		credstore.Clear(c.creds)
		c.onExpired()
		return c.finish(http.StatusUnauthorized, originalBody, out)
	}

	status, respBody, err := c.issue(ctx, method, path, payload, accessToken)
	if err != nil {
		return err
	}
	// O resultado da repetição é final: um segundo 401 não renova de novo
	return c.finish(status, respBody, out)
}

// refreshAccessToken garante no máximo um refresh em voo; chamadas
// concorrentes esperam e compartilham o resultado
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if call := c.inflight; call != nil {
		c.refreshMu.Unlock()
		select {
		case <-call.done:
			return call.accessToken, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	c.inflight = call
	c.refreshMu.Unlock()

	call.accessToken, call.err = c.doRefresh(ctx)
	close(call.done)

	c.refreshMu.Lock()
	c.inflight = nil
	c.refreshMu.Unlock()

	return call.accessToken, call.err
}

// doRefresh troca o refresh token por um novo par e o persiste no credstore
func (c *Client) doRefresh(ctx context.Context) (string, error) {
	refreshToken := credstore.RefreshToken(c.creds)
	if refreshToken == "" {
		return "", fmt.Errorf("no refresh token available")
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", err
	}

	// Refresh nunca carrega bearer: um access token expirado causaria 401 aqui
	status, body, err := c.issue(ctx, http.MethodPost, "/auth/refresh", payload, "")
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &Error{Status: status, Message: summarizeErrorBody(body)}
	}

	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeResponse(body, &tokens); err != nil {
		return "", fmt.Errorf("failed to parse refresh response: %w", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return "", fmt.Errorf("refresh response missing token pair")
	}

	if err := credstore.SetTokenPair(c.creds, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return "", fmt.Errorf("failed to store refreshed tokens: %w", err)
	}

	log.Println("[API] Access token refreshed")
	return tokens.AccessToken, nil
}

// finish converte status+corpo em erro tipado ou decodifica o payload em out
func (c *Client) finish(status int, body []byte, out interface{}) error {
	if status < 200 || status >= 300 {
		return &Error{Status: status, Message: summarizeErrorBody(body)}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := decodeResponse(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// isAuthExempt marca os endpoints que nunca disparam refresh em 401:
// um 401 de login/refresh significa credencial inválida, não token vencido
func isAuthExempt(path string) bool {
	switch {
	case strings.HasPrefix(path, "/auth/login"),
		strings.HasPrefix(path, "/auth/register"),
		strings.HasPrefix(path, "/auth/refresh"):
		return true
	}
	return false
}
