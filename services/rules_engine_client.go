package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"tower-progression-system/utils"
)

// GameState is the rules engine's view of a freshly initialized game.
type GameState struct {
	GameID      string `json:"game_id"`
	PlayerID    string `json:"player_id"`
	OpponentID  string `json:"opponent_id"`
	FloorNumber int    `json:"floor_number,omitempty"`
}

// GameResult is the rules engine's record of a completed game, used to verify
// completion claims before rewards are applied.
type GameResult struct {
	GameID      string `json:"game_id"`
	WinnerID    string `json:"winner_id"`
	PlayerID    string `json:"player_id"`
	FloorNumber int    `json:"floor_number"`
	Finished    bool   `json:"finished"`
}

// RulesEngine is the opaque contract with the external card-battle rules
// engine. Board resolution lives entirely on its side.
type RulesEngine interface {
	InitializeGame(ctx context.Context, playerCardIDs, aiCardIDs []string, playerID, opponentID string) (*GameState, error)
	GetGameResult(ctx context.Context, gameID string) (*GameResult, error)
}

// RulesEngineClient calls the rules engine service over HTTP with the shared
// service token.
type RulesEngineClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewRulesEngineClient(baseURL, token string) *RulesEngineClient {
	return &RulesEngineClient{
		BaseURL: baseURL,
		Token:   token,
		Client:  utils.HTTPClient,
	}
}

// InitializeGame asks the rules engine to set up a board between the player's
// and the AI's card instances.
func (c *RulesEngineClient) InitializeGame(ctx context.Context, playerCardIDs, aiCardIDs []string, playerID, opponentID string) (*GameState, error) {
	payload := map[string]interface{}{
		"player_id":       playerID,
		"opponent_id":     opponentID,
		"player_card_ids": playerCardIDs,
		"ai_card_ids":     aiCardIDs,
	}
	jsonData, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/games", c.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach rules engine: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[RulesEngine] initialize returned %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("rules engine initialize failed: %d", resp.StatusCode)
	}

	var state GameState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("failed to decode rules engine response: %w", err)
	}
	return &state, nil
}

// GetGameResult fetches the authoritative result of a completed game.
func (c *RulesEngineClient) GetGameResult(ctx context.Context, gameID string) (*GameResult, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/games/%s/result", c.BaseURL, gameID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach rules engine: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		log.Printf("[RulesEngine] result for %s returned %d: %s", gameID, resp.StatusCode, string(body))
		return nil, fmt.Errorf("rules engine result fetch failed: %d", resp.StatusCode)
	}

	var result GameResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode rules engine result: %w", err)
	}
	return &result, nil
}
