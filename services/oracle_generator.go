package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tower-progression-system/models"
	"tower-progression-system/utils"

	openai "github.com/sashabaranov/go-openai"
	"gorm.io/gorm"
)

const oracleSystemPrompt = `You design opponent decks for an endless tower in a card-battle game.
You are given the full card catalogue grouped by rarity, a reference deck from the most recent floor (to anchor difficulty), and the list of floors to generate with a target average card level for each.

Respond with ONLY a JSON array, no prose and no markdown, where each element is:
{"floor_number": int, "floor_name": string, "deck_name": string, "cards": [{"card_name": string, "level": int, "power_ups": {"top": int, "right": int, "bottom": int, "left": int}}]}

Rules:
- every deck has exactly 20 cards
- only card names that appear in the catalogue
- at most 4 legendary cards per deck, at most 4 copies of any card name
- the average card level of a deck should be close to its target
- total power-up points per card must not exceed (level-1)*2`

// OracleConfig configures the external generative service.
type OracleConfig struct {
	APIKey     string
	ModelName  string
	Timeout    int // seconds
	MaxRetries int
}

// OracleFloorGenerator builds floor decks by prompting an external generative
// service and validating its structured output. Any failure is reported as an
// error so the caller can route to the fallback generator; the completion
// caller never sees which path produced the result.
type OracleFloorGenerator struct {
	client     *openai.Client
	modelName  string
	timeout    time.Duration
	maxRetries int

	db      *gorm.DB
	catalog *CardCatalog
}

// NewOracleFloorGenerator wires the oracle client. An empty API key is an
// error by contract; main treats it as "run on the fallback generator" with a
// logged warning, not a fatal condition.
func NewOracleFloorGenerator(cfg OracleConfig, db *gorm.DB, catalog *CardCatalog) (*OracleFloorGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("oracle API key is not set")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = "deepseek/deepseek-chat-v3-0324:free"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = "https://openrouter.ai/api/v1"

	return &OracleFloorGenerator{
		client:     openai.NewClientWithConfig(clientConfig),
		modelName:  cfg.ModelName,
		timeout:    time.Duration(cfg.Timeout) * time.Second,
		maxRetries: cfg.MaxRetries,
		db:         db,
		catalog:    catalog,
	}, nil
}

// oracle request/response payload shapes

type oracleCatalogCard struct {
	Name           string `json:"name"`
	PowerTop       int    `json:"power_top"`
	PowerRight     int    `json:"power_right"`
	PowerBottom    int    `json:"power_bottom"`
	PowerLeft      int    `json:"power_left"`
	SpecialAbility string `json:"special_ability,omitempty"`
}

type oracleReferenceCard struct {
	Name            string `json:"name"`
	Level           int    `json:"level"`
	EffectiveTop    int    `json:"effective_top"`
	EffectiveRight  int    `json:"effective_right"`
	EffectiveBottom int    `json:"effective_bottom"`
	EffectiveLeft   int    `json:"effective_left"`
}

type oracleFloorTarget struct {
	FloorNumber        int     `json:"floor_number"`
	TargetAverageLevel float64 `json:"target_average_level"`
}

type oracleRequest struct {
	Catalogue     map[string][]oracleCatalogCard `json:"catalogue_by_rarity"`
	ReferenceDeck []oracleReferenceCard          `json:"reference_deck,omitempty"`
	Floors        []oracleFloorTarget            `json:"floors"`
}

func (o *OracleFloorGenerator) GenerateFloors(ctx context.Context, startFloor, count int) ([]GeneratedFloorDeck, error) {
	pools, err := o.catalog.CardsByRarity()
	if err != nil {
		return nil, err
	}
	byName, err := o.catalog.CardsByName()
	if err != nil {
		return nil, err
	}

	request := oracleRequest{
		Catalogue:     make(map[string][]oracleCatalogCard, len(pools)),
		ReferenceDeck: o.referenceDeck(),
	}
	for rarity, cards := range pools {
		for _, card := range cards {
			request.Catalogue[string(rarity)] = append(request.Catalogue[string(rarity)], oracleCatalogCard{
				Name:           card.Name,
				PowerTop:       card.PowerTop,
				PowerRight:     card.PowerRight,
				PowerBottom:    card.PowerBottom,
				PowerLeft:      card.PowerLeft,
				SpecialAbility: card.SpecialAbility,
			})
		}
	}
	for floor := startFloor; floor < startFloor+count; floor++ {
		request.Floors = append(request.Floors, oracleFloorTarget{
			FloorNumber:        floor,
			TargetAverageLevel: TargetAverageLevel(floor),
		})
	}

	inputJSON, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize oracle request: %w", err)
	}

	response, err := o.complete(ctx, string(inputJSON))
	if err != nil {
		return nil, err
	}

	o.archiveTranscript(startFloor, inputJSON, response)

	decks := o.parseAndValidate(response, byName)
	if len(decks) == 0 {
		return nil, fmt.Errorf("%w (floors %d..%d)", ErrOracleUnusable, startFloor, startFloor+count-1)
	}
	return decks, nil
}

// complete runs the retry loop against the generative service.
func (o *OracleFloorGenerator) complete(ctx context.Context, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: o.modelName,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: oracleSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: input},
			},
			Temperature: 0.7,
			MaxTokens:   8000,
			TopP:        0.95,
		})
		if err != nil {
			log.Printf("[Oracle] ❌ completion attempt %d failed: %v", attempt, err)
			if attempt >= o.maxRetries {
				return "", fmt.Errorf("oracle request failed after %d attempts: %w", attempt, err)
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			log.Printf("[Oracle] ⚠️ empty response on attempt %d", attempt)
			if attempt >= o.maxRetries {
				return "", errors.New("empty oracle response after retries")
			}
			time.Sleep(time.Duration(attempt) * time.Second)
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", errors.New("oracle retries exhausted")
}

// parseAndValidate accepts only decks whose every card resolves against the
// catalogue. Unknown names are dropped, never fabricated; over-budget power-up
// allocations are scaled down proportionally and logged rather than rejected.
func (o *OracleFloorGenerator) parseAndValidate(response string, byName map[string]models.Card) []GeneratedFloorDeck {
	var raw []GeneratedFloorDeck
	if err := json.Unmarshal([]byte(stripCodeFences(response)), &raw); err != nil {
		log.Printf("[Oracle] ❌ response is not a valid JSON floor array: %v", err)
		return nil
	}

	usable := make([]GeneratedFloorDeck, 0, len(raw))
	for _, deck := range raw {
		validated, ok := ValidateGeneratedDeck(deck, byName)
		if !ok {
			continue
		}
		usable = append(usable, validated)
	}
	return usable
}

// ValidateGeneratedDeck normalizes one oracle deck against the catalogue and
// the relaxed AI caps. Returns false when the deck cannot be used as-is
// (unknown names or cap trimming left it short of 20 cards).
func ValidateGeneratedDeck(deck GeneratedFloorDeck, byName map[string]models.Card) (GeneratedFloorDeck, bool) {
	if deck.FloorNumber < 1 {
		log.Printf("[Oracle] ⚠️ dropping deck with invalid floor number %d", deck.FloorNumber)
		return GeneratedFloorDeck{}, false
	}

	legendaries := 0
	copies := make(map[string]int)
	kept := make([]GeneratedFloorCard, 0, len(deck.Cards))
	for _, card := range deck.Cards {
		catalogCard, known := byName[card.CardName]
		if !known {
			log.Printf("[Oracle] ⚠️ floor %d: dropping unknown card %q", deck.FloorNumber, card.CardName)
			continue
		}
		if copies[card.CardName] >= AIDuplicateCap {
			log.Printf("[Oracle] ⚠️ floor %d: dropping extra copy of %q", deck.FloorNumber, card.CardName)
			continue
		}
		if catalogCard.Rarity == models.RarityLegendary {
			if legendaries >= AILegendaryCap {
				log.Printf("[Oracle] ⚠️ floor %d: dropping legendary %q over cap", deck.FloorNumber, card.CardName)
				continue
			}
			legendaries++
		}
		if card.Level < 1 {
			card.Level = 1
		}
		card.PowerUps = clampPowerUps(deck.FloorNumber, card.CardName, card.Level, card.PowerUps)
		copies[card.CardName]++
		kept = append(kept, card)
	}

	if len(kept) != DeckSize {
		log.Printf("[Oracle] ⚠️ floor %d: unusable deck, %d of %d cards survived validation", deck.FloorNumber, len(kept), DeckSize)
		return GeneratedFloorDeck{}, false
	}
	deck.Cards = kept
	return deck, true
}

// clampPowerUps scales an allocation down proportionally when it exceeds the
// (level-1)*AIPowerupsPerLevel budget, so a usable floor is never discarded
// over a minor imbalance.
func clampPowerUps(floor int, cardName string, level int, alloc PowerUpAllocation) PowerUpAllocation {
	budget := (level - 1) * AIPowerupsPerLevel
	total := alloc.Total()
	if total <= budget {
		return alloc
	}
	if budget <= 0 {
		log.Printf("[Oracle] ⚠️ floor %d: %q allocated %d power-ups at level %d, zeroing", floor, cardName, total, level)
		return PowerUpAllocation{}
	}
	scale := float64(budget) / float64(total)
	scaled := PowerUpAllocation{
		Top:    int(float64(alloc.Top) * scale),
		Right:  int(float64(alloc.Right) * scale),
		Bottom: int(float64(alloc.Bottom) * scale),
		Left:   int(float64(alloc.Left) * scale),
	}
	log.Printf("[Oracle] ⚠️ floor %d: scaled %q power-ups %d → %d (budget for level %d)",
		floor, cardName, total, scaled.Total(), level)
	return scaled
}

// referenceDeck loads the most recently generated floor's deck with per-card
// effective power, anchoring the oracle's sense of difficulty. Best effort: a
// missing reference (empty tower) just omits the section.
func (o *OracleFloorGenerator) referenceDeck() []oracleReferenceCard {
	var floor models.TowerFloor
	if err := o.db.Order("floor_number DESC").First(&floor).Error; err != nil {
		return nil
	}
	var deckCards []models.DeckCard
	if err := o.db.Preload("CardInstance.Card").
		Where("deck_id = ?", floor.AIDeckID).
		Order("position ASC").
		Find(&deckCards).Error; err != nil {
		return nil
	}

	reference := make([]oracleReferenceCard, 0, len(deckCards))
	for _, dc := range deckCards {
		ci := dc.CardInstance
		if ci == nil || ci.Card == nil {
			continue
		}
		reference = append(reference, oracleReferenceCard{
			Name:            ci.Card.Name,
			Level:           ci.Level,
			EffectiveTop:    ci.Card.PowerTop + ci.PowerUpTop,
			EffectiveRight:  ci.Card.PowerRight + ci.PowerUpRight,
			EffectiveBottom: ci.Card.PowerBottom + ci.PowerUpBottom,
			EffectiveLeft:   ci.Card.PowerLeft + ci.PowerUpLeft,
		})
	}
	return reference
}

// archiveTranscript uploads the prompt/response pair to R2 for later balance
// review. Best effort: failures are logged and ignored.
func (o *OracleFloorGenerator) archiveTranscript(startFloor int, prompt []byte, response string) {
	if !utils.R2Enabled() {
		return
	}
	transcript, err := json.Marshal(map[string]interface{}{
		"model":       o.modelName,
		"start_floor": startFloor,
		"prompt":      json.RawMessage(prompt),
		"response":    response,
		"archived_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	key := fmt.Sprintf("oracle-transcripts/floor-%d-%d.json", startFloor, time.Now().UTC().Unix())
	if _, err := utils.UploadBytesToR2(transcript, key, "application/json"); err != nil {
		log.Printf("[Oracle] ⚠️ failed to archive transcript %s: %v", key, err)
	}
}

// stripCodeFences tolerates models that wrap JSON in a markdown code block
// despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
